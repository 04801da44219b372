package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simonexlue/tradelens/internal/models"
	"github.com/simonexlue/tradelens/internal/repository"
)

var validAccountTypes = map[string]struct{}{
	models.AccountTypeEval:   {},
	models.AccountTypeFunded: {},
	models.AccountTypeLive:   {},
	models.AccountTypeSim:    {},
}

// AccountService manages the optional trading-account groupings.
type AccountService struct {
	repo repository.Repository
}

func NewAccountService(repo repository.Repository) *AccountService {
	return &AccountService{repo: repo}
}

type CreateAccountParams struct {
	Label       string
	Provider    *string
	AccountType *string
	Size        *decimal.Decimal
}

func (s *AccountService) Create(ctx context.Context, userID string, params CreateAccountParams) (*models.Account, error) {
	label := strings.TrimSpace(params.Label)
	if label == "" {
		return nil, fmt.Errorf("%w: label required", ErrInvalidInput)
	}
	if params.AccountType != nil {
		accountType := strings.ToLower(strings.TrimSpace(*params.AccountType))
		if _, ok := validAccountTypes[accountType]; !ok {
			return nil, fmt.Errorf("%w: unknown account type %q", ErrInvalidInput, *params.AccountType)
		}
		params.AccountType = &accountType
	}

	item := &models.Account{
		ID:          uuid.NewString(),
		UserID:      userID,
		Label:       label,
		Provider:    params.Provider,
		AccountType: params.AccountType,
		Size:        params.Size,
	}
	if err := s.repo.InsertAccount(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *AccountService) Get(ctx context.Context, userID, id string) (*models.Account, error) {
	item, err := s.repo.GetAccount(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: account %s", ErrNotFound, id)
	}
	return item, nil
}

func (s *AccountService) List(ctx context.Context, userID string) ([]models.Account, error) {
	return s.repo.ListAccounts(ctx, userID)
}
