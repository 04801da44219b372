package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/simonexlue/tradelens/internal/models"
	"github.com/simonexlue/tradelens/internal/repository"
	"github.com/simonexlue/tradelens/internal/session"
	"github.com/simonexlue/tradelens/internal/storage"
)

const noteMaxLen = 3000

var validOutcomes = map[string]struct{}{
	models.OutcomeWin:       {},
	models.OutcomeLoss:      {},
	models.OutcomeBreakeven: {},
	models.OutcomeEarlyExit: {},
}

var validSides = map[string]struct{}{
	models.SideBuy:  {},
	models.SideSell: {},
}

// TradeService owns trade create/read/update/delete. Deleting a trade also
// clears its images and analyses so nothing dangles.
type TradeService struct {
	repo   repository.Repository
	store  storage.ObjectStore
	logger *zap.Logger
}

func NewTradeService(repo repository.Repository, store storage.ObjectStore, logger *zap.Logger) *TradeService {
	return &TradeService{repo: repo, store: store, logger: logger}
}

type CreateTradeParams struct {
	Note       string
	TakenAt    *time.Time
	ExitAt     *time.Time
	Outcome    *string
	Strategies []string
	Mistakes   []string
	Side       *string
	EntryPrice *decimal.Decimal
	ExitPrice  *decimal.Decimal
	Contracts  *int
	PnL        *decimal.Decimal
	Symbol     string
	AccountID  *string
}

func (s *TradeService) Create(ctx context.Context, userID string, params CreateTradeParams) (*models.Trade, error) {
	if len(params.Note) > noteMaxLen {
		return nil, fmt.Errorf("%w: note exceeds %d characters", ErrInvalidInput, noteMaxLen)
	}
	outcome, err := normalizeOutcome(params.Outcome)
	if err != nil {
		return nil, err
	}
	side, err := normalizeSide(params.Side)
	if err != nil {
		return nil, err
	}
	if params.AccountID != nil {
		acct, err := s.repo.GetAccount(ctx, userID, *params.AccountID)
		if err != nil {
			return nil, err
		}
		if acct == nil {
			return nil, fmt.Errorf("%w: unknown account", ErrInvalidInput)
		}
	}

	now := time.Now().UTC()
	takenAt := now
	if params.TakenAt != nil {
		takenAt = params.TakenAt.UTC()
	}

	item := &models.Trade{
		ID:         uuid.NewString(),
		UserID:     userID,
		AccountID:  params.AccountID,
		Note:       params.Note,
		TakenAt:    takenAt,
		ExitAt:     utcPtr(params.ExitAt),
		Outcome:    outcome,
		Strategies: tagsJSON(params.Strategies),
		Mistakes:   tagsJSON(params.Mistakes),
		Side:       side,
		EntryPrice: params.EntryPrice,
		ExitPrice:  params.ExitPrice,
		Contracts:  params.Contracts,
		PnL:        params.PnL,
		Symbol:     strings.ToUpper(strings.TrimSpace(params.Symbol)),
		SortAt:     takenAt,
	}
	if label, err := session.Infer(takenAt); err == nil {
		item.Session = &label
	}

	if err := s.repo.InsertTrade(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Get hides trades of other owners behind not-found so direct lookups cannot
// probe for existence. Sub-resource checks use tradeAccessError instead.
func (s *TradeService) Get(ctx context.Context, userID, id string) (*models.Trade, error) {
	item, err := s.repo.GetTrade(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: trade %s", ErrNotFound, id)
	}
	return item, nil
}

type UpdateTradeParams struct {
	Note       *string
	TakenAt    *time.Time
	ExitAt     *time.Time
	Outcome    *string
	Strategies *[]string
	Mistakes   *[]string
	Side       *string
	EntryPrice *decimal.Decimal
	ExitPrice  *decimal.Decimal
	Contracts  *int
	PnL        *decimal.Decimal
	Symbol     *string
	AccountID  *string
}

// Update applies the provided fields only. Changing taken_at recomputes the
// inferred session and the listing sort key.
func (s *TradeService) Update(ctx context.Context, userID, id string, params UpdateTradeParams) (*models.Trade, error) {
	existing, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if params.Note != nil {
		if len(*params.Note) > noteMaxLen {
			return nil, fmt.Errorf("%w: note exceeds %d characters", ErrInvalidInput, noteMaxLen)
		}
		updates["note"] = *params.Note
	}
	if params.Outcome != nil {
		outcome, err := normalizeOutcome(params.Outcome)
		if err != nil {
			return nil, err
		}
		updates["outcome"] = outcome
	}
	if params.Side != nil {
		side, err := normalizeSide(params.Side)
		if err != nil {
			return nil, err
		}
		updates["side"] = side
	}
	if params.AccountID != nil {
		acct, err := s.repo.GetAccount(ctx, userID, *params.AccountID)
		if err != nil {
			return nil, err
		}
		if acct == nil {
			return nil, fmt.Errorf("%w: unknown account", ErrInvalidInput)
		}
		updates["account_id"] = *params.AccountID
	}
	if params.TakenAt != nil {
		takenAt := params.TakenAt.UTC()
		updates["taken_at"] = takenAt
		updates["sort_at"] = takenAt
		if label, err := session.Infer(takenAt); err == nil {
			updates["session"] = label
		}
	}
	if params.ExitAt != nil {
		updates["exit_at"] = params.ExitAt.UTC()
	}
	if params.Strategies != nil {
		updates["strategies"] = tagsJSON(*params.Strategies)
	}
	if params.Mistakes != nil {
		updates["mistakes"] = tagsJSON(*params.Mistakes)
	}
	if params.EntryPrice != nil {
		updates["entry_price"] = *params.EntryPrice
	}
	if params.ExitPrice != nil {
		updates["exit_price"] = *params.ExitPrice
	}
	if params.Contracts != nil {
		updates["contracts"] = *params.Contracts
	}
	if params.PnL != nil {
		updates["pnl"] = *params.PnL
	}
	if params.Symbol != nil {
		updates["symbol"] = strings.ToUpper(strings.TrimSpace(*params.Symbol))
	}

	if len(updates) == 0 {
		return existing, nil
	}
	if err := s.repo.UpdateTradeFields(ctx, userID, id, updates); err != nil {
		return nil, err
	}
	return s.repo.GetTrade(ctx, userID, id)
}

// Delete removes the trade, its image rows and objects, and its analyses.
// Object deletion is best-effort; the reconcile job sweeps stragglers.
func (s *TradeService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}

	images, err := s.repo.ListImagesByTradeID(ctx, userID, id)
	if err != nil {
		return err
	}
	for _, img := range images {
		if err := s.store.Delete(ctx, img.S3Key); err != nil {
			s.logger.Warn("delete trade: leaving object for reconcile",
				zap.String("s3_key", img.S3Key), zap.Error(err))
		}
	}
	if err := s.repo.DeleteImagesByTradeID(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.DeleteAnalysesByTradeID(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.DeleteTrade(ctx, userID, id)
}

// tradeAccessError resolves a scoped miss on a sub-resource check into
// not-found vs forbidden by checking whether the trade exists under any
// owner. Direct trade reads never use this; only sub-resources expose the
// distinction.
func tradeAccessError(ctx context.Context, repo repository.Repository, id string) error {
	owner, err := repo.GetTradeOwner(ctx, id)
	if err != nil {
		return err
	}
	if owner == "" {
		return fmt.Errorf("%w: trade %s", ErrNotFound, id)
	}
	return fmt.Errorf("%w: trade %s", ErrForbidden, id)
}

func normalizeOutcome(v *string) (*string, error) {
	if v == nil {
		return nil, nil
	}
	outcome := strings.ToLower(strings.TrimSpace(*v))
	if _, ok := validOutcomes[outcome]; !ok {
		return nil, fmt.Errorf("%w: unknown outcome %q", ErrInvalidInput, *v)
	}
	return &outcome, nil
}

func normalizeSide(v *string) (*string, error) {
	if v == nil {
		return nil, nil
	}
	side := strings.ToLower(strings.TrimSpace(*v))
	if _, ok := validSides[side]; !ok {
		return nil, fmt.Errorf("%w: unknown side %q", ErrInvalidInput, *v)
	}
	return &side, nil
}

func tagsJSON(tags []string) datatypes.JSON {
	if tags == nil {
		return nil
	}
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	raw, _ := json.Marshal(cleaned)
	return datatypes.JSON(raw)
}

func utcPtr(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	utc := v.UTC()
	return &utc
}
