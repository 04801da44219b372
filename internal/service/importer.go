package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/simonexlue/tradelens/internal/csvimport"
	"github.com/simonexlue/tradelens/internal/models"
	"github.com/simonexlue/tradelens/internal/repository"
	"github.com/simonexlue/tradelens/internal/session"
)

// ImportService ingests parsed broker CSV rows, suppressing duplicates both
// within the batch and against already-stored trades.
type ImportService struct {
	repo   repository.Repository
	logger *zap.Logger
}

func NewImportService(repo repository.Repository, logger *zap.Logger) *ImportService {
	return &ImportService{repo: repo, logger: logger}
}

// ImportResult counts every input row exactly once.
type ImportResult struct {
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// Import processes rows independently: one bad row is counted failed and the
// rest proceed. Only an unusable account fails the whole batch.
func (s *ImportService) Import(ctx context.Context, userID string, accountID *string, rows []csvimport.Row) (ImportResult, error) {
	if accountID != nil {
		acct, err := s.repo.GetAccount(ctx, userID, *accountID)
		if err != nil {
			return ImportResult{}, err
		}
		if acct == nil {
			return ImportResult{}, fmt.Errorf("%w: unknown account", ErrInvalidInput)
		}
	}

	var result ImportResult
	seen := map[string]struct{}{}
	for i, row := range rows {
		entryAt, err := csvimport.ParseVendorTime(row.EntryTime)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: bad entry time %q", i+1, row.EntryTime))
			continue
		}
		exitAt, err := csvimport.ParseVendorTime(row.ExitTime)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: bad exit time %q", i+1, row.ExitTime))
			continue
		}

		// Only rows that normalize claim a dedupe key; a failed row must not
		// shadow a later valid one.
		key := row.DedupeKey()
		if _, dup := seen[key]; dup {
			result.Skipped++
			continue
		}
		seen[key] = struct{}{}

		dup, err := s.repo.HasDuplicateTrade(ctx, userID, repository.DuplicateProbe{
			Symbol:     row.Symbol,
			Side:       row.Side,
			PnL:        row.PnL,
			TakenAt:    entryAt,
			ExitAt:     exitAt,
			EntryPrice: row.EntryPrice,
			ExitPrice:  row.ExitPrice,
			Contracts:  row.Contracts,
		})
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: duplicate check failed", i+1))
			continue
		}
		if dup {
			result.Skipped++
			continue
		}

		item := buildImportedTrade(userID, accountID, row, entryAt, exitAt)
		if err := s.repo.InsertTrade(ctx, item); err != nil {
			s.logger.Warn("import: insert failed", zap.Int("row", i+1), zap.Error(err))
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: insert failed", i+1))
			continue
		}
		result.Inserted++
	}
	return result, nil
}

func buildImportedTrade(userID string, accountID *string, row csvimport.Row, entryAt, exitAt *time.Time) *models.Trade {
	now := time.Now().UTC()
	takenAt := now
	if entryAt != nil {
		takenAt = *entryAt
	}
	outcome := csvimport.OutcomeFromPnL(row.PnL)
	side := strings.ToLower(strings.TrimSpace(row.Side))
	pnl := row.PnL

	item := &models.Trade{
		ID:         uuid.NewString(),
		UserID:     userID,
		AccountID:  accountID,
		TakenAt:    takenAt,
		ExitAt:     exitAt,
		Outcome:    &outcome,
		Side:       &side,
		EntryPrice: row.EntryPrice,
		ExitPrice:  row.ExitPrice,
		Contracts:  row.Contracts,
		PnL:        &pnl,
		Symbol:     strings.ToUpper(strings.TrimSpace(row.Symbol)),
		SortAt:     takenAt,
	}
	if label, err := session.Infer(takenAt); err == nil {
		item.Session = &label
	}
	return item
}
