package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonexlue/tradelens/internal/models"
)

// TradeFilter is the typed filter specification for trade reads. Values
// within one dimension are OR-ed (IN semantics), dimensions are AND-ed, and
// an empty dimension imposes no constraint. Strategies are the exception:
// a trade must carry every listed strategy tag (contains-all).
type TradeFilter struct {
	Outcomes   []string
	Sessions   []string
	Strategies []string
	Symbols    []string
}

// Seek is a keyset-pagination position: only rows strictly after it in
// descending (sort_at, id) order are returned.
type Seek struct {
	SortAt time.Time
	ID     string
}

type ListTradesParams struct {
	UserID string
	Limit  int
	Seek   *Seek
	Filter TradeFilter
}

// ImageSummary annotates a trade with its earliest-created image and the
// total number of images attached.
type ImageSummary struct {
	TradeID string
	S3Key   string
	Width   *int
	Height  *int
	Count   int
}

// DuplicateProbe describes an incoming CSV row in store terms. Nil fields
// must match NULL columns, not act as wildcards.
type DuplicateProbe struct {
	Symbol     string
	Side       string
	PnL        decimal.Decimal
	TakenAt    *time.Time
	ExitAt     *time.Time
	EntryPrice *decimal.Decimal
	ExitPrice  *decimal.Decimal
	Contracts  *int
}

// Repository is the backing-store boundary. Every read and mutation that
// touches user data is scoped by the owner id; lookups that miss return
// (nil, nil) so callers decide between not-found and forbidden.
type Repository interface {
	// Trades
	InsertTrade(ctx context.Context, item *models.Trade) error
	GetTrade(ctx context.Context, userID, id string) (*models.Trade, error)
	// GetTradeOwner is deliberately unscoped: sub-resource checks need to
	// distinguish a missing trade from someone else's trade.
	GetTradeOwner(ctx context.Context, id string) (string, error)
	UpdateTradeFields(ctx context.Context, userID, id string, updates map[string]any) error
	DeleteTrade(ctx context.Context, userID, id string) error
	ListTrades(ctx context.Context, params ListTradesParams) ([]models.Trade, error)
	ListTradesBetween(ctx context.Context, userID string, from, to time.Time, filter TradeFilter) ([]models.Trade, error)
	HasDuplicateTrade(ctx context.Context, userID string, probe DuplicateProbe) (bool, error)

	// Images
	InsertImage(ctx context.Context, item *models.Image) error
	GetImage(ctx context.Context, userID, id string) (*models.Image, error)
	GetImageByKey(ctx context.Context, key string) (*models.Image, error)
	ListImagesByTradeID(ctx context.Context, userID, tradeID string) ([]models.Image, error)
	ListTradeImageSummaries(ctx context.Context, userID string, tradeIDs []string) (map[string]ImageSummary, error)
	DeleteImage(ctx context.Context, userID, id string) error
	DeleteImagesByTradeID(ctx context.Context, userID, tradeID string) error
	ListOrphanImages(ctx context.Context, limit int) ([]models.Image, error)

	// Analyses
	InsertAnalysis(ctx context.Context, item *models.Analysis) error
	LatestAnalysisByTradeID(ctx context.Context, userID, tradeID string) (*models.Analysis, error)
	DeleteAnalysesByTradeID(ctx context.Context, userID, tradeID string) error
	DeleteOrphanAnalyses(ctx context.Context) (int64, error)

	// Accounts
	InsertAccount(ctx context.Context, item *models.Account) error
	GetAccount(ctx context.Context, userID, id string) (*models.Account, error)
	ListAccounts(ctx context.Context, userID string) ([]models.Account, error)
}
