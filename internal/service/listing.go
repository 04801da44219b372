package service

import (
	"context"
	"fmt"

	"github.com/simonexlue/tradelens/internal/config"
	"github.com/simonexlue/tradelens/internal/cursor"
	"github.com/simonexlue/tradelens/internal/models"
	"github.com/simonexlue/tradelens/internal/repository"
)

// TradeQueryService serves cursor-paginated, filtered trade listings.
type TradeQueryService struct {
	repo repository.Repository
	cfg  config.ListingConfig
}

func NewTradeQueryService(repo repository.Repository, cfg config.ListingConfig) *TradeQueryService {
	return &TradeQueryService{repo: repo, cfg: cfg}
}

type ListParams struct {
	Limit  int
	Cursor string
	Filter repository.TradeFilter
}

// TradeListItem is a trade plus its image preview (earliest image and count).
type TradeListItem struct {
	models.Trade
	Preview *repository.ImageSummary `json:"preview,omitempty"`
}

// TradePage is one page of results. NextCursor is empty once the listing is
// exhausted.
type TradePage struct {
	Items      []TradeListItem `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// List returns one page in descending (sort_at, id) order. A malformed cursor
// fails the whole request; it never degrades to page one.
func (s *TradeQueryService) List(ctx context.Context, userID string, params ListParams) (TradePage, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}

	var seek *repository.Seek
	if params.Cursor != "" {
		cur, err := cursor.Decode(params.Cursor)
		if err != nil {
			return TradePage{}, fmt.Errorf("%w: malformed cursor", ErrInvalidInput)
		}
		seek = &repository.Seek{SortAt: cur.SortAt, ID: cur.ID}
	}

	trades, err := s.repo.ListTrades(ctx, repository.ListTradesParams{
		UserID: userID,
		Limit:  limit,
		Seek:   seek,
		Filter: params.Filter,
	})
	if err != nil {
		return TradePage{}, err
	}

	ids := make([]string, len(trades))
	for i := range trades {
		ids[i] = trades[i].ID
	}
	summaries, err := s.repo.ListTradeImageSummaries(ctx, userID, ids)
	if err != nil {
		return TradePage{}, err
	}

	page := TradePage{Items: make([]TradeListItem, len(trades))}
	for i := range trades {
		item := TradeListItem{Trade: trades[i]}
		if summary, ok := summaries[trades[i].ID]; ok {
			item.Preview = &summary
		}
		page.Items[i] = item
	}

	// A full page may be the last one; the follow-up request returns empty
	// with no cursor.
	if len(trades) == limit {
		last := trades[len(trades)-1]
		page.NextCursor = cursor.Encode(last.SortAt, last.ID)
	}
	return page, nil
}
