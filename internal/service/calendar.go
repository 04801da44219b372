package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonexlue/tradelens/internal/models"
	"github.com/simonexlue/tradelens/internal/repository"
)

// CalendarService aggregates a month of trades into per-day buckets for the
// calendar view.
type CalendarService struct {
	repo repository.Repository
}

func NewCalendarService(repo repository.Repository) *CalendarService {
	return &CalendarService{repo: repo}
}

// DayBucket is one calendar cell: UTC date, realized pnl sum, trade count.
type DayBucket struct {
	Date   string          `json:"date"`
	PnL    decimal.Decimal `json:"pnl"`
	Trades int             `json:"trades"`
}

// Month aggregates [first of month, first of next month) by UTC calendar day.
// Days without trades are omitted.
func (s *CalendarService) Month(ctx context.Context, userID string, year, month int, filter repository.TradeFilter) ([]DayBucket, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month out of range", ErrInvalidInput)
	}
	if year < 2000 || year > 2200 {
		return nil, fmt.Errorf("%w: year out of range", ErrInvalidInput)
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	trades, err := s.repo.ListTradesBetween(ctx, userID, from, to, filter)
	if err != nil {
		return nil, err
	}
	return bucketByDay(trades), nil
}

func bucketByDay(trades []models.Trade) []DayBucket {
	byDay := map[string]*DayBucket{}
	for _, t := range trades {
		day := t.TakenAt.UTC().Format("2006-01-02")
		bucket, ok := byDay[day]
		if !ok {
			bucket = &DayBucket{Date: day}
			byDay[day] = bucket
		}
		if t.PnL != nil {
			bucket.PnL = bucket.PnL.Add(*t.PnL)
		}
		bucket.Trades++
	}

	out := make([]DayBucket, 0, len(byDay))
	for _, bucket := range byDay {
		out = append(out, *bucket)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
