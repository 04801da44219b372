package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonexlue/tradelens/internal/models"
	"github.com/simonexlue/tradelens/internal/repository"
)

// StatsService computes the dashboard headline numbers.
type StatsService struct {
	repo repository.Repository
	now  func() time.Time
}

func NewStatsService(repo repository.Repository) *StatsService {
	return &StatsService{repo: repo, now: time.Now}
}

// TradeStats mirrors the dashboard widget: pnl for today and the current week,
// win rate and average pnl over the trailing 30 days.
type TradeStats struct {
	TodayPnL      decimal.Decimal `json:"todayPnl"`
	WeekPnL       decimal.Decimal `json:"weekPnl"`
	WinRateLast30 float64         `json:"winRateLast30"`
	AvgPnLLast30  decimal.Decimal `json:"avgPnlLast30"`
}

// Summary buckets by entry time in UTC: today is the current UTC calendar day,
// the week starts Monday 00:00 UTC, and the 30-day window trails now.
func (s *StatsService) Summary(ctx context.Context, userID string) (TradeStats, error) {
	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := dayStart.AddDate(0, 0, -mondayOffset(dayStart.Weekday()))
	windowStart := now.AddDate(0, 0, -30)

	from := windowStart
	if weekStart.Before(from) {
		from = weekStart
	}
	trades, err := s.repo.ListTradesBetween(ctx, userID, from, now.Add(time.Second), repository.TradeFilter{})
	if err != nil {
		return TradeStats{}, err
	}

	var stats TradeStats
	var wins, decided, counted int
	var sumLast30 decimal.Decimal
	for _, t := range trades {
		pnl := decimal.Zero
		if t.PnL != nil {
			pnl = *t.PnL
		}
		takenAt := t.TakenAt.UTC()
		if !takenAt.Before(dayStart) {
			stats.TodayPnL = stats.TodayPnL.Add(pnl)
		}
		if !takenAt.Before(weekStart) {
			stats.WeekPnL = stats.WeekPnL.Add(pnl)
		}
		if takenAt.Before(windowStart) {
			continue
		}
		if t.PnL != nil {
			sumLast30 = sumLast30.Add(pnl)
			counted++
		}
		if t.Outcome != nil {
			switch *t.Outcome {
			case models.OutcomeWin:
				wins++
				decided++
			case models.OutcomeLoss:
				decided++
			}
		}
	}
	if decided > 0 {
		rate, _ := decimal.NewFromInt(int64(wins * 100)).
			DivRound(decimal.NewFromInt(int64(decided)), 2).Float64()
		stats.WinRateLast30 = rate
	}
	if counted > 0 {
		stats.AvgPnLLast30 = sumLast30.DivRound(decimal.NewFromInt(int64(counted)), 2)
	}
	return stats, nil
}

func mondayOffset(day time.Weekday) int {
	if day == time.Sunday {
		return 6
	}
	return int(day) - 1
}
