package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonexlue/tradelens/internal/models"
)

func statsTrade(id string, takenAt time.Time, pnl string, outcome string) *models.Trade {
	t := calTrade(id, "u1", takenAt, decPtr(pnl))
	if outcome != "" {
		t.Outcome = &outcome
	}
	return t
}

func TestStatsSummary(t *testing.T) {
	// Wednesday, so the week window opens Monday Oct 20.
	now := time.Date(2025, 10, 22, 18, 0, 0, 0, time.UTC)
	repo := &stubRepo{}
	repo.trades = append(repo.trades,
		statsTrade("today", time.Date(2025, 10, 22, 10, 0, 0, 0, time.UTC), "100", models.OutcomeWin),
		statsTrade("this-week", time.Date(2025, 10, 21, 10, 0, 0, 0, time.UTC), "-40", models.OutcomeLoss),
		statsTrade("this-month", time.Date(2025, 10, 5, 10, 0, 0, 0, time.UTC), "10", models.OutcomeWin),
		statsTrade("stale", time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC), "999", models.OutcomeWin),
	)
	svc := NewStatsService(repo)
	svc.now = func() time.Time { return now }

	stats, err := svc.Summary(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if !stats.TodayPnL.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("today pnl: got %s", stats.TodayPnL)
	}
	if !stats.WeekPnL.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("week pnl: got %s", stats.WeekPnL)
	}
	if stats.WinRateLast30 != 66.67 {
		t.Fatalf("win rate: got %v", stats.WinRateLast30)
	}
	if !stats.AvgPnLLast30.Equal(decimal.RequireFromString("23.33")) {
		t.Fatalf("avg pnl: got %s", stats.AvgPnLLast30)
	}
}

func TestStatsSummaryEmpty(t *testing.T) {
	svc := NewStatsService(&stubRepo{})
	stats, err := svc.Summary(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if !stats.TodayPnL.IsZero() || !stats.WeekPnL.IsZero() || stats.WinRateLast30 != 0 || !stats.AvgPnLLast30.IsZero() {
		t.Fatalf("empty journal should yield zeros: %+v", stats)
	}
}

func TestStatsIgnoresUndecidedOutcomes(t *testing.T) {
	now := time.Date(2025, 10, 22, 18, 0, 0, 0, time.UTC)
	repo := &stubRepo{}
	repo.trades = append(repo.trades,
		statsTrade("win", time.Date(2025, 10, 20, 10, 0, 0, 0, time.UTC), "50", models.OutcomeWin),
		statsTrade("be", time.Date(2025, 10, 20, 11, 0, 0, 0, time.UTC), "0", models.OutcomeBreakeven),
		statsTrade("open", time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC), "5", ""),
	)
	svc := NewStatsService(repo)
	svc.now = func() time.Time { return now }

	stats, err := svc.Summary(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	// Only win/loss count toward the rate.
	if stats.WinRateLast30 != 100 {
		t.Fatalf("win rate should exclude breakevens and open trades: %v", stats.WinRateLast30)
	}
}
