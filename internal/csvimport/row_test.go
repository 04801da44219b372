package csvimport

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/simonexlue/tradelens/internal/models"
)

func TestOutcomeFromPnL(t *testing.T) {
	tests := []struct {
		pnl  string
		want string
	}{
		{"125.50", models.OutcomeWin},
		{"0.01", models.OutcomeWin},
		{"-80", models.OutcomeLoss},
		{"0", models.OutcomeBreakeven},
		{"0.00", models.OutcomeBreakeven},
	}
	for _, tt := range tests {
		if got := OutcomeFromPnL(decimal.RequireFromString(tt.pnl)); got != tt.want {
			t.Fatalf("OutcomeFromPnL(%s) = %q, want %q", tt.pnl, got, tt.want)
		}
	}
}

func TestDedupeKeyNormalizesSymbolAndPnL(t *testing.T) {
	a := Row{Symbol: " es ", Side: "buy", PnL: decimal.RequireFromString("100.005"), EntryTime: "10/22/2025 00:20:00 -07:00"}
	b := Row{Symbol: "ES", Side: "buy", PnL: decimal.RequireFromString("100.01"), EntryTime: "10/22/2025 00:20:00 -07:00"}
	if a.DedupeKey() != b.DedupeKey() {
		t.Fatalf("keys differ:\n%s\n%s", a.DedupeKey(), b.DedupeKey())
	}
}

func TestDedupeKeyDistinguishesFields(t *testing.T) {
	one := 1
	two := 2
	base := Row{Symbol: "ES", Side: "buy", PnL: decimal.RequireFromString("100"), Contracts: &one}
	variants := []Row{
		{Symbol: "NQ", Side: "buy", PnL: decimal.RequireFromString("100"), Contracts: &one},
		{Symbol: "ES", Side: "sell", PnL: decimal.RequireFromString("100"), Contracts: &one},
		{Symbol: "ES", Side: "buy", PnL: decimal.RequireFromString("101"), Contracts: &one},
		{Symbol: "ES", Side: "buy", PnL: decimal.RequireFromString("100"), Contracts: &two},
		{Symbol: "ES", Side: "buy", PnL: decimal.RequireFromString("100"), Contracts: &one, EntryTime: "12/09/2025 11:50:16"},
	}
	for i, v := range variants {
		if base.DedupeKey() == v.DedupeKey() {
			t.Fatalf("variant %d collides with base key %s", i, base.DedupeKey())
		}
	}
}

func TestDedupeKeyNilVsZeroPrice(t *testing.T) {
	zero := decimal.Zero
	withPrice := Row{Symbol: "ES", Side: "buy", EntryPrice: &zero}
	without := Row{Symbol: "ES", Side: "buy"}
	if withPrice.DedupeKey() == without.DedupeKey() {
		t.Fatalf("nil and zero entry price must not collide")
	}
}
