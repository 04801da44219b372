package csvimport

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/simonexlue/tradelens/internal/models"
)

// Row is one parsed line of a broker CSV export. Timestamps stay raw here;
// normalization happens per-row during import so one bad value cannot fail
// the batch.
type Row struct {
	Symbol     string           `json:"symbol" binding:"required"`
	Side       string           `json:"side" binding:"required"`
	PnL        decimal.Decimal  `json:"pnl"`
	EntryTime  string           `json:"entry_time"`
	ExitTime   string           `json:"exit_time"`
	EntryPrice *decimal.Decimal `json:"entry_price"`
	ExitPrice  *decimal.Decimal `json:"exit_price"`
	Contracts  *int             `json:"contracts"`
	Duration   *int             `json:"duration"`
}

// OutcomeFromPnL derives the trade outcome from the sign of realized pnl.
func OutcomeFromPnL(pnl decimal.Decimal) string {
	switch pnl.Sign() {
	case 1:
		return models.OutcomeWin
	case -1:
		return models.OutcomeLoss
	default:
		return models.OutcomeBreakeven
	}
}

// DedupeKey builds the structural identity used to suppress duplicates within
// one import batch: normalized symbol and side, pnl rounded to cents, the raw
// time strings, prices, and contract count. Two rows with equal keys are the
// same fill exported twice.
func (r Row) DedupeKey() string {
	parts := []string{
		strings.ToUpper(strings.TrimSpace(r.Symbol)),
		strings.ToLower(strings.TrimSpace(r.Side)),
		r.PnL.Round(2).String(),
		strings.TrimSpace(r.EntryTime),
		strings.TrimSpace(r.ExitTime),
		decimalKeyPart(r.EntryPrice),
		decimalKeyPart(r.ExitPrice),
		intKeyPart(r.Contracts),
	}
	return strings.Join(parts, "|")
}

func decimalKeyPart(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.String()
}

func intKeyPart(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}
