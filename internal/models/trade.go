package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Trade outcome values.
const (
	OutcomeWin       = "win"
	OutcomeLoss      = "loss"
	OutcomeBreakeven = "breakeven"
	OutcomeEarlyExit = "early_exit"
)

// Trade sides.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Trade is one journal entry. Every row is scoped by UserID; only the owner
// may read, mutate, or delete it.
type Trade struct {
	ID        string  `gorm:"type:uuid;primaryKey;index:idx_trades_seek,priority:3" json:"id"`
	UserID    string  `gorm:"type:uuid;not null;index;index:idx_trades_seek,priority:1" json:"user_id"`
	AccountID *string `gorm:"type:uuid;index" json:"account_id,omitempty"`

	Note string `gorm:"type:text" json:"note"`

	// TakenAt is the entry instant (UTC). ExitAt is optional.
	TakenAt time.Time  `gorm:"type:timestamptz;not null" json:"taken_at"`
	ExitAt  *time.Time `gorm:"type:timestamptz" json:"exit_at,omitempty"`

	Outcome    *string        `gorm:"type:varchar(20);index" json:"outcome,omitempty"`
	Strategies datatypes.JSON `gorm:"type:jsonb" json:"strategies,omitempty"`
	Mistakes   datatypes.JSON `gorm:"type:jsonb" json:"mistakes,omitempty"`

	Side       *string          `gorm:"type:varchar(10)" json:"side,omitempty"`
	EntryPrice *decimal.Decimal `gorm:"type:numeric(30,10)" json:"entry_price,omitempty"`
	ExitPrice  *decimal.Decimal `gorm:"type:numeric(30,10)" json:"exit_price,omitempty"`
	Contracts  *int             `json:"contracts,omitempty"`
	PnL        *decimal.Decimal `gorm:"column:pnl;type:numeric(30,10)" json:"pnl,omitempty"`

	// Symbol is normalized upper-case before storage so filters can match on
	// equality.
	Symbol  string  `gorm:"type:varchar(30);index" json:"symbol,omitempty"`
	Session *string `gorm:"type:varchar(20);index" json:"session,omitempty"`

	// SortAt is the authoritative listing sort key: taken_at when set at
	// creation, otherwise the creation instant. Distinct from CreatedAt.
	SortAt time.Time `gorm:"type:timestamptz;not null;index:idx_trades_seek,priority:2" json:"sort_at"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (Trade) TableName() string {
	return "trades"
}
