package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account types.
const (
	AccountTypeEval   = "eval"
	AccountTypeFunded = "funded"
	AccountTypeLive   = "live"
	AccountTypeSim    = "sim"
)

// Account is an optional grouping for trades, e.g. a prop-firm evaluation
// account. Trades referencing an account must share its owner.
type Account struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`

	Label       string           `gorm:"type:varchar(100);not null" json:"label"`
	Provider    *string          `gorm:"type:varchar(50)" json:"provider,omitempty"`
	AccountType *string          `gorm:"type:varchar(20)" json:"account_type,omitempty"`
	Size        *decimal.Decimal `gorm:"type:numeric(30,10)" json:"size,omitempty"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
}

func (Account) TableName() string {
	return "accounts"
}
