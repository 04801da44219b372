package models

import (
	"time"

	"gorm.io/datatypes"
)

// Analysis is AI-generated coaching output for a trade, built from one source
// image. A trade may accumulate several rows (re-analysis); readers surface
// the most recent by CreatedAt.
type Analysis struct {
	ID      string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID  string `gorm:"type:uuid;not null;index" json:"user_id"`
	TradeID string `gorm:"type:uuid;not null;index" json:"trade_id"`
	ImageID string `gorm:"type:uuid;not null" json:"image_id"`

	WhatHappened string         `gorm:"type:text" json:"what_happened"`
	WhyResult    string         `gorm:"type:text" json:"why_result"`
	Tips         datatypes.JSON `gorm:"type:jsonb" json:"tips"`
	Model        string         `gorm:"type:varchar(60)" json:"model"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index" json:"created_at"`
}

func (Analysis) TableName() string {
	return "trade_analysis"
}
