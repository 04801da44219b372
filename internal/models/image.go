package models

import "time"

// Image is a chart screenshot attached to exactly one trade. The object lives
// in S3 under a key namespaced by owner and trade; the row only records
// metadata.
type Image struct {
	ID      string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID  string `gorm:"type:uuid;not null;index" json:"user_id"`
	TradeID string `gorm:"type:uuid;not null;index" json:"trade_id"`

	S3Key       string `gorm:"type:text;not null;uniqueIndex" json:"s3_key"`
	ContentType string `gorm:"type:varchar(40);not null" json:"content_type"`
	Width       *int   `json:"width,omitempty"`
	Height      *int   `json:"height,omitempty"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index" json:"created_at"`
}

func (Image) TableName() string {
	return "images"
}
