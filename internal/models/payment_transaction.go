package models

import (
	"time"

	"gorm.io/datatypes"
)

// PaymentTransaction - отметка о зачислении по платёжному намерению.
// IntentID уникален: одно намерение зачисляется ровно один раз.
type PaymentTransaction struct {
	BaseModel
	IntentID string        `gorm:"type:varchar(255);uniqueIndex;not null" json:"intentId"`
	UserID   string        `gorm:"type:varchar(36);not null;index" json:"userId"`
	Package  string        `gorm:"type:varchar(20);not null" json:"package"`
	Credits  int           `gorm:"not null" json:"credits"`
	Amount   int64         `gorm:"not null" json:"amount"` // в минорных единицах
	Currency string        `gorm:"type:varchar(8);not null" json:"currency"`
	Status   PaymentStatus `gorm:"type:varchar(20);not null" json:"status"`
	Source   string        `gorm:"type:varchar(20)" json:"source"` // client, webhook
	PaidAt   *time.Time    `json:"paidAt,omitempty"`

	Metadata datatypes.JSONMap `json:"metadata,omitempty"`
}
