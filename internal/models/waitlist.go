package models

import "time"

type WaitlistEntry struct {
	BaseModel
	Email      string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name       string         `gorm:"type:varchar(255);not null" json:"name"`
	Reason     string         `gorm:"type:text" json:"reason,omitempty"`
	Status     WaitlistStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	ApprovedAt *time.Time     `json:"approvedAt,omitempty"`
}

func (WaitlistEntry) TableName() string {
	return "waitlist"
}
