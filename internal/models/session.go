package models

import "time"

// Session - серверная сессия. Cookie хранит только подписанную ссылку на неё.
type Session struct {
	BaseModel
	UserID    string    `gorm:"type:varchar(36);not null;index" json:"userId"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expiresAt"`
	UserAgent string    `gorm:"type:varchar(255)" json:"-"`
	IP        string    `gorm:"type:varchar(64)" json:"-"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
