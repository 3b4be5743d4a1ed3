package models

import (
	"time"

	"gorm.io/datatypes"
)

// StartingCredits - баланс нового аккаунта
const StartingCredits = 10

type NotificationSettings struct {
	Email        bool `json:"email"`
	StyleUpdates bool `json:"styleUpdates"`
	Credits      bool `json:"credits"`
}

type UserPreferences struct {
	Style         string               `json:"style"`
	Age           *int                 `json:"age,omitempty"`
	HairColor     string               `json:"hairColor"`
	HairStyle     string               `json:"hairStyle"`
	Notifications NotificationSettings `json:"notifications"`
}

// UserInterests - теги для подбора образов
type UserInterests struct {
	FashionStyles  []string `json:"fashionStyles"`
	FavoriteColors []string `json:"favoriteColors"`
	Occasions      []string `json:"occasions"`
}

type User struct {
	BaseModel
	Username     string   `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Email        string   `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Role         UserRole `gorm:"type:varchar(20);not null" json:"role"`

	Credits          int              `gorm:"not null" json:"credits"`
	Subscription     SubscriptionPlan `gorm:"type:varchar(20);not null" json:"subscription"`
	SubscriptionEnds *time.Time       `json:"subscriptionEnds,omitempty"`

	HasAccess              bool `gorm:"not null" json:"hasAccess"`
	HasCompletedOnboarding bool `gorm:"not null" json:"hasCompletedOnboarding"`

	Preferences datatypes.JSONType[UserPreferences] `json:"preferences"`
	Interests   datatypes.JSONType[UserInterests]   `json:"interests"`

	// Токен установки пароля (выдаётся при одобрении заявки)
	PasswordResetToken   *string    `gorm:"type:varchar(128);index" json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}
