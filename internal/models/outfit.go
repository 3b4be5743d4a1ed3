package models

import "gorm.io/datatypes"

type Outfit struct {
	BaseModel
	UserID      string `gorm:"type:varchar(36);not null;index" json:"userId"`
	Title       string `gorm:"type:varchar(255);not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	ImageURL    string `gorm:"not null" json:"imageUrl"`
	Occasion    string `gorm:"type:varchar(100)" json:"occasion,omitempty"`

	Ratings []Rating `gorm:"foreignKey:OutfitID;constraint:OnDelete:CASCADE" json:"-"`
}

// Rating - результат анализа образа. Rating всегда в диапазоне 1..10,
// частные оценки опциональны.
type Rating struct {
	BaseModel
	OutfitID    string                      `gorm:"type:varchar(36);not null;index" json:"outfitId"`
	Rating      int                         `gorm:"not null" json:"rating"`
	StyleScore  *int                        `json:"styleScore,omitempty"`
	FitScore    *int                        `json:"fitScore,omitempty"`
	ColorScore  *int                        `json:"colorScore,omitempty"`
	Feedback    string                      `gorm:"type:text" json:"feedback"`
	Suggestions datatypes.JSONSlice[string] `json:"suggestions"`
}
