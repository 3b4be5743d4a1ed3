package models

type SavedImage struct {
	BaseModel
	UserID   string    `gorm:"type:varchar(36);not null;index" json:"userId"`
	ImageURL string    `gorm:"not null" json:"imageUrl"`
	Title    string    `gorm:"type:varchar(255)" json:"title"`
	Type     ImageType `gorm:"type:varchar(20);not null" json:"type"`
}
