package repositories

import (
	"eva_harper_backend/internal/models"

	"gorm.io/gorm"
)

type SavedImageRepository interface {
	Create(db *gorm.DB, image *models.SavedImage) error
	ListByUser(db *gorm.DB, userID string) ([]models.SavedImage, error)
	CountByUser(db *gorm.DB, userID string, imageType models.ImageType) (int64, error)
}

type savedImageRepository struct{}

func NewSavedImageRepository() SavedImageRepository {
	return &savedImageRepository{}
}

func (r *savedImageRepository) Create(db *gorm.DB, image *models.SavedImage) error {
	return db.Create(image).Error
}

func (r *savedImageRepository) ListByUser(db *gorm.DB, userID string) ([]models.SavedImage, error) {
	var images []models.SavedImage
	err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&images).Error
	return images, err
}

func (r *savedImageRepository) CountByUser(db *gorm.DB, userID string, imageType models.ImageType) (int64, error) {
	var count int64
	q := db.Model(&models.SavedImage{}).Where("user_id = ?", userID)
	if imageType != "" {
		q = q.Where("type = ?", imageType)
	}
	err := q.Count(&count).Error
	return count, err
}
