package repositories

import (
	"errors"

	"eva_harper_backend/internal/models"

	"gorm.io/gorm"
)

type OutfitRepository interface {
	Create(db *gorm.DB, outfit *models.Outfit) error
	FindByID(db *gorm.DB, id string) (*models.Outfit, error)
	ListByUser(db *gorm.DB, userID string) ([]models.Outfit, error)

	CreateRating(db *gorm.DB, rating *models.Rating) error
	LatestRating(db *gorm.DB, outfitID string) (*models.Rating, error)
}

type outfitRepository struct{}

func NewOutfitRepository() OutfitRepository {
	return &outfitRepository{}
}

func (r *outfitRepository) Create(db *gorm.DB, outfit *models.Outfit) error {
	return db.Create(outfit).Error
}

func (r *outfitRepository) FindByID(db *gorm.DB, id string) (*models.Outfit, error) {
	var outfit models.Outfit
	if err := db.Where("id = ?", id).First(&outfit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOutfitNotFound
		}
		return nil, err
	}
	return &outfit, nil
}

func (r *outfitRepository) ListByUser(db *gorm.DB, userID string) ([]models.Outfit, error) {
	var outfits []models.Outfit
	err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&outfits).Error
	return outfits, err
}

func (r *outfitRepository) CreateRating(db *gorm.DB, rating *models.Rating) error {
	return db.Create(rating).Error
}

func (r *outfitRepository) LatestRating(db *gorm.DB, outfitID string) (*models.Rating, error) {
	var rating models.Rating
	if err := db.Where("outfit_id = ?", outfitID).Order("created_at DESC").First(&rating).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRatingNotFound
		}
		return nil, err
	}
	return &rating, nil
}
