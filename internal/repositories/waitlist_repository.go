package repositories

import (
	"errors"
	"time"

	"eva_harper_backend/internal/database"
	"eva_harper_backend/internal/models"

	"gorm.io/gorm"
)

type WaitlistRepository interface {
	Create(db *gorm.DB, entry *models.WaitlistEntry) error
	FindByEmail(db *gorm.DB, email string) (*models.WaitlistEntry, error)
	List(db *gorm.DB) ([]models.WaitlistEntry, error)

	// MarkApproved переводит pending -> approved. Возвращает true, если
	// переход выполнен этим вызовом.
	MarkApproved(db *gorm.DB, email string, now time.Time) (bool, error)
	MarkRegistered(db *gorm.DB, email string) error
}

type waitlistRepository struct{}

func NewWaitlistRepository() WaitlistRepository {
	return &waitlistRepository{}
}

func (r *waitlistRepository) Create(db *gorm.DB, entry *models.WaitlistEntry) error {
	if entry.Status == "" {
		entry.Status = models.WaitlistStatusPending
	}
	if err := db.Create(entry).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrWaitlistEntryExists
		}
		return err
	}
	return nil
}

func (r *waitlistRepository) FindByEmail(db *gorm.DB, email string) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	if err := db.Where("email = ?", email).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWaitlistEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *waitlistRepository) List(db *gorm.DB) ([]models.WaitlistEntry, error) {
	var entries []models.WaitlistEntry
	err := db.Order("created_at DESC").Find(&entries).Error
	return entries, err
}

func (r *waitlistRepository) MarkApproved(db *gorm.DB, email string, now time.Time) (bool, error) {
	result := db.Model(&models.WaitlistEntry{}).
		Where("email = ? AND status = ?", email, models.WaitlistStatusPending).
		Updates(map[string]interface{}{
			"status":      models.WaitlistStatusApproved,
			"approved_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *waitlistRepository) MarkRegistered(db *gorm.DB, email string) error {
	return db.Model(&models.WaitlistEntry{}).
		Where("email = ?", email).
		Update("status", models.WaitlistStatusRegistered).Error
}
