package repositories

import (
	"errors"
	"time"

	"eva_harper_backend/internal/models"

	"gorm.io/gorm"
)

// SessionRepository определяет интерфейс для операций с серверными сессиями
type SessionRepository interface {
	// Create создает новую сессию
	Create(db *gorm.DB, session *models.Session) error

	// FindByID находит сессию по идентификатору
	FindByID(db *gorm.DB, id string) (*models.Session, error)

	// DeleteByID удаляет сессию
	DeleteByID(db *gorm.DB, id string) error

	// DeleteByUserID удаляет все сессии пользователя
	DeleteByUserID(db *gorm.DB, userID string) error

	// DeleteExpired удаляет все истекшие сессии
	DeleteExpired(db *gorm.DB, now time.Time) (int64, error)

	// CountByUserID возвращает количество активных сессий пользователя
	CountByUserID(db *gorm.DB, userID string, now time.Time) (int64, error)
}

type sessionRepository struct{}

func NewSessionRepository() SessionRepository {
	return &sessionRepository{}
}

func (r *sessionRepository) Create(db *gorm.DB, session *models.Session) error {
	return db.Create(session).Error
}

func (r *sessionRepository) FindByID(db *gorm.DB, id string) (*models.Session, error) {
	var session models.Session
	if err := db.Where("id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) DeleteByID(db *gorm.DB, id string) error {
	result := db.Where("id = ?", id).Delete(&models.Session{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *sessionRepository) DeleteByUserID(db *gorm.DB, userID string) error {
	return db.Where("user_id = ?", userID).Delete(&models.Session{}).Error
}

func (r *sessionRepository) DeleteExpired(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Where("expires_at <= ?", now).Delete(&models.Session{})
	return result.RowsAffected, result.Error
}

func (r *sessionRepository) CountByUserID(db *gorm.DB, userID string, now time.Time) (int64, error) {
	var count int64
	err := db.Model(&models.Session{}).
		Where("user_id = ? AND expires_at > ?", userID, now).
		Count(&count).Error
	return count, err
}
