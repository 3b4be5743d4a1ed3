package sessions

import (
	"context"
	"errors"
	"time"

	"eva_harper_backend/internal/models"
	"eva_harper_backend/internal/repositories"

	"gorm.io/gorm"
)

// GormStore хранит сессии в таблице sessions
type GormStore struct {
	db   *gorm.DB
	repo repositories.SessionRepository
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, repo: repositories.NewSessionRepository()}
}

func (s *GormStore) Create(ctx context.Context, session *models.Session) error {
	return s.repo.Create(s.db.WithContext(ctx), session)
}

func (s *GormStore) Get(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.repo.FindByID(s.db.WithContext(ctx), id)
	if errors.Is(err, repositories.ErrSessionNotFound) {
		return nil, ErrSessionNotFound
	}
	return session, err
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	err := s.repo.DeleteByID(s.db.WithContext(ctx), id)
	if errors.Is(err, repositories.ErrSessionNotFound) {
		return nil
	}
	return err
}

func (s *GormStore) DeleteByUser(ctx context.Context, userID string) error {
	return s.repo.DeleteByUserID(s.db.WithContext(ctx), userID)
}

func (s *GormStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.repo.DeleteExpired(s.db.WithContext(ctx), now)
}
