package services

import (
	"context"
	"errors"

	"eva_harper_backend/internal/logger"
	"eva_harper_backend/internal/repositories"
	"eva_harper_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// Стоимость операций в кредитах
const (
	CostAdvice   = 1
	CostAnalyze  = 2
	CostOutfit   = 2
	CostTransfer = 3
)

// LedgerService - баланс кредитов пользователя.
// Списание резервируется до вызова провайдера и возвращается при его сбое.
type LedgerService interface {
	// Reserve атомарно списывает cost, если баланса хватает
	Reserve(ctx context.Context, db *gorm.DB, userID string, cost int) error
	// Refund возвращает ранее зарезервированные кредиты
	Refund(ctx context.Context, db *gorm.DB, userID string, cost int)
	// Credit зачисляет купленные кредиты
	Credit(ctx context.Context, db *gorm.DB, userID string, amount int) error
	Balance(db *gorm.DB, userID string) (int, error)
}

type ledgerService struct {
	userRepo repositories.UserRepository
}

func NewLedgerService(userRepo repositories.UserRepository) LedgerService {
	return &ledgerService{userRepo: userRepo}
}

func (s *ledgerService) Reserve(ctx context.Context, db *gorm.DB, userID string, cost int) error {
	if cost <= 0 {
		return nil
	}
	if err := s.userRepo.DebitCredits(db.WithContext(ctx), userID, cost); err != nil {
		if errors.Is(err, repositories.ErrInsufficientCredits) {
			return apperrors.ErrInsufficientCredits
		}
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *ledgerService) Refund(ctx context.Context, db *gorm.DB, userID string, cost int) {
	if cost <= 0 {
		return
	}
	// Возврат не должен зависеть от отменённого контекста запроса
	if err := s.userRepo.AddCredits(db.WithContext(context.WithoutCancel(ctx)), userID, cost); err != nil {
		logger.CtxWithError(ctx, "failed to refund credits", err, "user_id", userID, "credits", cost)
		return
	}
	logger.CtxInfo(ctx, "credits refunded", "user_id", userID, "credits", cost)
}

func (s *ledgerService) Credit(ctx context.Context, db *gorm.DB, userID string, amount int) error {
	if amount <= 0 {
		return apperrors.NewBadRequestError("credit amount must be positive")
	}
	if err := s.userRepo.AddCredits(db.WithContext(ctx), userID, amount); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *ledgerService) Balance(db *gorm.DB, userID string) (int, error) {
	credits, err := s.userRepo.GetCredits(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return 0, apperrors.ErrNotFound(err)
		}
		return 0, apperrors.InternalError(err)
	}
	return credits, nil
}
