package repositories

import (
	"errors"
	"time"

	"eva_harper_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository interface {
	// CreatePending сохраняет намерение при его создании. Повтор - no-op.
	CreatePending(db *gorm.DB, payment *models.PaymentTransaction) error
	FindByIntentID(db *gorm.DB, intentID string) (*models.PaymentTransaction, error)
	ListByUser(db *gorm.DB, userID string) ([]models.PaymentTransaction, error)

	// MarkPaid - check-and-set маркер идемпотентности. Возвращает
	// ErrPaymentAlreadyCredited, если намерение уже было зачислено.
	MarkPaid(db *gorm.DB, payment *models.PaymentTransaction, now time.Time) error
}

type paymentRepository struct{}

func NewPaymentRepository() PaymentRepository {
	return &paymentRepository{}
}

func (r *paymentRepository) CreatePending(db *gorm.DB, payment *models.PaymentTransaction) error {
	payment.Status = models.PaymentStatusPending
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "intent_id"}},
		DoNothing: true,
	}).Create(payment).Error
}

func (r *paymentRepository) FindByIntentID(db *gorm.DB, intentID string) (*models.PaymentTransaction, error) {
	var payment models.PaymentTransaction
	if err := db.Where("intent_id = ?", intentID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) ListByUser(db *gorm.DB, userID string) ([]models.PaymentTransaction, error) {
	var payments []models.PaymentTransaction
	err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) MarkPaid(db *gorm.DB, payment *models.PaymentTransaction, now time.Time) error {
	// Сначала pending -> paid для записи, созданной при создании намерения
	result := db.Model(&models.PaymentTransaction{}).
		Where("intent_id = ? AND status <> ?", payment.IntentID, models.PaymentStatusPaid).
		Updates(map[string]interface{}{
			"status":  models.PaymentStatusPaid,
			"paid_at": now,
			"source":  payment.Source,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		payment.Status = models.PaymentStatusPaid
		payment.PaidAt = &now
		return nil
	}

	// Записи не было: вставляем сразу paid, конфликт значит "уже зачислено"
	payment.Status = models.PaymentStatusPaid
	payment.PaidAt = &now
	result = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "intent_id"}},
		DoNothing: true,
	}).Create(payment)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPaymentAlreadyCredited
	}
	return nil
}
