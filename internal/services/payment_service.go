package services

import (
	"context"
	"errors"
	"time"

	"eva_harper_backend/internal/logger"
	"eva_harper_backend/internal/models"
	"eva_harper_backend/internal/providers"
	"eva_harper_backend/internal/repositories"
	"eva_harper_backend/internal/services/dto"
	"eva_harper_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PaymentSourceClient  = "client"
	PaymentSourceWebhook = "webhook"

	metaUserID  = "userId"
	metaCredits = "credits"
	metaPackage = "package"
)

// PaymentService - покупка кредитов. Клиентское подтверждение и вебхук
// зачисляют одно намерение ровно один раз.
type PaymentService interface {
	Packages() map[string]int64
	CreateIntent(ctx context.Context, db *gorm.DB, userID, packageKey string) (*dto.PaymentIntentResponse, error)
	ConfirmSuccess(ctx context.Context, db *gorm.DB, userID, intentID string) (*models.User, error)
	HandleWebhook(ctx context.Context, db *gorm.DB, payload []byte, signature string) error
}

type paymentService struct {
	payments    providers.PaymentProvider
	paymentRepo repositories.PaymentRepository
	userRepo    repositories.UserRepository
	now         func() time.Time
}

func NewPaymentService(
	payments providers.PaymentProvider,
	paymentRepo repositories.PaymentRepository,
	userRepo repositories.UserRepository,
) PaymentService {
	return &paymentService{
		payments:    payments,
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		now:         time.Now,
	}
}

// Packages - каталог в исходном формате {"100": 500, "500": 1000}
func (s *paymentService) Packages() map[string]int64 {
	out := make(map[string]int64, len(models.CreditPackages))
	for key, p := range models.CreditPackages {
		out[key] = p.Price
	}
	return out
}

func (s *paymentService) CreateIntent(ctx context.Context, db *gorm.DB, userID, packageKey string) (*dto.PaymentIntentResponse, error) {
	pkg, ok := models.LookupCreditPackage(packageKey)
	if !ok {
		return nil, apperrors.ErrInvalidCreditPackage
	}

	intent, err := s.payments.CreateIntent(ctx, pkg.Price, pkg.Currency, map[string]string{
		metaUserID:  userID,
		metaCredits: pkg.Key,
		metaPackage: pkg.Key,
	})
	if err != nil {
		return nil, apperrors.UpstreamError(err, "payment", "Failed to create payment intent")
	}

	pending := &models.PaymentTransaction{
		IntentID: intent.ID,
		UserID:   userID,
		Package:  pkg.Key,
		Credits:  pkg.Credits,
		Amount:   pkg.Price,
		Currency: pkg.Currency,
	}
	if err := s.paymentRepo.CreatePending(db.WithContext(ctx), pending); err != nil {
		// Зачисление всё равно пройдёт по метаданным намерения
		logger.CtxWithError(ctx, "failed to record pending payment", err, "intent_id", intent.ID)
	}

	logger.CtxInfo(ctx, "payment intent created", "intent_id", intent.ID, "package", pkg.Key)
	return &dto.PaymentIntentResponse{
		ClientSecret: intent.ClientSecret,
		Amount:       pkg.Price,
		Credits:      pkg.Credits,
	}, nil
}

// ConfirmSuccess перепроверяет намерение у провайдера и зачисляет кредиты
func (s *paymentService) ConfirmSuccess(ctx context.Context, db *gorm.DB, userID, intentID string) (*models.User, error) {
	intent, err := s.payments.RetrieveIntent(ctx, intentID)
	if err != nil {
		return nil, apperrors.UpstreamError(err, "payment", "Failed to process payment")
	}
	if !intent.Succeeded() {
		return nil, apperrors.ErrPaymentNotSuccessful
	}
	if intent.Metadata[metaUserID] != userID {
		return nil, apperrors.ErrPaymentOwnerMismatch
	}

	if _, err := s.credit(ctx, db, intent, PaymentSourceClient); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(db.WithContext(ctx), userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return user, nil
}

func (s *paymentService) HandleWebhook(ctx context.Context, db *gorm.DB, payload []byte, signature string) error {
	event, err := s.payments.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, providers.ErrWebhookSecret) {
			return apperrors.ErrWebhookNotConfigured
		}
		return apperrors.ErrWebhookSignature.WithError(err)
	}

	if event.Type != providers.EventPaymentIntentSucceeded || event.Intent == nil {
		logger.CtxDebug(ctx, "webhook event ignored", "event_id", event.ID, "type", event.Type)
		return nil
	}

	credited, err := s.credit(ctx, db, event.Intent, PaymentSourceWebhook)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.HTTPCode < 500 {
			// Повтор вебхука с теми же данными ничего не исправит
			logger.CtxWarn(ctx, "webhook payment skipped", "event_id", event.ID, "reason", appErr.Message)
			return nil
		}
		return err
	}
	logger.CtxInfo(ctx, "webhook processed", "event_id", event.ID, "credited", credited)
	return nil
}

// credit ставит маркер идемпотентности и начисляет кредиты в одной
// транзакции. false означает, что намерение уже было зачислено.
func (s *paymentService) credit(ctx context.Context, db *gorm.DB, intent *providers.PaymentIntent, source string) (bool, error) {
	userID := intent.Metadata[metaUserID]
	if userID == "" {
		return false, apperrors.NewBadRequestError("payment intent has no user")
	}
	pkgKey := intent.Metadata[metaPackage]
	if pkgKey == "" {
		pkgKey = intent.Metadata[metaCredits]
	}
	pkg, ok := models.LookupCreditPackage(pkgKey)
	if !ok {
		return false, apperrors.ErrInvalidCreditPackage
	}
	if intent.Amount != 0 && intent.Amount != pkg.Price {
		logger.CtxWarn(ctx, "payment amount does not match package", "intent_id", intent.ID, "amount", intent.Amount, "package", pkg.Key)
		return false, apperrors.ErrPaymentNotSuccessful
	}

	meta := make(datatypes.JSONMap, len(intent.Metadata))
	for k, v := range intent.Metadata {
		meta[k] = v
	}
	payment := &models.PaymentTransaction{
		IntentID: intent.ID,
		UserID:   userID,
		Package:  pkg.Key,
		Credits:  pkg.Credits,
		Amount:   pkg.Price,
		Currency: pkg.Currency,
		Source:   source,
		Metadata: meta,
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.paymentRepo.MarkPaid(tx, payment, s.now()); err != nil {
			return err
		}
		return s.userRepo.AddCredits(tx, userID, pkg.Credits)
	})
	switch {
	case errors.Is(err, repositories.ErrPaymentAlreadyCredited):
		logger.CtxInfo(ctx, "payment already credited", "intent_id", intent.ID, "source", source)
		return false, nil
	case errors.Is(err, repositories.ErrUserNotFound):
		return false, apperrors.NewNotFoundError("payment", "User for payment not found")
	case err != nil:
		return false, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "credits purchased", "intent_id", intent.ID, "user_id", userID, "credits", pkg.Credits, "source", source)
	return true, nil
}
