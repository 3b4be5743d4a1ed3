package services

import (
	"context"
	"strings"

	"eva_harper_backend/internal/imageprocessor"
	"eva_harper_backend/internal/logger"
	"eva_harper_backend/internal/models"
	"eva_harper_backend/internal/providers"
	"eva_harper_backend/internal/repositories"
	"eva_harper_backend/internal/services/dto"
	"eva_harper_backend/pkg/apperrors"

	"gorm.io/gorm"
)

const transferTitle = "Style Transfer Result"

// FashionService - платные AI операции. Порядок везде один:
// проверка входа, резерв кредитов, вызов провайдера, сохранение.
type FashionService interface {
	Advice(ctx context.Context, db *gorm.DB, userID, prompt string) (*dto.AdviceResponse, error)
	Analyze(ctx context.Context, db *gorm.DB, userID string, in *dto.AnalyzeInput) (*providers.Analysis, error)
	Transfer(ctx context.Context, db *gorm.DB, userID string, in *dto.TransferInput) (*dto.TransferResponse, error)
}

type fashionService struct {
	ledger     LedgerService
	imageRepo  repositories.SavedImageRepository
	advice     providers.AdviceProvider
	analyzer   providers.OutfitAnalyzer
	transferer providers.StyleTransferer
	images     *imageprocessor.Processor
}

func NewFashionService(
	ledger LedgerService,
	imageRepo repositories.SavedImageRepository,
	advice providers.AdviceProvider,
	analyzer providers.OutfitAnalyzer,
	transferer providers.StyleTransferer,
	images *imageprocessor.Processor,
) FashionService {
	return &fashionService{
		ledger:     ledger,
		imageRepo:  imageRepo,
		advice:     advice,
		analyzer:   analyzer,
		transferer: transferer,
		images:     images,
	}
}

func (s *fashionService) Advice(ctx context.Context, db *gorm.DB, userID, prompt string) (*dto.AdviceResponse, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, apperrors.ValidationError(map[string]string{"prompt": "This field is required"})
	}
	if err := s.ledger.Reserve(ctx, db, userID, CostAdvice); err != nil {
		return nil, err
	}

	advice, err := s.advice.Advice(ctx, prompt)
	if err != nil {
		s.ledger.Refund(ctx, db, userID, CostAdvice)
		return nil, providerFailure(err, "fashion", "Failed to get fashion advice")
	}
	return &dto.AdviceResponse{Advice: advice}, nil
}

func (s *fashionService) Analyze(ctx context.Context, db *gorm.DB, userID string, in *dto.AnalyzeInput) (*providers.Analysis, error) {
	img, err := normalizeImage(s.images, in.Image)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.Reserve(ctx, db, userID, CostAnalyze); err != nil {
		return nil, err
	}

	analysis, err := s.analyzer.Analyze(ctx, img.Data, strings.TrimSpace(in.Occasion))
	if err != nil {
		s.ledger.Refund(ctx, db, userID, CostAnalyze)
		return nil, providerFailure(err, "fashion", "Failed to analyze outfit")
	}
	return analysis, nil
}

func (s *fashionService) Transfer(ctx context.Context, db *gorm.DB, userID string, in *dto.TransferInput) (*dto.TransferResponse, error) {
	if len(in.Source) == 0 || len(in.Target) == 0 || strings.TrimSpace(in.Prompt) == "" {
		return nil, apperrors.NewBadRequestError("Missing required files or prompt")
	}
	source, err := normalizeImage(s.images, in.Source)
	if err != nil {
		return nil, err
	}
	target, err := normalizeImage(s.images, in.Target)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.Reserve(ctx, db, userID, CostTransfer); err != nil {
		return nil, err
	}

	url, err := s.transferer.Transfer(ctx, source.Data, target.Data, strings.TrimSpace(in.Prompt))
	if err != nil {
		s.ledger.Refund(ctx, db, userID, CostTransfer)
		return nil, providerFailure(err, "fashion", "Failed to transfer style")
	}

	saved := &models.SavedImage{
		UserID:   userID,
		ImageURL: url,
		Title:    transferTitle,
		Type:     models.ImageTypeGenerated,
	}
	if err := s.imageRepo.Create(db.WithContext(ctx), saved); err != nil {
		// Кредиты уже потрачены на генерацию, результат всё равно отдаём
		logger.CtxWithError(ctx, "failed to save generated image", err, "user_id", userID)
		return &dto.TransferResponse{URL: url}, nil
	}
	return &dto.TransferResponse{URL: url, SavedImage: saved}, nil
}
