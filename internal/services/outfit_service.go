package services

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"eva_harper_backend/internal/imageprocessor"
	"eva_harper_backend/internal/logger"
	"eva_harper_backend/internal/models"
	"eva_harper_backend/internal/providers"
	"eva_harper_backend/internal/repositories"
	"eva_harper_backend/internal/services/dto"
	"eva_harper_backend/internal/storage"
	"eva_harper_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultOutfitTitle = "Mein Outfit"

type OutfitService interface {
	Create(ctx context.Context, db *gorm.DB, userID string, in *dto.CreateOutfitInput) (*dto.OutfitResponse, error)
	List(db *gorm.DB, userID string) ([]models.Outfit, error)
	Get(db *gorm.DB, userID, outfitID string) (*dto.OutfitResponse, error)
}

type outfitService struct {
	ledger     LedgerService
	outfitRepo repositories.OutfitRepository
	analyzer   providers.OutfitAnalyzer
	storage    storage.Storage
	images     *imageprocessor.Processor
}

func NewOutfitService(
	ledger LedgerService,
	outfitRepo repositories.OutfitRepository,
	analyzer providers.OutfitAnalyzer,
	store storage.Storage,
	images *imageprocessor.Processor,
) OutfitService {
	return &outfitService{
		ledger:     ledger,
		outfitRepo: outfitRepo,
		analyzer:   analyzer,
		storage:    store,
		images:     images,
	}
}

// Create анализирует фото, сохраняет его в хранилище и записывает
// образ вместе с оценкой в одной транзакции
func (s *outfitService) Create(ctx context.Context, db *gorm.DB, userID string, in *dto.CreateOutfitInput) (*dto.OutfitResponse, error) {
	img, err := normalizeImage(s.images, in.Image)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.Reserve(ctx, db, userID, CostOutfit); err != nil {
		return nil, err
	}

	analysis, err := s.analyzer.Analyze(ctx, img.Data, strings.TrimSpace(in.Occasion))
	if err != nil {
		s.ledger.Refund(ctx, db, userID, CostOutfit)
		return nil, providerFailure(err, "outfit", "Failed to create outfit rating")
	}

	key := storage.ImageKey("outfits", userID, "jpg")
	if err := s.storage.Save(ctx, key, bytes.NewReader(img.Data), img.ContentType); err != nil {
		s.ledger.Refund(ctx, db, userID, CostOutfit)
		return nil, apperrors.InternalError(err)
	}
	imageURL, err := s.storage.GetURL(ctx, key)
	if err != nil {
		s.discard(ctx, key)
		s.ledger.Refund(ctx, db, userID, CostOutfit)
		return nil, apperrors.InternalError(err)
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = defaultOutfitTitle
	}
	outfit := &models.Outfit{
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		ImageURL:    imageURL,
		Occasion:    strings.TrimSpace(in.Occasion),
	}
	rating := &models.Rating{
		Rating:      analysis.Rating,
		StyleScore:  analysis.StyleScore,
		FitScore:    analysis.FitScore,
		ColorScore:  analysis.ColorScore,
		Feedback:    analysis.Feedback,
		Suggestions: datatypes.NewJSONSlice(nonNil(analysis.Suggestions)),
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.outfitRepo.Create(tx, outfit); err != nil {
			return err
		}
		rating.OutfitID = outfit.ID
		return s.outfitRepo.CreateRating(tx, rating)
	})
	if err != nil {
		s.discard(ctx, key)
		s.ledger.Refund(ctx, db, userID, CostOutfit)
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "outfit rated", "outfit_id", outfit.ID, "rating", rating.Rating)
	return &dto.OutfitResponse{Outfit: outfit, Rating: rating}, nil
}

func (s *outfitService) discard(ctx context.Context, key string) {
	if err := s.storage.Delete(context.WithoutCancel(ctx), key); err != nil {
		logger.CtxWithError(ctx, "failed to delete orphaned outfit image", err, "key", key)
	}
}

func (s *outfitService) List(db *gorm.DB, userID string) ([]models.Outfit, error) {
	outfits, err := s.outfitRepo.ListByUser(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return outfits, nil
}

// Get отдаёт образ только владельцу
func (s *outfitService) Get(db *gorm.DB, userID, outfitID string) (*dto.OutfitResponse, error) {
	outfit, err := s.outfitRepo.FindByID(db, outfitID)
	if err != nil {
		if errors.Is(err, repositories.ErrOutfitNotFound) {
			return nil, apperrors.ErrOutfitNotFound
		}
		return nil, apperrors.InternalError(err)
	}
	if outfit.UserID != userID {
		return nil, apperrors.ErrOutfitAccessDenied
	}

	rating, err := s.outfitRepo.LatestRating(db, outfit.ID)
	if err != nil && !errors.Is(err, repositories.ErrRatingNotFound) {
		return nil, apperrors.InternalError(err)
	}
	return &dto.OutfitResponse{Outfit: outfit, Rating: rating}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
