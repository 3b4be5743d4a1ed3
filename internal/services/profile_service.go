package services

import (
	"bytes"
	"context"
	"errors"

	"eva_harper_backend/internal/imageprocessor"
	"eva_harper_backend/internal/logger"
	"eva_harper_backend/internal/models"
	"eva_harper_backend/internal/repositories"
	"eva_harper_backend/internal/services/dto"
	"eva_harper_backend/internal/storage"
	"eva_harper_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type ProfileService interface {
	UploadImage(ctx context.Context, db *gorm.DB, userID string, in *dto.UploadImageInput) (*models.SavedImage, error)
	SavePreferences(ctx context.Context, db *gorm.DB, userID string, req *dto.PreferencesRequest) (*models.User, error)
	UpdatePreferences(ctx context.Context, db *gorm.DB, userID string, prefs *dto.PreferencesPayload) (*models.User, error)
	UpdateInterests(ctx context.Context, db *gorm.DB, userID string, interests *dto.InterestsPayload) (*models.User, error)
	CompleteOnboarding(ctx context.Context, db *gorm.DB, userID string) (*models.User, error)
	ListImages(db *gorm.DB, userID string) ([]models.SavedImage, error)
}

type profileService struct {
	userRepo  repositories.UserRepository
	imageRepo repositories.SavedImageRepository
	storage   storage.Storage
	images    *imageprocessor.Processor
}

func NewProfileService(
	userRepo repositories.UserRepository,
	imageRepo repositories.SavedImageRepository,
	store storage.Storage,
	images *imageprocessor.Processor,
) ProfileService {
	return &profileService{
		userRepo:  userRepo,
		imageRepo: imageRepo,
		storage:   store,
		images:    images,
	}
}

// UploadImage сохраняет портрет или фото в полный рост
func (s *profileService) UploadImage(ctx context.Context, db *gorm.DB, userID string, in *dto.UploadImageInput) (*models.SavedImage, error) {
	if in.Type != dto.ProfileImagePortrait && in.Type != dto.ProfileImageFullBody {
		return nil, apperrors.ValidationError(map[string]string{"type": "Must be one of: portrait, fullBody"})
	}
	img, err := normalizeImage(s.images, in.Image)
	if err != nil {
		return nil, err
	}

	key := storage.ImageKey("profile", userID, "jpg")
	if err := s.storage.Save(ctx, key, bytes.NewReader(img.Data), img.ContentType); err != nil {
		return nil, apperrors.InternalError(err)
	}
	url, err := s.storage.GetURL(ctx, key)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	saved := &models.SavedImage{
		UserID:   userID,
		ImageURL: url,
		Title:    in.Type + " Photo",
		Type:     models.ImageTypeUploaded,
	}
	if err := s.imageRepo.Create(db.WithContext(ctx), saved); err != nil {
		if delErr := s.storage.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			logger.CtxWithError(ctx, "failed to delete orphaned profile image", delErr, "key", key)
		}
		return nil, apperrors.InternalError(err)
	}
	return saved, nil
}

// SavePreferences - анкета онбординга: предпочтения и интересы вместе
func (s *profileService) SavePreferences(ctx context.Context, db *gorm.DB, userID string, req *dto.PreferencesRequest) (*models.User, error) {
	if err := s.userRepo.SaveOnboarding(db.WithContext(ctx), userID, req.Preferences.ToModel(), req.Interests.ToModel()); err != nil {
		return nil, userError(err)
	}
	return s.reload(ctx, db, userID)
}

func (s *profileService) UpdatePreferences(ctx context.Context, db *gorm.DB, userID string, prefs *dto.PreferencesPayload) (*models.User, error) {
	if err := s.userRepo.UpdatePreferences(db.WithContext(ctx), userID, prefs.ToModel()); err != nil {
		return nil, userError(err)
	}
	return s.reload(ctx, db, userID)
}

func (s *profileService) UpdateInterests(ctx context.Context, db *gorm.DB, userID string, interests *dto.InterestsPayload) (*models.User, error) {
	if err := s.userRepo.UpdateInterests(db.WithContext(ctx), userID, interests.ToModel()); err != nil {
		return nil, userError(err)
	}
	return s.reload(ctx, db, userID)
}

func (s *profileService) CompleteOnboarding(ctx context.Context, db *gorm.DB, userID string) (*models.User, error) {
	if err := s.userRepo.SetOnboardingCompleted(db.WithContext(ctx), userID); err != nil {
		return nil, userError(err)
	}
	return s.reload(ctx, db, userID)
}

func (s *profileService) ListImages(db *gorm.DB, userID string) ([]models.SavedImage, error) {
	images, err := s.imageRepo.ListByUser(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return images, nil
}

func (s *profileService) reload(ctx context.Context, db *gorm.DB, userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(db.WithContext(ctx), userID)
	if err != nil {
		return nil, userError(err)
	}
	return user, nil
}

func userError(err error) error {
	if errors.Is(err, repositories.ErrUserNotFound) {
		return apperrors.ErrNotAuthenticated
	}
	return apperrors.InternalError(err)
}
