package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"eva_harper_backend/internal/auth"
	"eva_harper_backend/internal/logger"
	"eva_harper_backend/internal/models"
	"eva_harper_backend/internal/repositories"
	"eva_harper_backend/internal/services/dto"
	"eva_harper_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type AuthService interface {
	Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*models.User, error)
	CompleteSetup(ctx context.Context, db *gorm.DB, req *dto.SetupPasswordRequest) error
	GetUser(db *gorm.DB, userID string) (*models.User, error)
}

type authService struct {
	userRepo     repositories.UserRepository
	waitlistRepo repositories.WaitlistRepository
	now          func() time.Time
}

func NewAuthService(userRepo repositories.UserRepository, waitlistRepo repositories.WaitlistRepository) AuthService {
	return &authService{
		userRepo:     userRepo,
		waitlistRepo: waitlistRepo,
		now:          time.Now,
	}
}

// dummyHash сравнивается, когда пользователь не найден, чтобы время ответа
// не выдавало существование логина
var dummyHash, _ = auth.HashPassword("eva-harper-dummy-password")

// Register - регистрация возможна только для одобренного email.
// Пользователь, созданный при одобрении, активируется, иначе создаётся новый.
func (s *authService) Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*models.User, error) {
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.ValidationError(map[string]string{"password": err.Error()})
	}
	emailAddr := normalizeEmail(req.Email)
	username := strings.TrimSpace(req.Username)

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	var user *models.User
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := s.waitlistRepo.FindByEmail(tx, emailAddr)
		if err != nil {
			if errors.Is(err, repositories.ErrWaitlistEntryNotFound) {
				return apperrors.ErrEmailNotApproved
			}
			return err
		}
		switch entry.Status {
		case models.WaitlistStatusApproved:
		case models.WaitlistStatusRegistered:
			return apperrors.ErrEmailTaken
		default:
			return apperrors.ErrEmailNotApproved
		}

		taken, err := s.userRepo.FindByUsername(tx, username)
		if err == nil && taken.Email != emailAddr {
			return apperrors.ErrUsernameTaken
		}
		if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
			return err
		}

		existing, err := s.userRepo.FindByEmail(tx, emailAddr)
		switch {
		case err == nil:
			if err := s.userRepo.Activate(tx, existing.ID, username, hash); err != nil {
				return err
			}
			user, err = s.userRepo.FindByID(tx, existing.ID)
			if err != nil {
				return err
			}
		case errors.Is(err, repositories.ErrUserNotFound):
			user = &models.User{
				Username:     username,
				Email:        emailAddr,
				PasswordHash: hash,
				Role:         models.UserRoleUser,
				Credits:      models.StartingCredits,
				Subscription: models.SubscriptionFree,
				HasAccess:    true,
			}
			if err := s.userRepo.Create(tx, user); err != nil {
				return err
			}
		default:
			return err
		}

		return s.waitlistRepo.MarkRegistered(tx, emailAddr)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrUsernameTaken
		}
		if _, ok := apperrors.AsAppError(err); ok {
			return nil, err
		}
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login принимает username или email
func (s *authService) Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*models.User, error) {
	identifier := strings.TrimSpace(req.Username)
	var (
		user *models.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.userRepo.FindByEmail(db.WithContext(ctx), normalizeEmail(identifier))
	} else {
		user, err = s.userRepo.FindByUsername(db.WithContext(ctx), identifier)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			auth.CheckPasswordHash(req.Password, dummyHash)
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}
	// Пока пароль не установлен, вход по токену запрещён
	if user.PasswordResetToken != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

// CompleteSetup устанавливает пароль по токену из письма. При любой ошибке
// учётные данные не меняются.
func (s *authService) CompleteSetup(ctx context.Context, db *gorm.DB, req *dto.SetupPasswordRequest) error {
	if strings.TrimSpace(req.Token) == "" || req.Password == "" {
		return apperrors.NewBadRequestError("Token and password are required")
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return apperrors.ValidationError(map[string]string{"password": err.Error()})
	}
	now := s.now()

	user, err := s.userRepo.FindByResetToken(db.WithContext(ctx), req.Token)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrSetupTokenNotFound
		}
		return apperrors.InternalError(err)
	}
	if user.PasswordResetExpires == nil || !user.PasswordResetExpires.After(now) {
		return apperrors.ErrSetupTokenExpired
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return apperrors.InternalError(err)
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.userRepo.CompleteSetup(tx, user.ID, req.Token, hash, now)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrSetupTokenExpired
		}
		return s.waitlistRepo.MarkRegistered(tx, user.Email)
	})
	if err != nil {
		if _, ok := apperrors.AsAppError(err); ok {
			return err
		}
		return apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "password setup completed", "user_id", user.ID)
	return nil
}

func (s *authService) GetUser(db *gorm.DB, userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrNotAuthenticated
		}
		return nil, apperrors.InternalError(err)
	}
	return user, nil
}
