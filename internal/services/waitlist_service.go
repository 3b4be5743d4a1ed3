package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"eva_harper_backend/internal/auth"
	"eva_harper_backend/internal/email"
	"eva_harper_backend/internal/logger"
	"eva_harper_backend/internal/models"
	"eva_harper_backend/internal/providers"
	"eva_harper_backend/internal/repositories"
	"eva_harper_backend/internal/services/dto"
	"eva_harper_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SetupTokenTTL = 24 * time.Hour

	welcomeSubject = "Willkommen bei Eva Harper"
	setupSubject   = "Dein Zugang zu Eva Harper"
	welcomeTimeout = time.Minute
)

var usernameUnsafe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type WaitlistService interface {
	Submit(ctx context.Context, db *gorm.DB, req *dto.WaitlistRequest) (*models.WaitlistEntry, error)
	Approve(ctx context.Context, db *gorm.DB, emailAddr string) (*dto.ApproveResponse, error)
	List(db *gorm.DB) ([]models.WaitlistEntry, error)
	ImportContacts(ctx context.Context, db *gorm.DB) (*dto.ImportResponse, error)
}

type WaitlistConfig struct {
	PublicURL     string
	ComposeWithAI bool
	TokenTTL      time.Duration
}

type waitlistService struct {
	waitlistRepo repositories.WaitlistRepository
	userRepo     repositories.UserRepository
	mailer       email.Provider
	contacts     email.ContactSyncer
	advice       providers.AdviceProvider
	cfg          WaitlistConfig
	now          func() time.Time
}

func NewWaitlistService(
	waitlistRepo repositories.WaitlistRepository,
	userRepo repositories.UserRepository,
	mailer email.Provider,
	contacts email.ContactSyncer,
	advice providers.AdviceProvider,
	cfg WaitlistConfig,
) WaitlistService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = SetupTokenTTL
	}
	if contacts == nil {
		contacts = email.NoopSyncer{}
	}
	return &waitlistService{
		waitlistRepo: waitlistRepo,
		userRepo:     userRepo,
		mailer:       mailer,
		contacts:     contacts,
		advice:       advice,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Submit добавляет email в лист ожидания. Письмо уходит асинхронно,
// его сбой не влияет на ответ.
func (s *waitlistService) Submit(ctx context.Context, db *gorm.DB, req *dto.WaitlistRequest) (*models.WaitlistEntry, error) {
	entry := &models.WaitlistEntry{
		Email:  normalizeEmail(req.Email),
		Name:   strings.TrimSpace(req.Name),
		Reason: strings.TrimSpace(req.Reason),
		Status: models.WaitlistStatusPending,
	}
	if err := s.waitlistRepo.Create(db.WithContext(ctx), entry); err != nil {
		if errors.Is(err, repositories.ErrWaitlistEntryExists) {
			return nil, apperrors.ErrWaitlistDuplicate
		}
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "waitlist entry created", "entry_id", entry.ID)
	go s.sendWelcome(logger.GetRequestID(ctx), *entry)
	return entry, nil
}

func (s *waitlistService) sendWelcome(requestID string, entry models.WaitlistEntry) {
	ctx, cancel := context.WithTimeout(logger.WithRequestID(context.Background(), requestID), welcomeTimeout)
	defer cancel()

	content := ""
	if s.cfg.ComposeWithAI && s.advice != nil {
		text, err := s.advice.Advice(ctx, welcomePrompt(entry.Name))
		if err != nil {
			logger.CtxWithError(ctx, "failed to compose welcome email, using template", err)
		} else if text != providers.AdviceFallback {
			content = text
		}
	}

	err := s.mailer.SendTemplate([]string{entry.Email}, welcomeSubject, email.TemplateWaitlistWelcome, email.TemplateData{
		"Name":    entry.Name,
		"Content": content,
	})
	if err != nil {
		logger.CtxWithError(ctx, "failed to send waitlist welcome email", err, "entry_id", entry.ID)
		return
	}
	logger.CtxInfo(ctx, "waitlist welcome email sent", "entry_id", entry.ID)
}

func welcomePrompt(name string) string {
	return fmt.Sprintf(`Compose a welcome email in German for %s:
- Danke für die Registrierung auf der Eva Harper Warteliste
- Wir prüfen die Anfrage und melden uns bald
- Der Zugang wird per E-Mail mitgeteilt
Nutze Emojis und halte es freundlich!`, name)
}

var errAlreadyApproved = errors.New("waitlist entry already approved")

// Approve одобряет заявку: выдаёт одноразовый токен установки пароля,
// создаёт пользователя с доступом и отправляет ссылку. Повторный вызов
// ничего не меняет.
func (s *waitlistService) Approve(ctx context.Context, db *gorm.DB, emailAddr string) (*dto.ApproveResponse, error) {
	emailAddr = normalizeEmail(emailAddr)
	now := s.now()

	var token string
	var entry *models.WaitlistEntry
	accountExists := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = s.waitlistRepo.FindByEmail(tx, emailAddr)
		if err != nil {
			return err
		}
		if entry.Status != models.WaitlistStatusPending {
			return errAlreadyApproved
		}

		token, err = auth.GenerateToken(auth.SetupTokenBytes)
		if err != nil {
			return err
		}
		placeholder, err := auth.HashPassword(token)
		if err != nil {
			return err
		}
		expires := now.Add(s.cfg.TokenTTL)

		user, err := s.userRepo.FindByEmail(tx, emailAddr)
		switch {
		case err == nil && hasActiveCredentials(user):
			// Аккаунт уже рабочий: пароль и токен не трогаем
			if err := s.waitlistRepo.MarkRegistered(tx, emailAddr); err != nil {
				return err
			}
			accountExists = true
			entry.Status = models.WaitlistStatusRegistered
			return nil
		case err == nil:
			if err := s.userRepo.SetSetupToken(tx, user.ID, placeholder, token, expires); err != nil {
				return err
			}
		case errors.Is(err, repositories.ErrUserNotFound):
			username, err := s.uniqueUsername(tx, emailAddr)
			if err != nil {
				return err
			}
			user = &models.User{
				Username:             username,
				Email:                emailAddr,
				PasswordHash:         placeholder,
				Role:                 models.UserRoleUser,
				Credits:              models.StartingCredits,
				Subscription:         models.SubscriptionFree,
				HasAccess:            true,
				PasswordResetToken:   &token,
				PasswordResetExpires: &expires,
			}
			if err := s.userRepo.Create(tx, user); err != nil {
				return err
			}
		default:
			return err
		}

		approved, err := s.waitlistRepo.MarkApproved(tx, emailAddr, now)
		if err != nil {
			return err
		}
		if !approved {
			return errAlreadyApproved
		}
		entry.Status = models.WaitlistStatusApproved
		entry.ApprovedAt = &now
		return nil
	})

	switch {
	case errors.Is(err, errAlreadyApproved):
		current, findErr := s.waitlistRepo.FindByEmail(db.WithContext(ctx), emailAddr)
		if findErr != nil {
			return nil, apperrors.InternalError(findErr)
		}
		return &dto.ApproveResponse{Success: true, Entry: current, Message: "Entry was already approved"}, nil
	case errors.Is(err, repositories.ErrWaitlistEntryNotFound):
		return nil, apperrors.ErrWaitlistEntryNotFound
	case err != nil:
		return nil, apperrors.InternalError(err)
	}

	if accountExists {
		logger.CtxInfo(ctx, "waitlist entry belongs to an existing account", "entry_id", entry.ID)
		return &dto.ApproveResponse{Success: true, Entry: entry, Message: "User already has an account"}, nil
	}

	logger.CtxInfo(ctx, "waitlist entry approved", "entry_id", entry.ID)
	resp := &dto.ApproveResponse{Success: true, Entry: entry}
	if err := s.sendSetupEmail(emailAddr, token); err != nil {
		logger.CtxWithError(ctx, "failed to send password setup email", err, "entry_id", entry.ID)
	} else {
		resp.EmailSent = true
	}
	return resp, nil
}

// hasActiveCredentials - пароль установлен и не заблокирован
func hasActiveCredentials(user *models.User) bool {
	return user.PasswordResetToken == nil && user.PasswordHash != repositories.LockedPasswordHash
}

func (s *waitlistService) sendSetupEmail(to, token string) error {
	return s.mailer.SendTemplate([]string{to}, setupSubject, email.TemplatePasswordSetup, email.TemplateData{
		"SetupURL":   s.SetupURL(token),
		"ValidHours": int(s.cfg.TokenTTL / time.Hour),
	})
}

// SetupURL - ссылка на страницу установки пароля во фронтенде
func (s *waitlistService) SetupURL(token string) string {
	return strings.TrimRight(s.cfg.PublicURL, "/") + "/setup-password?token=" + url.QueryEscape(token)
}

// uniqueUsername берёт локальную часть email и добавляет суффикс при коллизии
func (s *waitlistService) uniqueUsername(tx *gorm.DB, emailAddr string) (string, error) {
	base := emailAddr
	if at := strings.IndexByte(emailAddr, '@'); at > 0 {
		base = emailAddr[:at]
	}
	base = usernameUnsafe.ReplaceAllString(base, "")
	if base == "" {
		base = "user"
	}

	candidate := base
	for i := 1; i <= 50; i++ {
		exists, err := s.userRepo.UsernameExists(tx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
	return base + "-" + uuid.NewString()[:8], nil
}

func (s *waitlistService) List(db *gorm.DB) ([]models.WaitlistEntry, error) {
	entries, err := s.waitlistRepo.List(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return entries, nil
}

// ImportContacts выгружает всех из листа ожидания в список рассылки
func (s *waitlistService) ImportContacts(ctx context.Context, db *gorm.DB) (*dto.ImportResponse, error) {
	entries, err := s.waitlistRepo.List(db.WithContext(ctx))
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if len(entries) == 0 {
		return &dto.ImportResponse{Success: true, Imported: 0, Message: "No entries to import"}, nil
	}

	contacts := make([]email.Contact, 0, len(entries))
	for _, e := range entries {
		contacts = append(contacts, email.Contact{Email: e.Email, Name: e.Name})
	}
	imported, err := s.contacts.SyncContacts(ctx, contacts)
	if err != nil {
		return nil, apperrors.UpstreamError(err, "waitlist", "Failed to import contacts")
	}
	logger.CtxInfo(ctx, "waitlist contacts imported", "count", imported)
	return &dto.ImportResponse{Success: true, Imported: imported}, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
