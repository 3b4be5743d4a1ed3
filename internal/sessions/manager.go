package sessions

import (
	"context"
	"errors"
	"net/http"
	"time"

	"eva_harper_backend/internal/auth"
	"eva_harper_backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Options struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	Secure     bool
}

// Manager выдает, проверяет и отзывает сессии. Cookie содержит
// подписанный JWT со ссылкой на серверную запись.
type Manager struct {
	store      Store
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
	now        func() time.Time
}

func NewManager(store Store, opts Options) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.CookieName == "" {
		opts.CookieName = "eva_session"
	}
	return &Manager{
		store:      store,
		secret:     []byte(opts.Secret),
		ttl:        opts.TTL,
		cookieName: opts.CookieName,
		secure:     opts.Secure,
		now:        time.Now,
	}
}

func (m *Manager) CookieName() string { return m.cookieName }

// Start создает сессию и возвращает значение для cookie
func (m *Manager) Start(ctx context.Context, userID, userAgent, ip string) (string, *models.Session, error) {
	now := m.now()
	session := &models.Session{
		BaseModel: models.BaseModel{ID: uuid.NewString()},
		UserID:    userID,
		ExpiresAt: now.Add(m.ttl),
		UserAgent: truncate(userAgent, 255),
		IP:        truncate(ip, 64),
	}
	if err := m.store.Create(ctx, session); err != nil {
		return "", nil, err
	}
	token, err := auth.SignSessionToken(m.secret, session.ID, userID, now, session.ExpiresAt)
	if err != nil {
		return "", nil, err
	}
	return token, session, nil
}

// Resolve возвращает живую сессию по значению cookie
func (m *Manager) Resolve(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrSessionInvalid
	}
	claims, err := auth.ParseSessionToken(m.secret, token)
	if err != nil {
		return nil, ErrSessionInvalid
	}
	session, err := m.store.Get(ctx, claims.SessionID())
	if errors.Is(err, ErrSessionNotFound) {
		return nil, ErrSessionInvalid
	}
	if err != nil {
		return nil, err
	}
	if session.UserID != claims.UserID() {
		return nil, ErrSessionInvalid
	}
	if session.Expired(m.now()) {
		_ = m.store.Delete(ctx, session.ID)
		return nil, ErrSessionInvalid
	}
	return session, nil
}

// End отзывает сессию. Невалидный токен - не ошибка.
func (m *Manager) End(ctx context.Context, token string) error {
	claims, err := auth.ParseSessionToken(m.secret, token)
	if err != nil {
		return nil
	}
	return m.store.Delete(ctx, claims.SessionID())
}

func (m *Manager) EndAll(ctx context.Context, userID string) error {
	return m.store.DeleteByUser(ctx, userID)
}

func (m *Manager) Cleanup(ctx context.Context) (int64, error) {
	return m.store.DeleteExpired(ctx, m.now())
}

func (m *Manager) SetCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, token, int(m.ttl.Seconds()), "/", "", m.secure, true)
}

func (m *Manager) ClearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, "", -1, "/", "", m.secure, true)
}

func (m *Manager) TokenFromRequest(c *gin.Context) string {
	token, err := c.Cookie(m.cookieName)
	if err != nil {
		return ""
	}
	return token
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
