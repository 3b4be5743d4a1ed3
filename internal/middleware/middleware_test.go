package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eva_harper_backend/internal/models"
	"eva_harper_backend/internal/ratelimit"
	"eva_harper_backend/internal/repositories"
	"eva_harper_backend/internal/sessions"
	"eva_harper_backend/internal/testutil"
	"eva_harper_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func okHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
	assert.NoError(t, err)

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, incoming, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid\n")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "not-a-uuid\n", w.Header().Get(RequestIDHeader))
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://app.evaharper.com/"}))
	r.POST("/api/login", okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/api/login", nil)
	req.Header.Set("Origin", "https://app.evaharper.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.evaharper.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMaxBodySize(t *testing.T) {
	reached := false
	r := gin.New()
	r.Use(MaxBodySize(1024))
	r.POST("/upload", func(c *gin.Context) {
		reached = true
		okHandler(c)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload", bytes.NewReader(make([]byte, 2048))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.False(t, reached, "oversized request must not reach the handler")
	assert.Contains(t, w.Body.String(), "LIMIT_EXCEEDED")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload", bytes.NewReader(make([]byte, 512))))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, reached)
}

func TestUploadLimit(t *testing.T) {
	var seen int64
	r := gin.New()
	r.POST("/pair", UploadLimit(1024, 2), func(c *gin.Context) {
		seen = FileSizeLimit(c)
		okHandler(c)
	})

	// Два файла по лимиту проходят, тело больше двух лимитов - нет
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/pair", bytes.NewReader(make([]byte, 2048))))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1024), seen)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/pair", bytes.NewReader(make([]byte, 2048+multipartOverhead+1))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	seen = -1
	r2 := gin.New()
	r2.POST("/open", UploadLimit(0, 1), func(c *gin.Context) {
		seen = FileSizeLimit(c)
		okHandler(c)
	})
	w = httptest.NewRecorder()
	r2.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/open", bytes.NewReader(make([]byte, 4096))))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, seen)
}

func TestRateLimit(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	manager := ratelimit.NewManager(ratelimit.Settings{Limit: 2, Window: time.Minute}, func() time.Time { return now }, nil)

	r := gin.New()
	r.Use(RateLimit(manager))
	r.POST("/api/waitlist", okHandler)

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/waitlist", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)
	w := send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, send("10.0.0.2").Code, "limit is per client")
}

func TestRateLimit_Disabled(t *testing.T) {
	manager := ratelimit.NewManager(ratelimit.Settings{}, nil, nil)
	r := gin.New()
	r.Use(RateLimit(manager))
	r.GET("/", okHandler)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRequireAdmin(t *testing.T) {
	withUser := func(user *models.User) gin.HandlerFunc {
		return func(c *gin.Context) {
			if user != nil {
				c.Set(string(contextkeys.UserContextKey), user)
			}
			c.Next()
		}
	}

	cases := []struct {
		name string
		user *models.User
		want int
	}{
		{"anonymous", nil, http.StatusForbidden},
		{"user", &models.User{Role: models.UserRoleUser}, http.StatusForbidden},
		{"admin", &models.User{Role: models.UserRoleAdmin}, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/admin", withUser(tc.user), RequireAdmin(), okHandler)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestSessionAuth(t *testing.T) {
	db := testutil.NewDB(t)
	manager := sessions.NewManager(sessions.NewGormStore(db), sessions.Options{
		Secret: "middleware-test-secret-0123456789",
		TTL:    time.Hour,
	})
	user := testutil.CreateUser(t, db, testutil.UserOptions{Email: "anna@example.com"})

	r := gin.New()
	r.Use(DBMiddleware(db))
	r.GET("/api/user", SessionAuth(manager, repositories.NewUserRepository()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c), "email": CurrentUser(c).Email})
	})

	t.Run("no cookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/user", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
		req.AddCookie(&http.Cookie{Name: manager.CookieName(), Value: "garbage"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	token, _, err := manager.Start(context.Background(), user.ID, "test", "127.0.0.1")
	require.NoError(t, err)

	t.Run("valid session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
		req.AddCookie(&http.Cookie{Name: manager.CookieName(), Value: token})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), user.ID)
		assert.Contains(t, w.Body.String(), "anna@example.com")
	})

	t.Run("revoked session", func(t *testing.T) {
		require.NoError(t, manager.End(context.Background(), token))
		req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
		req.AddCookie(&http.Cookie{Name: manager.CookieName(), Value: token})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
