// Package testserver поднимает полный роутер приложения поверх in-memory
// SQLite и фейковых провайдеров.
package testserver

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"eva_harper_backend/internal/app"
	"eva_harper_backend/internal/auth"
	"eva_harper_backend/internal/config"
	"eva_harper_backend/internal/email"
	"eva_harper_backend/internal/logger"
	"eva_harper_backend/internal/models"
	"eva_harper_backend/internal/providers"
	"eva_harper_backend/internal/ratelimit"
	"eva_harper_backend/internal/sessions"
	"eva_harper_backend/internal/storage"
	"eva_harper_backend/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	WebhookSecret = "whsec_integration_secret"
	sessionSecret = "integration-session-secret-0123456789"
)

// Options меняют конфигурацию перед сборкой роутера
type Options struct {
	RequestsPerMinute int
	MaxUploadSize     int64
}

type TestServer struct {
	Server *httptest.Server
	DB     *gorm.DB
	Config *config.Config

	Advice     *providers.FakeAdvice
	Analyzer   *providers.FakeAnalyzer
	Transferer *providers.FakeTransferer
	Payments   *providers.FakePayments
	Mailer     *email.LogProvider
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Setup("test", io.Discard)
	auth.BcryptCost = bcrypt.MinCost
}

// New создает сервер; закрывается через t.Cleanup
func New(t *testing.T, opts ...Options) *TestServer {
	t.Helper()

	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}

	cfg := &config.Config{}
	cfg.Server.Env = "test"
	cfg.Server.PublicURL = "https://app.evaharper.test"
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = ":memory:"
	cfg.Session.Secret = sessionSecret
	cfg.Storage.BasePath = t.TempDir()
	cfg.Upload.MaxSize = o.MaxUploadSize
	cfg.Upload.MaxDimension = 512
	cfg.RateLimit.RequestsPerMinute = o.RequestsPerMinute
	config.ApplyDefaults(cfg)
	require.NoError(t, cfg.Validate())

	db := testutil.NewDB(t)

	templates, err := email.NewDefaultTemplateManager("")
	require.NoError(t, err)
	store, err := storage.NewLocalStorage(storage.Config{BasePath: cfg.Storage.BasePath, BaseURL: cfg.Storage.BaseURL})
	require.NoError(t, err)

	ts := &TestServer{
		DB:         db,
		Config:     cfg,
		Advice:     &providers.FakeAdvice{},
		Analyzer:   &providers.FakeAnalyzer{},
		Transferer: &providers.FakeTransferer{},
		Payments:   providers.NewFakePayments(WebhookSecret),
		Mailer:     email.NewLogProvider(templates),
	}

	limiter := ratelimit.NewManager(ratelimit.Settings{Limit: cfg.RateLimit.RequestsPerMinute, Window: time.Minute}, nil, nil)
	deps := &app.Dependencies{
		Advice:       ts.Advice,
		Analyzer:     ts.Analyzer,
		Transferer:   ts.Transferer,
		Payments:     ts.Payments,
		Mailer:       ts.Mailer,
		Contacts:     ts.Mailer,
		Storage:      store,
		SessionStore: sessions.NewGormStore(db),
		RateLimiter:  limiter,
	}

	ts.Server = httptest.NewServer(app.SetupRouter(cfg, db, deps))
	t.Cleanup(ts.Server.Close)
	return ts
}

// Client - отдельный браузер со своими cookie
type Client struct {
	ts     *TestServer
	client *http.Client
}

func (ts *TestServer) NewClient(t *testing.T) *Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	httpClient := ts.Server.Client()
	return &Client{ts: ts, client: &http.Client{Transport: httpClient.Transport, Jar: jar}}
}

// SendRequest отправляет JSON (body может быть nil или []byte)
func (c *Client) SendRequest(t *testing.T, method, path string, body interface{}) (*http.Response, string) {
	t.Helper()

	var reqBody io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reqBody = bytes.NewReader(b)
	default:
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.ts.Server.URL+path, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(t, req)
}

// SendRaw отправляет тело как есть с дополнительными заголовками
func (c *Client) SendRaw(t *testing.T, method, path string, body []byte, headers map[string]string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, c.ts.Server.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.do(t, req)
}

// SendMultipart отправляет форму с файлами
func (c *Client) SendMultipart(t *testing.T, path string, fields map[string]string, files map[string][]byte) (*http.Response, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range fields {
		require.NoError(t, w.WriteField(name, value))
	}
	for name, data := range files {
		part, err := w.CreateFormFile(name, name+".png")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, c.ts.Server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(t, req)
}

func (c *Client) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	res, err := c.client.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(data)
}

// Login входит под указанным пользователем
func (c *Client) Login(t *testing.T, username, password string) {
	t.Helper()
	res, body := c.SendRequest(t, http.MethodPost, "/api/login", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)
}

// CreateUser создает пользователя с паролем password123
func (ts *TestServer) CreateUser(t *testing.T, emailAddr string, credits int, role models.UserRole) *models.User {
	t.Helper()
	return testutil.CreateUser(t, ts.DB, testutil.UserOptions{Email: emailAddr, Credits: credits, Role: role})
}

// LoggedInClient - клиент с открытой сессией нового пользователя
func (ts *TestServer) LoggedInClient(t *testing.T, emailAddr string, credits int, role models.UserRole) (*Client, *models.User) {
	t.Helper()
	user := ts.CreateUser(t, emailAddr, credits, role)
	c := ts.NewClient(t)
	c.Login(t, user.Username, "password123")
	return c, user
}

// Decode разбирает JSON ответа
func Decode(t *testing.T, body string, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(body), v), body)
}
