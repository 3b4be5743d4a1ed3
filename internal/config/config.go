package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host        string   `yaml:"host"`
		Port        int      `yaml:"port"`
		Env         string   `yaml:"env"`
		PublicURL   string   `yaml:"public_url"` // База для ссылок в письмах
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`

	Database struct {
		Driver string `yaml:"driver"` // postgres, sqlite
		DSN    string `yaml:"url"`
	} `yaml:"database"`

	Session struct {
		Secret        string `yaml:"secret"`
		TTLHours      int    `yaml:"ttl_hours"`
		CookieName    string `yaml:"cookie_name"`
		Store         string `yaml:"store"` // database, redis
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
		RedisPrefix   string `yaml:"redis_prefix"`
	} `yaml:"session"`

	Email struct {
		SMTPHost         string `yaml:"smtp_host"`
		SMTPPort         int    `yaml:"smtp_port"`
		SMTPUsername     string `yaml:"smtp_user"`
		SMTPPassword     string `yaml:"smtp_password"`
		FromEmail        string `yaml:"from_email"`
		FromName         string `yaml:"from_name"`
		TemplatesDir     string `yaml:"templates_dir"`
		MailjetAPIKey    string `yaml:"mailjet_api_key"`
		MailjetAPISecret string `yaml:"mailjet_api_secret"`
		MailjetListID    string `yaml:"mailjet_list_id"`
		ComposeWithAI    bool   `yaml:"compose_with_ai"`
	} `yaml:"email"`

	Storage struct {
		Type      string `yaml:"type"`      // local, s3, cloudflare_r2
		BasePath  string `yaml:"base_path"` // For local storage
		BaseURL   string `yaml:"base_url"`  // Public URL base
		Bucket    string `yaml:"bucket"`
		Region    string `yaml:"region"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Endpoint  string `yaml:"endpoint"`
	} `yaml:"storage"`

	Upload struct {
		MaxSize      int64    `yaml:"max_size"` // Max file size in bytes
		AllowedTypes []string `yaml:"allowed_types"`
		ImageQuality int      `yaml:"image_quality"` // JPEG quality (1-100)
		MaxDimension int      `yaml:"max_dimension"` // Longest side after downscale
	} `yaml:"upload"`

	Providers struct {
		OpenAIAPIKey          string `yaml:"openai_api_key"`
		OpenAIModel           string `yaml:"openai_model"`
		OpenAIBaseURL         string `yaml:"openai_base_url"`
		ReplicateAPIToken     string `yaml:"replicate_api_token"`
		ReplicateBaseURL      string `yaml:"replicate_base_url"`
		ReplicateModelVersion string `yaml:"replicate_model_version"`
		StripeSecretKey       string `yaml:"stripe_secret_key"`
		StripeWebhookSecret   string `yaml:"stripe_webhook_secret"`
		StripeBaseURL         string `yaml:"stripe_base_url"`
		TimeoutSeconds        int    `yaml:"timeout_seconds"`
	} `yaml:"providers"`

	RateLimit struct {
		RequestsPerMinute int  `yaml:"requests_per_minute"` // 0 - выключено
		RedisEnabled      bool `yaml:"redis_enabled"`
	} `yaml:"ratelimit"`

	Admin struct {
		Email    string `yaml:"email"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"admin"`

	Workers struct {
		SubscriptionIntervalMinutes int `yaml:"subscription_interval_minutes"`
		SessionCleanupMinutes       int `yaml:"session_cleanup_minutes"`
	} `yaml:"workers"`
}

var AppConfig *Config

// Load читает .env (если есть), затем YAML из CONFIG_PATH, затем
// накладывает переменные окружения. Если YAML нет, а DATABASE_URL
// задан - конфиг собирается только из окружения.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}

	cfg := &Config{}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	f, err := os.Open(configPath)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file at %s: %w", configPath, err)
		}
	case errors.Is(err, fs.ErrNotExist) && os.Getenv("DATABASE_URL") != "":
		log.Println("config: file not found, using environment only")
	default:
		return nil, fmt.Errorf("failed to open config file at %s: %w", configPath, err)
	}

	applyEnv(cfg)
	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig - как Load, но падает при ошибке и заполняет AppConfig
func LoadConfig() {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	AppConfig = cfg
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}

func applyEnv(cfg *Config) {
	setString(&cfg.Database.DSN, "DATABASE_URL")
	setString(&cfg.Database.Driver, "DATABASE_DRIVER")
	setString(&cfg.Server.Env, "SERVER_ENV")
	setInt(&cfg.Server.Port, "SERVER_PORT")
	setString(&cfg.Server.PublicURL, "PUBLIC_URL")

	setString(&cfg.Session.Secret, "SESSION_SECRET")
	setString(&cfg.Session.Store, "SESSION_STORE")
	setString(&cfg.Session.RedisAddr, "REDIS_ADDR")
	setString(&cfg.Session.RedisPassword, "REDIS_PASSWORD")

	setString(&cfg.Email.SMTPHost, "SMTP_HOST")
	setInt(&cfg.Email.SMTPPort, "SMTP_PORT")
	setString(&cfg.Email.SMTPUsername, "SMTP_USER")
	setString(&cfg.Email.SMTPPassword, "SMTP_PASSWORD")
	setString(&cfg.Email.MailjetAPIKey, "MAILJET_API_KEY")
	setString(&cfg.Email.MailjetAPISecret, "MAILJET_API_SECRET")

	setString(&cfg.Storage.AccessKey, "STORAGE_ACCESS_KEY")
	setString(&cfg.Storage.SecretKey, "STORAGE_SECRET_KEY")

	setString(&cfg.Providers.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&cfg.Providers.ReplicateAPIToken, "REPLICATE_API_TOKEN")
	setString(&cfg.Providers.StripeSecretKey, "STRIPE_SECRET_KEY")
	setString(&cfg.Providers.StripeWebhookSecret, "STRIPE_WEBHOOK_SECRET")

	setString(&cfg.Admin.Email, "FIRST_ADMIN_EMAIL")
	setString(&cfg.Admin.Username, "FIRST_ADMIN_USERNAME")
	setString(&cfg.Admin.Password, "FIRST_ADMIN_PASSWORD")
}

// ApplyDefaults заполняет незаданные поля значениями по умолчанию.
// Экспортируется для тестов, которые собирают Config руками.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = guessDriver(cfg.Database.DSN)
	}

	if cfg.Session.TTLHours <= 0 {
		cfg.Session.TTLHours = 24
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "eva_session"
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = "database"
	}
	if cfg.Session.RedisPrefix == "" {
		cfg.Session.RedisPrefix = "eva:session"
	}

	if cfg.Email.FromName == "" {
		cfg.Email.FromName = "Eva Harper"
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = 587
	}
	if cfg.Email.MailjetListID == "" {
		cfg.Email.MailjetListID = "10519869"
	}

	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.BasePath == "" {
		cfg.Storage.BasePath = "./uploads"
	}
	if cfg.Storage.BaseURL == "" && cfg.Storage.Type == "local" {
		cfg.Storage.BaseURL = "/files"
	}

	if cfg.Upload.MaxSize <= 0 {
		cfg.Upload.MaxSize = 5 * 1024 * 1024 // 5MB
	}
	if len(cfg.Upload.AllowedTypes) == 0 {
		cfg.Upload.AllowedTypes = []string{"image/jpeg", "image/png"}
	}
	if cfg.Upload.ImageQuality <= 0 || cfg.Upload.ImageQuality > 100 {
		cfg.Upload.ImageQuality = 85
	}
	if cfg.Upload.MaxDimension <= 0 {
		cfg.Upload.MaxDimension = 1536
	}

	if cfg.Providers.OpenAIModel == "" {
		cfg.Providers.OpenAIModel = "gpt-4o"
	}
	if cfg.Providers.OpenAIBaseURL == "" {
		cfg.Providers.OpenAIBaseURL = "https://api.openai.com"
	}
	if cfg.Providers.ReplicateBaseURL == "" {
		cfg.Providers.ReplicateBaseURL = "https://api.replicate.com"
	}
	if cfg.Providers.ReplicateModelVersion == "" {
		cfg.Providers.ReplicateModelVersion = "bd6e2354e39651808b1491cd39a763025a9614e17b09e58c3bab4b64f98a80a1"
	}
	if cfg.Providers.StripeBaseURL == "" {
		cfg.Providers.StripeBaseURL = "https://api.stripe.com"
	}
	if cfg.Providers.TimeoutSeconds <= 0 {
		cfg.Providers.TimeoutSeconds = 120
	}

	if cfg.RateLimit.RequestsPerMinute < 0 {
		cfg.RateLimit.RequestsPerMinute = 0
	}

	if cfg.Admin.Username == "" && cfg.Admin.Email != "" {
		cfg.Admin.Username = "admin"
	}

	if cfg.Workers.SubscriptionIntervalMinutes <= 0 {
		cfg.Workers.SubscriptionIntervalMinutes = 360
	}
	if cfg.Workers.SessionCleanupMinutes <= 0 {
		cfg.Workers.SessionCleanupMinutes = 60
	}
}

// Validate проверяет обязательные поля
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.url is required")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if len(c.Session.Secret) < 16 {
		return errors.New("session.secret must be at least 16 characters")
	}
	switch c.Session.Store {
	case "database":
	case "redis":
		if c.Session.RedisAddr == "" {
			return errors.New("session.redis_addr is required for redis store")
		}
	default:
		return fmt.Errorf("unsupported session store: %s", c.Session.Store)
	}
	if c.RateLimit.RedisEnabled && c.Session.RedisAddr == "" {
		return errors.New("session.redis_addr is required when ratelimit.redis_enabled is set")
	}
	return nil
}

// IsProduction - cookie Secure и скрытие деталей ошибок
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func guessDriver(dsn string) string {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") || strings.Contains(lower, "host=") {
		return "postgres"
	}
	return "sqlite"
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}
