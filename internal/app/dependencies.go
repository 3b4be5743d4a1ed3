package app

import (
	"context"
	"fmt"
	"time"

	"eva_harper_backend/internal/config"
	"eva_harper_backend/internal/email"
	"eva_harper_backend/internal/logger"
	"eva_harper_backend/internal/providers"
	"eva_harper_backend/internal/ratelimit"
	"eva_harper_backend/internal/sessions"
	"eva_harper_backend/internal/storage"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Dependencies - внешние системы, которые SetupRouter получает готовыми.
// В тестах сюда подставляются фейки.
type Dependencies struct {
	Advice     providers.AdviceProvider
	Analyzer   providers.OutfitAnalyzer
	Transferer providers.StyleTransferer
	Payments   providers.PaymentProvider

	Mailer   email.Provider
	Contacts email.ContactSyncer

	Storage      storage.Storage
	SessionStore sessions.Store
	RateLimiter  *ratelimit.Manager
}

// BuildDependencies создает реальные клиенты по конфигурации.
// Провайдеры без ключей создаются всё равно и падают при вызове.
func BuildDependencies(cfg *config.Config, db *gorm.DB) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	timeout := time.Duration(cfg.Providers.TimeoutSeconds) * time.Second
	openai := providers.NewOpenAIClient(providers.OpenAIConfig{
		APIKey:  cfg.Providers.OpenAIAPIKey,
		Model:   cfg.Providers.OpenAIModel,
		BaseURL: cfg.Providers.OpenAIBaseURL,
		Timeout: timeout,
	})
	if cfg.Providers.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set, AI features will fail")
	}

	deps := &Dependencies{
		Advice:   openai,
		Analyzer: openai,
		Transferer: providers.NewReplicateClient(providers.ReplicateConfig{
			APIToken:     cfg.Providers.ReplicateAPIToken,
			BaseURL:      cfg.Providers.ReplicateBaseURL,
			ModelVersion: cfg.Providers.ReplicateModelVersion,
			Timeout:      timeout,
		}),
		Payments: providers.NewStripeClient(providers.StripeConfig{
			SecretKey:     cfg.Providers.StripeSecretKey,
			WebhookSecret: cfg.Providers.StripeWebhookSecret,
			BaseURL:       cfg.Providers.StripeBaseURL,
			Timeout:       timeout,
		}),
	}

	mailer, err := buildMailer(cfg)
	if err != nil {
		return nil, cleanup, err
	}
	deps.Mailer = mailer
	closers = append(closers, func() { _ = mailer.Close() })

	if cfg.Email.MailjetAPIKey != "" && cfg.Email.MailjetAPISecret != "" {
		deps.Contacts = email.NewMailjetSyncer(email.MailjetConfig{
			APIKey:    cfg.Email.MailjetAPIKey,
			APISecret: cfg.Email.MailjetAPISecret,
			ListID:    cfg.Email.MailjetListID,
		})
	} else {
		deps.Contacts = email.NoopSyncer{}
	}

	deps.Storage, err = storage.NewStorage(storage.Config{
		Type:      cfg.Storage.Type,
		BasePath:  cfg.Storage.BasePath,
		BaseURL:   cfg.Storage.BaseURL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
	})
	if err != nil {
		return nil, cleanup, fmt.Errorf("storage: %w", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	switch cfg.Session.Store {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, cleanup, fmt.Errorf("session redis: %w", err)
		}
		closers = append(closers, func() { _ = client.Close() })
		deps.SessionStore = sessions.NewRedisStore(client, cfg.Session.RedisPrefix)
	default:
		deps.SessionStore = sessions.NewGormStore(db)
	}
	logger.Info("Session store initialized", "store", cfg.Session.Store)

	deps.RateLimiter = ratelimit.NewManager(ratelimit.Settings{
		Limit:         cfg.RateLimit.RequestsPerMinute,
		Window:        time.Minute,
		RedisEnabled:  cfg.RateLimit.RedisEnabled,
		RedisAddr:     cfg.Session.RedisAddr,
		RedisPassword: cfg.Session.RedisPassword,
		RedisDB:       cfg.Session.RedisDB,
	}, nil, nil)
	closers = append(closers, func() { _ = deps.RateLimiter.Close() })

	return deps, cleanup, nil
}

// buildMailer - SMTP, если задан хост и логин, иначе письма только логируются
func buildMailer(cfg *config.Config) (email.Provider, error) {
	templates, err := email.NewDefaultTemplateManager(cfg.Email.TemplatesDir)
	if err != nil {
		return nil, fmt.Errorf("email templates: %w", err)
	}

	if cfg.Email.SMTPHost == "" || cfg.Email.SMTPUsername == "" {
		logger.Warn("SMTP is not configured, emails will only be logged")
		return email.NewLogProvider(templates), nil
	}

	smtpCfg := email.DefaultConfig()
	smtpCfg.Host = cfg.Email.SMTPHost
	smtpCfg.Port = cfg.Email.SMTPPort
	smtpCfg.Username = cfg.Email.SMTPUsername
	smtpCfg.Password = cfg.Email.SMTPPassword
	smtpCfg.FromEmail = cfg.Email.FromEmail
	smtpCfg.FromName = cfg.Email.FromName

	provider := email.NewSMTPProvider(smtpCfg, templates)
	if err := provider.Validate(); err != nil {
		return nil, fmt.Errorf("smtp: %w", err)
	}
	return provider, nil
}
