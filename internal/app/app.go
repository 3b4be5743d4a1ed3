package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"eva_harper_backend/internal/auth"
	"eva_harper_backend/internal/config"
	"eva_harper_backend/internal/database"
	"eva_harper_backend/internal/handlers"
	"eva_harper_backend/internal/imageprocessor"
	"eva_harper_backend/internal/logger"
	"eva_harper_backend/internal/middleware"
	"eva_harper_backend/internal/models"
	"eva_harper_backend/internal/repositories"
	"eva_harper_backend/internal/routes"
	"eva_harper_backend/internal/services"
	"eva_harper_backend/internal/sessions"
	"eva_harper_backend/internal/validator"
	"eva_harper_backend/internal/workers"
	"eva_harper_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)
	apperrors.SetDebug(!cfg.IsProduction())

	logger.Info("Connecting to database...", "driver", cfg.Database.Driver)
	gormDB, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.Migrate(gormDB); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}
	logger.Info("Database connected")

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		// Без админа некому одобрять заявки - сервер не запускаем
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	deps, cleanup, err := BuildDependencies(cfg, gormDB)
	if err != nil {
		logger.Fatal("Failed to initialize dependencies", "error", err)
	}
	defer cleanup()

	ginRouter := SetupRouter(cfg, gormDB, deps)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	userRepo := repositories.NewUserRepository()
	workers.NewSubscriptionWorker(gormDB, userRepo,
		time.Duration(cfg.Workers.SubscriptionIntervalMinutes)*time.Minute).Start(ctx)
	workers.NewSessionCleanupWorker(gormDB, newSessionManager(cfg, deps.SessionStore), userRepo, deps.RateLimiter,
		time.Duration(cfg.Workers.SessionCleanupMinutes)*time.Minute).Start(ctx)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              address,
		Handler:           ginRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "address", address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
}

// SetupRouter собирает сервисы, хэндлеры и маршруты поверх готовых зависимостей.
// Тесты вызывают его с фейковыми провайдерами.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB, deps *Dependencies) *gin.Engine {
	sessionManager := newSessionManager(cfg, deps.SessionStore)

	serviceContainer := initializeServices(cfg, deps)
	appHandlers := initializeHandlers(cfg, serviceContainer, deps, sessionManager)

	ginRouter := initializeGinRouter(cfg, gormDB)
	guards := &middleware.Guards{
		Session:    middleware.SessionAuth(sessionManager, repositories.NewUserRepository()),
		Admin:      middleware.RequireAdmin(),
		RateLimit:  middleware.RateLimit(deps.RateLimiter),
		Upload:     middleware.UploadLimit(cfg.Upload.MaxSize, 1),
		UploadPair: middleware.UploadLimit(cfg.Upload.MaxSize, 2),
	}

	opts := routes.Options{Swagger: !cfg.IsProduction()}
	if appHandlers.FileHandler != nil {
		opts.FilesPrefix = cfg.Storage.BaseURL
	}
	routes.RegisterRoutes(ginRouter, appHandlers, guards, opts)

	return ginRouter
}

func newSessionManager(cfg *config.Config, store sessions.Store) *sessions.Manager {
	return sessions.NewManager(store, sessions.Options{
		Secret:     cfg.Session.Secret,
		TTL:        time.Duration(cfg.Session.TTLHours) * time.Hour,
		CookieName: cfg.Session.CookieName,
		Secure:     cfg.IsProduction(),
	})
}

func initializeServices(cfg *config.Config, deps *Dependencies) *services.ServiceContainer {
	// --- Репозитории ---
	userRepo := repositories.NewUserRepository()
	waitlistRepo := repositories.NewWaitlistRepository()
	imageRepo := repositories.NewSavedImageRepository()
	outfitRepo := repositories.NewOutfitRepository()
	paymentRepo := repositories.NewPaymentRepository()

	images := imageprocessor.NewProcessor(cfg.Upload.ImageQuality, cfg.Upload.MaxDimension)

	// --- Сервисы ---
	ledger := services.NewLedgerService(userRepo)

	return &services.ServiceContainer{
		Ledger: ledger,
		Auth:   services.NewAuthService(userRepo, waitlistRepo),
		Waitlist: services.NewWaitlistService(waitlistRepo, userRepo, deps.Mailer, deps.Contacts, deps.Advice, services.WaitlistConfig{
			PublicURL:     cfg.Server.PublicURL,
			ComposeWithAI: cfg.Email.ComposeWithAI,
			TokenTTL:      services.SetupTokenTTL,
		}),
		Fashion: services.NewFashionService(ledger, imageRepo, deps.Advice, deps.Analyzer, deps.Transferer, images),
		Outfit:  services.NewOutfitService(ledger, outfitRepo, deps.Analyzer, deps.Storage, images),
		Payment: services.NewPaymentService(deps.Payments, paymentRepo, userRepo),
		Profile: services.NewProfileService(userRepo, imageRepo, deps.Storage, images),
	}
}

func initializeHandlers(cfg *config.Config, svc *services.ServiceContainer, deps *Dependencies, manager *sessions.Manager) *handlers.AppHandlers {
	baseHandler := handlers.NewBaseHandler(validator.New())

	appHandlers := &handlers.AppHandlers{
		AuthHandler:     handlers.NewAuthHandler(baseHandler, svc.Auth, manager),
		WaitlistHandler: handlers.NewWaitlistHandler(baseHandler, svc.Waitlist),
		FashionHandler:  handlers.NewFashionHandler(baseHandler, svc.Fashion),
		OutfitHandler:   handlers.NewOutfitHandler(baseHandler, svc.Outfit),
		ProfileHandler:  handlers.NewProfileHandler(baseHandler, svc.Profile),
		CreditsHandler:  handlers.NewCreditsHandler(baseHandler, svc.Payment, svc.Ledger),
		HealthHandler:   handlers.NewHealthHandler(baseHandler),
	}
	if cfg.Storage.Type == "local" {
		appHandlers.FileHandler = handlers.NewFileHandler(baseHandler, deps.Storage)
	}
	return appHandlers
}

func initializeGinRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigins))
	router.Use(middleware.DBMiddleware(db))
	return router
}

// seedFirstAdmin создает администратора из конфигурации, если его еще нет
func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	adminEmail := cfg.Admin.Email
	adminPassword := cfg.Admin.Password

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	userRepo := repositories.NewUserRepository()

	return db.Transaction(func(tx *gorm.DB) error {
		existing, err := userRepo.FindByEmail(tx, adminEmail)
		if err == nil {
			if !auth.IsAdmin(existing) {
				logger.Warn("User with admin email exists but is not an admin", "email", adminEmail)
			} else {
				logger.Info("Admin user already exists. Skipping creation.", "email", adminEmail)
			}
			return nil
		}
		if !errors.Is(err, repositories.ErrUserNotFound) {
			return fmt.Errorf("failed to check for admin user: %w", err)
		}

		hashedPassword, err := auth.HashPassword(adminPassword)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}

		newAdmin := &models.User{
			Username:     cfg.Admin.Username,
			Email:        adminEmail,
			PasswordHash: hashedPassword,
			Role:         models.UserRoleAdmin,
			Credits:      models.StartingCredits,
			Subscription: models.SubscriptionFree,
			HasAccess:    true,
		}
		if err := userRepo.Create(tx, newAdmin); err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		logger.Info("Created first admin user", "email", adminEmail)
		return nil
	})
}
