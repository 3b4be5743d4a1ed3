package routes

import (
	_ "eva_harper_backend/docs"
	"eva_harper_backend/internal/handlers"
	"eva_harper_backend/internal/logger"
	"eva_harper_backend/internal/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Options - то, что зависит от конфигурации, а не от хэндлеров
type Options struct {
	FilesPrefix string // base_url local хранилища
	Swagger     bool
}

// RegisterRoutes регистрирует все HTTP маршруты.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	guards *middleware.Guards,
	opts Options,
) {
	ginRouter.GET("/health", appHandlers.HealthHandler.Health)

	api := ginRouter.Group("/api")
	{
		appHandlers.AuthHandler.RegisterRoutes(api, guards)
		appHandlers.WaitlistHandler.RegisterRoutes(api, guards)
		appHandlers.FashionHandler.RegisterRoutes(api, guards)
		appHandlers.OutfitHandler.RegisterRoutes(api, guards)
		appHandlers.ProfileHandler.RegisterRoutes(api, guards)
		appHandlers.CreditsHandler.RegisterRoutes(api, guards)
	}

	if appHandlers.FileHandler != nil && opts.FilesPrefix != "" {
		appHandlers.FileHandler.RegisterRoutes(ginRouter, opts.FilesPrefix)
		logger.Info("Local file route registered", "prefix", opts.FilesPrefix)
	}

	if opts.Swagger {
		ginRouter.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
}
