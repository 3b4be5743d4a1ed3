package middleware

import (
	"errors"

	"eva_harper_backend/internal/auth"
	"eva_harper_backend/internal/logger"
	"eva_harper_backend/internal/models"
	"eva_harper_backend/internal/repositories"
	"eva_harper_backend/internal/sessions"
	"eva_harper_backend/pkg/apperrors"
	"eva_harper_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SessionAuth - middleware проверки серверной сессии по cookie.
// Должен идти после DBMiddleware.
func SessionAuth(manager *sessions.Manager, userRepo repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		session, err := manager.Resolve(ctx, manager.TokenFromRequest(c))
		if err != nil {
			if errors.Is(err, sessions.ErrSessionInvalid) {
				apperrors.HandleError(c, apperrors.ErrNotAuthenticated)
				return
			}
			apperrors.HandleError(c, apperrors.InternalError(err))
			return
		}

		val, _ := c.Get(string(contextkeys.DBContextKey))
		db, ok := val.(*gorm.DB)
		if !ok || db == nil {
			apperrors.HandleError(c, apperrors.InternalError(errors.New("db not found in context")))
			return
		}

		user, err := userRepo.FindByID(db.WithContext(ctx), session.UserID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				apperrors.HandleError(c, apperrors.ErrNotAuthenticated)
				return
			}
			apperrors.HandleError(c, apperrors.InternalError(err))
			return
		}

		c.Set("userID", user.ID)
		c.Set(string(contextkeys.UserContextKey), user)
		c.Set(string(contextkeys.SessionContextKey), session)
		c.Request = c.Request.WithContext(logger.WithUserID(ctx, user.ID))
		c.Next()
	}
}

// RequireAdmin - 403 для всех, кто не проходит auth.IsAdmin
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.IsAdmin(CurrentUser(c)) {
			apperrors.HandleError(c, apperrors.ErrInsufficientPermissions)
			return
		}
		c.Next()
	}
}

// RequirePermission проверяет разрешение роли текущего пользователя
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.Can(CurrentUser(c), permission) {
			apperrors.HandleError(c, apperrors.ErrInsufficientPermissions)
			return
		}
		c.Next()
	}
}

// CurrentUser возвращает пользователя, загруженного SessionAuth
func CurrentUser(c *gin.Context) *models.User {
	val, exists := c.Get(string(contextkeys.UserContextKey))
	if !exists {
		return nil
	}
	user, _ := val.(*models.User)
	return user
}

// CurrentSession возвращает сессию текущего запроса
func CurrentSession(c *gin.Context) *models.Session {
	val, exists := c.Get(string(contextkeys.SessionContextKey))
	if !exists {
		return nil
	}
	session, _ := val.(*models.Session)
	return session
}

// GetUserID извлекает ID пользователя из контекста
func GetUserID(c *gin.Context) string {
	userID, exists := c.Get("userID")
	if !exists {
		return ""
	}

	id, ok := userID.(string)
	if !ok {
		return ""
	}

	return id
}
