package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"eva_harper_backend/internal/logger"
	"eva_harper_backend/internal/middleware"
	"eva_harper_backend/internal/models"
	"eva_harper_backend/internal/validator"
	"eva_harper_backend/pkg/apperrors"
	"eva_harper_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// multipartMemory - сколько multipart данных держать в памяти,
// остальное уходит во временные файлы
const multipartMemory = 8 << 20

// ============================================================================
// 1. Базовая структура обработчика
// ============================================================================

type BaseHandler struct {
	validator *validator.Validator
}

func NewBaseHandler(v *validator.Validator) *BaseHandler {
	return &BaseHandler{
		validator: v,
	}
}

// GetDB извлекает *gorm.DB (пул или транзакцию) из gin.Context.
// Без DBMiddleware приложение сконфигурировано неверно, поэтому panic.
func (h *BaseHandler) GetDB(c *gin.Context) *gorm.DB {
	dbKey := string(contextkeys.DBContextKey)

	val, ok := c.Get(dbKey)
	if !ok {
		logger.CtxError(c.Request.Context(), "critical error: db key not found in context", "key", dbKey)
		panic("critical error: DBMiddleware did not set the db key")
	}

	db, ok := val.(*gorm.DB)
	if !ok {
		logger.CtxError(c.Request.Context(), "critical error: db in context is not *gorm.DB", "key", dbKey, "type", fmt.Sprintf("%T", val))
		panic("critical error: db in context has incorrect type")
	}

	return db
}

// ============================================================================
// 2. Привязка и валидация
// ============================================================================

func (h *BaseHandler) BindAndValidate_JSON(c *gin.Context, obj interface{}) bool {
	ctx := c.Request.Context()

	if err := c.ShouldBindJSON(obj); err != nil {
		if isBodyTooLarge(err) {
			apperrors.HandleError(c, apperrors.ErrFileTooLarge)
			return false
		}
		logger.CtxWarn(ctx, "Failed to bind JSON body", "error", err.Error(), "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid request body"))
		return false
	}

	return h.validate(c, obj)
}

func (h *BaseHandler) validate(c *gin.Context, obj interface{}) bool {
	ctx := c.Request.Context()

	if err := h.validator.Validate(obj); err != nil {
		var vErr *validator.ValidationError
		if errors.As(err, &vErr) {
			logger.CtxWarn(ctx, "Validation failed", "errors", vErr.Errors, "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.ValidationError(vErr.Errors))
		} else {
			logger.CtxWithError(ctx, "Internal validator error", err, "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.InternalError(err))
		}
		return false
	}
	return true
}

// ParseMultipart разбирает multipart форму. Превышение лимита тела - 413.
func (h *BaseHandler) ParseMultipart(c *gin.Context) bool {
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		if isBodyTooLarge(err) {
			apperrors.HandleError(c, apperrors.ErrFileTooLarge)
			return false
		}
		logger.CtxWarn(c.Request.Context(), "Failed to parse multipart form", "error", err.Error(), "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid multipart form"))
		return false
	}
	return true
}

// FormFileBytes читает файл из уже разобранной формы.
// Отсутствующее поле - не ошибка: возвращается nil.
// Файл больше лимита маршрута дает 413.
func (h *BaseHandler) FormFileBytes(c *gin.Context, field string) ([]byte, bool) {
	file, header, err := c.Request.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, true
		}
		if isBodyTooLarge(err) {
			apperrors.HandleError(c, apperrors.ErrFileTooLarge)
			return nil, false
		}
		logger.CtxWarn(c.Request.Context(), "Failed to open uploaded file", "error", err.Error(), "field", field)
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid file field: "+field))
		return nil, false
	}
	defer file.Close()

	if limit := middleware.FileSizeLimit(c); limit > 0 && header.Size > limit {
		apperrors.HandleError(c, apperrors.ErrFileTooLarge)
		return nil, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		logger.CtxWithError(c.Request.Context(), "Failed to read uploaded file", err, "field", field)
		apperrors.HandleError(c, apperrors.NewBadRequestError("Failed to read uploaded file"))
		return nil, false
	}
	return data, true
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// ============================================================================
// 3. Обработка ошибок сервисов
// ============================================================================

func (h *BaseHandler) HandleServiceError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		if appErr.HTTPCode < http.StatusInternalServerError {
			logger.CtxWarn(ctx, "Service error",
				"error", appErr.Message,
				"details", appErr.Details,
				"path", c.Request.URL.Path,
			)
		}
		apperrors.HandleError(c, appErr)
	} else {
		logger.CtxWithError(ctx, "Internal server error", err, "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.InternalError(err))
	}
}

// ============================================================================
// 4. Текущий пользователь
// ============================================================================

func (h *BaseHandler) GetAndAuthorizeUserID(c *gin.Context) (string, bool) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		logger.CtxWarn(c.Request.Context(), "Unauthorized access: userID not found in context",
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
		)
		apperrors.HandleError(c, apperrors.ErrNotAuthenticated)
		return "", false
	}
	return userID, true
}

// CurrentUser - пользователь, загруженный SessionAuth
func (h *BaseHandler) CurrentUser(c *gin.Context) (*models.User, bool) {
	user := middleware.CurrentUser(c)
	if user == nil {
		apperrors.HandleError(c, apperrors.ErrNotAuthenticated)
		return nil, false
	}
	return user, true
}
