package handlers

import (
	"net/http"

	"eva_harper_backend/internal/logger"
	"eva_harper_backend/internal/middleware"
	"eva_harper_backend/internal/models"
	"eva_harper_backend/internal/services"
	"eva_harper_backend/internal/services/dto"
	"eva_harper_backend/internal/sessions"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	*BaseHandler
	authService services.AuthService
	sessions    *sessions.Manager
}

func NewAuthHandler(base *BaseHandler, authService services.AuthService, manager *sessions.Manager) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		authService: authService,
		sessions:    manager,
	}
}

// RegisterRoutes регистрирует маршруты аутентификации
func (h *AuthHandler) RegisterRoutes(api *gin.RouterGroup, g *middleware.Guards) {
	api.POST("/register", g.RateLimit, h.Register)
	api.POST("/login", g.RateLimit, h.Login)
	api.POST("/logout", h.Logout)
	api.GET("/user", g.Session, h.GetCurrentUser)
	api.POST("/auth/setup-password", g.RateLimit, h.SetupPassword)
}

// Register godoc
// @Summary Регистрация по одобренной заявке
// @Description Создает или активирует аккаунт для одобренного email и сразу открывает сессию
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Данные регистрации"
// @Success 201 {object} models.User
// @Failure 400 {object} apperrors.ErrorResponse "Имя пользователя или email заняты"
// @Failure 403 {object} apperrors.ErrorResponse "Email не одобрен"
// @Router /api/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.authService.Register(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	if !h.startSession(c, user) {
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Login godoc
// @Summary Вход по имени пользователя или email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Учетные данные"
// @Success 200 {object} models.User
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /api/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.authService.Login(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	if !h.startSession(c, user) {
		return
	}
	c.JSON(http.StatusOK, user)
}

// Logout godoc
// @Summary Выход
// @Tags auth
// @Produce json
// @Success 200 {object} dto.SuccessResponse
// @Router /api/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	if token := h.sessions.TokenFromRequest(c); token != "" {
		if err := h.sessions.End(ctx, token); err != nil {
			logger.CtxWithError(ctx, "Failed to end session", err)
		}
	}
	h.sessions.ClearCookie(c)
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// GetCurrentUser godoc
// @Summary Текущий пользователь
// @Tags auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /api/user [get]
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

// SetupPassword godoc
// @Summary Установка пароля по ссылке из письма
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.SetupPasswordRequest true "Токен и новый пароль"
// @Success 200 {object} dto.SetupPasswordResponse
// @Failure 400 {object} apperrors.ErrorResponse "Токен истек"
// @Failure 404 {object} apperrors.ErrorResponse "Токен не найден"
// @Router /api/auth/setup-password [post]
func (h *AuthHandler) SetupPassword(c *gin.Context) {
	var req dto.SetupPasswordRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.authService.CompleteSetup(c.Request.Context(), h.GetDB(c), &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SetupPasswordResponse{Success: true, Message: "Password set successfully"})
}

func (h *AuthHandler) startSession(c *gin.Context, user *models.User) bool {
	token, _, err := h.sessions.Start(c.Request.Context(), user.ID, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		h.HandleServiceError(c, err)
		return false
	}
	h.sessions.SetCookie(c, token)
	return true
}
