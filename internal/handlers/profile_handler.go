package handlers

import (
	"net/http"

	"eva_harper_backend/internal/middleware"
	"eva_harper_backend/internal/services"
	"eva_harper_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	*BaseHandler
	profileService services.ProfileService
}

func NewProfileHandler(base *BaseHandler, profileService services.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		BaseHandler:    base,
		profileService: profileService,
	}
}

func (h *ProfileHandler) RegisterRoutes(api *gin.RouterGroup, g *middleware.Guards) {
	profile := api.Group("/profile")
	profile.Use(g.Session)
	{
		profile.POST("/upload-image", g.Upload, h.UploadImage)
		profile.POST("/preferences", h.SavePreferences)
		profile.POST("/complete-onboarding", h.CompleteOnboarding)
		profile.POST("/skip-onboarding", h.CompleteOnboarding)
		profile.GET("/images", h.ListImages)
	}

	// Пути страницы профиля во фронтенде
	account := api.Group("", g.Session)
	{
		account.GET("/images/saved", h.ListImages)
		account.PATCH("/user/preferences", h.UpdatePreferences)
		account.PATCH("/user/interests", h.UpdateInterests)
	}
}

// UploadImage godoc
// @Summary Загрузить фото профиля
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Фото"
// @Param type formData string true "portrait или fullBody"
// @Success 200 {object} models.SavedImage
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 413 {object} apperrors.ErrorResponse
// @Router /api/profile/upload-image [post]
func (h *ProfileHandler) UploadImage(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok || !h.ParseMultipart(c) {
		return
	}
	image, ok := h.FormFileBytes(c, "image")
	if !ok {
		return
	}

	saved, err := h.profileService.UploadImage(c.Request.Context(), h.GetDB(c), userID, &dto.UploadImageInput{
		Image: image,
		Type:  c.PostForm("type"),
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// SavePreferences godoc
// @Summary Сохранить стилевые предпочтения
// @Tags profile
// @Accept json
// @Produce json
// @Param request body dto.PreferencesRequest true "Предпочтения"
// @Success 200 {object} models.User
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /api/profile/preferences [post]
func (h *ProfileHandler) SavePreferences(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.PreferencesRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.profileService.SavePreferences(c.Request.Context(), h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdatePreferences godoc
// @Summary Изменить предпочтения
// @Tags profile
// @Accept json
// @Produce json
// @Param request body dto.PreferencesPayload true "Предпочтения"
// @Success 200 {object} models.User
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /api/user/preferences [patch]
func (h *ProfileHandler) UpdatePreferences(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.PreferencesPayload
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.profileService.UpdatePreferences(c.Request.Context(), h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateInterests godoc
// @Summary Изменить модные интересы
// @Tags profile
// @Accept json
// @Produce json
// @Param request body dto.InterestsPayload true "Интересы"
// @Success 200 {object} models.User
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /api/user/interests [patch]
func (h *ProfileHandler) UpdateInterests(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.InterestsPayload
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.profileService.UpdateInterests(c.Request.Context(), h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// CompleteOnboarding godoc
// @Summary Завершить или пропустить онбординг
// @Tags profile
// @Produce json
// @Success 200 {object} models.User
// @Router /api/profile/complete-onboarding [post]
// @Router /api/profile/skip-onboarding [post]
func (h *ProfileHandler) CompleteOnboarding(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	user, err := h.profileService.CompleteOnboarding(c.Request.Context(), h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListImages godoc
// @Summary Галерея пользователя
// @Tags profile
// @Produce json
// @Success 200 {array} models.SavedImage
// @Router /api/profile/images [get]
// @Router /api/images/saved [get]
func (h *ProfileHandler) ListImages(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	images, err := h.profileService.ListImages(h.GetDB(c).WithContext(c.Request.Context()), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, images)
}
