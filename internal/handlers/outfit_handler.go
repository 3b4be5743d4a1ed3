package handlers

import (
	"net/http"

	"eva_harper_backend/internal/middleware"
	"eva_harper_backend/internal/services"
	"eva_harper_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type OutfitHandler struct {
	*BaseHandler
	outfitService services.OutfitService
}

func NewOutfitHandler(base *BaseHandler, outfitService services.OutfitService) *OutfitHandler {
	return &OutfitHandler{
		BaseHandler:   base,
		outfitService: outfitService,
	}
}

func (h *OutfitHandler) RegisterRoutes(api *gin.RouterGroup, g *middleware.Guards) {
	outfits := api.Group("/outfits")
	outfits.Use(g.Session)
	{
		outfits.POST("", g.Upload, h.Create)
		outfits.GET("", h.List)
		outfits.GET("/:id", h.Get)
	}
}

// Create godoc
// @Summary Загрузить образ и получить оценку (2 кредита)
// @Tags outfits
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Фото образа"
// @Param title formData string false "Название"
// @Param description formData string false "Описание"
// @Param occasion formData string false "Повод"
// @Success 201 {object} dto.OutfitResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Failure 402 {object} apperrors.ErrorResponse
// @Failure 413 {object} apperrors.ErrorResponse
// @Router /api/outfits [post]
func (h *OutfitHandler) Create(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok || !h.ParseMultipart(c) {
		return
	}
	image, ok := h.FormFileBytes(c, "image")
	if !ok {
		return
	}

	resp, err := h.outfitService.Create(c.Request.Context(), h.GetDB(c), userID, &dto.CreateOutfitInput{
		Image:       image,
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Occasion:    c.PostForm("occasion"),
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary Мои образы
// @Tags outfits
// @Produce json
// @Success 200 {array} models.Outfit
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /api/outfits [get]
func (h *OutfitHandler) List(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	outfits, err := h.outfitService.List(h.GetDB(c).WithContext(c.Request.Context()), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, outfits)
}

// Get godoc
// @Summary Образ с оценкой
// @Tags outfits
// @Produce json
// @Param id path string true "ID образа"
// @Success 200 {object} dto.OutfitResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /api/outfits/{id} [get]
func (h *OutfitHandler) Get(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	resp, err := h.outfitService.Get(h.GetDB(c).WithContext(c.Request.Context()), userID, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
