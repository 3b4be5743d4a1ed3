package handlers

import (
	"net/http"

	"eva_harper_backend/internal/middleware"
	"eva_harper_backend/internal/services"
	"eva_harper_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type FashionHandler struct {
	*BaseHandler
	fashionService services.FashionService
}

func NewFashionHandler(base *BaseHandler, fashionService services.FashionService) *FashionHandler {
	return &FashionHandler{
		BaseHandler:    base,
		fashionService: fashionService,
	}
}

func (h *FashionHandler) RegisterRoutes(api *gin.RouterGroup, g *middleware.Guards) {
	fashion := api.Group("/fashion")
	fashion.Use(g.Session)
	{
		fashion.POST("/advice", h.Advice)
		fashion.POST("/analyze", g.Upload, h.Analyze)
		fashion.POST("/transfer", g.UploadPair, h.Transfer)
	}
}

// Advice godoc
// @Summary Совет стилиста (1 кредит)
// @Tags fashion
// @Accept json
// @Produce json
// @Param request body dto.AdviceRequest true "Вопрос"
// @Success 200 {object} dto.AdviceResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Failure 402 {object} apperrors.ErrorResponse
// @Failure 500 {object} apperrors.ErrorResponse
// @Router /api/fashion/advice [post]
func (h *FashionHandler) Advice(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.AdviceRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.fashionService.Advice(c.Request.Context(), h.GetDB(c), userID, req.Prompt)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Analyze godoc
// @Summary Оценка образа по фото (2 кредита)
// @Tags fashion
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Фото образа"
// @Param occasion formData string false "Повод"
// @Success 200 {object} providers.Analysis
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Failure 402 {object} apperrors.ErrorResponse
// @Failure 413 {object} apperrors.ErrorResponse
// @Router /api/fashion/analyze [post]
func (h *FashionHandler) Analyze(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok || !h.ParseMultipart(c) {
		return
	}
	image, ok := h.FormFileBytes(c, "image")
	if !ok {
		return
	}

	analysis, err := h.fashionService.Analyze(c.Request.Context(), h.GetDB(c), userID, &dto.AnalyzeInput{
		Image:    image,
		Occasion: c.PostForm("occasion"),
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// Transfer godoc
// @Summary Перенос стиля (3 кредита)
// @Description Результат сохраняется в галерею пользователя как generated
// @Tags fashion
// @Accept multipart/form-data
// @Produce json
// @Param sourceImage formData file true "Фото пользователя"
// @Param targetImage formData file true "Образ-референс"
// @Param prompt formData string true "Описание"
// @Success 200 {object} dto.TransferResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Failure 402 {object} apperrors.ErrorResponse
// @Failure 413 {object} apperrors.ErrorResponse
// @Router /api/fashion/transfer [post]
func (h *FashionHandler) Transfer(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok || !h.ParseMultipart(c) {
		return
	}
	source, ok := h.FormFileBytes(c, "sourceImage")
	if !ok {
		return
	}
	target, ok := h.FormFileBytes(c, "targetImage")
	if !ok {
		return
	}

	resp, err := h.fashionService.Transfer(c.Request.Context(), h.GetDB(c), userID, &dto.TransferInput{
		Source: source,
		Target: target,
		Prompt: c.PostForm("prompt"),
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
