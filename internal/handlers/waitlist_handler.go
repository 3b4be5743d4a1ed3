package handlers

import (
	"net/http"

	"eva_harper_backend/internal/auth"
	"eva_harper_backend/internal/middleware"
	"eva_harper_backend/internal/services"
	"eva_harper_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type WaitlistHandler struct {
	*BaseHandler
	waitlistService services.WaitlistService
}

func NewWaitlistHandler(base *BaseHandler, waitlistService services.WaitlistService) *WaitlistHandler {
	return &WaitlistHandler{
		BaseHandler:     base,
		waitlistService: waitlistService,
	}
}

func (h *WaitlistHandler) RegisterRoutes(api *gin.RouterGroup, g *middleware.Guards) {
	api.POST("/waitlist", g.RateLimit, h.Submit)

	admin := api.Group("/admin/waitlist")
	{
		admin.GET("", g.Require(auth.PermWaitlistRead, h.List)...)
		admin.POST("/approve", g.Require(auth.PermWaitlistApprove, h.Approve)...)
		admin.POST("/import", g.Require(auth.PermWaitlistImport, h.Import)...)
	}
}

// Submit godoc
// @Summary Заявка в лист ожидания
// @Tags waitlist
// @Accept json
// @Produce json
// @Param request body dto.WaitlistRequest true "Заявка"
// @Success 201 {object} models.WaitlistEntry
// @Failure 400 {object} apperrors.ErrorResponse "Email уже в списке"
// @Failure 429 {object} apperrors.ErrorResponse
// @Router /api/waitlist [post]
func (h *WaitlistHandler) Submit(c *gin.Context) {
	var req dto.WaitlistRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	entry, err := h.waitlistService.Submit(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// List godoc
// @Summary Все заявки (admin)
// @Tags admin
// @Produce json
// @Success 200 {array} models.WaitlistEntry
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /api/admin/waitlist [get]
func (h *WaitlistHandler) List(c *gin.Context) {
	entries, err := h.waitlistService.List(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// Approve godoc
// @Summary Одобрить заявку (admin)
// @Description Создает аккаунт и отправляет письмо со ссылкой на установку пароля. Повторный вызов ничего не меняет.
// @Tags admin
// @Accept json
// @Produce json
// @Param request body dto.ApproveRequest true "Email заявки"
// @Success 200 {object} dto.ApproveResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /api/admin/waitlist/approve [post]
func (h *WaitlistHandler) Approve(c *gin.Context) {
	var req dto.ApproveRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.waitlistService.Approve(c.Request.Context(), h.GetDB(c), req.Email)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Import godoc
// @Summary Выгрузить контакты листа ожидания в рассылку (admin)
// @Tags admin
// @Produce json
// @Success 200 {object} dto.ImportResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /api/admin/waitlist/import [post]
func (h *WaitlistHandler) Import(c *gin.Context) {
	resp, err := h.waitlistService.ImportContacts(c.Request.Context(), h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
