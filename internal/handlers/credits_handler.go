package handlers

import (
	"io"
	"net/http"

	"eva_harper_backend/internal/auth"
	"eva_harper_backend/internal/logger"
	"eva_harper_backend/internal/middleware"
	"eva_harper_backend/internal/services"
	"eva_harper_backend/internal/services/dto"
	"eva_harper_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

const stripeSignatureHeader = "Stripe-Signature"

type CreditsHandler struct {
	*BaseHandler
	paymentService services.PaymentService
	ledger         services.LedgerService
}

func NewCreditsHandler(base *BaseHandler, paymentService services.PaymentService, ledger services.LedgerService) *CreditsHandler {
	return &CreditsHandler{
		BaseHandler:    base,
		paymentService: paymentService,
		ledger:         ledger,
	}
}

func (h *CreditsHandler) RegisterRoutes(api *gin.RouterGroup, g *middleware.Guards) {
	credits := api.Group("/credits")
	{
		credits.GET("/packages", h.Packages)
		credits.POST("/packages", h.Packages)
		credits.GET("/balance", g.Session, h.Balance)

		buy := middleware.RequirePermission(auth.PermCreditsBuy)
		credits.POST("/create-payment-intent", g.Session, buy, h.CreatePaymentIntent)
		credits.POST("/payment-success", g.Session, buy, h.PaymentSuccess)
	}

	api.POST("/webhook/stripe", g.Upload, h.StripeWebhook)
}

// Packages godoc
// @Summary Каталог пакетов кредитов
// @Description Ключ - число кредитов, значение - цена в центах (EUR)
// @Tags credits
// @Produce json
// @Success 200 {object} map[string]int64
// @Router /api/credits/packages [get]
func (h *CreditsHandler) Packages(c *gin.Context) {
	c.JSON(http.StatusOK, h.paymentService.Packages())
}

// Balance godoc
// @Summary Текущий баланс кредитов
// @Tags credits
// @Produce json
// @Success 200 {object} dto.BalanceResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /api/credits/balance [get]
func (h *CreditsHandler) Balance(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	credits, err := h.ledger.Balance(h.GetDB(c).WithContext(c.Request.Context()), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BalanceResponse{Credits: credits})
}

// CreatePaymentIntent godoc
// @Summary Создать платеж за пакет кредитов
// @Tags credits
// @Accept json
// @Produce json
// @Param request body dto.CreatePaymentIntentRequest true "Пакет"
// @Success 200 {object} dto.PaymentIntentResponse
// @Failure 400 {object} apperrors.ErrorResponse "Неизвестный пакет"
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /api/credits/create-payment-intent [post]
func (h *CreditsHandler) CreatePaymentIntent(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.CreatePaymentIntentRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.paymentService.CreateIntent(c.Request.Context(), h.GetDB(c), userID, req.CreditPackage)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PaymentSuccess godoc
// @Summary Подтвердить оплату с клиента
// @Description Статус платежа перепроверяется у провайдера. Повторный вызов кредиты не начисляет.
// @Tags credits
// @Accept json
// @Produce json
// @Param request body dto.PaymentSuccessRequest true "ID платежа"
// @Success 200 {object} dto.PaymentSuccessResponse
// @Failure 400 {object} apperrors.ErrorResponse "Платеж не прошел"
// @Failure 403 {object} apperrors.ErrorResponse "Чужой платеж"
// @Router /api/credits/payment-success [post]
func (h *CreditsHandler) PaymentSuccess(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.PaymentSuccessRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.paymentService.ConfirmSuccess(c.Request.Context(), h.GetDB(c), userID, req.PaymentIntentID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PaymentSuccessResponse{Success: true, User: user})
}

// StripeWebhook godoc
// @Summary Вебхук Stripe
// @Description Тело проверяется по заголовку Stripe-Signature
// @Tags credits
// @Accept json
// @Produce json
// @Success 200 {object} dto.WebhookResponse
// @Failure 400 {object} apperrors.ErrorResponse "Неверная подпись"
// @Router /api/webhook/stripe [post]
func (h *CreditsHandler) StripeWebhook(c *gin.Context) {
	ctx := c.Request.Context()

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		if isBodyTooLarge(err) {
			apperrors.HandleError(c, apperrors.ErrFileTooLarge)
			return
		}
		logger.CtxWithError(ctx, "Failed to read webhook body", err)
		apperrors.HandleError(c, apperrors.NewBadRequestError("Failed to read request body"))
		return
	}

	if err := h.paymentService.HandleWebhook(ctx, h.GetDB(c), payload, c.GetHeader(stripeSignatureHeader)); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.WebhookResponse{Received: true})
}
