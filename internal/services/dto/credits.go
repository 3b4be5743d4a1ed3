package dto

import "eva_harper_backend/internal/models"

type CreatePaymentIntentRequest struct {
	CreditPackage string `json:"creditPackage" validate:"required,is-credit-package"`
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Credits      int    `json:"credits"`
}

type PaymentSuccessRequest struct {
	PaymentIntentID string `json:"paymentIntentId" validate:"required"`
}

type PaymentSuccessResponse struct {
	Success bool         `json:"success"`
	User    *models.User `json:"user"`
}

type WebhookResponse struct {
	Received bool `json:"received"`
}

type BalanceResponse struct {
	Credits int `json:"credits"`
}
