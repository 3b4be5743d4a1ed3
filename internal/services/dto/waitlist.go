package dto

import "eva_harper_backend/internal/models"

type WaitlistRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Name   string `json:"name" validate:"required,max=255"`
	Reason string `json:"reason" validate:"max=2000"`
}

type ApproveRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ApproveResponse struct {
	Success   bool                  `json:"success"`
	Entry     *models.WaitlistEntry `json:"entry"`
	Message   string                `json:"message,omitempty"`
	EmailSent bool                  `json:"emailSent"`
}

type ImportResponse struct {
	Success  bool   `json:"success"`
	Imported int    `json:"imported"`
	Message  string `json:"message,omitempty"`
}
