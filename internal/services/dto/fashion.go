package dto

import "eva_harper_backend/internal/models"

type AdviceRequest struct {
	Prompt string `json:"prompt" validate:"required,max=4000"`
}

type AdviceResponse struct {
	Advice string `json:"advice"`
}

// AnalyzeInput собирается хендлером из multipart формы
type AnalyzeInput struct {
	Image    []byte
	Occasion string
}

type TransferInput struct {
	Source []byte
	Target []byte
	Prompt string
}

type TransferResponse struct {
	URL        string             `json:"url"`
	SavedImage *models.SavedImage `json:"savedImage"`
}
