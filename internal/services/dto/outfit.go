package dto

import "eva_harper_backend/internal/models"

type CreateOutfitInput struct {
	Image       []byte
	Title       string
	Description string
	Occasion    string
}

// OutfitResponse - образ с последней оценкой
type OutfitResponse struct {
	Outfit *models.Outfit `json:"outfit"`
	Rating *models.Rating `json:"rating"`
}
