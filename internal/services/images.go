package services

import (
	"errors"

	"eva_harper_backend/internal/imageprocessor"
	"eva_harper_backend/internal/providers"
	"eva_harper_backend/pkg/apperrors"
)

// normalizeImage проверяет загруженное изображение и уменьшает его
// перед отправкой провайдеру или в хранилище
func normalizeImage(p *imageprocessor.Processor, data []byte) (*imageprocessor.Result, error) {
	if len(data) == 0 {
		return nil, apperrors.ErrMissingFile
	}
	res, err := p.Normalize(data)
	if err != nil {
		if errors.Is(err, imageprocessor.ErrUnsupportedImage) {
			return nil, apperrors.ErrInvalidImage.WithError(err)
		}
		return nil, apperrors.InternalError(err)
	}
	return res, nil
}

// providerFailure переводит ошибку адаптера в AppError
func providerFailure(err error, domain, message string) error {
	if errors.Is(err, providers.ErrAnalysisFailed) {
		return apperrors.ErrAnalysisFailed.WithError(err)
	}
	return apperrors.UpstreamError(err, domain, message)
}
