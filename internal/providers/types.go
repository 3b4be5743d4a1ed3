package providers

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotConfigured     = errors.New("provider is not configured")
	ErrAnalysisFailed    = errors.New("analysis response could not be parsed")
	ErrEmptyResult       = errors.New("provider returned no result")
	ErrWebhookSecret     = errors.New("webhook secret is not configured")
	ErrInvalidSignature  = errors.New("invalid webhook signature")
	ErrMalformedWebhook  = errors.New("malformed webhook payload")
	ErrPredictionFailure = errors.New("prediction did not succeed")
)

// AdviceProvider - текстовые советы стилиста
type AdviceProvider interface {
	Advice(ctx context.Context, prompt string) (string, error)
}

// OutfitAnalyzer - оценка образа по фото
type OutfitAnalyzer interface {
	Analyze(ctx context.Context, image []byte, occasion string) (*Analysis, error)
}

// StyleTransferer - генерация изображения, возвращает URL результата
type StyleTransferer interface {
	Transfer(ctx context.Context, source, target []byte, prompt string) (string, error)
}

// PaymentProvider - платёжные намерения и вебхуки
type PaymentProvider interface {
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*PaymentIntent, error)
	RetrieveIntent(ctx context.Context, id string) (*PaymentIntent, error)
	ParseWebhook(payload []byte, signatureHeader string) (*WebhookEvent, error)
}

// Analysis - каноническая форма оценки образа
type Analysis struct {
	Rating      int      `json:"rating"`
	Feedback    string   `json:"feedback"`
	Suggestions []string `json:"suggestions"`
	StyleScore  *int     `json:"styleScore,omitempty"`
	FitScore    *int     `json:"fitScore,omitempty"`
	ColorScore  *int     `json:"colorScore,omitempty"`
}

const (
	IntentStatusSucceeded = "succeeded"

	EventPaymentIntentSucceeded = "payment_intent.succeeded"
)

type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
	Metadata     map[string]string
}

func (p *PaymentIntent) Succeeded() bool {
	return p != nil && p.Status == IntentStatusSucceeded
}

type WebhookEvent struct {
	ID     string
	Type   string
	Intent *PaymentIntent
}

// ProviderError - сбой внешнего сервиса
type ProviderError struct {
	Provider   string
	Op         string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
