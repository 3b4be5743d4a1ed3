package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Фейковые адаптеры для локального запуска без ключей и для тестов.
// Каждый считает вызовы.

type FakeAdvice struct {
	mu     sync.Mutex
	calls  int
	Reply  string
	Err    error
	Prompt string
}

func (f *FakeAdvice) Advice(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.Prompt = prompt
	if f.Err != nil {
		return "", f.Err
	}
	if f.Reply == "" {
		return "Pair a navy blazer with light chinos.", nil
	}
	return f.Reply, nil
}

func (f *FakeAdvice) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type FakeAnalyzer struct {
	mu     sync.Mutex
	calls  int
	Result *Analysis
	Err    error
}

func (f *FakeAnalyzer) Analyze(ctx context.Context, image []byte, occasion string) (*Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Result != nil {
		copied := *f.Result
		return &copied, nil
	}
	return &Analysis{
		Rating:      8,
		Feedback:    fmt.Sprintf("Works well for %s.", occasion),
		Suggestions: []string{"Add a statement accessory"},
	}, nil
}

func (f *FakeAnalyzer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type FakeTransferer struct {
	mu    sync.Mutex
	calls int
	URL   string
	Err   error
}

func (f *FakeTransferer) Transfer(ctx context.Context, source, target []byte, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.Err != nil {
		return "", f.Err
	}
	if f.URL == "" {
		return "https://replicate.delivery/fake/output.png", nil
	}
	return f.URL, nil
}

func (f *FakeTransferer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// FakePayments хранит намерения в памяти. Вебхуки проверяются той же
// подписью, что и у Stripe.
type FakePayments struct {
	mu            sync.Mutex
	seq           int
	intents       map[string]*PaymentIntent
	WebhookSecret string
	Err           error
}

func NewFakePayments(webhookSecret string) *FakePayments {
	return &FakePayments{intents: map[string]*PaymentIntent{}, WebhookSecret: webhookSecret}
}

func (f *FakePayments) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	f.seq++
	id := fmt.Sprintf("pi_fake_%d", f.seq)
	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}
	intent := &PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       "requires_payment_method",
		Amount:       amount,
		Currency:     currency,
		Metadata:     meta,
	}
	f.intents[id] = intent
	copied := *intent
	return &copied, nil
}

func (f *FakePayments) RetrieveIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	intent, ok := f.intents[id]
	if !ok {
		return nil, &ProviderError{Provider: "fake", Op: "retrieve_intent", StatusCode: 404, Err: fmt.Errorf("no such payment_intent: %s", id)}
	}
	copied := *intent
	return &copied, nil
}

// Succeed помечает намерение оплаченным
func (f *FakePayments) Succeed(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if intent, ok := f.intents[id]; ok {
		intent.Status = IntentStatusSucceeded
	}
}

func (f *FakePayments) ParseWebhook(payload []byte, signatureHeader string) (*WebhookEvent, error) {
	if f.WebhookSecret == "" {
		return nil, ErrWebhookSecret
	}
	if err := VerifyStripeSignature(payload, signatureHeader, f.WebhookSecret, time.Now(), DefaultSignatureTolerance); err != nil {
		return nil, err
	}
	return ParseWebhookEvent(payload)
}

// LastIntentID - идентификатор последнего созданного намерения
func (f *FakePayments) LastIntentID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seq == 0 {
		return ""
	}
	return fmt.Sprintf("pi_fake_%d", f.seq)
}

// Intent возвращает копию намерения
func (f *FakePayments) Intent(id string) (*PaymentIntent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	intent, ok := f.intents[id]
	if !ok {
		return nil, false
	}
	copied := *intent
	return &copied, true
}

// SucceededEventPayload собирает тело вебхука payment_intent.succeeded
func SucceededEventPayload(eventID string, intent *PaymentIntent) []byte {
	body, _ := json.Marshal(map[string]interface{}{
		"id":   eventID,
		"type": EventPaymentIntentSucceeded,
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":            intent.ID,
				"object":        "payment_intent",
				"status":        IntentStatusSucceeded,
				"amount":        intent.Amount,
				"currency":      intent.Currency,
				"client_secret": intent.ClientSecret,
				"metadata":      intent.Metadata,
			},
		},
	})
	return body
}
