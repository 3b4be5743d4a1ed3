package providers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string
	Timeout       time.Duration
	HTTPClient    *http.Client
}

// StripeClient реализует PaymentProvider поверх Stripe REST API
type StripeClient struct {
	client
	secretKey     string
	webhookSecret string
	now           func() time.Time
}

func NewStripeClient(cfg StripeConfig) *StripeClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.stripe.com"
	}
	return &StripeClient{
		client:        newClient("stripe", cfg.BaseURL, cfg.Timeout, cfg.HTTPClient),
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		now:           time.Now,
	}
}

func (c *StripeClient) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.secretKey}
}

func (c *StripeClient) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	if c.secretKey == "" {
		return nil, &ProviderError{Provider: c.name, Op: "create_intent", Err: ErrNotConfigured}
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range metadata {
		form.Set("metadata["+k+"]", v)
	}

	headers := c.headers()
	headers["Content-Type"] = "application/x-www-form-urlencoded"
	body, err := c.do(ctx, "create_intent", http.MethodPost, c.url("/v1/payment_intents"), strings.NewReader(form.Encode()), headers)
	if err != nil {
		return nil, err
	}
	return parseIntent(gjson.ParseBytes(body)), nil
}

func (c *StripeClient) RetrieveIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	if c.secretKey == "" {
		return nil, &ProviderError{Provider: c.name, Op: "retrieve_intent", Err: ErrNotConfigured}
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	body, err := c.do(ctx, "retrieve_intent", http.MethodGet, c.url("/v1/payment_intents/"+url.PathEscape(id)), nil, c.headers())
	if err != nil {
		return nil, err
	}
	return parseIntent(gjson.ParseBytes(body)), nil
}

func (c *StripeClient) ParseWebhook(payload []byte, signatureHeader string) (*WebhookEvent, error) {
	if c.webhookSecret == "" {
		return nil, ErrWebhookSecret
	}
	if err := VerifyStripeSignature(payload, signatureHeader, c.webhookSecret, c.now(), DefaultSignatureTolerance); err != nil {
		return nil, err
	}
	return ParseWebhookEvent(payload)
}

// ParseWebhookEvent разбирает тело события (подпись уже проверена)
func ParseWebhookEvent(payload []byte) (*WebhookEvent, error) {
	if !gjson.ValidBytes(payload) {
		return nil, ErrMalformedWebhook
	}
	doc := gjson.ParseBytes(payload)
	event := &WebhookEvent{
		ID:   doc.Get("id").String(),
		Type: doc.Get("type").String(),
	}
	if event.Type == "" {
		return nil, ErrMalformedWebhook
	}
	if obj := doc.Get("data.object"); obj.Exists() && obj.Get("object").String() == "payment_intent" {
		event.Intent = parseIntent(obj)
	}
	return event, nil
}

func parseIntent(v gjson.Result) *PaymentIntent {
	intent := &PaymentIntent{
		ID:           v.Get("id").String(),
		ClientSecret: v.Get("client_secret").String(),
		Status:       v.Get("status").String(),
		Amount:       v.Get("amount").Int(),
		Currency:     v.Get("currency").String(),
		Metadata:     map[string]string{},
	}
	v.Get("metadata").ForEach(func(key, value gjson.Result) bool {
		intent.Metadata[key.String()] = value.String()
		return true
	})
	return intent
}
