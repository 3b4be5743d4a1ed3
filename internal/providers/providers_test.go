package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestParseAnalysis(t *testing.T) {
	a, err := ParseAnalysis(`{"rating": 7, "feedback": "Good", "suggestions": ["belt", " ", "hat"]}`)
	require.NoError(t, err)
	assert.Equal(t, 7, a.Rating)
	assert.Equal(t, "Good", a.Feedback)
	assert.Equal(t, []string{"belt", "hat"}, a.Suggestions)

	a, err = ParseAnalysis(`{"styleScore": 9, "fitScore": 6, "colorScore": 7, "feedback": "Sharp"}`)
	require.NoError(t, err)
	assert.Equal(t, 7, a.Rating)
	assert.Equal(t, []string{}, a.Suggestions)
	require.NotNil(t, a.FitScore)
	assert.Equal(t, 6, *a.FitScore)

	a, err = ParseAnalysis(`{"rating": 14, "feedback": "Too good"}`)
	require.NoError(t, err)
	assert.Equal(t, 10, a.Rating)

	for _, raw := range []string{``, `not json`, `[1,2]`, `{"feedback": "no rating"}`, `{"rating": 5}`, `{"rating": "high", "feedback": "x"}`} {
		_, err := ParseAnalysis(raw)
		assert.ErrorIs(t, err, ErrAnalysisFailed, raw)
	}
}

func TestOpenAIClient(t *testing.T) {
	var lastBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		lastBody, _ = io.ReadAll(r.Body)
		if gjson.GetBytes(lastBody, "response_format.type").String() == "json_object" {
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"rating\":8,\"feedback\":\"Nice\",\"suggestions\":[\"scarf\"]}"}}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Wear navy."}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL, Timeout: time.Second})

	advice, err := c.Advice(context.Background(), "what to wear?")
	require.NoError(t, err)
	assert.Equal(t, "Wear navy.", advice)
	assert.Equal(t, "gpt-4o", gjson.GetBytes(lastBody, "model").String())
	assert.Equal(t, "what to wear?", gjson.GetBytes(lastBody, "messages.1.content").String())

	analysis, err := c.Analyze(context.Background(), []byte{0xff, 0xd8}, "wedding")
	require.NoError(t, err)
	assert.Equal(t, 8, analysis.Rating)
	assert.True(t, strings.HasPrefix(gjson.GetBytes(lastBody, "messages.1.content.1.image_url.url").String(), "data:image/jpeg;base64,"))
	assert.Contains(t, gjson.GetBytes(lastBody, "messages.1.content.0.text").String(), "wedding")
}

func TestOpenAIClient_Errors(t *testing.T) {
	_, err := NewOpenAIClient(OpenAIConfig{}).Advice(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotConfigured)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	_, err = NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: srv.URL}).Advice(context.Background(), "x")
	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusTooManyRequests, perr.StatusCode)
	assert.Contains(t, perr.Error(), "rate limited")

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":""}}]}`))
	}))
	defer empty.Close()
	advice, err := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: empty.URL}).Advice(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, AdviceFallback, advice)

	_, err = NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: empty.URL}).Analyze(context.Background(), nil, "x")
	assert.ErrorIs(t, err, ErrAnalysisFailed)
}

func TestOpenAIClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: srv.URL, Timeout: 50 * time.Millisecond}).Advice(context.Background(), "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReplicateClient_Polls(t *testing.T) {
	var polls int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer r8-test", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/predictions":
			body, _ := io.ReadAll(r.Body)
			assert.Equal(t, "wait", r.Header.Get("Prefer"))
			assert.Equal(t, "v1", gjson.GetBytes(body, "version").String())
			assert.Equal(t, int64(768), gjson.GetBytes(body, "input.width").Int())
			assert.Equal(t, "a red dress", gjson.GetBytes(body, "input.prompt").String())
			assert.True(t, strings.HasPrefix(gjson.GetBytes(body, "input.face_image").String(), "data:image/jpeg;base64,"))
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "processing",
				"urls":   map[string]string{"get": srv.URL + "/v1/predictions/p1"},
			})
		case r.Method == http.MethodGet && r.URL.Path == "/v1/predictions/p1":
			if atomic.AddInt32(&polls, 1) < 2 {
				_, _ = w.Write([]byte(`{"status":"processing","urls":{"get":"` + srv.URL + `/v1/predictions/p1"}}`))
				return
			}
			_, _ = w.Write([]byte(`{"status":"succeeded","output":["https://cdn/out.png"]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewReplicateClient(ReplicateConfig{APIToken: "r8-test", BaseURL: srv.URL, ModelVersion: "v1", PollInterval: time.Millisecond})
	url, err := c.Transfer(context.Background(), []byte("a"), []byte("b"), "a red dress")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/out.png", url)
	assert.Equal(t, int32(2), atomic.LoadInt32(&polls))
}

func TestReplicateClient_Failed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"failed","error":"nsfw"}`))
	}))
	defer srv.Close()

	_, err := NewReplicateClient(ReplicateConfig{APIToken: "t", BaseURL: srv.URL}).Transfer(context.Background(), nil, nil, "p")
	assert.ErrorIs(t, err, ErrPredictionFailure)

	_, err = NewReplicateClient(ReplicateConfig{}).Transfer(context.Background(), nil, nil, "p")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestFirstOutputURL(t *testing.T) {
	assert.Equal(t, "a", FirstOutputURL(gjson.Parse(`["a","b"]`)))
	assert.Equal(t, "x", FirstOutputURL(gjson.Parse(`"x"`)))
	assert.Equal(t, "", FirstOutputURL(gjson.Parse(`[]`)))
	assert.Equal(t, "", FirstOutputURL(gjson.Parse(`{"a":1}`)))
}

func TestStripeClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		switch r.Method {
		case http.MethodPost:
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "500", r.PostForm.Get("amount"))
			assert.Equal(t, "eur", r.PostForm.Get("currency"))
			assert.Equal(t, "true", r.PostForm.Get("automatic_payment_methods[enabled]"))
			assert.Equal(t, "u1", r.PostForm.Get("metadata[userId]"))
			_, _ = w.Write([]byte(`{"id":"pi_1","client_secret":"pi_1_secret","status":"requires_payment_method","amount":500,"currency":"eur","metadata":{"userId":"u1","credits":"100"}}`))
		case http.MethodGet:
			assert.Equal(t, "/v1/payment_intents/pi_1", r.URL.Path)
			_, _ = w.Write([]byte(`{"id":"pi_1","status":"succeeded","amount":500,"currency":"eur","metadata":{"userId":"u1","credits":"100"}}`))
		}
	}))
	defer srv.Close()

	c := NewStripeClient(StripeConfig{SecretKey: "sk_test", BaseURL: srv.URL})
	intent, err := c.CreateIntent(context.Background(), 500, "eur", map[string]string{"userId": "u1", "credits": "100"})
	require.NoError(t, err)
	assert.Equal(t, "pi_1_secret", intent.ClientSecret)
	assert.False(t, intent.Succeeded())

	intent, err = c.RetrieveIntent(context.Background(), "pi_1")
	require.NoError(t, err)
	assert.True(t, intent.Succeeded())
	assert.Equal(t, "100", intent.Metadata["credits"])
}

func TestStripeWebhookSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"object":"payment_intent","id":"pi_9","status":"succeeded","metadata":{"userId":"u1","credits":"500"}}}}`)
	now := time.Now()
	c := NewStripeClient(StripeConfig{WebhookSecret: "whsec_test"})

	event, err := c.ParseWebhook(payload, SignStripePayload(payload, "whsec_test", now))
	require.NoError(t, err)
	assert.Equal(t, EventPaymentIntentSucceeded, event.Type)
	require.NotNil(t, event.Intent)
	assert.Equal(t, "pi_9", event.Intent.ID)
	assert.Equal(t, "500", event.Intent.Metadata["credits"])

	_, err = c.ParseWebhook(payload, SignStripePayload(payload, "whsec_other", now))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = c.ParseWebhook(append(payload, ' '), SignStripePayload(payload, "whsec_test", now))
	assert.ErrorIs(t, err, ErrInvalidSignature, "tampered body")

	_, err = c.ParseWebhook(payload, SignStripePayload(payload, "whsec_test", now.Add(-10*time.Minute)))
	assert.ErrorIs(t, err, ErrInvalidSignature, "stale timestamp")

	_, err = c.ParseWebhook(payload, "garbage")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = NewStripeClient(StripeConfig{}).ParseWebhook(payload, "t=1,v1=00")
	assert.ErrorIs(t, err, ErrWebhookSecret)
}

func TestFakePayments(t *testing.T) {
	f := NewFakePayments("whsec")
	intent, err := f.CreateIntent(context.Background(), 500, "eur", map[string]string{"userId": "u1"})
	require.NoError(t, err)

	got, err := f.RetrieveIntent(context.Background(), intent.ID)
	require.NoError(t, err)
	assert.False(t, got.Succeeded())

	f.Succeed(intent.ID)
	got, _ = f.RetrieveIntent(context.Background(), intent.ID)
	assert.True(t, got.Succeeded())

	_, err = f.RetrieveIntent(context.Background(), "missing")
	assert.Error(t, err)
}
