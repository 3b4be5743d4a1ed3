package providers

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	adviceSystemPrompt  = "You are Eva Harper, a renowned fashion expert and stylist. Provide fashion advice in a professional yet friendly tone."
	analyzeSystemPrompt = "You are Eva Harper, a fashion expert. Analyze the outfit and provide feedback for the given occasion. " +
		"Return JSON with rating (1-10), feedback, suggestions array, and optional styleScore, fitScore, colorScore (1-10)."

	// AdviceFallback возвращается, если модель ответила пустым текстом
	AdviceFallback = "I apologize, I'm unable to provide advice at the moment."
)

type OpenAIConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// OpenAIClient реализует AdviceProvider и OutfitAnalyzer через chat completions
type OpenAIClient struct {
	client
	apiKey string
	model  string
}

func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	return &OpenAIClient{
		client: newClient("openai", cfg.BaseURL, cfg.Timeout, cfg.HTTPClient),
		apiKey: cfg.APIKey,
		model:  cfg.Model,
	}
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

func (c *OpenAIClient) complete(ctx context.Context, op string, payload map[string]interface{}) (string, error) {
	if c.apiKey == "" {
		return "", &ProviderError{Provider: c.name, Op: op, Err: ErrNotConfigured}
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	payload["model"] = c.model
	body, err := c.postJSON(ctx, op, "/v1/chat/completions", payload, map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	})
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(body, "choices.0.message.content").String(), nil
}

func (c *OpenAIClient) Advice(ctx context.Context, prompt string) (string, error) {
	content, err := c.complete(ctx, "advice", map[string]interface{}{
		"messages": []chatMessage{
			{Role: "system", Content: adviceSystemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return AdviceFallback, nil
	}
	return content, nil
}

func (c *OpenAIClient) Analyze(ctx context.Context, image []byte, occasion string) (*Analysis, error) {
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
	content, err := c.complete(ctx, "analyze", map[string]interface{}{
		"messages": []chatMessage{
			{Role: "system", Content: analyzeSystemPrompt},
			{Role: "user", Content: []map[string]interface{}{
				{"type": "text", "text": fmt.Sprintf("Please analyze this outfit for a %s occasion.", occasion)},
				{"type": "image_url", "image_url": map[string]string{"url": dataURL}},
			}},
		},
		"response_format": map[string]string{"type": "json_object"},
	})
	if err != nil {
		return nil, err
	}
	analysis, err := ParseAnalysis(content)
	if err != nil {
		return nil, &ProviderError{Provider: c.name, Op: "analyze", Err: err}
	}
	return analysis, nil
}

// ParseAnalysis приводит JSON модели к каноническому виду. Если rating
// отсутствует, он выводится из частных оценок.
func ParseAnalysis(raw string) (*Analysis, error) {
	if !gjson.Valid(raw) {
		return nil, ErrAnalysisFailed
	}
	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		return nil, ErrAnalysisFailed
	}

	a := &Analysis{
		Feedback:    strings.TrimSpace(doc.Get("feedback").String()),
		Suggestions: []string{},
		StyleScore:  score(doc.Get("styleScore")),
		FitScore:    score(doc.Get("fitScore")),
		ColorScore:  score(doc.Get("colorScore")),
	}
	for _, s := range doc.Get("suggestions").Array() {
		if text := strings.TrimSpace(s.String()); text != "" {
			a.Suggestions = append(a.Suggestions, text)
		}
	}

	if r := score(doc.Get("rating")); r != nil {
		a.Rating = *r
	} else {
		var sum, n int
		for _, s := range []*int{a.StyleScore, a.FitScore, a.ColorScore} {
			if s != nil {
				sum += *s
				n++
			}
		}
		if n == 0 {
			return nil, ErrAnalysisFailed
		}
		a.Rating = int(math.Round(float64(sum) / float64(n)))
	}
	if a.Feedback == "" {
		return nil, ErrAnalysisFailed
	}
	return a, nil
}

// score читает число и зажимает его в 1..10
func score(v gjson.Result) *int {
	if v.Type != gjson.Number {
		return nil
	}
	n := int(math.Round(v.Float()))
	if n < 1 {
		n = 1
	}
	if n > 10 {
		n = 10
	}
	return &n
}
