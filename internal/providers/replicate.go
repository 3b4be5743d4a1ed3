package providers

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	defaultReplicateVersion = "bd6e2354e39651808b1491cd39a763025a9614e17b09e58c3bab4b64f98a80a1"
	replicateNegativePrompt = "nsfw, lowres, bad anatomy, bad hands, text, error, missing fingers, extra digit, fewer digits, " +
		"cropped, worst quality, low quality, normal quality, jpeg artifacts, signature, watermark, username, blurry"
)

type ReplicateConfig struct {
	APIToken     string
	BaseURL      string
	ModelVersion string
	Timeout      time.Duration
	PollInterval time.Duration
	HTTPClient   *http.Client
}

// ReplicateClient реализует StyleTransferer через Replicate predictions API
type ReplicateClient struct {
	client
	token        string
	version      string
	pollInterval time.Duration
}

func NewReplicateClient(cfg ReplicateConfig) *ReplicateClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.replicate.com"
	}
	if cfg.ModelVersion == "" {
		cfg.ModelVersion = defaultReplicateVersion
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	return &ReplicateClient{
		client:       newClient("replicate", cfg.BaseURL, cfg.Timeout, cfg.HTTPClient),
		token:        cfg.APIToken,
		version:      cfg.ModelVersion,
		pollInterval: cfg.PollInterval,
	}
}

func (c *ReplicateClient) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.token}
}

func (c *ReplicateClient) Transfer(ctx context.Context, source, target []byte, prompt string) (string, error) {
	if c.token == "" {
		return "", &ProviderError{Provider: c.name, Op: "transfer", Err: ErrNotConfigured}
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	input := map[string]interface{}{
		"width":                768,
		"height":               1152,
		"prompt":               prompt,
		"num_steps":            20,
		"scheduler":            "DPM++ SDE Karras",
		"style_name":           "(No style)",
		"num_outputs":          1,
		"guidance_scale":       5,
		"enable_fix_face":      true,
		"negative_prompt":      replicateNegativePrompt,
		"style_strength_ratio": 25,
		"face_image":           jpegDataURL(source),
		"target_image":         jpegDataURL(target),
	}

	headers := c.headers()
	headers["Prefer"] = "wait"
	body, err := c.postJSON(ctx, "transfer", "/v1/predictions", map[string]interface{}{
		"version": c.version,
		"input":   input,
	}, headers)
	if err != nil {
		return "", err
	}

	prediction := gjson.ParseBytes(body)
	for !isTerminal(prediction.Get("status").String()) {
		pollURL := prediction.Get("urls.get").String()
		if pollURL == "" {
			return "", &ProviderError{Provider: c.name, Op: "transfer", Err: ErrEmptyResult}
		}
		select {
		case <-ctx.Done():
			return "", &ProviderError{Provider: c.name, Op: "transfer", Err: ctx.Err()}
		case <-time.After(c.pollInterval):
		}
		body, err = c.do(ctx, "poll", http.MethodGet, pollURL, nil, c.headers())
		if err != nil {
			return "", err
		}
		prediction = gjson.ParseBytes(body)
	}

	if prediction.Get("status").String() != "succeeded" {
		return "", &ProviderError{Provider: c.name, Op: "transfer", Err: ErrPredictionFailure}
	}
	url := FirstOutputURL(prediction.Get("output"))
	if url == "" {
		return "", &ProviderError{Provider: c.name, Op: "transfer", Err: ErrEmptyResult}
	}
	return url, nil
}

// FirstOutputURL - output бывает массивом URL или строкой
func FirstOutputURL(output gjson.Result) string {
	if output.IsArray() {
		for _, item := range output.Array() {
			if s := strings.TrimSpace(item.String()); item.Type == gjson.String && s != "" {
				return s
			}
		}
		return ""
	}
	if output.Type == gjson.String {
		return strings.TrimSpace(output.String())
	}
	return ""
}

func isTerminal(status string) bool {
	switch status {
	case "succeeded", "failed", "canceled":
		return true
	}
	return false
}

func jpegDataURL(b []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(b)
}
