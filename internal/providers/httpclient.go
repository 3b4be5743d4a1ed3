package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"eva_harper_backend/internal/logger"

	"github.com/tidwall/gjson"
)

const maxResponseBytes = 4 << 20

// client - общий HTTP-клиент адаптеров с таймаутом на вызов
type client struct {
	name    string
	baseURL string
	http    *http.Client
	timeout time.Duration
}

func newClient(name, baseURL string, timeout time.Duration, httpClient *http.Client) client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		timeout: timeout,
	}
}

func (c client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

func (c client) postJSON(ctx context.Context, op, path string, payload interface{}, headers map[string]string) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &ProviderError{Provider: c.name, Op: op, Err: err}
	}
	if headers == nil {
		headers = map[string]string{}
	}
	headers["Content-Type"] = "application/json"
	return c.do(ctx, op, http.MethodPost, c.url(path), bytes.NewReader(body), headers)
}

func (c client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + path
}

func (c client) do(ctx context.Context, op, method, url string, body io.Reader, headers map[string]string) ([]byte, error) {
	start := time.Now()
	data, err := c.roundTrip(ctx, op, method, url, body, headers)
	logger.ProviderLog(c.name, op, time.Since(start), err)
	return data, err
}

func (c client) roundTrip(ctx context.Context, op, method, url string, body io.Reader, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, &ProviderError{Provider: c.name, Op: op, Err: err}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: c.name, Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &ProviderError{Provider: c.name, Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{Provider: c.name, Op: op, StatusCode: resp.StatusCode, Err: errors.New(upstreamMessage(data))}
	}
	return data, nil
}

// upstreamMessage достаёт текст ошибки из типичных форматов ответа
func upstreamMessage(body []byte) string {
	for _, path := range []string{"error.message", "detail", "error"} {
		if v := gjson.GetBytes(body, path); v.Exists() && v.Type == gjson.String {
			return v.String()
		}
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("unexpected response: %s", strings.TrimSpace(string(body)))
}
