package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"eva_harper_backend/internal/logger"

	"github.com/tidwall/gjson"
)

const mailjetBaseURL = "https://api.mailjet.com"

type MailjetConfig struct {
	APIKey     string
	APISecret  string
	ListID     string
	BaseURL    string
	HTTPClient *http.Client
}

// MailjetSyncer добавляет контакты в список Mailjet (addnoforce:
// отписавшиеся не возвращаются в список)
type MailjetSyncer struct {
	cfg  MailjetConfig
	http *http.Client
}

func NewMailjetSyncer(cfg MailjetConfig) *MailjetSyncer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = mailjetBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &MailjetSyncer{cfg: cfg, http: client}
}

func (s *MailjetSyncer) SyncContacts(ctx context.Context, contacts []Contact) (int, error) {
	if len(contacts) == 0 {
		return 0, nil
	}
	if s.cfg.APIKey == "" || s.cfg.APISecret == "" || s.cfg.ListID == "" {
		return 0, fmt.Errorf("mailjet is not configured")
	}

	payload, err := json.Marshal(map[string]interface{}{
		"Action":   "addnoforce",
		"Contacts": contacts,
	})
	if err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s/v3/REST/contactslist/%s/managemanycontacts", strings.TrimRight(s.cfg.BaseURL, "/"), s.cfg.ListID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.SetBasicAuth(s.cfg.APIKey, s.cfg.APISecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("mailjet request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("mailjet: status %d: %s", resp.StatusCode, gjson.GetBytes(body, "ErrorMessage").String())
	}

	logger.Info("contacts imported to mailjet", "count", len(contacts), "job_id", gjson.GetBytes(body, "Data.0.JobID").Int())
	return len(contacts), nil
}

// NoopSyncer - когда список рассылки не настроен
type NoopSyncer struct{}

func (NoopSyncer) SyncContacts(ctx context.Context, contacts []Contact) (int, error) {
	return 0, nil
}
