package email

import (
	"context"
	"sync"

	"eva_harper_backend/internal/logger"
)

// LogProvider не отправляет письма, а пишет их в лог и запоминает.
// Используется, когда SMTP не настроен.
type LogProvider struct {
	mu       sync.Mutex
	renderer TemplateRenderer
	sent     []Email
	contacts []Contact
}

func NewLogProvider(renderer TemplateRenderer) *LogProvider {
	return &LogProvider{renderer: renderer}
}

func (p *LogProvider) Send(email *Email) error {
	p.mu.Lock()
	p.sent = append(p.sent, *email)
	p.mu.Unlock()
	logger.Info("email (log provider)", "to", email.To, "subject", email.Subject)
	return nil
}

func (p *LogProvider) SendTemplate(to []string, subject string, templateName string, data TemplateData) error {
	body := ""
	if p.renderer != nil {
		rendered, err := p.renderer.Render(templateName, data)
		if err != nil {
			return err
		}
		body = rendered
	}
	return p.Send(&Email{To: to, Subject: subject, HTMLBody: body})
}

func (p *LogProvider) Validate() error { return nil }

func (p *LogProvider) Close() error { return nil }

// Sent возвращает копию отправленных писем
func (p *LogProvider) Sent() []Email {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Email, len(p.sent))
	copy(out, p.sent)
	return out
}

// SyncContacts запоминает контакты вместо выгрузки
func (p *LogProvider) SyncContacts(ctx context.Context, contacts []Contact) (int, error) {
	p.mu.Lock()
	p.contacts = append(p.contacts, contacts...)
	p.mu.Unlock()
	logger.Info("contacts sync (log provider)", "count", len(contacts))
	return len(contacts), nil
}

func (p *LogProvider) Contacts() []Contact {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Contact, len(p.contacts))
	copy(out, p.contacts)
	return out
}
