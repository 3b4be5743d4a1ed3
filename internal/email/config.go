package email

import "time"

// SMTPConfig содержит конфигурацию SMTP сервера
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	Timeout   time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию (SMTP-релей Mailjet)
func DefaultConfig() *SMTPConfig {
	return &SMTPConfig{
		Host:     "in-v3.mailjet.com",
		Port:     587,
		FromName: "Eva Harper",
		Timeout:  30 * time.Second,
	}
}
