package email

// Email представляет структуру email сообщения
type Email struct {
	From     string
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

// TemplateData представляет данные для шаблонов писем
type TemplateData map[string]interface{}

// Contact - контакт для списка рассылки
type Contact struct {
	Email string `json:"Email"`
	Name  string `json:"Name"`
}

// Имена встроенных шаблонов
const (
	TemplateWaitlistWelcome = "waitlist_welcome"
	TemplatePasswordSetup   = "password_setup"
)
