package email

import (
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TemplateManager реализует TemplateRenderer для управления шаблонами email
type TemplateManager struct {
	templates map[string]*template.Template
	mutex     sync.RWMutex
}

// NewTemplateManager создает новый менеджер шаблонов
func NewTemplateManager() *TemplateManager {
	return &TemplateManager{
		templates: make(map[string]*template.Template),
	}
}

// NewDefaultTemplateManager - менеджер со встроенными шаблонами.
// Шаблоны из dirPath (если задан) переопределяют встроенные.
func NewDefaultTemplateManager(dirPath string) (*TemplateManager, error) {
	tm := NewTemplateManager()
	for name, body := range defaultTemplates {
		if err := tm.AddTemplate(name, body); err != nil {
			return nil, err
		}
	}
	if dirPath != "" {
		if err := tm.LoadTemplates(dirPath); err != nil {
			return nil, err
		}
	}
	return tm, nil
}

var defaultTemplates = map[string]string{
	TemplateWaitlistWelcome: `<!DOCTYPE html>
<html><body style="font-family: sans-serif;">
<p>Hallo {{.Name}},</p>
{{if .Content}}<div style="white-space: pre-line;">{{.Content}}</div>{{else}}
<p>Danke für deine Registrierung auf der Eva Harper Warteliste! Wir prüfen deine Anfrage und melden uns bald per E-Mail.</p>{{end}}
<p>Eva Harper</p>
</body></html>`,
	TemplatePasswordSetup: `<!DOCTYPE html>
<html><body style="font-family: sans-serif;">
<p>Willkommen bei Eva Harper!</p>
<p>Dein Zugang wurde freigeschaltet. Lege jetzt dein Passwort fest:</p>
<p><a href="{{.SetupURL}}">Passwort festlegen</a></p>
<p>Der Link ist {{.ValidHours}} Stunden gültig.</p>
</body></html>`,
}

// Render рендерит шаблон с данными
func (tm *TemplateManager) Render(templateName string, data TemplateData) (string, error) {
	tm.mutex.RLock()
	tpl, exists := tm.templates[templateName]
	tm.mutex.RUnlock()

	if !exists {
		return "", fmt.Errorf("template not found: %s", templateName)
	}

	var buf strings.Builder
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// AddTemplate добавляет шаблон в менеджер
func (tm *TemplateManager) AddTemplate(name string, templateStr string) error {
	tpl, err := template.New(name).Parse(templateStr)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	tm.mutex.Lock()
	tm.templates[name] = tpl
	tm.mutex.Unlock()

	return nil
}

// LoadTemplates загружает шаблоны из директории
func (tm *TemplateManager) LoadTemplates(dirPath string) error {
	return filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read template file %s: %w", path, err)
		}

		templateName := strings.TrimSuffix(filepath.Base(path), ".html")
		if err := tm.AddTemplate(templateName, string(content)); err != nil {
			return fmt.Errorf("failed to add template %s: %w", templateName, err)
		}

		return nil
	})
}

// GetTemplate возвращает шаблон по имени (для тестирования)
func (tm *TemplateManager) GetTemplate(name string) *template.Template {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()
	return tm.templates[name]
}

// TemplateNames возвращает список имен загруженных шаблонов
func (tm *TemplateManager) TemplateNames() []string {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	names := make([]string, 0, len(tm.templates))
	for name := range tm.templates {
		names = append(names, name)
	}

	return names
}
