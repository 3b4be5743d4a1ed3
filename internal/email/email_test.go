package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTemplates(t *testing.T) {
	tm, err := NewDefaultTemplateManager("")
	require.NoError(t, err)

	body, err := tm.Render(TemplatePasswordSetup, TemplateData{"SetupURL": "https://eva.example/setup-password?token=abc", "ValidHours": 24})
	require.NoError(t, err)
	assert.Contains(t, body, `href="https://eva.example/setup-password?token=abc"`)
	assert.Contains(t, body, "24 Stunden")

	body, err = tm.Render(TemplateWaitlistWelcome, TemplateData{"Name": "<Anna>"})
	require.NoError(t, err)
	assert.Contains(t, body, "&lt;Anna&gt;")
	assert.Contains(t, body, "Warteliste")

	_, err = tm.Render("missing", nil)
	assert.Error(t, err)
}

func TestTemplateOverrideFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, TemplatePasswordSetup+".html"), []byte("custom {{.SetupURL}}"), 0o644))

	tm, err := NewDefaultTemplateManager(dir)
	require.NoError(t, err)
	body, err := tm.Render(TemplatePasswordSetup, TemplateData{"SetupURL": "u"})
	require.NoError(t, err)
	assert.Equal(t, "custom u", body)
	assert.ElementsMatch(t, []string{TemplatePasswordSetup, TemplateWaitlistWelcome}, tm.TemplateNames())
}

func TestLogProvider(t *testing.T) {
	tm, err := NewDefaultTemplateManager("")
	require.NoError(t, err)
	p := NewLogProvider(tm)

	require.NoError(t, p.SendTemplate([]string{"a@b.com"}, "Hi", TemplatePasswordSetup, TemplateData{"SetupURL": "x", "ValidHours": 24}))
	sent := p.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"a@b.com"}, sent[0].To)
	assert.Contains(t, sent[0].HTMLBody, `href="x"`)

	n, err := p.SyncContacts(context.Background(), []Contact{{Email: "a@b.com", Name: "A"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, p.Contacts(), 1)
}

func TestSMTPProviderValidate(t *testing.T) {
	p := NewSMTPProvider(&SMTPConfig{Port: 587}, nil)
	assert.Error(t, p.Validate())

	p = NewSMTPProvider(&SMTPConfig{Host: "smtp.example.com", Port: 587, FromEmail: "noreply@example.com"}, nil)
	assert.NoError(t, p.Validate())
	assert.Error(t, p.SendTemplate([]string{"a@b.com"}, "s", TemplatePasswordSetup, nil), "no renderer")
	assert.Error(t, p.Send(&Email{Subject: "no recipients"}))
}

func TestMailjetSyncer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/REST/contactslist/10519869/managemanycontacts", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)

		var body struct {
			Action   string
			Contacts []Contact
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "addnoforce", body.Action)
		assert.Len(t, body.Contacts, 2)
		_, _ = w.Write([]byte(`{"Count":1,"Data":[{"JobID":42}],"Total":1}`))
	}))
	defer srv.Close()

	s := NewMailjetSyncer(MailjetConfig{APIKey: "key", APISecret: "secret", ListID: "10519869", BaseURL: srv.URL})
	n, err := s.SyncContacts(context.Background(), []Contact{{Email: "a@b.com", Name: "A"}, {Email: "c@d.com", Name: "C"}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.SyncContacts(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = NewMailjetSyncer(MailjetConfig{}).SyncContacts(context.Background(), []Contact{{Email: "x@y.z"}})
	assert.Error(t, err)
}
