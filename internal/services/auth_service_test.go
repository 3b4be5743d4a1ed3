package services_test

import (
	"testing"
	"time"

	"eva_harper_backend/internal/auth"
	"eva_harper_backend/internal/models"
	"eva_harper_backend/internal/services/dto"
	"eva_harper_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// approved проводит email через лист ожидания и возвращает токен из базы
func approved(t *testing.T, f *fixture, emailAddr string) (*models.User, string) {
	t.Helper()
	_, err := f.svc.Waitlist.Submit(f.ctx, f.db, &dto.WaitlistRequest{Email: emailAddr, Name: "Test"})
	require.NoError(t, err)
	_, err = f.svc.Waitlist.Approve(f.ctx, f.db, emailAddr)
	require.NoError(t, err)

	var user models.User
	require.NoError(t, f.db.Where("email = ?", emailAddr).First(&user).Error)
	require.NotNil(t, user.PasswordResetToken)
	return &user, *user.PasswordResetToken
}

func TestAuth_CompleteSetup(t *testing.T) {
	f := newFixture(t)
	user, token := approved(t, f, "nina@example.com")

	err := f.svc.Auth.CompleteSetup(f.ctx, f.db, &dto.SetupPasswordRequest{Token: token, Password: "s3cret-pass"})
	require.NoError(t, err)

	var reloaded models.User
	require.NoError(t, f.db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Nil(t, reloaded.PasswordResetToken)
	assert.Nil(t, reloaded.PasswordResetExpires)
	assert.True(t, auth.CheckPasswordHash("s3cret-pass", reloaded.PasswordHash))

	var entry models.WaitlistEntry
	require.NoError(t, f.db.Where("email = ?", "nina@example.com").First(&entry).Error)
	assert.Equal(t, models.WaitlistStatusRegistered, entry.Status)

	// токен одноразовый
	err = f.svc.Auth.CompleteSetup(f.ctx, f.db, &dto.SetupPasswordRequest{Token: token, Password: "another-pass"})
	assert.ErrorIs(t, err, apperrors.ErrSetupTokenNotFound)

	logged, err := f.svc.Auth.Login(f.ctx, f.db, &dto.LoginRequest{Username: "nina", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
}

func TestAuth_CompleteSetupUnknownTokenLeavesCredentialUntouched(t *testing.T) {
	f := newFixture(t)
	user, _ := approved(t, f, "nina@example.com")

	err := f.svc.Auth.CompleteSetup(f.ctx, f.db, &dto.SetupPasswordRequest{Token: "deadbeef", Password: "s3cret-pass"})

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.HTTPCode)
	var reloaded models.User
	require.NoError(t, f.db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, user.PasswordHash, reloaded.PasswordHash)
}

func TestAuth_CompleteSetupExpiredToken(t *testing.T) {
	f := newFixture(t)
	user, token := approved(t, f, "nina@example.com")
	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("password_reset_expires", time.Now().Add(-time.Minute)).Error)

	err := f.svc.Auth.CompleteSetup(f.ctx, f.db, &dto.SetupPasswordRequest{Token: token, Password: "s3cret-pass"})

	assert.ErrorIs(t, err, apperrors.ErrSetupTokenExpired)
	var reloaded models.User
	require.NoError(t, f.db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, user.PasswordHash, reloaded.PasswordHash)
	require.NotNil(t, reloaded.PasswordResetToken)
}

func TestAuth_CompleteSetupMissingFields(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Auth.CompleteSetup(f.ctx, f.db, &dto.SetupPasswordRequest{})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.HTTPCode)
}

func TestAuth_LoginRejectedWhileSetupPending(t *testing.T) {
	f := newFixture(t)
	_, token := approved(t, f, "nina@example.com")

	_, err := f.svc.Auth.Login(f.ctx, f.db, &dto.LoginRequest{Username: "nina@example.com", Password: token})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestAuth_RegisterRequiresApprovedEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Auth.Register(f.ctx, f.db, &dto.RegisterRequest{Username: "nobody", Email: "nobody@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrEmailNotApproved)

	_, err = f.svc.Waitlist.Submit(f.ctx, f.db, &dto.WaitlistRequest{Email: "pending@example.com", Name: "P"})
	require.NoError(t, err)
	_, err = f.svc.Auth.Register(f.ctx, f.db, &dto.RegisterRequest{Username: "pending", Email: "pending@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrEmailNotApproved)
}

func TestAuth_RegisterActivatesApprovedUser(t *testing.T) {
	f := newFixture(t)
	provisioned, _ := approved(t, f, "olga@example.com")

	user, err := f.svc.Auth.Register(f.ctx, f.db, &dto.RegisterRequest{Username: "olga_style", Email: "olga@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, provisioned.ID, user.ID)
	assert.Equal(t, "olga_style", user.Username)
	assert.True(t, user.HasAccess)
	assert.Nil(t, user.PasswordResetToken)

	_, err = f.svc.Auth.Register(f.ctx, f.db, &dto.RegisterRequest{Username: "olga2", Email: "olga@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrEmailTaken)

	logged, err := f.svc.Auth.Login(f.ctx, f.db, &dto.LoginRequest{Username: "olga_style", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
}

func TestAuth_RegisterUsernameTaken(t *testing.T) {
	f := newFixture(t)
	f.user(t, "taken@example.com", 0)
	approved(t, f, "fresh@example.com")

	_, err := f.svc.Auth.Register(f.ctx, f.db, &dto.RegisterRequest{Username: "taken", Email: "fresh@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrUsernameTaken)
}

func TestAuth_LoginWrongPassword(t *testing.T) {
	f := newFixture(t)
	f.user(t, "kim@example.com", 0)

	_, err := f.svc.Auth.Login(f.ctx, f.db, &dto.LoginRequest{Username: "kim", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = f.svc.Auth.Login(f.ctx, f.db, &dto.LoginRequest{Username: "nobody", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	user, err := f.svc.Auth.Login(f.ctx, f.db, &dto.LoginRequest{Username: "KIM@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "kim", user.Username)
}
