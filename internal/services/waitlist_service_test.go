package services_test

import (
	"strings"
	"testing"

	"eva_harper_backend/internal/models"
	"eva_harper_backend/internal/repositories"
	"eva_harper_backend/internal/services/dto"
	"eva_harper_backend/internal/testutil"
	"eva_harper_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitlist_SubmitAndDuplicate(t *testing.T) {
	f := newFixture(t)

	entry, err := f.svc.Waitlist.Submit(f.ctx, f.db, &dto.WaitlistRequest{Email: " Lena@Example.com ", Name: "Lena"})
	require.NoError(t, err)
	assert.Equal(t, "lena@example.com", entry.Email)
	assert.Equal(t, models.WaitlistStatusPending, entry.Status)

	_, err = f.svc.Waitlist.Submit(f.ctx, f.db, &dto.WaitlistRequest{Email: "lena@example.com", Name: "Lena"})
	assert.ErrorIs(t, err, apperrors.ErrWaitlistDuplicate)

	waitFor(t, func() bool { return len(f.mailer.Sent()) == 1 })
	sent := f.mailer.Sent()[0]
	assert.Equal(t, []string{"lena@example.com"}, sent.To)
	assert.Equal(t, "Willkommen bei Eva Harper", sent.Subject)
	assert.Contains(t, sent.HTMLBody, "Lena")
}

func TestWaitlist_ApproveProvisionsUserWithSetupToken(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Waitlist.Submit(f.ctx, f.db, &dto.WaitlistRequest{Email: "mia@example.com", Name: "Mia"})
	require.NoError(t, err)
	waitFor(t, func() bool { return len(f.mailer.Sent()) == 1 })

	resp, err := f.svc.Waitlist.Approve(f.ctx, f.db, "mia@example.com")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.True(t, resp.EmailSent)
	assert.Equal(t, models.WaitlistStatusApproved, resp.Entry.Status)

	var user models.User
	require.NoError(t, f.db.Where("email = ?", "mia@example.com").First(&user).Error)
	assert.Equal(t, "mia", user.Username)
	assert.True(t, user.HasAccess)
	assert.Equal(t, models.StartingCredits, user.Credits)
	require.NotNil(t, user.PasswordResetToken)
	require.NotNil(t, user.PasswordResetExpires)
	assert.Len(t, *user.PasswordResetToken, 64)

	sent := f.mailer.Sent()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[1].HTMLBody, "https://eva.example/setup-password?token="+*user.PasswordResetToken)

	// повторное одобрение ничего не меняет
	again, err := f.svc.Waitlist.Approve(f.ctx, f.db, "mia@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Entry was already approved", again.Message)
	reloaded := testutil.ReloadUser(t, f.db, user.ID)
	assert.Equal(t, *user.PasswordResetToken, *reloaded.PasswordResetToken)
	assert.Len(t, f.mailer.Sent(), 2)

	var count int64
	f.db.Model(&models.User{}).Where("email = ?", "mia@example.com").Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestWaitlist_ApproveKeepsExistingAccount(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", 4)

	_, err := f.svc.Waitlist.Submit(f.ctx, f.db, &dto.WaitlistRequest{Email: "owner@example.com", Name: "Owner"})
	require.NoError(t, err)
	waitFor(t, func() bool { return len(f.mailer.Sent()) == 1 })

	resp, err := f.svc.Waitlist.Approve(f.ctx, f.db, "owner@example.com")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.False(t, resp.EmailSent)
	assert.Equal(t, models.WaitlistStatusRegistered, resp.Entry.Status)
	assert.Len(t, f.mailer.Sent(), 1)

	reloaded := testutil.ReloadUser(t, f.db, owner.ID)
	assert.Equal(t, owner.PasswordHash, reloaded.PasswordHash)
	assert.Nil(t, reloaded.PasswordResetToken)
	assert.Equal(t, 4, reloaded.Credits)

	logged, err := f.svc.Auth.Login(f.ctx, f.db, &dto.LoginRequest{Username: "owner@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, logged.ID)
}

func TestWaitlist_ApproveReissuesTokenForLockedAccount(t *testing.T) {
	f := newFixture(t)
	locked := f.user(t, "locked@example.com", 0)
	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", locked.ID).
		Update("password_hash", repositories.LockedPasswordHash).Error)
	require.NoError(t, f.db.Create(&models.WaitlistEntry{Email: "locked@example.com", Name: "Locked", Status: models.WaitlistStatusPending}).Error)

	resp, err := f.svc.Waitlist.Approve(f.ctx, f.db, "locked@example.com")
	require.NoError(t, err)
	assert.True(t, resp.EmailSent)
	assert.Equal(t, models.WaitlistStatusApproved, resp.Entry.Status)

	reloaded := testutil.ReloadUser(t, f.db, locked.ID)
	require.NotNil(t, reloaded.PasswordResetToken)
	assert.NotEqual(t, repositories.LockedPasswordHash, reloaded.PasswordHash)
}

func TestWaitlist_ApproveUnknownEmail(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Waitlist.Approve(f.ctx, f.db, "ghost@example.com")
	assert.ErrorIs(t, err, apperrors.ErrWaitlistEntryNotFound)
}

func TestWaitlist_ApproveDerivesUniqueUsername(t *testing.T) {
	f := newFixture(t)
	testutil.CreateUser(t, f.db, testutil.UserOptions{Username: "sam", Email: "sam@other.com"})
	_, err := f.svc.Waitlist.Submit(f.ctx, f.db, &dto.WaitlistRequest{Email: "sam@example.com", Name: "Sam"})
	require.NoError(t, err)

	_, err = f.svc.Waitlist.Approve(f.ctx, f.db, "sam@example.com")
	require.NoError(t, err)

	var user models.User
	require.NoError(t, f.db.Where("email = ?", "sam@example.com").First(&user).Error)
	assert.True(t, strings.HasPrefix(user.Username, "sam"))
	assert.NotEqual(t, "sam", user.Username)
}

func TestWaitlist_ImportContacts(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Waitlist.ImportContacts(f.ctx, f.db)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Imported)

	for _, e := range []string{"a@example.com", "b@example.com"} {
		_, err := f.svc.Waitlist.Submit(f.ctx, f.db, &dto.WaitlistRequest{Email: e, Name: "X"})
		require.NoError(t, err)
	}
	resp, err = f.svc.Waitlist.ImportContacts(f.ctx, f.db)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Imported)
	assert.Len(t, f.mailer.Contacts(), 2)
}
