package services_test

import (
	"testing"

	"eva_harper_backend/internal/models"
	"eva_harper_backend/internal/services/dto"
	"eva_harper_backend/internal/testutil"
	"eva_harper_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile_UploadImage(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "lea@example.com", 0)

	saved, err := f.svc.Profile.UploadImage(f.ctx, f.db, user.ID, &dto.UploadImageInput{Image: testutil.PNG(t, 40, 80), Type: "fullBody"})
	require.NoError(t, err)
	assert.Equal(t, "fullBody Photo", saved.Title)
	assert.Equal(t, models.ImageTypeUploaded, saved.Type)

	_, err = f.svc.Profile.UploadImage(f.ctx, f.db, user.ID, &dto.UploadImageInput{Image: testutil.PNG(t, 40, 80), Type: "selfie"})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.HTTPCode)

	_, err = f.svc.Profile.UploadImage(f.ctx, f.db, user.ID, &dto.UploadImageInput{Type: "portrait"})
	assert.ErrorIs(t, err, apperrors.ErrMissingFile)
}

func TestProfile_SavePreferencesCompletesOnboarding(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "lea@example.com", 0)
	age := 29

	updated, err := f.svc.Profile.SavePreferences(f.ctx, f.db, user.ID, &dto.PreferencesRequest{
		Preferences: dto.PreferencesPayload{
			Style:         "elegant",
			Age:           &age,
			HairColor:     "blonde",
			HairStyle:     "bob",
			Notifications: dto.NotificationPayload{Email: true, Credits: true},
		},
		Interests: dto.InterestsPayload{FashionStyles: []string{"minimal"}, Occasions: []string{"wedding"}},
	})
	require.NoError(t, err)

	assert.True(t, updated.HasCompletedOnboarding)
	prefs := updated.Preferences.Data()
	require.NotNil(t, prefs.Age)
	assert.Equal(t, 29, *prefs.Age)
	assert.Equal(t, "bob", prefs.HairStyle)
	assert.True(t, prefs.Notifications.Credits)
	assert.False(t, prefs.Notifications.StyleUpdates)

	interests := updated.Interests.Data()
	assert.Equal(t, []string{"minimal"}, interests.FashionStyles)
	assert.Equal(t, []string{}, interests.FavoriteColors)
	assert.Equal(t, []string{"wedding"}, interests.Occasions)
}

func TestProfile_UpdatePreferencesKeepsOnboardingState(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "mia@example.com", 0)

	updated, err := f.svc.Profile.UpdatePreferences(f.ctx, f.db, user.ID, &dto.PreferencesPayload{Style: "sporty"})
	require.NoError(t, err)
	assert.Equal(t, "sporty", updated.Preferences.Data().Style)
	assert.False(t, updated.HasCompletedOnboarding)

	updated, err = f.svc.Profile.UpdateInterests(f.ctx, f.db, user.ID, &dto.InterestsPayload{FavoriteColors: []string{"red"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"red"}, updated.Interests.Data().FavoriteColors)
	assert.Equal(t, "sporty", updated.Preferences.Data().Style)
}

func TestProfile_CompleteOnboarding(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "lea@example.com", 0)

	updated, err := f.svc.Profile.CompleteOnboarding(f.ctx, f.db, user.ID)
	require.NoError(t, err)
	assert.True(t, updated.HasCompletedOnboarding)

	_, err = f.svc.Profile.CompleteOnboarding(f.ctx, f.db, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
}
