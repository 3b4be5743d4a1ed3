package services_test

import (
	"testing"

	"eva_harper_backend/internal/models"
	"eva_harper_backend/internal/providers"
	"eva_harper_backend/internal/services/dto"
	"eva_harper_backend/internal/testutil"
	"eva_harper_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFashion_AdviceWithoutCreditsNeverCallsProvider(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "broke@example.com", 0)

	_, err := f.svc.Fashion.Advice(f.ctx, f.db, user.ID, "What goes with red?")

	assert.ErrorIs(t, err, apperrors.ErrInsufficientCredits)
	assert.Equal(t, 0, f.advice.Calls())
	assert.Equal(t, 0, testutil.ReloadUser(t, f.db, user.ID).Credits)
}

func TestFashion_AdviceDebitsOneCredit(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "anna@example.com", 1)

	resp, err := f.svc.Fashion.Advice(f.ctx, f.db, user.ID, "What goes with red?")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Advice)
	assert.Equal(t, 0, testutil.ReloadUser(t, f.db, user.ID).Credits)

	_, err = f.svc.Fashion.Advice(f.ctx, f.db, user.ID, "And with blue?")
	assert.ErrorIs(t, err, apperrors.ErrInsufficientCredits)
	assert.Equal(t, 1, f.advice.Calls())
}

func TestFashion_ProviderFailureRefunds(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "anna@example.com", 5)
	f.advice.Err = errUpstream

	_, err := f.svc.Fashion.Advice(f.ctx, f.db, user.ID, "hello")

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 500, appErr.HTTPCode)
	assert.Equal(t, 5, testutil.ReloadUser(t, f.db, user.ID).Credits)
}

func TestFashion_AnalyzeParseFailure(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "anna@example.com", 2)
	f.analyzer.Err = &providers.ProviderError{Provider: "openai", Op: "analyze", Err: providers.ErrAnalysisFailed}

	_, err := f.svc.Fashion.Analyze(f.ctx, f.db, user.ID, &dto.AnalyzeInput{Image: testutil.PNG(t, 64, 64), Occasion: "wedding"})

	assert.ErrorIs(t, err, apperrors.ErrAnalysisFailed)
	assert.Equal(t, 2, testutil.ReloadUser(t, f.db, user.ID).Credits)
}

func TestFashion_AnalyzeRejectsInvalidImageBeforeCharging(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "anna@example.com", 2)

	_, err := f.svc.Fashion.Analyze(f.ctx, f.db, user.ID, &dto.AnalyzeInput{Image: []byte("not an image")})

	assert.ErrorIs(t, err, apperrors.ErrInvalidImage)
	assert.Equal(t, 0, f.analyzer.Calls())
	assert.Equal(t, 2, testutil.ReloadUser(t, f.db, user.ID).Credits)
}

func TestFashion_TransferPersistsGeneratedImage(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "anna@example.com", 5)
	f.transferer.URL = "https://replicate.delivery/abc/out.png"

	resp, err := f.svc.Fashion.Transfer(f.ctx, f.db, user.ID, &dto.TransferInput{
		Source: testutil.PNG(t, 32, 32),
		Target: testutil.PNG(t, 32, 32),
		Prompt: "boho summer look",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://replicate.delivery/abc/out.png", resp.URL)
	require.NotNil(t, resp.SavedImage)
	assert.Equal(t, models.ImageTypeGenerated, resp.SavedImage.Type)
	assert.Equal(t, "Style Transfer Result", resp.SavedImage.Title)
	assert.Equal(t, 2, testutil.ReloadUser(t, f.db, user.ID).Credits)

	images, err := f.svc.Profile.ListImages(f.db, user.ID)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, resp.SavedImage.ID, images[0].ID)
}

func TestFashion_TransferRequiresBothImages(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "anna@example.com", 5)

	_, err := f.svc.Fashion.Transfer(f.ctx, f.db, user.ID, &dto.TransferInput{Source: testutil.PNG(t, 8, 8), Prompt: "x"})

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.HTTPCode)
	assert.Equal(t, 0, f.transferer.Calls())
	assert.Equal(t, 5, testutil.ReloadUser(t, f.db, user.ID).Credits)
}
