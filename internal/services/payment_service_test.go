package services_test

import (
	"testing"
	"time"

	"eva_harper_backend/internal/models"
	"eva_harper_backend/internal/providers"
	"eva_harper_backend/internal/testutil"
	"eva_harper_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayment_Packages(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, map[string]int64{"100": 500, "500": 1000}, f.svc.Payment.Packages())
}

func TestPayment_CreateIntent(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "buyer@example.com", 0)

	resp, err := f.svc.Payment.CreateIntent(f.ctx, f.db, user.ID, "500")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), resp.Amount)
	assert.Equal(t, 500, resp.Credits)
	assert.NotEmpty(t, resp.ClientSecret)

	intent, ok := f.payments.Intent(f.payments.LastIntentID())
	require.True(t, ok)
	assert.Equal(t, "eur", intent.Currency)
	assert.Equal(t, user.ID, intent.Metadata["userId"])
	assert.Equal(t, "500", intent.Metadata["credits"])

	var pending models.PaymentTransaction
	require.NoError(t, f.db.Where("intent_id = ?", intent.ID).First(&pending).Error)
	assert.Equal(t, models.PaymentStatusPending, pending.Status)

	_, err = f.svc.Payment.CreateIntent(f.ctx, f.db, user.ID, "250")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCreditPackage)
}

func TestPayment_ConfirmSuccessCreditsOnce(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "buyer@example.com", 3)
	_, err := f.svc.Payment.CreateIntent(f.ctx, f.db, user.ID, "100")
	require.NoError(t, err)
	intentID := f.payments.LastIntentID()

	_, err = f.svc.Payment.ConfirmSuccess(f.ctx, f.db, user.ID, intentID)
	assert.ErrorIs(t, err, apperrors.ErrPaymentNotSuccessful)

	f.payments.Succeed(intentID)
	updated, err := f.svc.Payment.ConfirmSuccess(f.ctx, f.db, user.ID, intentID)
	require.NoError(t, err)
	assert.Equal(t, 103, updated.Credits)

	again, err := f.svc.Payment.ConfirmSuccess(f.ctx, f.db, user.ID, intentID)
	require.NoError(t, err)
	assert.Equal(t, 103, again.Credits)

	intent, _ := f.payments.Intent(intentID)
	payload := providers.SucceededEventPayload("evt_1", intent)
	sig := providers.SignStripePayload(payload, webhookSecret, time.Now())
	require.NoError(t, f.svc.Payment.HandleWebhook(f.ctx, f.db, payload, sig))
	assert.Equal(t, 103, testutil.ReloadUser(t, f.db, user.ID).Credits)
}

func TestPayment_WebhookFirstThenClient(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "buyer@example.com", 0)
	_, err := f.svc.Payment.CreateIntent(f.ctx, f.db, user.ID, "500")
	require.NoError(t, err)
	intentID := f.payments.LastIntentID()
	f.payments.Succeed(intentID)
	intent, _ := f.payments.Intent(intentID)

	payload := providers.SucceededEventPayload("evt_1", intent)
	sig := providers.SignStripePayload(payload, webhookSecret, time.Now())
	require.NoError(t, f.svc.Payment.HandleWebhook(f.ctx, f.db, payload, sig))
	require.NoError(t, f.svc.Payment.HandleWebhook(f.ctx, f.db, payload, sig))

	updated, err := f.svc.Payment.ConfirmSuccess(f.ctx, f.db, user.ID, intentID)
	require.NoError(t, err)
	assert.Equal(t, 500, updated.Credits)

	var tx models.PaymentTransaction
	require.NoError(t, f.db.Where("intent_id = ?", intentID).First(&tx).Error)
	assert.Equal(t, models.PaymentStatusPaid, tx.Status)
	assert.Equal(t, "webhook", tx.Source)
}

func TestPayment_ConfirmOtherUsersIntent(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", 0)
	thief := f.user(t, "thief@example.com", 0)
	_, err := f.svc.Payment.CreateIntent(f.ctx, f.db, owner.ID, "100")
	require.NoError(t, err)
	intentID := f.payments.LastIntentID()
	f.payments.Succeed(intentID)

	_, err = f.svc.Payment.ConfirmSuccess(f.ctx, f.db, thief.ID, intentID)
	assert.ErrorIs(t, err, apperrors.ErrPaymentOwnerMismatch)
	assert.Equal(t, 0, testutil.ReloadUser(t, f.db, thief.ID).Credits)
	assert.Equal(t, 0, testutil.ReloadUser(t, f.db, owner.ID).Credits)
}

func TestPayment_WebhookSignature(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "buyer@example.com", 0)
	_, err := f.svc.Payment.CreateIntent(f.ctx, f.db, user.ID, "100")
	require.NoError(t, err)
	intent, _ := f.payments.Intent(f.payments.LastIntentID())
	payload := providers.SucceededEventPayload("evt_1", intent)

	err = f.svc.Payment.HandleWebhook(f.ctx, f.db, payload, providers.SignStripePayload(payload, "whsec_wrong", time.Now()))
	assert.ErrorIs(t, err, apperrors.ErrWebhookSignature)

	err = f.svc.Payment.HandleWebhook(f.ctx, f.db, payload, providers.SignStripePayload(payload, webhookSecret, time.Now().Add(-time.Hour)))
	assert.ErrorIs(t, err, apperrors.ErrWebhookSignature)
	assert.Equal(t, 0, testutil.ReloadUser(t, f.db, user.ID).Credits)

	f.payments.WebhookSecret = ""
	err = f.svc.Payment.HandleWebhook(f.ctx, f.db, payload, "t=1,v1=00")
	assert.ErrorIs(t, err, apperrors.ErrWebhookNotConfigured)
}
