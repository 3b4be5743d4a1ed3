package repositories_test

import (
	"sync"
	"testing"
	"time"

	"eva_harper_backend/internal/models"
	"eva_harper_backend/internal/repositories"
	"eva_harper_backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_DebitCredits(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewUserRepository()
	user := testutil.CreateUser(t, db, testutil.UserOptions{Email: "ann@example.com", Credits: 3})

	require.NoError(t, repo.DebitCredits(db, user.ID, 2))
	credits, err := repo.GetCredits(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, credits)

	assert.ErrorIs(t, repo.DebitCredits(db, user.ID, 2), repositories.ErrInsufficientCredits)
	credits, _ = repo.GetCredits(db, user.ID)
	assert.Equal(t, 1, credits, "failed debit must not change balance")

	require.NoError(t, repo.AddCredits(db, user.ID, 100))
	credits, _ = repo.GetCredits(db, user.ID)
	assert.Equal(t, 101, credits)

	assert.ErrorIs(t, repo.AddCredits(db, "missing", 1), repositories.ErrUserNotFound)
}

func TestUserRepository_ConcurrentDebitNeverGoesNegative(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewUserRepository()
	user := testutil.CreateUser(t, db, testutil.UserOptions{Email: "race@example.com", Credits: 5})

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.DebitCredits(db, user.ID, 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	credits, err := repo.GetCredits(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, credits)
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewUserRepository()
	testutil.CreateUser(t, db, testutil.UserOptions{Email: "dup@example.com"})

	err := repo.Create(db, &models.User{
		Username: "other", Email: "dup@example.com", PasswordHash: "x",
		Role: models.UserRoleUser, Subscription: models.SubscriptionFree,
	})
	assert.ErrorIs(t, err, repositories.ErrUserAlreadyExists)

	exists, err := repo.UsernameExists(db, "dup")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserRepository_CompleteSetup(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewUserRepository()
	user := testutil.CreateUser(t, db, testutil.UserOptions{Email: "setup@example.com"})
	now := time.Now()

	require.NoError(t, repo.SetSetupToken(db, user.ID, "placeholder", "tok", now.Add(time.Hour)))

	ok, err := repo.CompleteSetup(db, user.ID, "wrong", "newhash", now)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "placeholder", testutil.ReloadUser(t, db, user.ID).PasswordHash)

	ok, err = repo.CompleteSetup(db, user.ID, "tok", "newhash", now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok, "expired token must not apply")

	ok, err = repo.CompleteSetup(db, user.ID, "tok", "newhash", now)
	require.NoError(t, err)
	assert.True(t, ok)

	reloaded := testutil.ReloadUser(t, db, user.ID)
	assert.Equal(t, "newhash", reloaded.PasswordHash)
	assert.Nil(t, reloaded.PasswordResetToken)
	assert.Nil(t, reloaded.PasswordResetExpires)

	ok, err = repo.CompleteSetup(db, user.ID, "tok", "again", now)
	require.NoError(t, err)
	assert.False(t, ok, "token is single-use")
}

func TestUserRepository_ExpireSubscriptions(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewUserRepository()
	expired := testutil.CreateUser(t, db, testutil.UserOptions{Email: "old@example.com"})
	active := testutil.CreateUser(t, db, testutil.UserOptions{Email: "new@example.com"})

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	require.NoError(t, db.Model(expired).Updates(map[string]interface{}{"subscription": models.SubscriptionMonthly, "subscription_ends": past}).Error)
	require.NoError(t, db.Model(active).Updates(map[string]interface{}{"subscription": models.SubscriptionYearly, "subscription_ends": future}).Error)

	n, err := repo.ExpireSubscriptions(db, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, models.SubscriptionFree, testutil.ReloadUser(t, db, expired.ID).Subscription)
	assert.Equal(t, models.SubscriptionYearly, testutil.ReloadUser(t, db, active.ID).Subscription)
}

func TestUserRepository_SaveOnboarding(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewUserRepository()
	user := testutil.CreateUser(t, db, testutil.UserOptions{Email: "prefs@example.com"})

	age := 30
	prefs := models.UserPreferences{
		Style:         "minimal",
		Age:           &age,
		HairColor:     "brown",
		Notifications: models.NotificationSettings{Email: true},
	}
	interests := models.UserInterests{FashionStyles: []string{"casual"}, FavoriteColors: []string{}, Occasions: []string{"office"}}
	require.NoError(t, repo.SaveOnboarding(db, user.ID, prefs, interests))

	reloaded := testutil.ReloadUser(t, db, user.ID)
	assert.True(t, reloaded.HasCompletedOnboarding)
	assert.Equal(t, prefs, reloaded.Preferences.Data())
	assert.Equal(t, interests, reloaded.Interests.Data())

	require.NoError(t, repo.UpdateInterests(db, user.ID, models.UserInterests{FashionStyles: []string{"boho"}}))
	reloaded = testutil.ReloadUser(t, db, user.ID)
	assert.Equal(t, []string{"boho"}, reloaded.Interests.Data().FashionStyles)
	assert.Equal(t, "minimal", reloaded.Preferences.Data().Style)

	assert.ErrorIs(t, repo.UpdatePreferences(db, "missing", prefs), repositories.ErrUserNotFound)
}

func TestWaitlistRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewWaitlistRepository()

	require.NoError(t, repo.Create(db, &models.WaitlistEntry{Email: "w@example.com", Name: "W"}))
	assert.ErrorIs(t, repo.Create(db, &models.WaitlistEntry{Email: "w@example.com", Name: "W2"}), repositories.ErrWaitlistEntryExists)

	entry, err := repo.FindByEmail(db, "w@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.WaitlistStatusPending, entry.Status)

	changed, err := repo.MarkApproved(db, "w@example.com", time.Now())
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.MarkApproved(db, "w@example.com", time.Now())
	require.NoError(t, err)
	assert.False(t, changed, "second approval is a no-op")

	require.NoError(t, repo.MarkRegistered(db, "w@example.com"))
	entry, _ = repo.FindByEmail(db, "w@example.com")
	assert.Equal(t, models.WaitlistStatusRegistered, entry.Status)

	_, err = repo.FindByEmail(db, "nobody@example.com")
	assert.ErrorIs(t, err, repositories.ErrWaitlistEntryNotFound)
}

func TestPaymentRepository_MarkPaidOnce(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewPaymentRepository()

	pending := &models.PaymentTransaction{IntentID: "pi_1", UserID: "u1", Package: "100", Credits: 100, Amount: 500, Currency: "eur"}
	require.NoError(t, repo.CreatePending(db, pending))
	require.NoError(t, repo.CreatePending(db, &models.PaymentTransaction{IntentID: "pi_1", UserID: "u1", Package: "100", Credits: 100, Amount: 500, Currency: "eur"}))

	first := &models.PaymentTransaction{IntentID: "pi_1", UserID: "u1", Package: "100", Credits: 100, Amount: 500, Currency: "eur", Source: "client"}
	require.NoError(t, repo.MarkPaid(db, first, time.Now()))

	second := &models.PaymentTransaction{IntentID: "pi_1", UserID: "u1", Package: "100", Credits: 100, Amount: 500, Currency: "eur", Source: "webhook"}
	assert.ErrorIs(t, repo.MarkPaid(db, second, time.Now()), repositories.ErrPaymentAlreadyCredited)

	// Намерение без pending-записи
	fresh := &models.PaymentTransaction{IntentID: "pi_2", UserID: "u1", Package: "500", Credits: 500, Amount: 1000, Currency: "eur", Source: "webhook"}
	require.NoError(t, repo.MarkPaid(db, fresh, time.Now()))
	again := &models.PaymentTransaction{IntentID: "pi_2", UserID: "u1", Package: "500", Credits: 500, Amount: 1000, Currency: "eur", Source: "client"}
	assert.ErrorIs(t, repo.MarkPaid(db, again, time.Now()), repositories.ErrPaymentAlreadyCredited)

	stored, err := repo.FindByIntentID(db, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, stored.Status)
	assert.Equal(t, "client", stored.Source)

	payments, err := repo.ListByUser(db, "u1")
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestOutfitRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewOutfitRepository()
	user := testutil.CreateUser(t, db, testutil.UserOptions{Email: "o@example.com"})

	outfit := &models.Outfit{UserID: user.ID, Title: "Look", ImageURL: "/files/a.jpg"}
	require.NoError(t, repo.Create(db, outfit))
	require.NoError(t, repo.CreateRating(db, &models.Rating{OutfitID: outfit.ID, Rating: 8, Feedback: "nice", Suggestions: []string{"belt"}}))

	found, err := repo.FindByID(db, outfit.ID)
	require.NoError(t, err)
	assert.Equal(t, "Look", found.Title)

	rating, err := repo.LatestRating(db, outfit.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, rating.Rating)
	assert.Equal(t, []string{"belt"}, []string(rating.Suggestions))

	_, err = repo.FindByID(db, "missing")
	assert.ErrorIs(t, err, repositories.ErrOutfitNotFound)

	list, err := repo.ListByUser(db, user.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSessionRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewSessionRepository()
	now := time.Now()

	live := &models.Session{UserID: "u1", ExpiresAt: now.Add(time.Hour)}
	dead := &models.Session{UserID: "u1", ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, repo.Create(db, live))
	require.NoError(t, repo.Create(db, dead))

	count, err := repo.CountByUserID(db, "u1", now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	n, err := repo.DeleteExpired(db, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.FindByID(db, dead.ID)
	assert.ErrorIs(t, err, repositories.ErrSessionNotFound)

	require.NoError(t, repo.DeleteByID(db, live.ID))
	assert.ErrorIs(t, repo.DeleteByID(db, live.ID), repositories.ErrSessionNotFound)
}
