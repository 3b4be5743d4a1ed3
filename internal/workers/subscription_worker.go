package workers

import (
	"context"
	"time"

	"eva_harper_backend/internal/logger"
	"eva_harper_backend/internal/repositories"

	"gorm.io/gorm"
)

type SubscriptionWorker struct {
	db       *gorm.DB
	userRepo repositories.UserRepository
	interval time.Duration
	now      func() time.Time
}

func NewSubscriptionWorker(db *gorm.DB, userRepo repositories.UserRepository, interval time.Duration) *SubscriptionWorker {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &SubscriptionWorker{db: db, userRepo: userRepo, interval: interval, now: time.Now}
}

// Start запускает проверку истекших подписок в фоне
func (w *SubscriptionWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *SubscriptionWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Subscription worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce переводит пользователей с истекшей подпиской на free
func (w *SubscriptionWorker) RunOnce(ctx context.Context) int64 {
	affected, err := w.userRepo.ExpireSubscriptions(w.db.WithContext(ctx), w.now())
	logger.WorkerLog("subscription", "expire_subscriptions", affected, err)
	return affected
}
