package workers

import (
	"context"
	"time"

	"eva_harper_backend/internal/logger"
	"eva_harper_backend/internal/ratelimit"
	"eva_harper_backend/internal/repositories"
	"eva_harper_backend/internal/sessions"

	"gorm.io/gorm"
)

// SessionCleanupWorker удаляет истекшие сессии, просроченные токены
// установки пароля и старые счетчики лимитера
type SessionCleanupWorker struct {
	db       *gorm.DB
	sessions *sessions.Manager
	userRepo repositories.UserRepository
	limiter  *ratelimit.Manager
	interval time.Duration
	now      func() time.Time
}

func NewSessionCleanupWorker(
	db *gorm.DB,
	manager *sessions.Manager,
	userRepo repositories.UserRepository,
	limiter *ratelimit.Manager,
	interval time.Duration,
) *SessionCleanupWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SessionCleanupWorker{
		db:       db,
		sessions: manager,
		userRepo: userRepo,
		limiter:  limiter,
		interval: interval,
		now:      time.Now,
	}
}

func (w *SessionCleanupWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *SessionCleanupWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Session cleanup worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// CleanupResult - сколько записей удалено за проход
type CleanupResult struct {
	Sessions     int64
	SetupTokens  int64
	RateCounters int
}

func (w *SessionCleanupWorker) RunOnce(ctx context.Context) CleanupResult {
	var res CleanupResult
	var err error

	res.Sessions, err = w.sessions.Cleanup(ctx)
	logger.WorkerLog("session_cleanup", "delete_expired_sessions", res.Sessions, err)

	res.SetupTokens, err = w.userRepo.ClearExpiredSetupTokens(w.db.WithContext(ctx), w.now())
	logger.WorkerLog("session_cleanup", "clear_expired_setup_tokens", res.SetupTokens, err)

	res.RateCounters = w.limiter.Prune()
	return res
}
