package ratelimit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"eva_harper_backend/internal/logger"

	"github.com/redis/go-redis/v9"
)

const redisBreakerDuration = 30 * time.Second

// Settings описывает лимит и бэкенд.
type Settings struct {
	Limit         int
	Window        time.Duration
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// RedisClientFactory constructs a Redis client for the given options.
type RedisClientFactory func(options *redis.Options) *redis.Client

// Manager selects a limiter backend and enforces rate limits.
// Пока Redis недоступен, работает in-memory лимитер.
type Manager struct {
	settings       Settings
	nowFn          func() time.Time
	memoryLimiter  *MemoryLimiter
	newRedisClient RedisClientFactory
	mu             sync.Mutex
	redisClient    *redis.Client
	redisLimiter   *RedisLimiter
	breakerUntil   time.Time
}

// NewManager constructs a Manager with default dependencies when nil.
func NewManager(settings Settings, nowFn func() time.Time, newRedisClient RedisClientFactory) *Manager {
	if nowFn == nil {
		nowFn = time.Now
	}
	if newRedisClient == nil {
		newRedisClient = redis.NewClient
	}
	if settings.Window <= 0 {
		settings.Window = time.Minute
	}
	if settings.RedisPrefix == "" {
		settings.RedisPrefix = "eva:ratelimit"
	}
	return &Manager{
		settings:       settings,
		nowFn:          nowFn,
		memoryLimiter:  NewMemoryLimiter(),
		newRedisClient: newRedisClient,
	}
}

// Enabled сообщает, ограничивает ли менеджер хоть что-то.
func (m *Manager) Enabled() bool {
	return m != nil && m.settings.Limit > 0
}

// Limit - число запросов в окне
func (m *Manager) Limit() int {
	if m == nil {
		return 0
	}
	return m.settings.Limit
}

// Allow checks whether the request should be allowed using the best available backend.
func (m *Manager) Allow(ctx context.Context, key string) (Result, error) {
	if !m.Enabled() || key == "" {
		return Result{Allowed: true}, nil
	}
	now := m.nowFn()
	if m.settings.RedisEnabled {
		if result, ok := m.allowRedis(ctx, key, now); ok {
			return result, nil
		}
	}
	return m.memoryLimiter.Allow(ctx, key, m.settings.Limit, m.settings.Window, now)
}

// Prune чистит устаревшие счётчики in-memory лимитера.
func (m *Manager) Prune() int {
	if m == nil {
		return 0
	}
	return m.memoryLimiter.Prune(m.settings.Window, m.nowFn())
}

// Close закрывает клиент Redis, если он был создан.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.redisClient == nil {
		return nil
	}
	err := m.redisClient.Close()
	m.redisClient = nil
	m.redisLimiter = nil
	return err
}

func (m *Manager) allowRedis(ctx context.Context, key string, now time.Time) (Result, bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	if m.isBreakerActive(now) {
		return Result{}, false
	}
	limiter, errEnsure := m.ensureRedis(ctx)
	if errEnsure != nil {
		m.tripBreaker(errEnsure, now)
		return Result{}, false
	}
	result, errAllow := limiter.Allow(ctx, key, m.settings.Limit, m.settings.Window, now)
	if errAllow != nil {
		m.tripBreaker(errAllow, now)
		return Result{}, false
	}
	return result, true
}

func (m *Manager) isBreakerActive(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.breakerUntil.IsZero() {
		return false
	}
	if now.Before(m.breakerUntil) {
		return true
	}
	m.breakerUntil = time.Time{}
	return false
}

func (m *Manager) tripBreaker(err error, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.breakerUntil.IsZero() && now.Before(m.breakerUntil) {
		return
	}
	m.breakerUntil = now.Add(redisBreakerDuration)
	logger.Warn("rate limit: redis unavailable, falling back to memory", "error", err)
}

func (m *Manager) ensureRedis(ctx context.Context) (*RedisLimiter, error) {
	addr := strings.TrimSpace(m.settings.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis: missing address")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.redisLimiter != nil {
		return m.redisLimiter, nil
	}

	client := m.newRedisClient(&redis.Options{
		Addr:     addr,
		Password: m.settings.RedisPassword,
		DB:       m.settings.RedisDB,
	})
	ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if errPing := client.Ping(ctxPing).Err(); errPing != nil {
		_ = client.Close()
		return nil, errPing
	}
	m.redisClient = client
	m.redisLimiter = NewRedisLimiter(client, m.settings.RedisPrefix)
	return m.redisLimiter, nil
}
