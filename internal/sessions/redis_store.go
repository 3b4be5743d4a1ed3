package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"eva_harper_backend/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore хранит сессии в Redis: ключ сессии с TTL и множество
// идентификаторов сессий пользователя.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "session"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) sessionKey(id string) string {
	return s.prefix + ":" + id
}

func (s *RedisStore) userKey(userID string) string {
	return s.prefix + ":user:" + userID
}

func (s *RedisStore) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return ErrSessionInvalid
	}
	payload, err := json.Marshal(redisSession{
		ID:        session.ID,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UserAgent: session.UserAgent,
		IP:        session.IP,
	})
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.sessionKey(session.ID), payload, ttl)
	pipe.SAdd(ctx, s.userKey(session.UserID), session.ID)
	pipe.Expire(ctx, s.userKey(session.UserID), ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Session, error) {
	raw, err := s.client.Get(ctx, s.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var stored redisSession
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}
	return stored.toModel(), nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	session, err := s.Get(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.sessionKey(id))
	pipe.SRem(ctx, s.userKey(session.UserID), id)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) DeleteByUser(ctx context.Context, userID string) error {
	ids, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.sessionKey(id))
	}
	keys = append(keys, s.userKey(userID))
	return s.client.Del(ctx, keys...).Err()
}

// DeleteExpired - Redis сам удаляет ключи по TTL
func (s *RedisStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type redisSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
	UserAgent string    `json:"userAgent,omitempty"`
	IP        string    `json:"ip,omitempty"`
}

func (r redisSession) toModel() *models.Session {
	return &models.Session{
		BaseModel: models.BaseModel{ID: r.ID, CreatedAt: r.CreatedAt, UpdatedAt: r.CreatedAt},
		UserID:    r.UserID,
		ExpiresAt: r.ExpiresAt,
		UserAgent: r.UserAgent,
		IP:        r.IP,
	}
}
