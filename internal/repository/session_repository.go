package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stemsi/riskwatch-backend/internal/config"
)

// SessionRepository keeps the JTI of each advisor's active session in Redis.
type SessionRepository struct {
	rdb *redis.Client
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(rdb *redis.Client) *SessionRepository {
	return &SessionRepository{rdb: rdb}
}

// Save stores jti as the advisor's only active session.
func (r *SessionRepository) Save(ctx context.Context, advisorID int, jti string, ttl time.Duration) error {
	return r.rdb.Set(ctx, config.CacheKey.AdvisorSessionKey(advisorID), jti, ttl).Err()
}

// Get returns the active session JTI, or ErrNotFound.
func (r *SessionRepository) Get(ctx context.Context, advisorID int) (string, error) {
	jti, err := r.rdb.Get(ctx, config.CacheKey.AdvisorSessionKey(advisorID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return jti, err
}

// Delete ends the advisor's session.
func (r *SessionRepository) Delete(ctx context.Context, advisorID int) error {
	return r.rdb.Del(ctx, config.CacheKey.AdvisorSessionKey(advisorID)).Err()
}
