package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/stemsi/riskwatch-backend/internal/config"
	"github.com/stemsi/riskwatch-backend/internal/model"
)

// NotificationService fans advisor notifications out over Redis PubSub so
// every server instance can deliver them to its WebSocket clients.
type NotificationService struct {
	rdb *redis.Client
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(rdb *redis.Client) *NotificationService {
	return &NotificationService{rdb: rdb}
}

// Publish sends n to the advisor's channel.
func (s *NotificationService) Publish(ctx context.Context, advisorID int, n model.Notification) error {
	raw, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, config.CacheKey.AdvisorNotificationChannel(advisorID), raw).Err()
}

// Subscribe opens a subscription to the advisor's channel. The caller must
// Close it.
func (s *NotificationService) Subscribe(ctx context.Context, advisorID int) *redis.PubSub {
	return s.rdb.Subscribe(ctx, config.CacheKey.AdvisorNotificationChannel(advisorID))
}
