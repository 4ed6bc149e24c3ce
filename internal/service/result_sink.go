package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/oralis/viva-backend/internal/config"
	"github.com/oralis/viva-backend/internal/model"
	"github.com/oralis/viva-backend/internal/websocket"
)

// ResultSink is where finished sessions and live-monitor events go. The
// production implementation is Redis-backed; tests substitute a mock.
type ResultSink interface {
	EnqueueResult(ctx context.Context, result model.SessionResult) error
	PublishMonitorEvent(ctx context.Context, vivaID string, event websocket.MonitorEvent) error
}

// RedisSink queues results on the persist list and fans monitor events out
// over PubSub.
type RedisSink struct {
	rdb *redis.Client
}

// NewRedisSink creates a RedisSink.
func NewRedisSink(rdb *redis.Client) *RedisSink {
	return &RedisSink{rdb: rdb}
}

// EnqueueResult pushes a finished session onto the persist queue for the
// result worker.
func (s *RedisSink) EnqueueResult(ctx context.Context, result model.SessionResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, payload).Err(); err != nil {
		return fmt.Errorf("enqueue result: %w", err)
	}
	return nil
}

// PublishMonitorEvent publishes a live event on the viva's monitor channel.
func (s *RedisSink) PublishMonitorEvent(ctx context.Context, vivaID string, event websocket.MonitorEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return s.rdb.Publish(ctx, config.CacheKey.VivaMonitorChannel(vivaID), payload).Err()
}
