package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// QualifiedEvent is published once per run on the configured channel.
type QualifiedEvent struct {
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`

	RunID            string    `json:"run_id"`
	Source           string    `json:"source"`
	WindowStart      time.Time `json:"window_start"`
	WindowEnd        time.Time `json:"window_end"`
	MinFraction      float64   `json:"min_fraction"`
	ThresholdMinutes int64     `json:"threshold_minutes"`
	Qualified        []string  `json:"qualified"`
	QualifiedCount   int       `json:"qualified_count"`
	Key              string    `json:"key"`
}

// redisClient is the subset of *redis.Client used by RedisSink.
type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// RedisSink stores the delimited list under a per-run key and publishes a
// QualifiedEvent.
type RedisSink struct {
	client    redisClient
	channel   string
	keyPrefix string
	ttl       time.Duration
}

// NewRedisSink creates a sink over client. A zero ttl keeps keys forever.
func NewRedisSink(client redisClient, channel, keyPrefix string, ttl time.Duration) *RedisSink {
	return &RedisSink{
		client:    client,
		channel:   channel,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Name implements Sink.
func (s *RedisSink) Name() string { return "redis" }

// Key returns the key holding runID's result.
func (s *RedisSink) Key(runID string) string {
	return s.keyPrefix + runID
}

// Write implements Sink. The key is set before the event is published so
// subscribers can read it on receipt.
func (s *RedisSink) Write(ctx context.Context, r *Report) error {
	key := s.Key(r.RunID)
	if err := s.client.Set(ctx, key, r.Delimited(), s.ttl).Err(); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}

	event := QualifiedEvent{
		EventType:        "attendance.qualified",
		Timestamp:        time.Now().UTC(),
		Version:          "1.0",
		RunID:            r.RunID,
		Source:           r.Source,
		WindowStart:      r.WindowStart,
		WindowEnd:        r.WindowEnd,
		MinFraction:      r.MinFraction,
		ThresholdMinutes: r.ThresholdMinutes,
		Qualified:        r.Qualified,
		QualifiedCount:   len(r.Qualified),
		Key:              key,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := s.client.Publish(ctx, s.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", s.channel, err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
