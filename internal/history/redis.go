package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/learnloop/tutorbook/internal/tutor"
)

const (
	// maxTurns caps stored messages per session so a long-lived chat
	// cannot grow a key without bound.
	maxTurns   = 40
	defaultTTL = 7 * 24 * time.Hour
)

// RedisHistory keeps chat turns in a Redis list, one key per session.
type RedisHistory struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisHistory(addr, password string, db int, ttl time.Duration) *RedisHistory {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisHistory{client: rdb, ttl: ttl}
}

func (h *RedisHistory) Ping(ctx context.Context) error {
	return h.client.Ping(ctx).Err()
}

func key(sessionID string) string {
	return "chat:" + sessionID
}

func (h *RedisHistory) Append(ctx context.Context, sessionID string, msgs ...tutor.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	vals := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal message: %w", err)
		}
		vals = append(vals, data)
	}
	k := key(sessionID)
	pipe := h.client.TxPipeline()
	pipe.RPush(ctx, k, vals...)
	pipe.LTrim(ctx, k, -maxTurns, -1)
	pipe.Expire(ctx, k, h.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (h *RedisHistory) List(ctx context.Context, sessionID string, limit int) ([]tutor.Message, error) {
	if limit <= 0 || limit > maxTurns {
		limit = maxTurns
	}
	raw, err := h.client.LRange(ctx, key(sessionID), int64(-limit), -1).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	out := make([]tutor.Message, 0, len(raw))
	for _, r := range raw {
		var m tutor.Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
