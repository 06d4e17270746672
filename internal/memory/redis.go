// Package memory holds the rolling conversational state for each session in
// Redis. Entries expire 24 hours after the last write; an explicit clear is
// available for clients starting a new conversation.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionTTL bounds how long an idle session keeps its memory.
const SessionTTL = 24 * time.Hour

const keyPrefix = "memory:"

// Turn is one entry of a session's serialized conversation state.
type Turn struct {
	Role      string    `json:"role"` // "user" or "agent"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, ttl: SessionTTL}
}

// Load returns the session's turns in chronological order, or an empty slice
// when no memory exists yet.
func (s *RedisStore) Load(ctx context.Context, sessionID string) ([]Turn, error) {
	data, err := s.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session memory: %w", err)
	}

	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("failed to decode session memory: %w", err)
	}
	return turns, nil
}

// Append adds turns to the session's memory and resets the TTL. The update is
// a read-modify-write without a per-session lock: concurrent appends to the
// same session are last-write-wins.
func (s *RedisStore) Append(ctx context.Context, sessionID string, turns ...Turn) error {
	existing, err := s.Load(ctx, sessionID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(append(existing, turns...))
	if err != nil {
		return fmt.Errorf("failed to encode session memory: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+sessionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session memory: %w", err)
	}
	return nil
}

// Clear drops the session's memory. Clearing a session that has none is not
// an error.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to clear session memory: %w", err)
	}
	return nil
}
