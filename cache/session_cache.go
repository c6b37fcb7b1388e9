package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/zoynulabedin/snowlightv2-sub000/player"
)

const sessionKey = "session:%s" // String: SessionState JSON

// SessionCache mirrors session selections to Redis so a reconnecting tab
// can pick its queue back up.
type SessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a mirror whose snapshots expire after ttl.
func NewSessionCache(client *redis.Client, ttl time.Duration) *SessionCache {
	return &SessionCache{client: client, ttl: ttl}
}

// GetSessionKey 根据会话ID生成Redis键
func GetSessionKey(sessionID string) string {
	return fmt.Sprintf(sessionKey, sessionID)
}

// Save stores the snapshot and refreshes its expiry.
func (c *SessionCache) Save(ctx context.Context, sessionID string, state player.SessionState) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}

	if err := c.client.Set(ctx, GetSessionKey(sessionID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session %s: %w", sessionID, err)
	}
	return nil
}

// Load returns the mirrored snapshot, or nil when none exists.
func (c *SessionCache) Load(ctx context.Context, sessionID string) (*player.SessionState, error) {
	if c.client == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	data, err := c.client.Get(ctx, GetSessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	var state player.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", sessionID, err)
	}
	return &state, nil
}

// Delete drops the snapshot.
func (c *SessionCache) Delete(ctx context.Context, sessionID string) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	return c.client.Del(ctx, GetSessionKey(sessionID)).Err()
}
