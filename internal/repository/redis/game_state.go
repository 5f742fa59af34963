package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key patterns for Redis game state.
func stateKey(gameID string) string { return "game:" + gameID + ":state" }
func timerKey(gameID string) string { return "game:" + gameID + ":timer" }

// SetGameState stores the live game state snapshot JSON.
func (c *Client) SetGameState(ctx context.Context, gameID string, state json.RawMessage) error {
	return c.rdb.Set(ctx, stateKey(gameID), []byte(state), 0).Err()
}

// GetGameState retrieves the live game state snapshot JSON.
func (c *Client) GetGameState(ctx context.Context, gameID string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, stateKey(gameID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get game state: %w", err)
	}
	return json.RawMessage(data), nil
}

// phaseGracePeriod is the extra time after the displayed deadline before
// the phase force-advances, giving players a few seconds of leeway.
const phaseGracePeriod = 5 * time.Second

// SetPhaseTimer creates a timer key with a TTL. When the key expires,
// Redis keyspace notifications trigger the phase advance.
// The TTL includes a grace period so the key expires slightly after the
// displayed deadline.
func (c *Client) SetPhaseTimer(ctx context.Context, gameID string, deadline time.Time) error {
	ttl := time.Until(deadline) + phaseGracePeriod
	if ttl <= 0 {
		ttl = time.Second
	}
	return c.rdb.Set(ctx, timerKey(gameID), deadline.Unix(), ttl).Err()
}

// ClearPhaseTimer removes the timer for a game.
func (c *Client) ClearPhaseTimer(ctx context.Context, gameID string) error {
	return c.rdb.Del(ctx, timerKey(gameID)).Err()
}

// DeleteGameData removes all Redis data for a game (on game end).
func (c *Client) DeleteGameData(ctx context.Context, gameID string) error {
	return c.rdb.Del(ctx, stateKey(gameID), timerKey(gameID)).Err()
}
