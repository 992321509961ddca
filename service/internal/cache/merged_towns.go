// internal/cache/merged_towns.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	engine "github.com/feng-mou-mou/Railof1914/engine"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisMergedTowns stores the tiles covered by each merged town in a Redis hash.
// Field = merged town name, value = JSON list of hexes. The hash outlives the
// process only when the session id is stable across restarts.
type RedisMergedTowns struct {
	client *redis.Client
	key    string
}

// NewRedisMergedTowns scopes the cache to one session. Pass a stable id (see
// config.SessionUUID) for the entries to be found again after a restart.
func NewRedisMergedTowns(client *redis.Client, sessionID uuid.UUID) *RedisMergedTowns {
	return &RedisMergedTowns{client: client, key: MergedTownsKey(sessionID)}
}

// MergedTownsKey returns the hash key used for a session.
func MergedTownsKey(sessionID uuid.UUID) string {
	return "westfront:merged:" + sessionID.String()
}

func (c *RedisMergedTowns) Put(ctx context.Context, name string, tiles []engine.Hex) error {
	data, err := json.Marshal(tiles)
	if err != nil {
		return fmt.Errorf("marshal tiles for %s: %w", name, err)
	}
	return c.client.HSet(ctx, c.key, name, data).Err()
}

func (c *RedisMergedTowns) Get(ctx context.Context, name string) ([]engine.Hex, bool, error) {
	data, err := c.client.HGet(ctx, c.key, name).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var tiles []engine.Hex
	if err := json.Unmarshal(data, &tiles); err != nil {
		return nil, false, fmt.Errorf("decode tiles for %s: %w", name, err)
	}
	return tiles, true, nil
}

func (c *RedisMergedTowns) Delete(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	return c.client.HDel(ctx, c.key, names...).Err()
}

func (c *RedisMergedTowns) All(ctx context.Context) (map[string][]engine.Hex, error) {
	raw, err := c.client.HGetAll(ctx, c.key).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]engine.Hex, len(raw))
	for name, data := range raw {
		var tiles []engine.Hex
		if err := json.Unmarshal([]byte(data), &tiles); err != nil {
			return nil, fmt.Errorf("decode tiles for %s: %w", name, err)
		}
		out[name] = tiles
	}
	return out, nil
}
