// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Rdb is the shared client. It stays nil when Redis is not configured and every
// helper in this package then becomes a no-op.
var Rdb *redis.Client

// ActionQueueKey is the list the historian consumes action records from.
const ActionQueueKey = "westfront:actions"

// GameActionRecord is one entry of the session's action history.
type GameActionRecord struct {
	SessionID     uuid.UUID              `json:"sessionId"`
	ActionIndex   int                    `json:"actionIndex"`
	Round         int                    `json:"round"`
	Actor         string                 `json:"actor"`
	ActionType    string                 `json:"actionType"`
	ActionPayload map[string]interface{} `json:"actionPayload"`
	Timestamp     int64                  `json:"timestamp"`
}

// Connect parses url, pings the server and installs the shared client.
func Connect(ctx context.Context, url string) error {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("ping redis: %w", err)
	}
	Rdb = client
	log.Infof("Connected to Redis at %s", opts.Addr)
	return nil
}

// Close releases the shared client.
func Close() {
	if Rdb != nil {
		if err := Rdb.Close(); err != nil {
			log.Warnf("Error closing Redis client: %v", err)
		}
		Rdb = nil
	}
}

// PublishGameAction appends rec to the action queue.
func PublishGameAction(ctx context.Context, rec GameActionRecord) error {
	if Rdb == nil {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal action record: %w", err)
	}
	return Rdb.RPush(ctx, ActionQueueKey, data).Err()
}
