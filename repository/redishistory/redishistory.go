package redishistory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/schoolchat/models"
)

const historyKeyPrefix = "chat:history:"

// Conn dials redis and verifies the connection.
func Conn(ctx context.Context, host, port, pass string, db int, timeout time.Duration) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%s", host, port),
		DialTimeout: timeout,
		Password:    pass,
		DB:          db,
	})

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, err
	}
	if pong != "PONG" {
		return nil, fmt.Errorf("expected PONG, got %s", pong)
	}

	return client, nil
}

// Cache keeps the recent conversation turns of each session in redis so
// the hot path never touches postgres. Entries expire after the TTL; the
// durable store remains the source of truth.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	depth  int // exchanges (user+assistant pairs) retained per session
}

func NewCache(client *redis.Client, ttl time.Duration, depth int) *Cache {
	if depth <= 0 {
		depth = 6
	}
	return &Cache{client: client, ttl: ttl, depth: depth}
}

// Recent returns the cached history for a session in chronological order.
// A missing key returns an empty history, not an error.
func (c *Cache) Recent(ctx context.Context, sessionID string) ([]models.Message, error) {
	key := historyKeyPrefix + sessionID
	vals, err := c.client.LRange(ctx, key, 0, -1).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	msgs := make([]models.Message, 0, len(vals))
	for _, v := range vals {
		var m models.Message
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			// A corrupt entry should not wipe out the whole history.
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// Append records one user/assistant exchange, trims the list to the
// configured depth and refreshes the TTL.
func (c *Cache) Append(ctx context.Context, sessionID string, user, assistant models.Message) error {
	key := historyKeyPrefix + sessionID

	userData, err := json.Marshal(user)
	if err != nil {
		return err
	}
	assistantData, err := json.Marshal(assistant)
	if err != nil {
		return err
	}

	pipe := c.client.TxPipeline()
	pipe.RPush(ctx, key, userData, assistantData)
	pipe.LTrim(ctx, key, int64(-2*c.depth), -1)
	pipe.Expire(ctx, key, c.ttl)
	_, err = pipe.Exec(ctx)
	return err
}
