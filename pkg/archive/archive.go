// Package archive mirrors the in-memory result log to Redis. The
// coordinator itself stays memory-resident; the mirror is an opt-in
// audit trail for operators who want report rows to survive restarts.
package archive

import (
	"context"
	"encoding/json"
	"fmt"

	"greenidle/internal/model"

	"github.com/go-redis/redis/v8"
)

const resultListKey = "greenidle:results"

// Sink appends result rows to a Redis list.
type Sink struct {
	redis *redis.Client
}

// NewSink connects to Redis and verifies the connection.
func NewSink(ctx context.Context, addr, password string, db int) (*Sink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to archive redis: %w", err)
	}

	return &Sink{redis: client}, nil
}

// Append pushes a row onto the archive list.
func (s *Sink) Append(ctx context.Context, row *model.ResultRow) error {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal result row: %w", err)
	}

	if err := s.redis.RPush(ctx, resultListKey, data).Err(); err != nil {
		return fmt.Errorf("failed to archive result row: %w", err)
	}
	return nil
}

// Rows reads back all archived rows in append order.
func (s *Sink) Rows(ctx context.Context) ([]*model.ResultRow, error) {
	raw, err := s.redis.LRange(ctx, resultListKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}

	rows := make([]*model.ResultRow, 0, len(raw))
	for _, item := range raw {
		var row model.ResultRow
		if err := json.Unmarshal([]byte(item), &row); err != nil {
			return nil, fmt.Errorf("failed to unmarshal archived row: %w", err)
		}
		rows = append(rows, &row)
	}
	return rows, nil
}

// Len returns the number of archived rows.
func (s *Sink) Len(ctx context.Context) (int64, error) {
	return s.redis.LLen(ctx, resultListKey).Result()
}

// Close releases the Redis connection.
func (s *Sink) Close() error {
	return s.redis.Close()
}
