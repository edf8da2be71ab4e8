package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/signalfold/triage-engine/internal/models"
)

const (
	rawQueueKey     = "triage:events:raw"
	enrichedListKey = "triage:events:enriched"
	llmCallsListKey = "triage:llm:calls"
	processedSetKey = "triage:events:processed"
)

// RedisStore persists events in Redis: raw events in a pending list,
// enriched events and call records in append-only lists, processed marks in
// a set.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore dials Redis and verifies connectivity.
func NewRedisStore(addr, username, password string, db int) (*RedisStore, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// SaveRaw pushes raw events onto the pending queue.
func (s *RedisStore) SaveRaw(ctx context.Context, events []models.RawEvent) error {
	if len(events) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(events))
	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal raw event %s: %w", event.EventID, err)
		}
		values = append(values, data)
	}
	if err := s.client.RPush(ctx, rawQueueKey, values...).Err(); err != nil {
		return fmt.Errorf("push raw events: %w", err)
	}
	return nil
}

// FetchUnprocessed scans the pending queue for events not yet marked
// processed, preserving queue order.
func (s *RedisStore) FetchUnprocessed(ctx context.Context, limit int) ([]models.RawEvent, error) {
	raw, err := s.client.LRange(ctx, rawQueueKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read raw queue: %w", err)
	}

	events := make([]models.RawEvent, 0, limit)
	for _, item := range raw {
		var event models.RawEvent
		if err := json.Unmarshal([]byte(item), &event); err != nil {
			continue
		}
		done, err := s.client.SIsMember(ctx, processedSetKey, event.EventID).Result()
		if err != nil {
			return nil, fmt.Errorf("check processed mark: %w", err)
		}
		if done {
			continue
		}
		events = append(events, event)
		if limit > 0 && len(events) >= limit {
			break
		}
	}
	return events, nil
}

// MarkProcessed records event ids in the processed set.
func (s *RedisStore) MarkProcessed(ctx context.Context, eventIDs []string) error {
	if len(eventIDs) == 0 {
		return nil
	}
	members := make([]interface{}, len(eventIDs))
	for i, id := range eventIDs {
		members[i] = id
	}
	if err := s.client.SAdd(ctx, processedSetKey, members...).Err(); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

// SaveEnriched appends enriched events.
func (s *RedisStore) SaveEnriched(ctx context.Context, events []models.EnrichedEvent) error {
	return s.appendJSON(ctx, enrichedListKey, len(events), func(i int) (any, string) {
		return events[i], events[i].EventID
	})
}

// SaveLLMCalls appends call records.
func (s *RedisStore) SaveLLMCalls(ctx context.Context, records []models.LLMCallRecord) error {
	return s.appendJSON(ctx, llmCallsListKey, len(records), func(i int) (any, string) {
		return records[i], records[i].CallID
	})
}

func (s *RedisStore) appendJSON(ctx context.Context, key string, n int, item func(int) (any, string)) error {
	if n == 0 {
		return nil
	}
	values := make([]interface{}, 0, n)
	for i := 0; i < n; i++ {
		v, id := item(i)
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", id, err)
		}
		values = append(values, data)
	}
	if err := s.client.RPush(ctx, key, values...).Err(); err != nil {
		return fmt.Errorf("append to %s: %w", key, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
