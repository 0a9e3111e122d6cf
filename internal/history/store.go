package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Entry is one persisted conversation turn. The completion core never reads
// or writes these; the serving layer appends the exchange after a reply is
// returned.
type Entry struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store keeps conversation transcripts in Redis lists with a rolling TTL.
type Store struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if client == nil {
		panic("history: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 720 * time.Hour
	}
	return &Store{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("tutor/history"),
	}
}

// Append adds one entry to a conversation transcript and refreshes its TTL.
func (s *Store) Append(ctx context.Context, conversationID string, entry Entry) error {
	ctx, span := s.tracer.Start(ctx, "history.append")
	defer span.End()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("history: failed to marshal entry: %w", err)
	}

	key := transcriptKey(conversationID)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("history: failed to persist entry: %w", err)
	}
	return nil
}

// List returns up to limit of the most recent entries, oldest first. A
// missing conversation yields an empty slice, not an error.
func (s *Store) List(ctx context.Context, conversationID string, limit int64) ([]Entry, error) {
	ctx, span := s.tracer.Start(ctx, "history.list")
	defer span.End()

	if limit <= 0 {
		limit = 50
	}

	raw, err := s.redis.LRange(ctx, transcriptKey(conversationID), -limit, -1).Result()
	if err != nil && err != redis.Nil {
		span.RecordError(err)
		return nil, fmt.Errorf("history: failed to load transcript: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var entry Entry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("history: failed to decode entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func transcriptKey(id string) string {
	return fmt.Sprintf("transcript:%s", id)
}
