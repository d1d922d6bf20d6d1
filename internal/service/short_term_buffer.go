package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"companion-llm/internal/domain"
)

// ShortTermBuffer mantiene los ultimos N mensajes por conversacion para
// armar el contexto inmediato del prompt. Es un cache: la fuente de verdad
// es la tabla de mensajes.
type ShortTermBuffer interface {
	Append(ctx context.Context, msg domain.Message) error
	Recent(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error)
}

type memoryShortTermBuffer struct {
	mu    sync.Mutex
	items map[uuid.UUID][]domain.Message
	max   int
}

func NewMemoryShortTermBuffer(max int) ShortTermBuffer {
	if max <= 0 {
		max = 20
	}
	return &memoryShortTermBuffer{
		items: make(map[uuid.UUID][]domain.Message),
		max:   max,
	}
}

func (b *memoryShortTermBuffer) Append(_ context.Context, msg domain.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	msgs := append(b.items[msg.ConversationID], msg)
	if len(msgs) > b.max {
		msgs = msgs[len(msgs)-b.max:]
	}
	b.items[msg.ConversationID] = msgs
	return nil
}

func (b *memoryShortTermBuffer) Recent(_ context.Context, conversationID uuid.UUID) ([]domain.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	msgs := b.items[conversationID]
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

type redisShortTermBuffer struct {
	client *redis.Client
	prefix string
	max    int
	ttl    time.Duration
}

func NewRedisShortTermBuffer(client *redis.Client, max int, ttl time.Duration) ShortTermBuffer {
	if client == nil {
		return nil
	}
	if max <= 0 {
		max = 20
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisShortTermBuffer{
		client: client,
		prefix: "chat:buffer:",
		max:    max,
		ttl:    ttl,
	}
}

func (b *redisShortTermBuffer) key(conversationID uuid.UUID) string {
	return b.prefix + conversationID.String()
}

func (b *redisShortTermBuffer) Append(ctx context.Context, msg domain.Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode buffered message: %w", err)
	}
	key := b.key(msg.ConversationID)
	pipe := b.client.TxPipeline()
	pipe.RPush(ctx, key, raw)
	pipe.LTrim(ctx, key, int64(-b.max), -1)
	pipe.Expire(ctx, key, b.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append buffered message: %w", err)
	}
	return nil
}

func (b *redisShortTermBuffer) Recent(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error) {
	raws, err := b.client.LRange(ctx, b.key(conversationID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read buffer: %w", err)
	}
	msgs := make([]domain.Message, 0, len(raws))
	for _, raw := range raws {
		var msg domain.Message
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}
