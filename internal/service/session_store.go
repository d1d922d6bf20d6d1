package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"companion-llm/internal/domain"
)

// SessionStore persiste el estado de sesion por conversacion con TTL.
// Una sesion expirada se trata como inexistente: el siguiente mensaje
// arranca en estado fresco.
type SessionStore interface {
	Get(ctx context.Context, conversationID uuid.UUID) (domain.SessionState, bool, error)
	Save(ctx context.Context, state domain.SessionState) error
	// Update aplica fn sobre el estado actual (o uno fresco) de forma
	// atomica respecto a otros Update sobre la misma conversacion. Si fn
	// devuelve error la mutacion se descarta y el error se propaga.
	Update(ctx context.Context, conversationID, userID uuid.UUID, fn func(*domain.SessionState) error) (domain.SessionState, error)
}

func freshSessionState(conversationID, userID uuid.UUID) domain.SessionState {
	return domain.SessionState{
		ConversationID: conversationID,
		UserID:         userID,
		CurrentRoute:   domain.RouteNormal,
		UpdatedAt:      time.Now().UTC(),
	}
}

type memorySessionStore struct {
	mu    sync.Mutex
	items map[uuid.UUID]sessionEntry
	ttl   time.Duration
}

type sessionEntry struct {
	state   domain.SessionState
	expires time.Time
}

func NewMemorySessionStore(ttl time.Duration) SessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &memorySessionStore{
		items: make(map[uuid.UUID]sessionEntry),
		ttl:   ttl,
	}
}

func (s *memorySessionStore) Get(_ context.Context, conversationID uuid.UUID) (domain.SessionState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[conversationID]
	if !ok || time.Now().UTC().After(entry.expires) {
		delete(s.items, conversationID)
		return domain.SessionState{}, false, nil
	}
	return entry.state, true, nil
}

func (s *memorySessionStore) Save(_ context.Context, state domain.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state.UpdatedAt = time.Now().UTC()
	s.items[state.ConversationID] = sessionEntry{
		state:   state,
		expires: time.Now().UTC().Add(s.ttl),
	}
	return nil
}

func (s *memorySessionStore) Update(_ context.Context, conversationID, userID uuid.UUID, fn func(*domain.SessionState) error) (domain.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[conversationID]
	state := entry.state
	if !ok || time.Now().UTC().After(entry.expires) {
		state = freshSessionState(conversationID, userID)
	}
	if err := fn(&state); err != nil {
		return domain.SessionState{}, err
	}
	state.UpdatedAt = time.Now().UTC()
	s.items[conversationID] = sessionEntry{
		state:   state,
		expires: time.Now().UTC().Add(s.ttl),
	}
	return state, nil
}

type redisSessionStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) SessionStore {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisSessionStore{
		client: client,
		prefix: "chat:session:",
		ttl:    ttl,
	}
}

func (s *redisSessionStore) key(conversationID uuid.UUID) string {
	return s.prefix + conversationID.String()
}

func (s *redisSessionStore) Get(ctx context.Context, conversationID uuid.UUID) (domain.SessionState, bool, error) {
	raw, err := s.client.Get(ctx, s.key(conversationID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.SessionState{}, false, nil
	}
	if err != nil {
		return domain.SessionState{}, false, fmt.Errorf("get session: %w", err)
	}
	var state domain.SessionState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return domain.SessionState{}, false, fmt.Errorf("decode session: %w", err)
	}
	return state, true, nil
}

func (s *redisSessionStore) Save(ctx context.Context, state domain.SessionState) error {
	state.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(state.ConversationID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Update usa WATCH/MULTI para que dos instancias no pisen el mismo estado
// (p. ej. verificacion de edad concurrente con un mensaje en vuelo).
func (s *redisSessionStore) Update(ctx context.Context, conversationID, userID uuid.UUID, fn func(*domain.SessionState) error) (domain.SessionState, error) {
	key := s.key(conversationID)
	var result domain.SessionState

	for attempt := 0; attempt < 5; attempt++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			raw, err := tx.Get(ctx, key).Result()
			state := freshSessionState(conversationID, userID)
			switch {
			case errors.Is(err, redis.Nil):
			case err != nil:
				return err
			default:
				if err := json.Unmarshal([]byte(raw), &state); err != nil {
					return fmt.Errorf("decode session: %w", err)
				}
			}

			if err := fn(&state); err != nil {
				return err
			}
			state.UpdatedAt = time.Now().UTC()
			encoded, err := json.Marshal(state)
			if err != nil {
				return fmt.Errorf("encode session: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, s.ttl)
				return nil
			})
			if err == nil {
				result = state
			}
			return err
		}, key)

		if err == nil {
			return result, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return domain.SessionState{}, fmt.Errorf("update session: %w", err)
		}
	}
	return domain.SessionState{}, fmt.Errorf("update session: too many conflicts")
}
