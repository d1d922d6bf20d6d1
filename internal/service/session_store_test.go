package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"companion-llm/internal/domain"
)

func TestMemorySessionStoreRoundTrip(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	ctx := context.Background()

	state := freshSessionState(uuid.New(), uuid.New())
	state.AgeVerified = true
	state.CurrentRoute = domain.RouteRomance
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := store.Get(ctx, state.ConversationID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatalf("expected stored state")
	}
	if !got.AgeVerified || got.CurrentRoute != domain.RouteRomance {
		t.Fatalf("state mismatch: %+v", got)
	}
}

func TestMemorySessionStoreMissReturnsNotFound(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	_, ok, err := store.Get(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected miss for unknown conversation")
	}
}

func TestMemorySessionStoreTTLExpiry(t *testing.T) {
	store := NewMemorySessionStore(time.Millisecond)
	ctx := context.Background()

	state := freshSessionState(uuid.New(), uuid.New())
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("save: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	_, ok, err := store.Get(ctx, state.ConversationID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected expired state to read as missing")
	}
}

func TestMemorySessionStoreUpdateSeedsFreshState(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	convID, userID := uuid.New(), uuid.New()

	got, err := store.Update(context.Background(), convID, userID, func(s *domain.SessionState) error {
		s.AgeVerified = true
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.ConversationID != convID || got.UserID != userID {
		t.Fatalf("fresh state ids mismatch: %+v", got)
	}
	if !got.AgeVerified {
		t.Fatalf("mutation not applied")
	}
	if got.CurrentRoute != domain.RouteNormal {
		t.Fatalf("fresh state should start on NORMAL, got %s", got.CurrentRoute)
	}
}

func TestMemorySessionStoreUpdateMutatesExisting(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	ctx := context.Background()
	convID, userID := uuid.New(), uuid.New()

	state := freshSessionState(convID, userID)
	state.RouteLockCounter = 2
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Update(ctx, convID, userID, func(s *domain.SessionState) error {
		s.RouteLockCounter--
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.RouteLockCounter != 1 {
		t.Fatalf("expected decrement on stored state, got %d", got.RouteLockCounter)
	}
}

func TestMemorySessionStoreUpdateAbortsOnError(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	ctx := context.Background()
	convID, userID := uuid.New(), uuid.New()

	if err := store.Save(ctx, freshSessionState(convID, userID)); err != nil {
		t.Fatalf("save: %v", err)
	}

	sentinel := errors.New("rejected")
	_, err := store.Update(ctx, convID, userID, func(s *domain.SessionState) error {
		s.AgeVerified = true
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected fn error propagated, got %v", err)
	}

	got, ok, _ := store.Get(ctx, convID)
	if !ok || got.AgeVerified {
		t.Fatalf("aborted update must not persist the mutation: %+v", got)
	}
}
