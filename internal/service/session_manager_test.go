package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"companion-llm/internal/domain"
)

func newTestSessionManager(t *testing.T) *SessionManager {
	t.Helper()
	return NewSessionManager(NewMemorySessionStore(time.Hour), NewContentRouter(), 5, nil)
}

func freshState() domain.SessionState {
	return freshSessionState(uuid.New(), uuid.New())
}

func TestApplyExplicitWithoutVerificationAsksForAge(t *testing.T) {
	m := newTestSessionManager(t)
	state := freshState()

	decision, next := m.Apply(state, domain.LabelExplicitConsensualAdult)
	if decision.Action != domain.ActionAgeVerify {
		t.Fatalf("expected age_verify, got %s", decision.Action)
	}
	if next.ExplicitAttempts != 1 {
		t.Fatalf("expected explicit attempt counted, got %d", next.ExplicitAttempts)
	}
	if next.RouteLockCounter != 0 {
		t.Fatalf("lock must not arm before verification")
	}

	// Reintento: cuenta de nuevo, nunca escala solo.
	decision, next = m.Apply(next, domain.LabelExplicitFetish)
	if decision.Action != domain.ActionAgeVerify {
		t.Fatalf("expected age_verify on retry, got %s", decision.Action)
	}
	if next.ExplicitAttempts != 2 {
		t.Fatalf("expected second attempt counted, got %d", next.ExplicitAttempts)
	}
}

func TestApplyVerifiedExplicitArmsRouteLock(t *testing.T) {
	m := newTestSessionManager(t)
	state := freshState()
	state.AgeVerified = true

	decision, next := m.Apply(state, domain.LabelExplicitConsensualAdult)
	if decision.Action != domain.ActionGenerate {
		t.Fatalf("expected generate, got %s", decision.Action)
	}
	if decision.Route != domain.RouteExplicit {
		t.Fatalf("expected EXPLICIT route, got %s", decision.Route)
	}
	if next.RouteLockCounter != 5 {
		t.Fatalf("expected lock counter 5, got %d", next.RouteLockCounter)
	}
	if next.CurrentRoute != domain.RouteExplicit {
		t.Fatalf("expected current route EXPLICIT, got %s", next.CurrentRoute)
	}
}

func TestApplyLockRetainsRouteAndDecrements(t *testing.T) {
	m := newTestSessionManager(t)
	state := freshState()
	state.AgeVerified = true
	state.CurrentRoute = domain.RouteExplicit
	state.RouteLockCounter = 5

	// Un mensaje suggestive dentro del lock retiene la ruta EXPLICIT.
	decision, next := m.Apply(state, domain.LabelSuggestive)
	if decision.Route != domain.RouteExplicit {
		t.Fatalf("expected locked route EXPLICIT, got %s", decision.Route)
	}
	if next.RouteLockCounter != 4 {
		t.Fatalf("expected decrement to 4, got %d", next.RouteLockCounter)
	}

	// Explicito dentro del lock tambien decrementa, no rearma.
	decision, next = m.Apply(next, domain.LabelExplicitConsensualAdult)
	if decision.Route != domain.RouteExplicit {
		t.Fatalf("expected locked route EXPLICIT, got %s", decision.Route)
	}
	if next.RouteLockCounter != 3 {
		t.Fatalf("expected decrement to 3, got %d", next.RouteLockCounter)
	}
}

func TestApplySafeBreaksLock(t *testing.T) {
	m := newTestSessionManager(t)
	state := freshState()
	state.AgeVerified = true
	state.CurrentRoute = domain.RouteExplicit
	state.RouteLockCounter = 3

	decision, next := m.Apply(state, domain.LabelSafe)
	if decision.Route != domain.RouteNormal {
		t.Fatalf("expected NORMAL after SAFE, got %s", decision.Route)
	}
	if next.RouteLockCounter != 0 {
		t.Fatalf("expected lock broken, got %d", next.RouteLockCounter)
	}
	if next.CurrentRoute != domain.RouteNormal {
		t.Fatalf("expected current route NORMAL, got %s", next.CurrentRoute)
	}
}

func TestApplyLockExpiresAfterFiveMessages(t *testing.T) {
	m := newTestSessionManager(t)
	state := freshState()
	state.AgeVerified = true

	_, state = m.Apply(state, domain.LabelExplicitConsensualAdult)
	for i := 0; i < 5; i++ {
		decision, next := m.Apply(state, domain.LabelSuggestive)
		if decision.Route != domain.RouteExplicit {
			t.Fatalf("message %d: expected locked EXPLICIT, got %s", i, decision.Route)
		}
		state = next
	}
	if state.RouteLockCounter != 0 {
		t.Fatalf("expected lock exhausted, got %d", state.RouteLockCounter)
	}

	// Con el lock agotado, suggestive vuelve a rutear por tabla.
	decision, _ := m.Apply(state, domain.LabelSuggestive)
	if decision.Route != domain.RouteRomance {
		t.Fatalf("expected ROMANCE after lock expiry, got %s", decision.Route)
	}
}

func TestApplyRefusalsDoNotTouchLock(t *testing.T) {
	m := newTestSessionManager(t)
	state := freshState()
	state.AgeVerified = true
	state.CurrentRoute = domain.RouteExplicit
	state.RouteLockCounter = 4

	decision, next := m.Apply(state, domain.LabelMinorRisk)
	if decision.Route != domain.RouteHardRefusal || decision.Action != domain.ActionRefuse {
		t.Fatalf("expected hard refusal, got %+v", decision)
	}
	if next.RouteLockCounter != 4 || next.CurrentRoute != domain.RouteExplicit {
		t.Fatalf("refusal must not alter lock state: %+v", next)
	}

	decision, next = m.Apply(next, domain.LabelNonconsensual)
	if decision.Route != domain.RouteRefusal {
		t.Fatalf("expected refusal route, got %s", decision.Route)
	}
	if next.RouteLockCounter != 4 {
		t.Fatalf("refusal must not decrement lock: %d", next.RouteLockCounter)
	}
}

func TestApplyMinorRiskIgnoresAgeVerification(t *testing.T) {
	m := newTestSessionManager(t)
	state := freshState()
	state.AgeVerified = true

	decision, _ := m.Apply(state, domain.LabelMinorRisk)
	if decision.Action != domain.ActionRefuse {
		t.Fatalf("MINOR_RISK must refuse even when verified, got %s", decision.Action)
	}
}

func TestVerifyAgeIsIdempotent(t *testing.T) {
	m := newTestSessionManager(t)
	convID, userID := uuid.New(), uuid.New()
	ctx := context.Background()

	first, err := m.VerifyAge(ctx, convID, userID)
	if err != nil {
		t.Fatalf("verify age: %v", err)
	}
	if !first.AgeVerified || first.AgeVerifiedAt == nil {
		t.Fatalf("expected verified state, got %+v", first)
	}

	second, err := m.VerifyAge(ctx, convID, userID)
	if err != nil {
		t.Fatalf("verify age twice: %v", err)
	}
	if !second.AgeVerifiedAt.Equal(*first.AgeVerifiedAt) {
		t.Fatalf("second verification must keep the original timestamp")
	}
}

func TestLoadReturnsFreshStateForUnknownConversation(t *testing.T) {
	m := newTestSessionManager(t)
	convID, userID := uuid.New(), uuid.New()

	state, err := m.Load(context.Background(), convID, userID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state.CurrentRoute != domain.RouteNormal || state.AgeVerified || state.RouteLockCounter != 0 {
		t.Fatalf("expected fresh state, got %+v", state)
	}
	if state.ConversationID != convID || state.UserID != userID {
		t.Fatalf("fresh state ids mismatch: %+v", state)
	}
}

func TestSessionStoreExpiryYieldsFreshState(t *testing.T) {
	store := NewMemorySessionStore(time.Millisecond)
	m := NewSessionManager(store, NewContentRouter(), 5, nil)
	convID, userID := uuid.New(), uuid.New()
	ctx := context.Background()

	state := freshSessionState(convID, userID)
	state.AgeVerified = true
	state.RouteLockCounter = 3
	if err := m.Persist(ctx, state); err != nil {
		t.Fatalf("persist: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	got, err := m.Load(ctx, convID, userID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.AgeVerified || got.RouteLockCounter != 0 {
		t.Fatalf("expected fresh state after expiry, got %+v", got)
	}
}

func TestVerifyAgeRejectsForeignUser(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	m := NewSessionManager(store, NewContentRouter(), 5, nil)
	owner, attacker := uuid.New(), uuid.New()
	convID := uuid.New()

	if err := store.Save(context.Background(), freshSessionState(convID, owner)); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	if _, err := m.VerifyAge(context.Background(), convID, attacker); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	got, ok, _ := store.Get(context.Background(), convID)
	if !ok || got.AgeVerified {
		t.Fatalf("foreign caller must not flip verification: %+v", got)
	}

	// El dueno sigue pudiendo verificar.
	state, err := m.VerifyAge(context.Background(), convID, owner)
	if err != nil {
		t.Fatalf("owner verify: %v", err)
	}
	if !state.AgeVerified {
		t.Fatalf("owner verification must succeed")
	}
}
