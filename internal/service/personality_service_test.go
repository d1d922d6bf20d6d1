package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"companion-llm/internal/domain"
)

func TestPersonalityCreateWithArchetypeBundle(t *testing.T) {
	svc := NewPersonalityService(newFakePersonalityRepo())
	userID := uuid.New()

	p, err := svc.Create(context.Background(), userID, PersonalityInput{
		Name:      "mentor",
		Archetype: domain.ArchetypeWiseMentor,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Version != 1 {
		t.Fatalf("expected version 1, got %d", p.Version)
	}
	wantTraits, wantBehaviors := domain.DefaultTraitsFor(domain.ArchetypeWiseMentor)
	if p.Traits != wantTraits || p.Behaviors != wantBehaviors {
		t.Fatalf("expected archetype bundle inherited, got %+v", p)
	}
}

func TestPersonalityCreateDefaultsToCustom(t *testing.T) {
	svc := NewPersonalityService(newFakePersonalityRepo())

	p, err := svc.Create(context.Background(), uuid.New(), PersonalityInput{Name: "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Archetype != domain.ArchetypeCustom {
		t.Fatalf("expected custom archetype, got %s", p.Archetype)
	}
}

func TestPersonalityCreateRejectsUnknownArchetype(t *testing.T) {
	svc := NewPersonalityService(newFakePersonalityRepo())

	_, err := svc.Create(context.Background(), uuid.New(), PersonalityInput{
		Name:      "x",
		Archetype: "dark_lord",
	})
	if !errors.Is(err, ErrInvalidArchetype) {
		t.Fatalf("expected ErrInvalidArchetype, got %v", err)
	}
}

func TestPersonalityCreateDuplicateName(t *testing.T) {
	svc := NewPersonalityService(newFakePersonalityRepo())
	userID := uuid.New()
	ctx := context.Background()

	if _, err := svc.Create(ctx, userID, PersonalityInput{Name: "luna"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.Create(ctx, userID, PersonalityInput{Name: "luna"})
	if !errors.Is(err, ErrPersonalityExists) {
		t.Fatalf("expected ErrPersonalityExists, got %v", err)
	}
}

func TestPersonalityClampsTraits(t *testing.T) {
	svc := NewPersonalityService(newFakePersonalityRepo())

	p, err := svc.Create(context.Background(), uuid.New(), PersonalityInput{
		Name:   "edge",
		Traits: &domain.TraitSet{Humor: 15, Formality: -3},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Traits.Humor != 10 || p.Traits.Formality != 0 {
		t.Fatalf("expected traits clamped to [0,10], got %+v", p.Traits)
	}
}

func TestPersonalityUpdateBumpsVersion(t *testing.T) {
	svc := NewPersonalityService(newFakePersonalityRepo())
	userID := uuid.New()
	ctx := context.Background()

	if _, err := svc.Create(ctx, userID, PersonalityInput{Name: "luna"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	p, err := svc.Update(ctx, userID, "luna", PersonalityInput{Backstory: "grew up by the sea"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if p.Version != 2 {
		t.Fatalf("expected version 2, got %d", p.Version)
	}
	if p.Backstory != "grew up by the sea" {
		t.Fatalf("backstory not updated: %q", p.Backstory)
	}
}

func TestPersonalityGetMissing(t *testing.T) {
	svc := NewPersonalityService(newFakePersonalityRepo())

	_, err := svc.Get(context.Background(), uuid.New(), "nope")
	if !errors.Is(err, ErrPersonalityNotFound) {
		t.Fatalf("expected ErrPersonalityNotFound, got %v", err)
	}
}

func TestPersonalityGetByIDChecksOwnership(t *testing.T) {
	repo := newFakePersonalityRepo()
	svc := NewPersonalityService(repo)
	owner := uuid.New()

	p, err := svc.Create(context.Background(), owner, PersonalityInput{Name: "luna"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), uuid.New(), p.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for other user, got %v", err)
	}
}

func TestPersonalityDelete(t *testing.T) {
	svc := NewPersonalityService(newFakePersonalityRepo())
	userID := uuid.New()
	ctx := context.Background()

	if _, err := svc.Create(ctx, userID, PersonalityInput{Name: "luna"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, userID, "luna"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, userID, "luna"); !errors.Is(err, ErrPersonalityNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
