package service

import (
	"context"
	"testing"

	"companion-llm/internal/domain"
	"companion-llm/internal/llm"
)

func TestPersonalityDetectorPatternCue(t *testing.T) {
	d := NewPersonalityDetector(nil, DetectorOptions{Method: MethodPattern, MinConfidence: 0.5}, nil)
	got, ok := d.Detect(context.Background(), DetectorContext{Message: "can you be my girlfriend tonight?"})
	if !ok {
		t.Fatalf("expected detection")
	}
	if got.Archetype != domain.ArchetypeGirlfriend {
		t.Fatalf("expected girlfriend archetype, got %s", got.Archetype)
	}
}

func TestPersonalityDetectorCoachCue(t *testing.T) {
	d := NewPersonalityDetector(nil, DetectorOptions{Method: MethodPattern, MinConfidence: 0.5}, nil)
	got, ok := d.Detect(context.Background(), DetectorContext{Message: "coach me through this week"})
	if !ok || got.Archetype != domain.ArchetypeCoach {
		t.Fatalf("expected coach archetype, got %+v ok %v", got, ok)
	}
}

func TestPersonalityDetectorNoRequest(t *testing.T) {
	d := NewPersonalityDetector(nil, DetectorOptions{Method: MethodPattern, MinConfidence: 0.5}, nil)
	if _, ok := d.Detect(context.Background(), DetectorContext{Message: "how was your day"}); ok {
		t.Fatalf("expected no detection")
	}
}

func TestPersonalityDetectorRejectsUnknownArchetype(t *testing.T) {
	mock := &llm.MockClient{
		Response: `{"archetype": "dark_lord", "confidence": 0.9}`,
	}
	d := NewPersonalityDetector(mock, DetectorOptions{Method: MethodLLM, MinConfidence: 0.5}, nil)
	if _, ok := d.Detect(context.Background(), DetectorContext{Message: "be my dark lord"}); ok {
		t.Fatalf("unknown archetype must be rejected")
	}
}
