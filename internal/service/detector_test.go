package service

import (
	"context"
	"errors"
	"testing"

	"companion-llm/internal/domain"
)

func TestRunHybridFallsBackToPatternsOnLLMError(t *testing.T) {
	llmCalls := 0
	got, conf, ok := runHybrid(context.Background(),
		DetectorOptions{Method: MethodHybrid, MinConfidence: 0.5}, nil, "test",
		func(context.Context) (string, float64, error) {
			llmCalls++
			return "", 0, errors.New("llm down")
		},
		func() (string, float64, bool) {
			return "pattern", 0.7, true
		},
	)
	if !ok || got != "pattern" || conf != 0.7 {
		t.Fatalf("expected pattern fallback, got %q conf %f ok %v", got, conf, ok)
	}
	if llmCalls != 1 {
		t.Fatalf("expected one llm attempt, got %d", llmCalls)
	}
}

func TestRunHybridFallsBackOnLowLLMConfidence(t *testing.T) {
	got, _, ok := runHybrid(context.Background(),
		DetectorOptions{Method: MethodHybrid, MinConfidence: 0.6}, nil, "test",
		func(context.Context) (string, float64, error) {
			return "llm", 0.4, nil
		},
		func() (string, float64, bool) {
			return "pattern", 0.7, true
		},
	)
	if !ok || got != "pattern" {
		t.Fatalf("expected pattern fallback on low llm confidence, got %q ok %v", got, ok)
	}
}

func TestRunHybridPatternModeNeverCallsLLM(t *testing.T) {
	got, _, ok := runHybrid(context.Background(),
		DetectorOptions{Method: MethodPattern, MinConfidence: 0.5}, nil, "test",
		func(context.Context) (string, float64, error) {
			t.Fatalf("llm must not run in pattern mode")
			return "", 0, nil
		},
		func() (string, float64, bool) {
			return "pattern", 0.7, true
		},
	)
	if !ok || got != "pattern" {
		t.Fatalf("expected pattern result, got %q ok %v", got, ok)
	}
}

func TestRunHybridLLMModeHasNoFallback(t *testing.T) {
	_, _, ok := runHybrid(context.Background(),
		DetectorOptions{Method: MethodLLM, MinConfidence: 0.5}, nil, "test",
		func(context.Context) (string, float64, error) {
			return "", 0, errors.New("llm down")
		},
		func() (string, float64, bool) {
			t.Fatalf("pattern fallback must not run in llm mode")
			return "", 0, false
		},
	)
	if ok {
		t.Fatalf("expected failure in llm mode without fallback")
	}
}

func TestRunHybridRejectsLowPatternConfidence(t *testing.T) {
	_, _, ok := runHybrid(context.Background(),
		DetectorOptions{Method: MethodPattern, MinConfidence: 0.9}, nil, "test",
		func(context.Context) (string, float64, error) { return "", 0, nil },
		func() (string, float64, bool) {
			return "pattern", 0.7, true
		},
	)
	if ok {
		t.Fatalf("expected rejection below minimum confidence")
	}
}

func TestRecentTranscriptKeepsTail(t *testing.T) {
	msgs := []domain.Message{
		{Role: domain.RoleUser, Content: "one"},
		{Role: domain.RoleAssistant, Content: "two"},
		{Role: domain.RoleUser, Content: "three"},
	}
	got := recentTranscript(msgs, 2)
	want := "assistant: two\nuser: three\n"
	if got != want {
		t.Fatalf("recentTranscript = %q, want %q", got, want)
	}
}
