package service

import (
	"context"
	"testing"

	"companion-llm/internal/domain"
	"companion-llm/internal/llm"
)

func newPatternExtractor() *MemoryExtractor {
	return NewMemoryExtractor(nil, DetectorOptions{Method: MethodPattern, MinConfidence: 0.5}, nil)
}

func TestMemoryExtractorSkipsQuestions(t *testing.T) {
	e := newPatternExtractor()
	cases := []string{
		"what is my name?",
		"do you remember that i live in madrid",
		"where did i say i work at",
	}
	for _, msg := range cases {
		if got := e.Extract(context.Background(), DetectorContext{Message: msg}); got != nil {
			t.Fatalf("Extract(%q): questions must not produce memories, got %v", msg, got)
		}
	}
}

func TestMemoryExtractorSkipsAssistantCommands(t *testing.T) {
	e := newPatternExtractor()
	cases := []string{
		"tell me about my favorite food",
		"show me what you know",
		"explain why i like dogs",
	}
	for _, msg := range cases {
		if got := e.Extract(context.Background(), DetectorContext{Message: msg}); got != nil {
			t.Fatalf("Extract(%q): commands must not produce memories, got %v", msg, got)
		}
	}
}

func TestMemoryExtractorDeclarativeFact(t *testing.T) {
	e := newPatternExtractor()
	got := e.Extract(context.Background(), DetectorContext{Message: "By the way, I live in Barcelona now!"})
	if len(got) != 1 {
		t.Fatalf("expected one candidate, got %v", got)
	}
	if got[0].Category != domain.CategoryPersonalFact {
		t.Fatalf("expected personal_fact, got %s", got[0].Category)
	}
	if got[0].Content != "i live in barcelona now" {
		t.Fatalf("unexpected content %q", got[0].Content)
	}
	if got[0].ExplicitMention {
		t.Fatalf("'i live in' is not an explicit save request")
	}
}

func TestMemoryExtractorExplicitInstruction(t *testing.T) {
	e := newPatternExtractor()
	got := e.Extract(context.Background(), DetectorContext{Message: "remember that my sister visits in june"})
	if len(got) == 0 {
		t.Fatalf("expected a candidate")
	}
	var instruction *MemoryCandidate
	for i := range got {
		if got[i].Category == domain.CategoryInstruction {
			instruction = &got[i]
		}
	}
	if instruction == nil {
		t.Fatalf("expected an instruction candidate, got %v", got)
	}
	if !instruction.ExplicitMention {
		t.Fatalf("'remember that' must be an explicit mention")
	}
}

func TestMemoryExtractorPreferenceCue(t *testing.T) {
	e := newPatternExtractor()
	got := e.Extract(context.Background(), DetectorContext{Message: "i love hiking in the mountains"})
	if len(got) != 1 {
		t.Fatalf("expected one candidate, got %v", got)
	}
	if got[0].Category != domain.CategoryPreference {
		t.Fatalf("expected preference, got %s", got[0].Category)
	}
}

func TestMemoryExtractorLLMInvalidCategoryDefaults(t *testing.T) {
	mock := &llm.MockClient{
		Response: `{"memories": [{"content": "user adopted a cat named luna", "category": "pets", "explicit_mention": false}], "confidence": 0.9}`,
	}
	e := NewMemoryExtractor(mock, DetectorOptions{Method: MethodLLM, MinConfidence: 0.5}, nil)
	got := e.Extract(context.Background(), DetectorContext{Message: "we adopted a cat named luna"})
	if len(got) != 1 {
		t.Fatalf("expected one candidate, got %v", got)
	}
	if got[0].Category != domain.CategoryPersonalFact {
		t.Fatalf("invalid category must default to personal_fact, got %s", got[0].Category)
	}
}

func TestMemoryExtractorNoDeclaratives(t *testing.T) {
	e := newPatternExtractor()
	if got := e.Extract(context.Background(), DetectorContext{Message: "nice weather today"}); got != nil {
		t.Fatalf("expected no candidates, got %v", got)
	}
}
