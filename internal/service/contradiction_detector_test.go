package service

import (
	"context"
	"errors"
	"testing"

	"companion-llm/internal/llm"
)

func newPatternContradictionDetector() *ContradictionDetector {
	return NewContradictionDetector(nil, DetectorOptions{Method: MethodPattern, MinConfidence: 0.5}, nil)
}

func TestContradictionDirectNegation(t *testing.T) {
	d := newPatternContradictionDetector()
	got, ok := d.Judge(context.Background(), "i like black coffee", "i don't like black coffee")
	if !ok {
		t.Fatalf("expected a judgement")
	}
	if !got.Contradicts {
		t.Fatalf("direct negation must contradict: %+v", got)
	}
}

func TestContradictionTemporalChangeIsUpdate(t *testing.T) {
	d := newPatternContradictionDetector()
	got, ok := d.Judge(context.Background(), "user smokes a pack a day", "i used to smoke but i quit")
	if !ok {
		t.Fatalf("expected a judgement")
	}
	if got.Contradicts {
		t.Fatalf("temporal change must not contradict: %+v", got)
	}
}

func TestContradictionSpecificityIsRefinement(t *testing.T) {
	d := newPatternContradictionDetector()
	got, ok := d.Judge(context.Background(), "i like dogs", "i like dogs especially golden retrievers")
	if !ok {
		t.Fatalf("expected a judgement")
	}
	if got.Contradicts {
		t.Fatalf("more specificity must not contradict: %+v", got)
	}
}

func TestContradictionUnrelatedStatements(t *testing.T) {
	d := newPatternContradictionDetector()
	got, ok := d.Judge(context.Background(), "user works as a nurse", "i never eat breakfast")
	if !ok {
		t.Fatalf("expected a judgement")
	}
	if got.Contradicts {
		t.Fatalf("unrelated statements must not contradict: %+v", got)
	}
}

func TestContradictionLLMVerdict(t *testing.T) {
	mock := &llm.MockClient{
		Response: `{"contradicts": true, "confidence": 0.9, "reasoning": "opposite preference"}`,
	}
	d := NewContradictionDetector(mock, DetectorOptions{Method: MethodLLM, MinConfidence: 0.5}, nil)
	got, ok := d.Judge(context.Background(), "user is vegetarian", "i had a steak for dinner and loved it")
	if !ok {
		t.Fatalf("expected a judgement")
	}
	if !got.Contradicts || got.Confidence != 0.9 {
		t.Fatalf("unexpected judgement %+v", got)
	}
}

func TestContradictionLLMErrorFallsBackToPatterns(t *testing.T) {
	mock := &llm.MockClient{Err: errors.New("llm down")}
	d := NewContradictionDetector(mock, DetectorOptions{Method: MethodHybrid, MinConfidence: 0.5}, nil)
	got, ok := d.Judge(context.Background(), "i like strong coffee", "i don't like strong coffee")
	if !ok {
		t.Fatalf("expected pattern fallback judgement")
	}
	if !got.Contradicts {
		t.Fatalf("expected negation contradiction from fallback: %+v", got)
	}
}
