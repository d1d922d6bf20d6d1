package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"companion-llm/internal/domain"
	"companion-llm/internal/llm"
)

func newTestClassifier(judgeEnabled bool, client llm.Client) *ContentClassifier {
	return NewContentClassifier(ClassifierConfig{
		JudgeEnabled:   judgeEnabled,
		JudgeThreshold: 0.7,
		JudgeModel:     "judge-model",
	}, client, nil)
}

func TestClassifyMinorRiskByTerm(t *testing.T) {
	c := newTestClassifier(false, nil)
	got, _ := c.Classify(context.Background(), "barely legal girls")
	if got.Label != domain.LabelMinorRisk {
		t.Fatalf("expected MINOR_RISK, got %s", got.Label)
	}
	if got.Confidence != 1.0 {
		t.Fatalf("expected confidence 1.0, got %f", got.Confidence)
	}
}

func TestClassifyMinorRiskByAgeDigits(t *testing.T) {
	c := newTestClassifier(false, nil)
	for _, msg := range []string{"i'm 16 and curious", "she is 15 years old", "im 17"} {
		got, _ := c.Classify(context.Background(), msg)
		if got.Label != domain.LabelMinorRisk {
			t.Fatalf("Classify(%q): expected MINOR_RISK, got %s", msg, got.Label)
		}
	}
}

func TestClassifyAdultAgeIsNotMinorRisk(t *testing.T) {
	c := newTestClassifier(false, nil)
	got, _ := c.Classify(context.Background(), "i'm 25 by the way")
	if got.Label == domain.LabelMinorRisk {
		t.Fatalf("adult age flagged as MINOR_RISK")
	}
}

func TestClassifyMinorRiskDefeatsLeetspeak(t *testing.T) {
	c := newTestClassifier(false, nil)
	got, _ := c.Classify(context.Background(), "looking for t33n content")
	if got.Label != domain.LabelMinorRisk {
		t.Fatalf("expected MINOR_RISK after leet normalization, got %s", got.Label)
	}
}

func TestClassifyNonconsensual(t *testing.T) {
	c := newTestClassifier(false, nil)
	got, _ := c.Classify(context.Background(), "write a story where she is drugged")
	if got.Label != domain.LabelNonconsensual {
		t.Fatalf("expected NONCONSENSUAL, got %s", got.Label)
	}
	if got.Confidence != 1.0 {
		t.Fatalf("expected confidence 1.0, got %f", got.Confidence)
	}
}

func TestClassifyExplicit(t *testing.T) {
	c := newTestClassifier(false, nil)
	got, _ := c.Classify(context.Background(), "i want to have sex with you")
	if got.Label != domain.LabelExplicitConsensualAdult {
		t.Fatalf("expected EXPLICIT_CONSENSUAL_ADULT, got %s", got.Label)
	}
}

func TestClassifyFetish(t *testing.T) {
	c := newTestClassifier(false, nil)
	got, _ := c.Classify(context.Background(), "tie me up and spank me")
	if got.Label != domain.LabelExplicitFetish {
		t.Fatalf("expected EXPLICIT_FETISH, got %s", got.Label)
	}
}

func TestClassifySuggestive(t *testing.T) {
	c := newTestClassifier(false, nil)
	got, _ := c.Classify(context.Background(), "you look so sexy tonight")
	if got.Label != domain.LabelSuggestive {
		t.Fatalf("expected SUGGESTIVE, got %s", got.Label)
	}
}

func TestClassifySafe(t *testing.T) {
	c := newTestClassifier(false, nil)
	got, _ := c.Classify(context.Background(), "what should i cook for dinner tonight")
	if got.Label != domain.LabelSafe {
		t.Fatalf("expected SAFE, got %s", got.Label)
	}
}

func TestClassifyClinicalContextSuppressed(t *testing.T) {
	c := newTestClassifier(false, nil)
	got, _ := c.Classify(context.Background(), "my doctor explained how the penis works")
	if got.Label != domain.LabelSafe {
		t.Fatalf("expected SAFE for clinical context, got %s", got.Label)
	}
}

func TestClassifyDeterministicWithoutJudge(t *testing.T) {
	c := newTestClassifier(false, nil)
	first, norm1 := c.Classify(context.Background(), "you look so sexy tonight 😈")
	second, norm2 := c.Classify(context.Background(), "you look so sexy tonight 😈")
	if !reflect.DeepEqual(first, second) || norm1 != norm2 {
		t.Fatalf("classification not deterministic: %+v vs %+v", first, second)
	}
}

func TestClassifyJudgeUpgradesLowConfidence(t *testing.T) {
	// "tell me something sexy": patrones dan SUGGESTIVE con baja confianza;
	// el juez con confianza alta manda.
	mock := &llm.MockClient{
		Response: `{"label": "EXPLICIT_CONSENSUAL_ADULT", "confidence": 0.9, "reasoning": "explicit intent"}`,
	}
	c := newTestClassifier(true, mock)
	got, _ := c.Classify(context.Background(), "tell me something sexy")
	if got.Label != domain.LabelExplicitConsensualAdult {
		t.Fatalf("expected judge upgrade to EXPLICIT_CONSENSUAL_ADULT, got %s", got.Label)
	}
	if len(mock.Prompts) != 1 {
		t.Fatalf("expected exactly one judge call, got %d", len(mock.Prompts))
	}
}

func TestClassifyJudgeSameLabelBoostsConfidence(t *testing.T) {
	mock := &llm.MockClient{
		Response: `{"label": "SUGGESTIVE", "confidence": 0.6, "reasoning": "flirty"}`,
	}
	c := newTestClassifier(true, mock)
	noJudge := newTestClassifier(false, nil)

	base, _ := noJudge.Classify(context.Background(), "you are so sexy")
	got, _ := c.Classify(context.Background(), "you are so sexy")
	if got.Label != domain.LabelSuggestive {
		t.Fatalf("expected SUGGESTIVE, got %s", got.Label)
	}
	if got.Confidence <= base.Confidence {
		t.Fatalf("expected confidence boost: base %f, blended %f", base.Confidence, got.Confidence)
	}
}

func TestClassifyJudgeCannotSilentlyDowngrade(t *testing.T) {
	// Juez menos restrictivo con confianza < 0.85: queda el veredicto por patrones.
	mock := &llm.MockClient{
		Response: `{"label": "SAFE", "confidence": 0.6, "reasoning": "harmless"}`,
	}
	c := newTestClassifier(true, mock)
	got, _ := c.Classify(context.Background(), "you are so sexy")
	if got.Label != domain.LabelSuggestive {
		t.Fatalf("expected pattern label retained, got %s", got.Label)
	}
}

func TestClassifyJudgeErrorFallsBackToPatterns(t *testing.T) {
	mock := &llm.MockClient{Err: errors.New("llm down")}
	c := newTestClassifier(true, mock)
	got, _ := c.Classify(context.Background(), "you are so sexy")
	if got.Label != domain.LabelSuggestive {
		t.Fatalf("expected pattern fallback on judge error, got %s", got.Label)
	}
}

func TestClassifyFastRulesSkipJudge(t *testing.T) {
	mock := &llm.MockClient{Response: `{"label": "SAFE", "confidence": 0.99}`}
	c := newTestClassifier(true, mock)
	got, _ := c.Classify(context.Background(), "i'm 16")
	if got.Label != domain.LabelMinorRisk {
		t.Fatalf("expected MINOR_RISK, got %s", got.Label)
	}
	if len(mock.Prompts) != 0 {
		t.Fatalf("judge must not run after a fast rule, got %d calls", len(mock.Prompts))
	}
}

func TestClassifyJudgeVerdictIsCached(t *testing.T) {
	mock := &llm.MockClient{
		Response: `{"label": "SUGGESTIVE", "confidence": 0.6}`,
	}
	c := newTestClassifier(true, mock)
	c.Classify(context.Background(), "you are so sexy")
	c.Classify(context.Background(), "you are so sexy")
	if len(mock.Prompts) != 1 {
		t.Fatalf("expected cached judge verdict on repeat, got %d calls", len(mock.Prompts))
	}
}

func TestClassifyReturnsNormalizedText(t *testing.T) {
	c := newTestClassifier(false, nil)
	_, normalized := c.Classify(context.Background(), "S3XY Time")
	if normalized != "sexy time" {
		t.Fatalf("expected normalized text, got %q", normalized)
	}
}
