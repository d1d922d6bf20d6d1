package service

import (
	"context"
	"testing"

	"companion-llm/internal/domain"
	"companion-llm/internal/llm"
)

func patternOnlyOpts() DetectorOptions {
	return DetectorOptions{Method: MethodPattern, MinConfidence: 0.5}
}

func TestEmotionDetectorPatternSadness(t *testing.T) {
	d := NewEmotionDetector(nil, patternOnlyOpts(), nil)
	got, ok := d.Detect(context.Background(), DetectorContext{Message: "i'm feeling really sad and down today"})
	if !ok {
		t.Fatalf("expected detection")
	}
	if got.Emotion != "sadness" {
		t.Fatalf("expected sadness, got %s", got.Emotion)
	}
	if got.Intensity != domain.IntensityHigh {
		t.Fatalf("intensifier 'really' should raise intensity, got %s", got.Intensity)
	}
	if len(got.Indicators) != 2 {
		t.Fatalf("expected both keywords as indicators, got %v", got.Indicators)
	}
}

func TestEmotionDetectorNoEmotion(t *testing.T) {
	d := NewEmotionDetector(nil, patternOnlyOpts(), nil)
	if _, ok := d.Detect(context.Background(), DetectorContext{Message: "what time is the meeting tomorrow"}); ok {
		t.Fatalf("expected no detection for neutral message")
	}
}

func TestEmotionDetectorMediumIntensityWithoutIntensifier(t *testing.T) {
	d := NewEmotionDetector(nil, patternOnlyOpts(), nil)
	got, ok := d.Detect(context.Background(), DetectorContext{Message: "feeling lonely tonight"})
	if !ok || got.Emotion != "loneliness" {
		t.Fatalf("expected loneliness, got %+v ok %v", got, ok)
	}
	if got.Intensity != domain.IntensityMedium {
		t.Fatalf("expected medium intensity, got %s", got.Intensity)
	}
}

func TestEmotionDetectorLLMNeutralIsDiscarded(t *testing.T) {
	mock := &llm.MockClient{
		Response: `{"emotion": "neutral", "intensity": "low", "confidence": 0.9, "indicators": []}`,
	}
	d := NewEmotionDetector(mock, DetectorOptions{Method: MethodLLM, MinConfidence: 0.5}, nil)
	if _, ok := d.Detect(context.Background(), DetectorContext{Message: "ok"}); ok {
		t.Fatalf("neutral must never be reported")
	}
}

func TestEmotionDetectorLLMVerdict(t *testing.T) {
	mock := &llm.MockClient{
		Response: `{"emotion": "Anxiety", "intensity": "high", "confidence": 0.85, "indicators": ["deadline"]}`,
	}
	d := NewEmotionDetector(mock, DetectorOptions{Method: MethodLLM, MinConfidence: 0.5}, nil)
	got, ok := d.Detect(context.Background(), DetectorContext{Message: "the deadline is close"})
	if !ok {
		t.Fatalf("expected detection")
	}
	if got.Emotion != "anxiety" {
		t.Fatalf("expected lowercased emotion, got %s", got.Emotion)
	}
	if got.Confidence != 0.85 {
		t.Fatalf("expected llm confidence, got %f", got.Confidence)
	}
}
