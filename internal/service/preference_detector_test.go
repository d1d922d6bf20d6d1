package service

import (
	"context"
	"testing"
)

func TestPreferenceDetectorPatternCues(t *testing.T) {
	d := NewPreferenceDetector(nil, DetectorOptions{Method: MethodPattern, MinConfidence: 0.5}, nil)
	got, ok := d.Detect(context.Background(), DetectorContext{Message: "please keep it short and no emojis"})
	if !ok {
		t.Fatalf("expected detection")
	}
	if got.ResponseLength != "short" {
		t.Fatalf("expected short responses, got %q", got.ResponseLength)
	}
	if got.EmojiUsage != "none" {
		t.Fatalf("expected emojis off, got %q", got.EmojiUsage)
	}
	if got.Language != "" || got.Formality != "" {
		t.Fatalf("undeclared fields must stay empty: %+v", got)
	}
}

func TestPreferenceDetectorLanguageSwitch(t *testing.T) {
	d := NewPreferenceDetector(nil, DetectorOptions{Method: MethodPattern, MinConfidence: 0.5}, nil)
	got, ok := d.Detect(context.Background(), DetectorContext{Message: "talk to me in spanish from now on"})
	if !ok || got.Language != "es" {
		t.Fatalf("expected language es, got %+v ok %v", got, ok)
	}
}

func TestPreferenceDetectorNoDeclaration(t *testing.T) {
	d := NewPreferenceDetector(nil, DetectorOptions{Method: MethodPattern, MinConfidence: 0.5}, nil)
	if _, ok := d.Detect(context.Background(), DetectorContext{Message: "i had pasta for lunch"}); ok {
		t.Fatalf("expected no preference detection")
	}
}
