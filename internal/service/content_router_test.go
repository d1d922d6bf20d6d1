package service

import (
	"testing"

	"companion-llm/internal/domain"
)

func TestRouteForLabelTable(t *testing.T) {
	r := NewContentRouter()
	cases := map[domain.Label]domain.Route{
		domain.LabelSafe:                    domain.RouteNormal,
		domain.LabelSuggestive:              domain.RouteRomance,
		domain.LabelExplicitConsensualAdult: domain.RouteExplicit,
		domain.LabelExplicitFetish:          domain.RouteFetish,
		domain.LabelNonconsensual:           domain.RouteRefusal,
		domain.LabelMinorRisk:               domain.RouteHardRefusal,
	}
	for label, want := range cases {
		if got := r.RouteForLabel(label); got != want {
			t.Fatalf("RouteForLabel(%s) = %s, want %s", label, got, want)
		}
	}
}

func TestDecideGenerationRoutesCarrySystemPrompt(t *testing.T) {
	r := NewContentRouter()
	for _, route := range []domain.Route{domain.RouteNormal, domain.RouteRomance, domain.RouteExplicit, domain.RouteFetish} {
		d := r.Decide(route)
		if d.Action != domain.ActionGenerate {
			t.Fatalf("route %s: expected generate action, got %s", route, d.Action)
		}
		if d.SystemPrompt == "" {
			t.Fatalf("route %s: missing system prompt", route)
		}
		if d.RefusalText != "" {
			t.Fatalf("route %s: unexpected refusal text", route)
		}
	}
}

func TestDecideRefusalRoutesAreFixedText(t *testing.T) {
	r := NewContentRouter()

	hard := r.Decide(domain.RouteHardRefusal)
	if hard.Action != domain.ActionRefuse || hard.RefusalText == "" {
		t.Fatalf("hard refusal malformed: %+v", hard)
	}

	soft := r.Decide(domain.RouteRefusal)
	if soft.Action != domain.ActionRefuse || soft.RefusalText == "" {
		t.Fatalf("refusal malformed: %+v", soft)
	}

	if hard.RefusalText == soft.RefusalText {
		t.Fatalf("hard and soft refusals should differ")
	}
}

func TestAgeVerifyDecision(t *testing.T) {
	r := NewContentRouter()
	d := r.AgeVerifyDecision(domain.RouteRomance)
	if d.Action != domain.ActionAgeVerify {
		t.Fatalf("expected age_verify action, got %s", d.Action)
	}
	if d.Route != domain.RouteRomance {
		t.Fatalf("expected current route preserved, got %s", d.Route)
	}
	if d.RefusalText == "" {
		t.Fatalf("expected verification prompt text")
	}
}
