package service

import (
	"strings"
	"testing"

	"companion-llm/internal/domain"
)

func testPersonality() *domain.Personality {
	traits, behaviors := domain.DefaultTraitsFor(domain.ArchetypeSupportiveFriend)
	return &domain.Personality{
		Name:      "luna",
		Archetype: domain.ArchetypeSupportiveFriend,
		Traits:    traits,
		Behaviors: behaviors,
	}
}

func TestBuildIncludesAllSections(t *testing.T) {
	b := NewPromptBuilder()
	prompt := b.Build(PromptInput{
		RoutePrompt: "You are a warm companion.",
		Personality: testPersonality(),
		Relationship: &domain.RelationshipState{
			TotalMessages: 42,
			DepthScore:    3.5,
			TrustLevel:    4.0,
			Milestones:    []string{"messages_10"},
		},
		Emotion:     &EmotionDetection{Emotion: "sadness", Intensity: domain.IntensityHigh},
		Preferences: &domain.PreferenceProfile{ResponseLength: "short", EmojiUsage: "none"},
		Memories: []domain.ScoredMemory{
			{Memory: domain.Memory{Content: "user lives in barcelona"}},
		},
		Goals: []domain.Goal{{Title: "run a marathon", TargetTimeframe: "spring"}},
	})

	for _, want := range []string{
		"You are a warm companion.",
		"You are luna",
		"user lives in barcelona",
		"feeling sadness",
		"response length: short",
		"run a marathon (target: spring)",
		"42 messages exchanged",
		"messages_10",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildOmitsEmptySections(t *testing.T) {
	b := NewPromptBuilder()
	prompt := b.Build(PromptInput{
		RoutePrompt: "Base prompt.",
		Personality: testPersonality(),
	})
	for _, banned := range []string{"# What you remember", "# Current emotional", "# Communication preferences", "# User goals"} {
		if strings.Contains(prompt, banned) {
			t.Fatalf("prompt must omit empty section %q:\n%s", banned, prompt)
		}
	}
}

func TestBuildMemoriesAreProminent(t *testing.T) {
	b := NewPromptBuilder()
	prompt := b.Build(PromptInput{
		RoutePrompt: "Base prompt.",
		Personality: testPersonality(),
		Memories: []domain.ScoredMemory{
			{Memory: domain.Memory{Content: "user is allergic to peanuts"}},
			{Memory: domain.Memory{Content: "user works as a nurse"}},
		},
	})
	idx := strings.Index(prompt, "# What you remember about the user")
	if idx < 0 {
		t.Fatalf("missing memory section:\n%s", prompt)
	}
	if !strings.Contains(prompt, "- user is allergic to peanuts") {
		t.Fatalf("missing memory bullet:\n%s", prompt)
	}
	if !strings.Contains(prompt, "never recite them as a list") {
		t.Fatalf("missing usage instruction:\n%s", prompt)
	}
}

func TestBuildTrimsTrailingSectionsOverBudget(t *testing.T) {
	b := NewPromptBuilder()
	var memories []domain.ScoredMemory
	filler := strings.Repeat("x", 200)
	for i := 0; i < 40; i++ {
		memories = append(memories, domain.ScoredMemory{Memory: domain.Memory{Content: filler}})
	}
	prompt := b.Build(PromptInput{
		RoutePrompt: "Route prompt.",
		Personality: testPersonality(),
		Memories:    memories,
		Goals:       []domain.Goal{{Title: "a goal"}},
	})

	if len(prompt) > promptCharBudget {
		t.Fatalf("prompt over budget: %d chars", len(prompt))
	}
	if !strings.Contains(prompt, "Route prompt.") || !strings.Contains(prompt, "You are luna") {
		t.Fatalf("route and persona sections must survive trimming:\n%s", prompt)
	}
	if strings.Contains(prompt, "# User goals") {
		t.Fatalf("trailing sections should be trimmed first")
	}
}
