package service

import (
	"fmt"
	"strings"

	"companion-llm/internal/domain"
)

// promptCharBudget acota el prompt de sistema completo. Aproximacion por
// caracteres; el recorte elimina secciones opcionales de atras hacia adelante.
const promptCharBudget = 6000

// PromptBuilder arma el prompt de sistema por turno: ruta, persona, contexto
// emocional, preferencias, memorias y metas.
type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// PromptInput es todo el contexto acumulado para un turno.
type PromptInput struct {
	RoutePrompt  string
	Personality  *domain.Personality
	Relationship *domain.RelationshipState
	Emotion      *EmotionDetection
	Preferences  *domain.PreferenceProfile
	Memories     []domain.ScoredMemory
	Goals        []domain.Goal
}

// Build construye el prompt de sistema. Las memorias van en seccion propia y
// prominente: son el contexto que distingue a un companion de un chatbot.
func (b *PromptBuilder) Build(in PromptInput) string {
	var sections []string

	if in.RoutePrompt != "" {
		sections = append(sections, in.RoutePrompt)
	}
	if s := personaSection(in.Personality, in.Relationship); s != "" {
		sections = append(sections, s)
	}
	if s := memorySection(in.Memories); s != "" {
		sections = append(sections, s)
	}
	if s := emotionSection(in.Emotion); s != "" {
		sections = append(sections, s)
	}
	if s := preferenceSection(in.Preferences); s != "" {
		sections = append(sections, s)
	}
	if s := goalSection(in.Goals); s != "" {
		sections = append(sections, s)
	}

	prompt := strings.Join(sections, "\n\n")
	for len(prompt) > promptCharBudget && len(sections) > 2 {
		// Recorta la seccion final (las primeras dos son ruta y persona).
		sections = sections[:len(sections)-1]
		prompt = strings.Join(sections, "\n\n")
	}
	return prompt
}

func personaSection(p *domain.Personality, rel *domain.RelationshipState) string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# Persona\nYou are %s", p.Name)
	if p.Archetype != "" && p.Archetype != domain.ArchetypeCustom {
		fmt.Fprintf(&b, ", a %s", strings.ReplaceAll(p.Archetype, "_", " "))
	}
	b.WriteString(".\n")

	t := p.Traits
	fmt.Fprintf(&b, "Traits (0-10): humor %.0f, formality %.0f, enthusiasm %.0f, empathy %.0f, directness %.0f, curiosity %.0f, supportiveness %.0f, playfulness %.0f.\n",
		t.Humor, t.Formality, t.Enthusiasm, t.Empathy, t.Directness, t.Curiosity, t.Supportiveness, t.Playfulness)

	var behaviors []string
	if p.Behaviors.AsksQuestions {
		behaviors = append(behaviors, "ask follow-up questions")
	}
	if p.Behaviors.UsesExamples {
		behaviors = append(behaviors, "use concrete examples")
	}
	if p.Behaviors.SharesOpinions {
		behaviors = append(behaviors, "share your own opinions")
	}
	if p.Behaviors.ChallengesUser {
		behaviors = append(behaviors, "challenge the user when warranted")
	}
	if p.Behaviors.CelebratesWins {
		behaviors = append(behaviors, "celebrate the user's wins")
	}
	if len(behaviors) > 0 {
		fmt.Fprintf(&b, "You naturally %s.\n", strings.Join(behaviors, ", "))
	}
	if p.Backstory != "" {
		fmt.Fprintf(&b, "Backstory: %s\n", p.Backstory)
	}
	if p.SpeakingStyle != "" {
		fmt.Fprintf(&b, "Speaking style: %s\n", p.SpeakingStyle)
	}
	if p.CustomInstructions != "" {
		fmt.Fprintf(&b, "Additional instructions: %s\n", p.CustomInstructions)
	}

	if rel != nil && rel.TotalMessages > 0 {
		fmt.Fprintf(&b, "Relationship: %d messages exchanged, depth %.1f/10, trust %.1f/10.",
			rel.TotalMessages, rel.DepthScore, rel.TrustLevel)
		if len(rel.Milestones) > 0 {
			fmt.Fprintf(&b, " Milestones reached: %s.", strings.Join(rel.Milestones, ", "))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func memorySection(memories []domain.ScoredMemory) string {
	if len(memories) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("# What you remember about the user\nUse these naturally; never recite them as a list.\n")
	for _, m := range memories {
		fmt.Fprintf(&b, "- %s\n", m.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

func emotionSection(e *EmotionDetection) string {
	if e == nil || e.Emotion == "" {
		return ""
	}
	return fmt.Sprintf("# Current emotional context\nThe user seems to be feeling %s (%s intensity). Respond with matching sensitivity.",
		e.Emotion, e.Intensity)
}

func preferenceSection(p *domain.PreferenceProfile) string {
	if p == nil {
		return ""
	}
	var prefs []string
	if p.Language != "" {
		prefs = append(prefs, "respond in language: "+p.Language)
	}
	if p.Formality != "" {
		prefs = append(prefs, "formality: "+p.Formality)
	}
	if p.Tone != "" {
		prefs = append(prefs, "tone: "+p.Tone)
	}
	if p.EmojiUsage != "" {
		prefs = append(prefs, "emoji usage: "+p.EmojiUsage)
	}
	if p.ResponseLength != "" {
		prefs = append(prefs, "response length: "+p.ResponseLength)
	}
	if p.ExplanationStyle != "" {
		prefs = append(prefs, "explanation style: "+p.ExplanationStyle)
	}
	if len(prefs) == 0 {
		return ""
	}
	return "# Communication preferences\n- " + strings.Join(prefs, "\n- ")
}

func goalSection(goals []domain.Goal) string {
	if len(goals) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("# User goals\n")
	for _, g := range goals {
		fmt.Fprintf(&b, "- %s", g.Title)
		if g.TargetTimeframe != "" {
			fmt.Fprintf(&b, " (target: %s)", g.TargetTimeframe)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
