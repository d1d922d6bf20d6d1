package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"companion-llm/internal/domain"
	"companion-llm/internal/llm"
)

const preferencePromptTemplate = `El usuario puede estar declarando preferencias de comunicacion.
Ultimo mensaje: %q

Responde SOLO un JSON con los campos que el mensaje declara (vacio si no declara):
{"language": "", "formality": "<formal|casual>", "tone": "<serious|playful|warm>", "emoji_usage": "<none|some|lots>", "response_length": "<short|medium|long>", "explanation_style": "<simple|detailed>", "confidence": 0.0}`

type preferenceLLMResponse struct {
	Language         string  `json:"language"`
	Formality        string  `json:"formality"`
	Tone             string  `json:"tone"`
	EmojiUsage       string  `json:"emoji_usage"`
	ResponseLength   string  `json:"response_length"`
	ExplanationStyle string  `json:"explanation_style"`
	Confidence       float64 `json:"confidence"`
}

// preferenceCue mapea una frase declarativa a un campo del perfil.
type preferenceCue struct {
	phrase string
	apply  func(*domain.PreferenceProfile)
}

var preferenceCues = []preferenceCue{
	{"in spanish", func(p *domain.PreferenceProfile) { p.Language = "es" }},
	{"en español", func(p *domain.PreferenceProfile) { p.Language = "es" }},
	{"en espanol", func(p *domain.PreferenceProfile) { p.Language = "es" }},
	{"in english", func(p *domain.PreferenceProfile) { p.Language = "en" }},
	{"be more formal", func(p *domain.PreferenceProfile) { p.Formality = "formal" }},
	{"less formal", func(p *domain.PreferenceProfile) { p.Formality = "casual" }},
	{"be casual", func(p *domain.PreferenceProfile) { p.Formality = "casual" }},
	{"no emojis", func(p *domain.PreferenceProfile) { p.EmojiUsage = "none" }},
	{"stop using emojis", func(p *domain.PreferenceProfile) { p.EmojiUsage = "none" }},
	{"use emojis", func(p *domain.PreferenceProfile) { p.EmojiUsage = "some" }},
	{"keep it short", func(p *domain.PreferenceProfile) { p.ResponseLength = "short" }},
	{"shorter answers", func(p *domain.PreferenceProfile) { p.ResponseLength = "short" }},
	{"shorter responses", func(p *domain.PreferenceProfile) { p.ResponseLength = "short" }},
	{"more detail", func(p *domain.PreferenceProfile) { p.ExplanationStyle = "detailed" }},
	{"explain it simply", func(p *domain.PreferenceProfile) { p.ExplanationStyle = "simple" }},
	{"keep it simple", func(p *domain.PreferenceProfile) { p.ExplanationStyle = "simple" }},
}

// PreferenceDetector detecta preferencias de comunicacion declaradas.
type PreferenceDetector struct {
	llm    llm.Client
	opts   DetectorOptions
	logger *zap.Logger
}

func NewPreferenceDetector(llmClient llm.Client, opts DetectorOptions, logger *zap.Logger) *PreferenceDetector {
	return &PreferenceDetector{llm: llmClient, opts: opts, logger: logger}
}

// Detect devuelve un perfil parcial con solo los campos declarados.
func (d *PreferenceDetector) Detect(ctx context.Context, dc DetectorContext) (domain.PreferenceProfile, bool) {
	result, _, ok := runHybrid(ctx, d.opts, d.logger, "preference",
		func(llmCtx context.Context) (domain.PreferenceProfile, float64, error) {
			return d.detectLLM(llmCtx, dc)
		},
		func() (domain.PreferenceProfile, float64, bool) {
			return detectPreferencePatterns(dc.Message)
		},
	)
	if !ok || isEmptyPreference(result) {
		return domain.PreferenceProfile{}, false
	}
	return result, true
}

func (d *PreferenceDetector) detectLLM(ctx context.Context, dc DetectorContext) (domain.PreferenceProfile, float64, error) {
	prompt := fmt.Sprintf(preferencePromptTemplate, dc.Message)
	raw, err := d.llm.Generate(ctx, d.opts.Model, prompt)
	if err != nil {
		return domain.PreferenceProfile{}, 0, fmt.Errorf("preference generate: %w", err)
	}
	clean := extractFirstJSONObject(cleanLLMJSONResponse(raw))
	if clean == "" {
		return domain.PreferenceProfile{}, 0, fmt.Errorf("preference: no json in response")
	}
	var resp preferenceLLMResponse
	if err := json.Unmarshal([]byte(clean), &resp); err != nil {
		return domain.PreferenceProfile{}, 0, fmt.Errorf("preference: parse json: %w", err)
	}
	profile := domain.PreferenceProfile{
		Language:         strings.TrimSpace(resp.Language),
		Formality:        strings.TrimSpace(resp.Formality),
		Tone:             strings.TrimSpace(resp.Tone),
		EmojiUsage:       strings.TrimSpace(resp.EmojiUsage),
		ResponseLength:   strings.TrimSpace(resp.ResponseLength),
		ExplanationStyle: strings.TrimSpace(resp.ExplanationStyle),
	}
	return profile, resp.Confidence, nil
}

func detectPreferencePatterns(message string) (domain.PreferenceProfile, float64, bool) {
	text := strings.ToLower(message)
	var profile domain.PreferenceProfile
	hits := 0
	for _, cue := range preferenceCues {
		if strings.Contains(text, cue.phrase) {
			cue.apply(&profile)
			hits++
		}
	}
	if hits == 0 {
		return domain.PreferenceProfile{}, 0, false
	}
	return profile, 0.8, true
}

func isEmptyPreference(p domain.PreferenceProfile) bool {
	return p.Language == "" && p.Formality == "" && p.Tone == "" &&
		p.EmojiUsage == "" && p.ResponseLength == "" && p.ExplanationStyle == ""
}
