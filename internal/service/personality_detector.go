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

const personalityPromptTemplate = `El usuario puede estar pidiendo un cambio de rol o personalidad del asistente.
Ultimo mensaje: %q

Arquetipos validos: wise_mentor, supportive_friend, girlfriend, boyfriend, coach, playful_companion, intellectual_partner, caring_sibling, mysterious_stranger.

Si el mensaje pide explicitamente un rol, responde SOLO un JSON:
{"archetype": "<uno de la lista>", "confidence": 0.0}
Si no pide ningun rol, responde {"archetype": "", "confidence": 0.0}`

// PersonalityDetection es una peticion de rol inferida del mensaje.
// Aplica solo al turno actual: no muta la personalidad de la conversacion.
type PersonalityDetection struct {
	Archetype  string  `json:"archetype"`
	Confidence float64 `json:"confidence"`
}

// Frases que piden un rol de forma directa.
var archetypeCues = map[string][]string{
	domain.ArchetypeWiseMentor:          {"be my mentor", "like a mentor", "give me wise advice"},
	domain.ArchetypeSupportiveFriend:    {"be my friend", "like a friend", "i need a friend"},
	domain.ArchetypeGirlfriend:          {"be my girlfriend", "like my girlfriend", "as my girlfriend"},
	domain.ArchetypeBoyfriend:           {"be my boyfriend", "like my boyfriend", "as my boyfriend"},
	domain.ArchetypeCoach:               {"be my coach", "like a coach", "coach me", "push me"},
	domain.ArchetypePlayfulCompanion:    {"be playful", "let's play", "be silly with me"},
	domain.ArchetypeIntellectualPartner: {"debate with me", "intellectual conversation", "discuss ideas"},
	domain.ArchetypeCaringSibling:       {"like a sister", "like a brother", "like family"},
	domain.ArchetypeMysteriousStranger:  {"be mysterious", "like a stranger"},
}

// PersonalityDetector detecta peticiones de cambio de rol en el mensaje.
type PersonalityDetector struct {
	llm    llm.Client
	opts   DetectorOptions
	logger *zap.Logger
}

func NewPersonalityDetector(llmClient llm.Client, opts DetectorOptions, logger *zap.Logger) *PersonalityDetector {
	return &PersonalityDetector{llm: llmClient, opts: opts, logger: logger}
}

func (d *PersonalityDetector) Detect(ctx context.Context, dc DetectorContext) (PersonalityDetection, bool) {
	result, confidence, ok := runHybrid(ctx, d.opts, d.logger, "personality",
		func(llmCtx context.Context) (PersonalityDetection, float64, error) {
			return d.detectLLM(llmCtx, dc)
		},
		func() (PersonalityDetection, float64, bool) {
			return detectArchetypePatterns(dc.Message)
		},
	)
	if !ok || result.Archetype == "" || !domain.IsKnownArchetype(result.Archetype) {
		return PersonalityDetection{}, false
	}
	result.Confidence = confidence
	return result, true
}

func (d *PersonalityDetector) detectLLM(ctx context.Context, dc DetectorContext) (PersonalityDetection, float64, error) {
	prompt := fmt.Sprintf(personalityPromptTemplate, dc.Message)
	raw, err := d.llm.Generate(ctx, d.opts.Model, prompt)
	if err != nil {
		return PersonalityDetection{}, 0, fmt.Errorf("personality generate: %w", err)
	}
	clean := extractFirstJSONObject(cleanLLMJSONResponse(raw))
	if clean == "" {
		return PersonalityDetection{}, 0, fmt.Errorf("personality: no json in response")
	}
	var det PersonalityDetection
	if err := json.Unmarshal([]byte(clean), &det); err != nil {
		return PersonalityDetection{}, 0, fmt.Errorf("personality: parse json: %w", err)
	}
	det.Archetype = strings.ToLower(strings.TrimSpace(det.Archetype))
	return det, det.Confidence, nil
}

func detectArchetypePatterns(message string) (PersonalityDetection, float64, bool) {
	text := strings.ToLower(message)
	for archetype, cues := range archetypeCues {
		for _, cue := range cues {
			if strings.Contains(text, cue) {
				return PersonalityDetection{Archetype: archetype}, 0.75, true
			}
		}
	}
	return PersonalityDetection{}, 0, false
}
