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

const goalPromptTemplate = `El usuario puede estar expresando una meta personal.
Contexto reciente:
%s
Ultimo mensaje: %q

Si el mensaje expresa una meta concreta, responde SOLO un JSON:
{"title": "<meta en pocas palabras>", "category": "<health|career|learning|finance|relationship|personal|other>", "commitment_level": 0.0, "target_timeframe": "", "motivation": "", "confidence": 0.0}
Si no hay meta, responde {"title": "", "confidence": 0.0}`

type goalLLMResponse struct {
	Title           string  `json:"title"`
	Category        string  `json:"category"`
	CommitmentLevel float64 `json:"commitment_level"`
	TargetTimeframe string  `json:"target_timeframe"`
	Motivation      string  `json:"motivation"`
	Confidence      float64 `json:"confidence"`
}

// Aperturas declarativas de meta con nivel de compromiso implicito.
var goalCues = []struct {
	prefix     string
	commitment float64
}{
	{"i want to ", 0.5},
	{"i really want to ", 0.7},
	{"my goal is to ", 0.8},
	{"my goal is ", 0.8},
	{"i'm going to ", 0.7},
	{"i am going to ", 0.7},
	{"i'm trying to ", 0.6},
	{"i am trying to ", 0.6},
	{"i plan to ", 0.7},
	{"i've decided to ", 0.8},
	{"i decided to ", 0.8},
	{"i'm training for ", 0.8},
	{"i am training for ", 0.8},
	{"quiero ", 0.5},
	{"mi meta es ", 0.8},
}

// GoalDetector detecta metas personales expresadas en el mensaje.
type GoalDetector struct {
	llm    llm.Client
	opts   DetectorOptions
	logger *zap.Logger
}

func NewGoalDetector(llmClient llm.Client, opts DetectorOptions, logger *zap.Logger) *GoalDetector {
	return &GoalDetector{llm: llmClient, opts: opts, logger: logger}
}

func (d *GoalDetector) Detect(ctx context.Context, dc DetectorContext) (domain.Goal, bool) {
	result, confidence, ok := runHybrid(ctx, d.opts, d.logger, "goal",
		func(llmCtx context.Context) (domain.Goal, float64, error) {
			return d.detectLLM(llmCtx, dc)
		},
		func() (domain.Goal, float64, bool) {
			return detectGoalPatterns(dc.Message)
		},
	)
	if !ok || strings.TrimSpace(result.Title) == "" {
		return domain.Goal{}, false
	}
	result.Confidence = confidence
	if result.Category == "" {
		result.Category = "other"
	}
	return result, true
}

func (d *GoalDetector) detectLLM(ctx context.Context, dc DetectorContext) (domain.Goal, float64, error) {
	prompt := fmt.Sprintf(goalPromptTemplate, recentTranscript(dc.Recent, 6), dc.Message)
	raw, err := d.llm.Generate(ctx, d.opts.Model, prompt)
	if err != nil {
		return domain.Goal{}, 0, fmt.Errorf("goal generate: %w", err)
	}
	clean := extractFirstJSONObject(cleanLLMJSONResponse(raw))
	if clean == "" {
		return domain.Goal{}, 0, fmt.Errorf("goal: no json in response")
	}
	var resp goalLLMResponse
	if err := json.Unmarshal([]byte(clean), &resp); err != nil {
		return domain.Goal{}, 0, fmt.Errorf("goal: parse json: %w", err)
	}
	goal := domain.Goal{
		Title:           strings.TrimSpace(resp.Title),
		Category:        strings.ToLower(strings.TrimSpace(resp.Category)),
		CommitmentLevel: resp.CommitmentLevel,
		TargetTimeframe: strings.TrimSpace(resp.TargetTimeframe),
		Motivation:      strings.TrimSpace(resp.Motivation),
	}
	return goal, resp.Confidence, nil
}

func detectGoalPatterns(message string) (domain.Goal, float64, bool) {
	text := strings.ToLower(strings.TrimSpace(message))
	for _, cue := range goalCues {
		idx := strings.Index(text, cue.prefix)
		if idx < 0 {
			continue
		}
		rest := strings.TrimSpace(text[idx+len(cue.prefix):])
		if rest == "" {
			continue
		}
		// Corta en el primer separador de oracion.
		if cut := strings.IndexAny(rest, ".!?,;"); cut > 0 {
			rest = rest[:cut]
		}
		if len(strings.Fields(rest)) < 2 {
			continue
		}
		return domain.Goal{
			Title:           rest,
			Category:        "other",
			CommitmentLevel: cue.commitment,
		}, 0.65, true
	}
	return domain.Goal{}, 0, false
}
