package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"companion-llm/internal/llm"
)

const contradictionPromptTemplate = `Compara dos afirmaciones del mismo usuario y decide si la nueva CONTRADICE a la anterior.

Anterior: %q
Nueva: %q

Reglas:
- Un cambio temporal explicito ("antes X, ahora Y", "ya no", "used to") ES una actualizacion, no una contradiccion, salvo que ambas pretendan ser verdad hoy.
- Mas especificidad no contradice ("me gustan los perros" vs "me encantan los golden retrievers").
- Afirmaciones sobre temas distintos no contradicen.

Responde SOLO un JSON:
{"contradicts": false, "confidence": 0.0, "reasoning": "<breve>"}`

// ContradictionJudgement es el veredicto sobre un par (memoria vieja, nueva).
type ContradictionJudgement struct {
	Contradicts bool    `json:"contradicts"`
	Confidence  float64 `json:"confidence"`
	Reasoning   string  `json:"reasoning"`
}

// Marcadores de cambio temporal: la nueva afirmacion reemplaza sin contradecir.
var temporalMarkers = []string{
	"used to", "no longer", "not anymore", "anymore", "these days",
	"now i", "i now", "antes", "ya no", "ahora",
}

var negationMarkers = []string{
	"don't", "dont", "do not", "doesn't", "does not", "not ", "never ",
	"no me gusta", "stopped", "quit",
}

// ContradictionDetector decide si una afirmacion nueva contradice una memoria.
type ContradictionDetector struct {
	llm    llm.Client
	opts   DetectorOptions
	logger *zap.Logger
}

func NewContradictionDetector(llmClient llm.Client, opts DetectorOptions, logger *zap.Logger) *ContradictionDetector {
	return &ContradictionDetector{llm: llmClient, opts: opts, logger: logger}
}

// Judge compara el contenido de una memoria existente con la afirmacion nueva.
func (d *ContradictionDetector) Judge(ctx context.Context, previous, current string) (ContradictionJudgement, bool) {
	result, confidence, ok := runHybrid(ctx, d.opts, d.logger, "contradiction",
		func(llmCtx context.Context) (ContradictionJudgement, float64, error) {
			return d.judgeLLM(llmCtx, previous, current)
		},
		func() (ContradictionJudgement, float64, bool) {
			return judgeContradictionPatterns(previous, current)
		},
	)
	if !ok {
		return ContradictionJudgement{}, false
	}
	result.Confidence = confidence
	return result, true
}

func (d *ContradictionDetector) judgeLLM(ctx context.Context, previous, current string) (ContradictionJudgement, float64, error) {
	prompt := fmt.Sprintf(contradictionPromptTemplate, previous, current)
	raw, err := d.llm.Generate(ctx, d.opts.Model, prompt)
	if err != nil {
		return ContradictionJudgement{}, 0, fmt.Errorf("contradiction generate: %w", err)
	}
	clean := extractFirstJSONObject(cleanLLMJSONResponse(raw))
	if clean == "" {
		return ContradictionJudgement{}, 0, fmt.Errorf("contradiction: no json in response")
	}
	var j ContradictionJudgement
	if err := json.Unmarshal([]byte(clean), &j); err != nil {
		return ContradictionJudgement{}, 0, fmt.Errorf("contradiction: parse json: %w", err)
	}
	return j, j.Confidence, nil
}

// judgeContradictionPatterns es el fallback conservador: solo marca
// contradiccion ante una negacion directa de terminos compartidos, y nunca
// ante cambios temporales o mayor especificidad.
func judgeContradictionPatterns(previous, current string) (ContradictionJudgement, float64, bool) {
	prev := strings.ToLower(previous)
	curr := strings.ToLower(current)

	for _, marker := range temporalMarkers {
		if strings.Contains(curr, marker) {
			return ContradictionJudgement{Contradicts: false, Reasoning: "temporal change"}, 0.75, true
		}
	}

	// Mayor especificidad: la nueva contiene los terminos clave de la vieja.
	if strings.Contains(curr, strings.TrimSpace(prev)) {
		return ContradictionJudgement{Contradicts: false, Reasoning: "refinement"}, 0.75, true
	}

	prevNegated := containsAny(prev, negationMarkers)
	currNegated := containsAny(curr, negationMarkers)
	if prevNegated != currNegated && sharedContentWords(prev, curr) >= 2 {
		return ContradictionJudgement{Contradicts: true, Reasoning: "direct negation"}, 0.72, true
	}

	return ContradictionJudgement{Contradicts: false}, 0.7, true
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

var contradictionStopwords = map[string]bool{
	"i": true, "me": true, "my": true, "the": true, "a": true, "an": true,
	"to": true, "of": true, "and": true, "is": true, "am": true, "are": true,
	"it": true, "in": true, "on": true, "that": true, "this": true,
	"don't": true, "dont": true, "not": true, "never": true, "do": true,
	"really": true,
}

func sharedContentWords(a, b string) int {
	wordsA := map[string]bool{}
	for _, w := range strings.Fields(a) {
		w = strings.Trim(w, ".,!?;:")
		if len(w) > 2 && !contradictionStopwords[w] {
			wordsA[w] = true
		}
	}
	shared := 0
	seen := map[string]bool{}
	for _, w := range strings.Fields(b) {
		w = strings.Trim(w, ".,!?;:")
		if wordsA[w] && !seen[w] {
			shared++
			seen[w] = true
		}
	}
	return shared
}
