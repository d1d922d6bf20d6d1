package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"companion-llm/internal/domain"
	"companion-llm/internal/llm"
)

const judgePromptTemplate = `Eres un clasificador de seguridad de contenido para un chat adulto.
Clasifica el mensaje del usuario en exactamente una etiqueta:
- SAFE: conversacion normal sin contenido sexual.
- SUGGESTIVE: romantico o insinuante sin contenido explicito.
- EXPLICIT_CONSENSUAL_ADULT: contenido sexual explicito entre adultos que consienten.
- EXPLICIT_FETISH: contenido explicito centrado en fetiches o kink.
- NONCONSENSUAL: sexualidad con coercion o sin consentimiento.
- MINOR_RISK: cualquier indicio de menores en contexto sexual.

Veredicto preliminar por patrones: %s (confianza %.2f).

Responde SOLO un JSON con esta forma exacta:
{"label": "<una de las etiquetas>", "confidence": 0.0, "reasoning": "<breve>"}
No incluyas texto fuera del JSON.

Mensaje (normalizado): %q`

type judgeVerdict struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// ClassifierConfig agrupa los knobs de la Capa 4.
type ClassifierConfig struct {
	JudgeEnabled   bool
	JudgeThreshold float64
	JudgeModel     string
}

// ContentClassifier implementa el clasificador de 4 capas:
// normalizacion -> reglas rapidas -> scoring por patrones -> juez LLM opcional.
// Determinista modulo el juez: mismo input y mismo veredicto del juez
// producen identica salida.
type ContentClassifier struct {
	cfg    ClassifierConfig
	llm    llm.Client
	cache  *judgeCache
	logger *zap.Logger
}

func NewContentClassifier(cfg ClassifierConfig, llmClient llm.Client, logger *zap.Logger) *ContentClassifier {
	if cfg.JudgeThreshold <= 0 {
		cfg.JudgeThreshold = 0.7
	}
	return &ContentClassifier{
		cfg:    cfg,
		llm:    llmClient,
		cache:  newJudgeCache(0, 0),
		logger: logger,
	}
}

// Classify devuelve etiqueta, confianza, indicadores y la traza de capas.
// El texto normalizado se devuelve junto al original para auditoria.
func (c *ContentClassifier) Classify(ctx context.Context, text string) (domain.Classification, string) {
	normalized := NormalizeText(text)
	trace := []string{"normalize"}

	// Capa 2: gates duros, nunca sobreescritos por capas posteriores.
	if label, indicators, hit := checkFastRules(normalized); hit {
		trace = append(trace, "fast_rules")
		return domain.Classification{
			Label:      domain.Label(label),
			Confidence: 1.0,
			Indicators: indicators,
			LayerTrace: trace,
		}, normalized
	}
	trace = append(trace, "fast_rules:pass")

	// Capa 3: scoring por patrones.
	ps := scorePatterns(normalized)
	patternResult := labelFromScores(ps)
	trace = append(trace, "pattern_score")

	result := patternResult
	if c.shouldInvokeJudge(ps, patternResult) {
		verdict, err := c.invokeJudge(ctx, normalized, patternResult)
		if err != nil {
			// El fallo del juez no es fatal: cae al veredicto por patrones.
			if c.logger != nil {
				c.logger.Warn("llm judge failed", zap.Error(err))
			}
			trace = append(trace, "llm_judge:error")
		} else {
			trace = append(trace, "llm_judge")
			result = blendVerdicts(patternResult, verdict)
		}
	}

	result.LayerTrace = trace
	return result, normalized
}

// labelFromScores decide la etiqueta de la Capa 3 de forma determinista.
// La confianza es monotona en cantidad de matches y peso maximo.
func labelFromScores(ps patternScores) domain.Classification {
	var label domain.Label

	switch {
	case ps.Fetish >= 2 && ps.Fetish >= ps.Explicit:
		label = domain.LabelExplicitFetish
	case ps.Explicit >= 2:
		label = domain.LabelExplicitConsensualAdult
	case ps.Explicit >= 1 || ps.Suggestive >= 1:
		label = domain.LabelSuggestive
	default:
		label = domain.LabelSafe
	}

	var confidence float64
	if label == domain.LabelSafe {
		confidence = 0.95 - math.Min(0.45, 0.15*(ps.Explicit+ps.Fetish+ps.Suggestive))
	} else {
		confidence = math.Min(0.95, 0.30+0.10*float64(ps.Matches)+0.12*ps.MaxWeight)
	}

	return domain.Classification{
		Label:      label,
		Confidence: confidence,
		Indicators: ps.Indicators,
	}
}

// shouldInvokeJudge evalua los disparadores de la Capa 4.
func (c *ContentClassifier) shouldInvokeJudge(ps patternScores, pattern domain.Classification) bool {
	if !c.cfg.JudgeEnabled || c.llm == nil {
		return false
	}
	if pattern.Confidence < c.cfg.JudgeThreshold {
		return true
	}
	if ps.Families >= 3 {
		return true
	}
	if ps.Explicit >= 1 && ps.Explicit <= 2 {
		return true
	}
	if ps.Suggestive == 1 {
		return true
	}
	return false
}

func (c *ContentClassifier) invokeJudge(ctx context.Context, normalized string, pattern domain.Classification) (judgeVerdict, error) {
	key := judgeCacheKey(normalized)
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}

	prompt := fmt.Sprintf(judgePromptTemplate, pattern.Label, pattern.Confidence, normalized)
	raw, err := c.llm.Generate(ctx, c.cfg.JudgeModel, prompt)
	if err != nil {
		return judgeVerdict{}, fmt.Errorf("judge generate: %w", err)
	}

	clean := extractFirstJSONObject(cleanLLMJSONResponse(raw))
	if clean == "" {
		return judgeVerdict{}, fmt.Errorf("judge returned no json")
	}

	var verdict judgeVerdict
	if err := json.Unmarshal([]byte(clean), &verdict); err != nil {
		return judgeVerdict{}, fmt.Errorf("parse judge json: %w", err)
	}
	verdict.Label = strings.ToUpper(strings.TrimSpace(verdict.Label))
	if !validJudgeLabel(verdict.Label) {
		return judgeVerdict{}, fmt.Errorf("judge returned unknown label %q", verdict.Label)
	}
	if verdict.Confidence < 0 {
		verdict.Confidence = 0
	}
	if verdict.Confidence > 1 {
		verdict.Confidence = 1
	}

	c.cache.Put(key, verdict)
	return verdict, nil
}

func validJudgeLabel(label string) bool {
	switch domain.Label(label) {
	case domain.LabelSafe, domain.LabelSuggestive, domain.LabelExplicitConsensualAdult,
		domain.LabelExplicitFetish, domain.LabelNonconsensual, domain.LabelMinorRisk:
		return true
	}
	return false
}

// blendVerdicts mezcla Capa 3 con Capa 4 con sesgo de seguridad:
// el juez solo puede bajar la severidad con confianza >= 0.85.
func blendVerdicts(pattern domain.Classification, judge judgeVerdict) domain.Classification {
	judgeLabel := domain.Label(judge.Label)

	if judge.Confidence >= 0.85 {
		return domain.Classification{
			Label:      judgeLabel,
			Confidence: judge.Confidence,
			Indicators: append(pattern.Indicators, "judge:"+judge.Label),
		}
	}

	if judgeLabel == pattern.Label {
		return domain.Classification{
			Label:      pattern.Label,
			Confidence: math.Min(1, pattern.Confidence+0.15),
			Indicators: pattern.Indicators,
		}
	}

	if judgeLabel.Severity() > pattern.Label.Severity() {
		return domain.Classification{
			Label:      judgeLabel,
			Confidence: judge.Confidence,
			Indicators: append(pattern.Indicators, "judge:"+judge.Label),
		}
	}

	// Sin downgrade silencioso: queda el veredicto por patrones.
	return pattern
}
