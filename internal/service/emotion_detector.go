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

const emotionPromptTemplate = `Analiza la emocion dominante del usuario en su ultimo mensaje.
Contexto reciente:
%s
Ultimo mensaje: %q

Responde SOLO un JSON:
{"emotion": "<joy|sadness|anger|fear|anxiety|excitement|frustration|loneliness|gratitude|love|neutral>", "intensity": "<low|medium|high>", "confidence": 0.0, "indicators": ["..."]}`

// EmotionDetection es el resultado crudo del detector, antes de persistir.
type EmotionDetection struct {
	Emotion    string   `json:"emotion"`
	Intensity  string   `json:"intensity"`
	Confidence float64  `json:"confidence"`
	Indicators []string `json:"indicators"`
}

var emotionKeywords = map[string][]string{
	"joy":         {"happy", "glad", "great day", "wonderful", "amazing", "feliz", "contento"},
	"sadness":     {"sad", "down", "depressed", "crying", "miss her", "miss him", "heartbroken", "triste"},
	"anger":       {"angry", "furious", "pissed", "hate this", "enojado", "furioso"},
	"fear":        {"scared", "afraid", "terrified", "miedo"},
	"anxiety":     {"anxious", "nervous", "worried", "stressed", "overwhelmed", "ansioso", "nervioso"},
	"excitement":  {"excited", "can't wait", "thrilled", "pumped", "emocionado"},
	"frustration": {"frustrated", "annoyed", "fed up", "sick of", "frustrado", "harto"},
	"loneliness":  {"lonely", "alone", "no one to talk", "solo", "sola"},
	"gratitude":   {"thank you", "grateful", "appreciate", "gracias", "agradecido"},
	"love":        {"love you", "adore you", "te quiero", "te amo"},
}

var intensifiers = []string{"so ", "very ", "really ", "extremely ", "incredibly ", "muy ", "tan ", "!!"}

// EmotionDetector detecta la emocion dominante de un mensaje de usuario.
type EmotionDetector struct {
	llm    llm.Client
	opts   DetectorOptions
	logger *zap.Logger
}

func NewEmotionDetector(llmClient llm.Client, opts DetectorOptions, logger *zap.Logger) *EmotionDetector {
	return &EmotionDetector{llm: llmClient, opts: opts, logger: logger}
}

// Detect devuelve (deteccion, true) si hay emocion con confianza suficiente.
// Neutral nunca se reporta: ausencia de emocion es ausencia de registro.
func (d *EmotionDetector) Detect(ctx context.Context, dc DetectorContext) (EmotionDetection, bool) {
	result, confidence, ok := runHybrid(ctx, d.opts, d.logger, "emotion",
		func(llmCtx context.Context) (EmotionDetection, float64, error) {
			return d.detectLLM(llmCtx, dc)
		},
		func() (EmotionDetection, float64, bool) {
			return detectEmotionPatterns(dc.Message)
		},
	)
	if !ok || result.Emotion == "" || result.Emotion == "neutral" {
		return EmotionDetection{}, false
	}
	result.Confidence = confidence
	return result, true
}

func (d *EmotionDetector) detectLLM(ctx context.Context, dc DetectorContext) (EmotionDetection, float64, error) {
	prompt := fmt.Sprintf(emotionPromptTemplate, recentTranscript(dc.Recent, 6), dc.Message)
	raw, err := d.llm.Generate(ctx, d.opts.Model, prompt)
	if err != nil {
		return EmotionDetection{}, 0, fmt.Errorf("emotion generate: %w", err)
	}
	clean := extractFirstJSONObject(cleanLLMJSONResponse(raw))
	if clean == "" {
		return EmotionDetection{}, 0, fmt.Errorf("emotion: no json in response")
	}
	var det EmotionDetection
	if err := json.Unmarshal([]byte(clean), &det); err != nil {
		return EmotionDetection{}, 0, fmt.Errorf("emotion: parse json: %w", err)
	}
	det.Emotion = strings.ToLower(strings.TrimSpace(det.Emotion))
	if det.Intensity == "" {
		det.Intensity = domain.IntensityMedium
	}
	return det, det.Confidence, nil
}

func detectEmotionPatterns(message string) (EmotionDetection, float64, bool) {
	text := strings.ToLower(message)

	var best EmotionDetection
	bestHits := 0
	for emotion, keywords := range emotionKeywords {
		hits := 0
		var indicators []string
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				hits++
				indicators = append(indicators, kw)
			}
		}
		if hits > bestHits {
			bestHits = hits
			best = EmotionDetection{Emotion: emotion, Indicators: indicators}
		}
	}
	if bestHits == 0 {
		return EmotionDetection{}, 0, false
	}

	best.Intensity = domain.IntensityMedium
	for _, in := range intensifiers {
		if strings.Contains(text, in) {
			best.Intensity = domain.IntensityHigh
			break
		}
	}

	confidence := 0.5 + 0.15*float64(bestHits-1)
	if confidence > 0.8 {
		confidence = 0.8
	}
	return best, confidence, true
}
