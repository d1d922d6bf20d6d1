package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"companion-llm/internal/domain"
)

// Metodos de deteccion configurables por detector.
const (
	MethodLLM     = "llm"
	MethodPattern = "pattern"
	MethodHybrid  = "hybrid"
)

// DetectorContext es el input comun de todos los detectores: el mensaje del
// turno actual mas la ventana reciente para desambiguar.
type DetectorContext struct {
	UserID         uuid.UUID
	ConversationID uuid.UUID
	PersonalityID  uuid.UUID
	Message        string
	Recent         []domain.Message
}

// DetectorOptions agrupa la configuracion comun de un detector hibrido.
type DetectorOptions struct {
	Method        string
	MinConfidence float64
	Timeout       time.Duration
	Model         string
}

func (o DetectorOptions) timeout() time.Duration {
	if o.Timeout <= 0 {
		return 5 * time.Second
	}
	return o.Timeout
}

// runHybrid ejecuta la estrategia comun: primero el LLM con deadline propio,
// con caida a patrones cuando el LLM falla, no aplica o no supera la
// confianza minima. En modo pattern el LLM nunca se invoca; en modo llm no
// hay fallback y un fallo devuelve ok=false.
func runHybrid[T any](
	ctx context.Context,
	opts DetectorOptions,
	logger *zap.Logger,
	name string,
	llmFn func(context.Context) (T, float64, error),
	patternFn func() (T, float64, bool),
) (T, float64, bool) {
	var zero T

	if opts.Method != MethodPattern {
		llmCtx, cancel := context.WithTimeout(ctx, opts.timeout())
		result, confidence, err := llmFn(llmCtx)
		cancel()
		if err == nil && confidence >= opts.MinConfidence {
			return result, confidence, true
		}
		if err != nil && logger != nil {
			logger.Debug("detector llm fallback",
				zap.String("detector", name),
				zap.Error(err),
			)
		}
		if opts.Method == MethodLLM {
			return zero, 0, false
		}
	}

	result, confidence, ok := patternFn()
	if !ok || confidence < opts.MinConfidence {
		return zero, 0, false
	}
	return result, confidence, true
}

// recentTranscript arma las ultimas lineas del buffer para prompts de
// detectores. Acotado para no inflar el prompt.
func recentTranscript(msgs []domain.Message, max int) string {
	if max <= 0 {
		max = 6
	}
	if len(msgs) > max {
		msgs = msgs[len(msgs)-max:]
	}
	out := ""
	for _, m := range msgs {
		out += m.Role + ": " + m.Content + "\n"
	}
	return out
}
