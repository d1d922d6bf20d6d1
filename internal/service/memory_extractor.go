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

const extractionPromptTemplate = `Extrae hechos memorables sobre el usuario de su mensaje.
Solo hechos declarados por el usuario sobre si mismo o su vida; nada inferido.
Contexto reciente:
%s
Mensaje: %q

Categorias validas: personal_fact, preference, goal, event, relationship, challenge, achievement, knowledge, instruction.

Responde SOLO un JSON:
{"memories": [{"content": "<hecho reformulado en tercera persona>", "category": "<categoria>", "explicit_mention": false, "entities": {"people": [], "places": [], "topics": [], "dates": []}}], "confidence": 0.0}
Si no hay nada memorable, responde {"memories": [], "confidence": 0.0}`

// MemoryCandidate es un hecho extraido, previo a scoring y embedding.
type MemoryCandidate struct {
	Content         string                 `json:"content"`
	Category        string                 `json:"category"`
	ExplicitMention bool                   `json:"explicit_mention"`
	Entities        domain.RelatedEntities `json:"entities"`
}

type extractionLLMResponse struct {
	Memories   []MemoryCandidate `json:"memories"`
	Confidence float64           `json:"confidence"`
}

// Prefijos interrogativos: una pregunta no declara hechos del usuario.
var interrogativePrefixes = []string{
	"what", "who", "where", "when", "why", "how", "which",
	"do ", "does ", "did ", "can ", "could ", "would ", "should ",
	"will ", "are ", "is ", "was ", "were ", "have you", "has ",
	"que ", "quien", "donde", "cuando", "como ", "por que",
}

// Ordenes al asistente: tampoco declaran hechos.
var commandPrefixes = []string{
	"tell me", "show me", "give me", "explain", "describe",
	"write", "help me with", "dime", "cuentame", "explica",
}

// Aperturas declarativas en primera persona con su categoria y marca de
// mencion explicita ("remember that" pide guardar de forma directa).
var declarativeCues = []struct {
	prefix   string
	category string
	explicit bool
}{
	{"remember that ", domain.CategoryInstruction, true},
	{"don't forget that ", domain.CategoryInstruction, true},
	{"my name is ", domain.CategoryPersonalFact, true},
	{"i live in ", domain.CategoryPersonalFact, false},
	{"i'm from ", domain.CategoryPersonalFact, false},
	{"i am from ", domain.CategoryPersonalFact, false},
	{"i work as ", domain.CategoryPersonalFact, false},
	{"i work at ", domain.CategoryPersonalFact, false},
	{"my job is ", domain.CategoryPersonalFact, false},
	{"i'm allergic to ", domain.CategoryPersonalFact, true},
	{"i am allergic to ", domain.CategoryPersonalFact, true},
	{"my birthday is ", domain.CategoryPersonalFact, true},
	{"i love ", domain.CategoryPreference, false},
	{"i like ", domain.CategoryPreference, false},
	{"i hate ", domain.CategoryPreference, false},
	{"i don't like ", domain.CategoryPreference, false},
	{"my favorite ", domain.CategoryPreference, false},
	{"i want to ", domain.CategoryGoal, false},
	{"my goal is ", domain.CategoryGoal, true},
	{"i'm training for ", domain.CategoryGoal, false},
	{"my wife ", domain.CategoryRelationship, false},
	{"my husband ", domain.CategoryRelationship, false},
	{"my girlfriend ", domain.CategoryRelationship, false},
	{"my boyfriend ", domain.CategoryRelationship, false},
	{"my mom ", domain.CategoryRelationship, false},
	{"my dad ", domain.CategoryRelationship, false},
	{"my sister ", domain.CategoryRelationship, false},
	{"my brother ", domain.CategoryRelationship, false},
	{"i'm struggling with ", domain.CategoryChallenge, false},
	{"i am struggling with ", domain.CategoryChallenge, false},
	{"i just got ", domain.CategoryAchievement, false},
	{"i finally ", domain.CategoryAchievement, false},
	{"i passed ", domain.CategoryAchievement, false},
}

// MemoryExtractor extrae hechos memorables de los mensajes del usuario.
type MemoryExtractor struct {
	llm    llm.Client
	opts   DetectorOptions
	logger *zap.Logger
}

func NewMemoryExtractor(llmClient llm.Client, opts DetectorOptions, logger *zap.Logger) *MemoryExtractor {
	return &MemoryExtractor{llm: llmClient, opts: opts, logger: logger}
}

// Extract devuelve los candidatos a memoria del mensaje. Preguntas y ordenes
// al asistente se filtran antes de cualquier llamada.
func (e *MemoryExtractor) Extract(ctx context.Context, dc DetectorContext) []MemoryCandidate {
	if isQuestion(dc.Message) || isAssistantCommand(dc.Message) {
		return nil
	}

	result, _, ok := runHybrid(ctx, e.opts, e.logger, "extraction",
		func(llmCtx context.Context) ([]MemoryCandidate, float64, error) {
			return e.extractLLM(llmCtx, dc)
		},
		func() ([]MemoryCandidate, float64, bool) {
			return extractMemoryPatterns(dc.Message)
		},
	)
	if !ok {
		return nil
	}

	valid := result[:0]
	for _, c := range result {
		c.Content = strings.TrimSpace(c.Content)
		if c.Content == "" {
			continue
		}
		if !domain.IsMemoryCategory(c.Category) {
			c.Category = domain.CategoryPersonalFact
		}
		valid = append(valid, c)
	}
	return valid
}

func (e *MemoryExtractor) extractLLM(ctx context.Context, dc DetectorContext) ([]MemoryCandidate, float64, error) {
	prompt := fmt.Sprintf(extractionPromptTemplate, recentTranscript(dc.Recent, 6), dc.Message)
	raw, err := e.llm.Generate(ctx, e.opts.Model, prompt)
	if err != nil {
		return nil, 0, fmt.Errorf("extraction generate: %w", err)
	}
	clean := extractFirstJSONObject(cleanLLMJSONResponse(raw))
	if clean == "" {
		return nil, 0, fmt.Errorf("extraction: no json in response")
	}
	var resp extractionLLMResponse
	if err := json.Unmarshal([]byte(clean), &resp); err != nil {
		return nil, 0, fmt.Errorf("extraction: parse json: %w", err)
	}
	return resp.Memories, resp.Confidence, nil
}

func extractMemoryPatterns(message string) ([]MemoryCandidate, float64, bool) {
	text := strings.ToLower(strings.TrimSpace(message))
	var out []MemoryCandidate
	for _, cue := range declarativeCues {
		idx := strings.Index(text, cue.prefix)
		if idx < 0 {
			continue
		}
		fact := strings.TrimSpace(text[idx:])
		if cut := strings.IndexAny(fact, ".!?"); cut > 0 {
			fact = fact[:cut]
		}
		if len(strings.Fields(fact)) < 3 {
			continue
		}
		out = append(out, MemoryCandidate{
			Content:         fact,
			Category:        cue.category,
			ExplicitMention: cue.explicit,
		})
	}
	if len(out) == 0 {
		return nil, 0, false
	}
	return out, 0.7, true
}

// isQuestion filtra preguntas: '?' final o apertura interrogativa.
func isQuestion(message string) bool {
	text := strings.ToLower(strings.TrimSpace(message))
	if text == "" {
		return false
	}
	if strings.HasSuffix(text, "?") {
		return true
	}
	for _, p := range interrogativePrefixes {
		if strings.HasPrefix(text, p) {
			return true
		}
	}
	return false
}

// isAssistantCommand filtra ordenes dirigidas al asistente.
func isAssistantCommand(message string) bool {
	text := strings.ToLower(strings.TrimSpace(message))
	for _, p := range commandPrefixes {
		if strings.HasPrefix(text, p) {
			return true
		}
	}
	return false
}
