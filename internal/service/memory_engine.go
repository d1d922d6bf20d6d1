package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"companion-llm/internal/domain"
	"companion-llm/internal/llm"
	"companion-llm/internal/repository"
)

// MemoryEngineConfig agrupa los knobs de almacenamiento y retrieval.
// EmbeddingDim en 0 desactiva la validacion de dimension.
type MemoryEngineConfig struct {
	TopK                    int
	SimilarityFloor         float64
	ContradictionSimilarity float64
	ContradictionConfidence float64
	RetrievalAlpha          float64
	RetrievalBeta           float64
	EmbeddingDim            int
}

// MemoryEngine guarda memorias extraidas, resuelve contradicciones via
// supersede y recupera las mas relevantes para el prompt.
type MemoryEngine struct {
	repo          repository.MemoryRepository
	llm           llm.Client
	contradiction *ContradictionDetector
	cfg           MemoryEngineConfig
	logger        *zap.Logger
}

func NewMemoryEngine(
	repo repository.MemoryRepository,
	llmClient llm.Client,
	contradiction *ContradictionDetector,
	cfg MemoryEngineConfig,
	logger *zap.Logger,
) *MemoryEngine {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.SimilarityFloor <= 0 {
		cfg.SimilarityFloor = 0.25
	}
	if cfg.ContradictionSimilarity <= 0 {
		cfg.ContradictionSimilarity = 0.40
	}
	if cfg.ContradictionConfidence <= 0 {
		cfg.ContradictionConfidence = 0.70
	}
	if cfg.RetrievalAlpha <= 0 {
		cfg.RetrievalAlpha = 0.7
	}
	if cfg.RetrievalBeta <= 0 {
		cfg.RetrievalBeta = 0.3
	}
	return &MemoryEngine{
		repo:          repo,
		llm:           llmClient,
		contradiction: contradiction,
		cfg:           cfg,
		logger:        logger,
	}
}

// StoreExtracted persiste un candidato: embedding, scoring de importancia y
// chequeo de contradiccion contra memorias activas de la misma categoria.
// A lo sumo una memoria vieja queda superseded por candidato: la mas similar
// que el juez confirme.
func (e *MemoryEngine) StoreExtracted(
	ctx context.Context,
	userID, personalityID, conversationID uuid.UUID,
	candidate MemoryCandidate,
	emotion EmotionDetection,
	hasEmotion bool,
) (domain.Memory, error) {
	embedding, err := e.embed(ctx, candidate.Content)
	if err != nil {
		return domain.Memory{}, fmt.Errorf("embed memory: %w", err)
	}

	importance, breakdown := ScoreImportance(candidate, emotion, hasEmotion)

	now := time.Now().UTC()
	mem := domain.Memory{
		ID:               uuid.New(),
		UserID:           userID,
		PersonalityID:    personalityID,
		ConversationID:   conversationID,
		Content:          candidate.Content,
		Embedding:        embedding,
		Category:         candidate.Category,
		Importance:       importance,
		ImportanceDetail: breakdown,
		CreatedAt:        now,
		UpdatedAt:        now,
		DecayFactor:      1.0,
		IsActive:         true,
		RelatedEntities:  candidate.Entities,
		// Las memorias nacen scoped a su personalidad; compartir entre
		// personalidades requiere un acto explicito del usuario.
		IsShared: false,
	}

	if err := e.repo.Create(ctx, mem); err != nil {
		return domain.Memory{}, fmt.Errorf("create memory: %w", err)
	}

	e.resolveContradictions(ctx, mem, embedding)
	return mem, nil
}

// resolveContradictions busca la memoria vieja mas similar de la misma
// categoria y, si el juez confirma la contradiccion con confianza
// suficiente, la marca superseded por la nueva. Solo la primera confirmada:
// una causa de consolidacion por par.
func (e *MemoryEngine) resolveContradictions(ctx context.Context, mem domain.Memory, embedding pgvector.Vector) {
	if e.contradiction == nil {
		return
	}
	candidates, err := e.repo.SearchSameCategory(ctx, mem.UserID, mem.PersonalityID, mem.Category, embedding, 10)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("contradiction search failed", zap.Error(err))
		}
		return
	}

	for _, old := range candidates {
		if old.ID == mem.ID || old.Similarity < e.cfg.ContradictionSimilarity {
			continue
		}
		judgement, ok := e.contradiction.Judge(ctx, old.Content, mem.Content)
		if !ok || !judgement.Contradicts || judgement.Confidence < e.cfg.ContradictionConfidence {
			continue
		}
		if err := e.repo.Supersede(ctx, old.ID, mem.ID, domain.ConsolidationSupersede); err != nil {
			if e.logger != nil {
				e.logger.Warn("supersede failed",
					zap.String("old_id", old.ID.String()),
					zap.Error(err),
				)
			}
			return
		}
		if e.logger != nil {
			e.logger.Info("memory superseded",
				zap.String("old_id", old.ID.String()),
				zap.String("new_id", mem.ID.String()),
			)
		}
		return
	}
}

// Retrieve devuelve las memorias mas relevantes para el mensaje, rankeadas
// por alpha*similitud + beta*importancia*decay, con piso de similitud.
// La importancia se refresca en el acceso: recencia y frecuencia evolucionan
// con el tiempo, no quedan congeladas en el valor de extraccion. Marca el
// acceso de las devueltas.
func (e *MemoryEngine) Retrieve(ctx context.Context, userID, personalityID uuid.UUID, message string) ([]domain.ScoredMemory, error) {
	query, err := e.embed(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// Pide mas que TopK para que el re-ranking tenga de donde elegir.
	raw, err := e.repo.Search(ctx, userID, personalityID, query, e.cfg.TopK*3)
	if err != nil {
		return nil, fmt.Errorf("search memories: %w", err)
	}

	now := time.Now().UTC()
	scored := raw[:0]
	for _, sm := range raw {
		if sm.Similarity < e.cfg.SimilarityFloor {
			continue
		}
		RefreshImportance(&sm.Memory, now)
		sm.Score = e.cfg.RetrievalAlpha*sm.Similarity + e.cfg.RetrievalBeta*sm.Importance*sm.DecayFactor
		scored = append(scored, sm)
	}
	sortScoredMemories(scored)
	if len(scored) > e.cfg.TopK {
		scored = scored[:e.cfg.TopK]
	}

	if len(scored) > 0 {
		ids := make([]uuid.UUID, len(scored))
		for i, sm := range scored {
			ids[i] = sm.ID
		}
		if err := e.repo.TouchAccess(ctx, ids, time.Now().UTC()); err != nil && e.logger != nil {
			e.logger.Warn("touch access failed", zap.Error(err))
		}
	}
	return scored, nil
}

// List expone las memorias activas del usuario para la API de inspeccion.
func (e *MemoryEngine) List(ctx context.Context, userID, personalityID uuid.UUID, limit int) ([]domain.Memory, error) {
	return e.repo.ListActive(ctx, userID, personalityID, limit)
}

// Forget desactiva una memoria del usuario (borrado logico).
func (e *MemoryEngine) Forget(ctx context.Context, userID, memoryID uuid.UUID) error {
	return e.repo.Deactivate(ctx, userID, memoryID)
}

// embed genera el vector del texto validando la dimension configurada:
// un vector de dimension distinta a la de la columna rompe la busqueda ANN.
func (e *MemoryEngine) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	vec, err := e.llm.CreateEmbedding(ctx, text)
	if err != nil {
		return pgvector.Vector{}, err
	}
	if e.cfg.EmbeddingDim > 0 && len(vec) != e.cfg.EmbeddingDim {
		return pgvector.Vector{}, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vec), e.cfg.EmbeddingDim)
	}
	return pgvector.NewVector(vec), nil
}

// sortScoredMemories ordena por Score descendente, estable.
func sortScoredMemories(ms []domain.ScoredMemory) {
	sort.SliceStable(ms, func(i, j int) bool {
		return ms[i].Score > ms[j].Score
	})
}
