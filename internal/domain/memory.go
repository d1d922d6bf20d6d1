package domain

import (
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
)

// Categorias de memoria. Exactamente una por memoria.
const (
	CategoryPersonalFact = "personal_fact"
	CategoryPreference   = "preference"
	CategoryGoal         = "goal"
	CategoryEvent        = "event"
	CategoryRelationship = "relationship"
	CategoryChallenge    = "challenge"
	CategoryAchievement  = "achievement"
	CategoryKnowledge    = "knowledge"
	CategoryInstruction  = "instruction"
)

// MemoryCategories enumera las nueve categorias validas.
var MemoryCategories = []string{
	CategoryPersonalFact,
	CategoryPreference,
	CategoryGoal,
	CategoryEvent,
	CategoryRelationship,
	CategoryChallenge,
	CategoryAchievement,
	CategoryKnowledge,
	CategoryInstruction,
}

// IsMemoryCategory valida una categoria.
func IsMemoryCategory(c string) bool {
	for _, k := range MemoryCategories {
		if k == c {
			return true
		}
	}
	return false
}

// ImportanceBreakdown son los seis sub-scores en [0,1].
// Los pesos fijos del blend suman 1 (ver service/importance.go).
type ImportanceBreakdown struct {
	EmotionalSignificance float64 `json:"emotional_significance"`
	ExplicitMention       float64 `json:"explicit_mention"`
	FrequencyReferenced   float64 `json:"frequency_referenced"`
	Recency               float64 `json:"recency"`
	Specificity           float64 `json:"specificity"`
	PersonalRelevance     float64 `json:"personal_relevance"`
}

// RelatedEntities agrupa entidades extraidas del contenido.
type RelatedEntities struct {
	People []string `json:"people,omitempty"`
	Places []string `json:"places,omitempty"`
	Topics []string `json:"topics,omitempty"`
	Dates  []string `json:"dates,omitempty"`
}

// Consolidaciones posibles por par de memorias; a lo sumo una por par.
const (
	ConsolidationMerge     = "merge"
	ConsolidationUpdate    = "update"
	ConsolidationSupersede = "supersede"
)

// Memory es una memoria semantica de largo plazo con embedding.
// Una memoria superseded siempre queda inactiva; superseded_by forma un DAG.
type Memory struct {
	ID                uuid.UUID           `json:"id"`
	UserID            uuid.UUID           `json:"user_id"`
	PersonalityID     uuid.UUID           `json:"personality_id"`
	ConversationID    uuid.UUID           `json:"conversation_id"`
	Content           string              `json:"content"`
	Embedding         pgvector.Vector     `json:"-"`
	Category          string              `json:"category"`
	Importance        float64             `json:"importance"`
	ImportanceDetail  ImportanceBreakdown `json:"importance_detail"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	LastAccessed      *time.Time          `json:"last_accessed,omitempty"`
	AccessCount       int                 `json:"access_count"`
	DecayFactor       float64             `json:"decay_factor"`
	IsActive          bool                `json:"is_active"`
	SupersededBy      *uuid.UUID          `json:"superseded_by,omitempty"`
	ConsolidatedFrom  []uuid.UUID         `json:"consolidated_from,omitempty"`
	ConsolidationType string              `json:"consolidation_type,omitempty"`
	RelatedEntities   RelatedEntities     `json:"related_entities"`
	IsShared          bool                `json:"is_shared"`
}

// ScoredMemory acompana una memoria con su similitud y score de ranking.
type ScoredMemory struct {
	Memory
	Similarity float64 `json:"similarity"`
	Score      float64 `json:"score"`
}
