package service

import (
	"math"
	"strings"
	"time"

	"companion-llm/internal/domain"
)

// Pesos fijos del blend de importancia. Suman 1.
const (
	weightEmotional   = 0.30
	weightExplicit    = 0.25
	weightFrequency   = 0.15
	weightRecency     = 0.10
	weightSpecificity = 0.10
	weightRelevance   = 0.10
)

// Categorias con relevancia personal alta por definicion.
var highRelevanceCategories = map[string]float64{
	domain.CategoryPersonalFact: 0.9,
	domain.CategoryRelationship: 0.9,
	domain.CategoryChallenge:    0.8,
	domain.CategoryGoal:         0.8,
	domain.CategoryAchievement:  0.8,
	domain.CategoryInstruction:  0.7,
	domain.CategoryPreference:   0.6,
	domain.CategoryEvent:        0.5,
	domain.CategoryKnowledge:    0.3,
}

// ScoreImportance calcula la importancia de un candidato en el momento de
// extraccion. Frecuencia arranca en 0 (primera mencion) y recencia en 1
// (recien dicho); ambas evolucionan con el acceso y el decaimiento.
func ScoreImportance(candidate MemoryCandidate, emotion EmotionDetection, hasEmotion bool) (float64, domain.ImportanceBreakdown) {
	var b domain.ImportanceBreakdown

	if hasEmotion {
		switch emotion.Intensity {
		case domain.IntensityHigh:
			b.EmotionalSignificance = 1.0
		case domain.IntensityMedium:
			b.EmotionalSignificance = 0.6
		default:
			b.EmotionalSignificance = 0.3
		}
	}

	if candidate.ExplicitMention {
		b.ExplicitMention = 1.0
	}

	b.Recency = 1.0
	b.Specificity = specificityScore(candidate)
	b.PersonalRelevance = highRelevanceCategories[candidate.Category]

	total := weightEmotional*b.EmotionalSignificance +
		weightExplicit*b.ExplicitMention +
		weightFrequency*b.FrequencyReferenced +
		weightRecency*b.Recency +
		weightSpecificity*b.Specificity +
		weightRelevance*b.PersonalRelevance

	return clamp01(total), b
}

// Recencia con media-vida de 30 dias; frecuencia log-escalada que satura
// alrededor de 50 accesos.
const (
	recencyHalfLifeDays = 30.0
	frequencySaturation = 50.0
)

// RefreshImportance recomputa los componentes que evolucionan despues de la
// extraccion: recencia como decaimiento exponencial desde created_at y
// frecuencia log-escalada sobre access_count. Actualiza el decay factor y
// re-blendea la importancia total con los mismos pesos fijos.
func RefreshImportance(m *domain.Memory, now time.Time) {
	b := &m.ImportanceDetail

	ageDays := now.Sub(m.CreatedAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	b.Recency = math.Exp(-math.Ln2 * ageDays / recencyHalfLifeDays)
	b.FrequencyReferenced = clamp01(math.Log1p(float64(m.AccessCount)) / math.Log1p(frequencySaturation))

	m.DecayFactor = b.Recency
	m.Importance = clamp01(weightEmotional*b.EmotionalSignificance +
		weightExplicit*b.ExplicitMention +
		weightFrequency*b.FrequencyReferenced +
		weightRecency*b.Recency +
		weightSpecificity*b.Specificity +
		weightRelevance*b.PersonalRelevance)
}

// specificityScore premia hechos con entidades nombradas y detalle concreto.
func specificityScore(c MemoryCandidate) float64 {
	score := 0.2
	entities := len(c.Entities.People) + len(c.Entities.Places) +
		len(c.Entities.Topics) + len(c.Entities.Dates)
	score += 0.2 * float64(entities)
	if len(strings.Fields(c.Content)) >= 6 {
		score += 0.2
	}
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
