package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"companion-llm/internal/domain"
	"companion-llm/internal/repository"
)

// PersonalityInput es la peticion de creacion/actualizacion de un perfil.
// Traits y Behaviors nulos heredan el bundle del arquetipo.
type PersonalityInput struct {
	Name               string                `json:"name"`
	Archetype          string                `json:"archetype"`
	Traits             *domain.TraitSet      `json:"traits,omitempty"`
	Behaviors          *domain.BehaviorFlags `json:"behaviors,omitempty"`
	Backstory          string                `json:"backstory,omitempty"`
	SpeakingStyle      string                `json:"speaking_style,omitempty"`
	CustomInstructions string                `json:"custom_instructions,omitempty"`
}

// PersonalityService administra perfiles de personalidad por usuario.
type PersonalityService struct {
	repo repository.PersonalityRepository
}

func NewPersonalityService(repo repository.PersonalityRepository) *PersonalityService {
	return &PersonalityService{repo: repo}
}

// Create valida y crea un perfil. El nombre es unico por usuario: un
// duplicado devuelve ErrPersonalityExists, nunca pisa el existente.
func (s *PersonalityService) Create(ctx context.Context, userID uuid.UUID, in PersonalityInput) (domain.Personality, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Personality{}, fmt.Errorf("personality name is required")
	}
	if in.Archetype == "" {
		in.Archetype = domain.ArchetypeCustom
	}
	if !domain.IsKnownArchetype(in.Archetype) {
		return domain.Personality{}, ErrInvalidArchetype
	}

	if _, err := s.repo.GetByName(ctx, userID, name); err == nil {
		return domain.Personality{}, ErrPersonalityExists
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Personality{}, fmt.Errorf("check personality name: %w", err)
	}

	traits, behaviors := domain.DefaultTraitsFor(in.Archetype)
	if in.Traits != nil {
		traits = *in.Traits
		traits.Clamp()
	}
	if in.Behaviors != nil {
		behaviors = *in.Behaviors
	}

	now := time.Now().UTC()
	p := domain.Personality{
		ID:                 uuid.New(),
		UserID:             userID,
		Name:               name,
		Archetype:          in.Archetype,
		Traits:             traits,
		Behaviors:          behaviors,
		Backstory:          strings.TrimSpace(in.Backstory),
		SpeakingStyle:      strings.TrimSpace(in.SpeakingStyle),
		CustomInstructions: strings.TrimSpace(in.CustomInstructions),
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return domain.Personality{}, fmt.Errorf("create personality: %w", err)
	}
	return p, nil
}

// Get devuelve un perfil por nombre.
func (s *PersonalityService) Get(ctx context.Context, userID uuid.UUID, name string) (domain.Personality, error) {
	p, err := s.repo.GetByName(ctx, userID, name)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Personality{}, ErrPersonalityNotFound
	}
	if err != nil {
		return domain.Personality{}, fmt.Errorf("get personality: %w", err)
	}
	return p, nil
}

// GetByID devuelve un perfil verificando pertenencia al usuario.
func (s *PersonalityService) GetByID(ctx context.Context, userID, id uuid.UUID) (domain.Personality, error) {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Personality{}, ErrPersonalityNotFound
	}
	if err != nil {
		return domain.Personality{}, fmt.Errorf("get personality: %w", err)
	}
	if p.UserID != userID {
		return domain.Personality{}, ErrForbidden
	}
	return p, nil
}

// List enumera los perfiles del usuario.
func (s *PersonalityService) List(ctx context.Context, userID uuid.UUID) ([]domain.Personality, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Update reemplaza los campos editables e incrementa la version. El nombre
// no se edita: identifica el perfil.
func (s *PersonalityService) Update(ctx context.Context, userID uuid.UUID, name string, in PersonalityInput) (domain.Personality, error) {
	p, err := s.Get(ctx, userID, name)
	if err != nil {
		return domain.Personality{}, err
	}

	if in.Archetype != "" {
		if !domain.IsKnownArchetype(in.Archetype) {
			return domain.Personality{}, ErrInvalidArchetype
		}
		p.Archetype = in.Archetype
	}
	if in.Traits != nil {
		p.Traits = *in.Traits
		p.Traits.Clamp()
	}
	if in.Behaviors != nil {
		p.Behaviors = *in.Behaviors
	}
	if in.Backstory != "" {
		p.Backstory = strings.TrimSpace(in.Backstory)
	}
	if in.SpeakingStyle != "" {
		p.SpeakingStyle = strings.TrimSpace(in.SpeakingStyle)
	}
	if in.CustomInstructions != "" {
		p.CustomInstructions = strings.TrimSpace(in.CustomInstructions)
	}

	p.Version++
	p.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return domain.Personality{}, fmt.Errorf("update personality: %w", err)
	}
	return p, nil
}

// Delete elimina un perfil por nombre.
func (s *PersonalityService) Delete(ctx context.Context, userID uuid.UUID, name string) error {
	if _, err := s.Get(ctx, userID, name); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, name); err != nil {
		return fmt.Errorf("delete personality: %w", err)
	}
	return nil
}
