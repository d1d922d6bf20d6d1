package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"companion-llm/internal/domain"
)

// SessionManager aplica la maquina de estados por conversacion:
// verificacion de edad, lock de ruta y transiciones etiqueta->ruta.
type SessionManager struct {
	store           SessionStore
	router          *ContentRouter
	routeLockLength int
	logger          *zap.Logger
}

func NewSessionManager(store SessionStore, router *ContentRouter, routeLockLength int, logger *zap.Logger) *SessionManager {
	if routeLockLength <= 0 {
		routeLockLength = 5
	}
	return &SessionManager{
		store:           store,
		router:          router,
		routeLockLength: routeLockLength,
		logger:          logger,
	}
}

// Load devuelve el estado actual de la conversacion, fresco si no existe
// o expiro.
func (m *SessionManager) Load(ctx context.Context, conversationID, userID uuid.UUID) (domain.SessionState, error) {
	state, ok, err := m.store.Get(ctx, conversationID)
	if err != nil {
		return domain.SessionState{}, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return freshSessionState(conversationID, userID), nil
	}
	return state, nil
}

// Apply ejecuta una transicion sobre una copia del estado y devuelve la
// decision de ruta junto al estado resultante. NO persiste: el orquestador
// guarda el estado solo despues de que la generacion tuvo exito, para que
// un fallo del LLM no consuma el contador del lock.
//
// Orden de evaluacion:
//  1. NONCONSENSUAL / MINOR_RISK rechazan sin tocar el lock.
//  2. Explicito sin edad verificada pide verificacion y cuenta el intento.
//  3. Con lock activo: contenido no-SAFE retiene la ruta lockeada y
//     decrementa; SAFE rompe el lock y vuelve a NORMAL.
//  4. Sin lock: tabla etiqueta->ruta; entrar a EXPLICIT/FETISH arma el lock.
func (m *SessionManager) Apply(state domain.SessionState, label domain.Label) (domain.RouteDecision, domain.SessionState) {
	state.LastLabel = label

	// 1. Rechazos duros: no alteran lock ni ruta.
	if label == domain.LabelMinorRisk {
		return m.router.Decide(domain.RouteHardRefusal), state
	}
	if label == domain.LabelNonconsensual {
		return m.router.Decide(domain.RouteRefusal), state
	}

	// 2. Gate de edad.
	if label.IsExplicit() && !state.AgeVerified {
		state.ExplicitAttempts++
		return m.router.AgeVerifyDecision(state.CurrentRoute), state
	}

	// 3. Lock de ruta activo.
	if state.RouteLockCounter > 0 {
		if label == domain.LabelSafe {
			state.RouteLockCounter = 0
			state.CurrentRoute = domain.RouteNormal
			return m.router.Decide(domain.RouteNormal), state
		}
		// Retiene la ruta lockeada; el decremento queda en el estado que el
		// orquestador persiste tras generar con exito.
		state.RouteLockCounter--
		return m.router.Decide(state.CurrentRoute), state
	}

	// 4. Sin lock: transicion normal por tabla.
	route := m.router.RouteForLabel(label)
	state.CurrentRoute = route
	if route == domain.RouteExplicit || route == domain.RouteFetish {
		state.RouteLockCounter = m.routeLockLength
	}
	return m.router.Decide(route), state
}

// Persist guarda el estado post-transicion. El orquestador lo llama solo
// cuando la respuesta llego a generarse (o cuando la decision fue un
// rechazo/verificacion que igualmente muta el estado).
func (m *SessionManager) Persist(ctx context.Context, state domain.SessionState) error {
	if err := m.store.Save(ctx, state); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// VerifyAge marca la conversacion como verificada. Idempotente: verificar
// dos veces conserva el timestamp original. Solo el dueno de la sesion puede
// verificarla; el chequeo corre dentro del update atomico.
func (m *SessionManager) VerifyAge(ctx context.Context, conversationID, userID uuid.UUID) (domain.SessionState, error) {
	state, err := m.store.Update(ctx, conversationID, userID, func(s *domain.SessionState) error {
		if s.UserID != userID {
			return ErrForbidden
		}
		if s.AgeVerified {
			return nil
		}
		now := time.Now().UTC()
		s.AgeVerified = true
		s.AgeVerifiedAt = &now
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			return domain.SessionState{}, ErrForbidden
		}
		return domain.SessionState{}, fmt.Errorf("verify age: %w", err)
	}
	if m.logger != nil {
		m.logger.Info("age verified",
			zap.String("conversation_id", conversationID.String()),
			zap.String("user_id", userID.String()),
		)
	}
	return state, nil
}
