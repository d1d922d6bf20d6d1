package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"companion-llm/internal/domain"
	"companion-llm/internal/llm"
	"companion-llm/internal/repository"
)

// Tipos de evento del stream NDJSON.
const (
	EventThinking    = "thinking"
	EventChunk       = "chunk"
	EventAgeVerify   = "age_verification_required"
	EventRefusal     = "refusal"
	EventDone        = "done"
	EventStreamError = "error"
)

// ChatEvent es una linea del stream de respuesta.
type ChatEvent struct {
	Type           string `json:"type"`
	Step           string `json:"step,omitempty"`
	Text           string `json:"text,omitempty"`
	Route          string `json:"route,omitempty"`
	Label          string `json:"label,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	MessageID      string `json:"message_id,omitempty"`
	Error          string `json:"error,omitempty"`
}

// ChatRequest es un mensaje entrante. ConversationID nil abre una
// conversacion nueva con la personalidad indicada por nombre.
type ChatRequest struct {
	UserID          uuid.UUID
	ConversationID  *uuid.UUID
	PersonalityName string
	Message         string
}

// RouteModels asigna un modelo LLM a cada ruta de generacion.
type RouteModels struct {
	Normal   string
	Romance  string
	Explicit string
	Fetish   string
}

func (m RouteModels) For(route domain.Route) string {
	switch route {
	case domain.RouteRomance:
		return m.Romance
	case domain.RouteExplicit:
		return m.Explicit
	case domain.RouteFetish:
		return m.Fetish
	}
	return m.Normal
}

// ChatServiceConfig agrupa los knobs del orquestador. RequestTimeout en 0
// deja el turno sin deadline propio (solo el del request).
type ChatServiceConfig struct {
	Models             RouteModels
	BackgroundMinTurns int
	RequestTimeout     time.Duration
}

// ChatService orquesta el pipeline por mensaje: clasificacion, sesion,
// retrieval, prompt, generacion streaming y analisis en background.
type ChatService struct {
	users         repository.UserRepository
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	emotions      repository.EmotionRepository
	goals         repository.GoalRepository
	preferences   repository.PreferenceRepository

	buffer        ShortTermBuffer
	classifier    *ContentClassifier
	sessions      *SessionManager
	personalities *PersonalityService
	memories      *MemoryEngine
	relationships *RelationshipTracker
	audit         *AuditService
	prompts       *PromptBuilder
	background    *BackgroundRunner

	emotionDet     *EmotionDetector
	personalityDet *PersonalityDetector
	preferenceDet  *PreferenceDetector
	goalDet        *GoalDetector
	extractor      *MemoryExtractor

	llm    llm.Client
	cfg    ChatServiceConfig
	logger *zap.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*conversationLock
}

// conversationLock serializa mensajes por conversacion. El refcount permite
// borrar la entrada del mapa cuando nadie la referencia.
type conversationLock struct {
	mu   sync.Mutex
	refs int
}

// ChatServiceDeps enumera las dependencias del orquestador.
type ChatServiceDeps struct {
	Users         repository.UserRepository
	Conversations repository.ConversationRepository
	Messages      repository.MessageRepository
	Emotions      repository.EmotionRepository
	Goals         repository.GoalRepository
	Preferences   repository.PreferenceRepository

	Buffer        ShortTermBuffer
	Classifier    *ContentClassifier
	Sessions      *SessionManager
	Personalities *PersonalityService
	Memories      *MemoryEngine
	Relationships *RelationshipTracker
	Audit         *AuditService
	Prompts       *PromptBuilder
	Background    *BackgroundRunner

	EmotionDetector     *EmotionDetector
	PersonalityDetector *PersonalityDetector
	PreferenceDetector  *PreferenceDetector
	GoalDetector        *GoalDetector
	Extractor           *MemoryExtractor

	LLM    llm.Client
	Config ChatServiceConfig
	Logger *zap.Logger
}

func NewChatService(deps ChatServiceDeps) *ChatService {
	if deps.Config.BackgroundMinTurns <= 0 {
		deps.Config.BackgroundMinTurns = 3
	}
	return &ChatService{
		users:          deps.Users,
		conversations:  deps.Conversations,
		messages:       deps.Messages,
		emotions:       deps.Emotions,
		goals:          deps.Goals,
		preferences:    deps.Preferences,
		buffer:         deps.Buffer,
		classifier:     deps.Classifier,
		sessions:       deps.Sessions,
		personalities:  deps.Personalities,
		memories:       deps.Memories,
		relationships:  deps.Relationships,
		audit:          deps.Audit,
		prompts:        deps.Prompts,
		background:     deps.Background,
		emotionDet:     deps.EmotionDetector,
		personalityDet: deps.PersonalityDetector,
		preferenceDet:  deps.PreferenceDetector,
		goalDet:        deps.GoalDetector,
		extractor:      deps.Extractor,
		llm:            deps.LLM,
		cfg:            deps.Config,
		logger:         deps.Logger,
		locks:          map[uuid.UUID]*conversationLock{},
	}
}

// turnContext acumula lo recolectado en el fan-out previo al prompt.
type turnContext struct {
	memories     []domain.ScoredMemory
	relationship domain.RelationshipState
	preferences  *domain.PreferenceProfile
	goals        []domain.Goal
	emotion      EmotionDetection
	hasEmotion   bool
	persona      domain.Personality
}

// StreamChat procesa un mensaje y emite eventos por emit. Un error de emit
// (cliente desconectado) aborta el stream; el estado de sesion solo se
// persiste si la generacion completo.
func (s *ChatService) StreamChat(ctx context.Context, req ChatRequest, emit func(ChatEvent) error) error {
	if strings.TrimSpace(req.Message) == "" {
		return ErrEmptyMessage
	}

	// Deadline global del turno, por encima del deadline del request.
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	conv, err := s.resolveConversation(ctx, req)
	if err != nil {
		return err
	}

	// Un mensaje en vuelo por conversacion.
	lock := s.acquireConversationLock(conv.ID)
	if !lock.mu.TryLock() {
		s.releaseConversationLock(conv.ID, lock)
		return ErrConversationBusy
	}
	defer func() {
		lock.mu.Unlock()
		s.releaseConversationLock(conv.ID, lock)
	}()

	if err := emit(ChatEvent{Type: EventThinking, Step: "classifying", ConversationID: conv.ID.String()}); err != nil {
		return err
	}

	classification, normalized := s.classifier.Classify(ctx, req.Message)

	state, err := s.sessions.Load(ctx, conv.ID, req.UserID)
	if err != nil {
		return err
	}
	decision, nextState := s.sessions.Apply(state, classification.Label)

	// Auditoria antes de generar: queda registro aunque el stream falle.
	s.audit.Record(ctx, conv.ID, req.UserID, req.Message, normalized, classification, decision, nextState)

	userMsg := domain.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		Role:           domain.RoleUser,
		Content:        req.Message,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.messages.Create(ctx, userMsg); err != nil {
		return fmt.Errorf("persist user message: %w", err)
	}
	if err := s.buffer.Append(ctx, userMsg); err != nil && s.logger != nil {
		s.logger.Warn("buffer append failed", zap.Error(err))
	}

	switch decision.Action {
	case domain.ActionRefuse:
		return s.finishWithoutGeneration(ctx, conv, nextState, decision, classification, emit, EventRefusal)
	case domain.ActionAgeVerify:
		return s.finishWithoutGeneration(ctx, conv, nextState, decision, classification, emit, EventAgeVerify)
	}

	if err := emit(ChatEvent{Type: EventThinking, Step: "recalling", ConversationID: conv.ID.String()}); err != nil {
		return err
	}

	tc := s.gatherContext(ctx, req, conv)

	recent, err := s.buffer.Recent(ctx, conv.ID)
	if err != nil {
		recent, _ = s.messages.ListRecent(ctx, conv.ID, 20)
	}

	systemPrompt := s.prompts.Build(PromptInput{
		RoutePrompt:  decision.SystemPrompt,
		Personality:  &tc.persona,
		Relationship: &tc.relationship,
		Emotion:      emotionForPrompt(tc),
		Preferences:  tc.preferences,
		Memories:     tc.memories,
		Goals:        tc.goals,
	})

	chatMsgs := make([]llm.ChatMessage, 0, len(recent)+2)
	chatMsgs = append(chatMsgs, llm.ChatMessage{Role: domain.RoleSystem, Content: systemPrompt})
	for _, m := range recent {
		chatMsgs = append(chatMsgs, llm.ChatMessage{Role: m.Role, Content: m.Content})
	}

	if err := emit(ChatEvent{Type: EventThinking, Step: "generating", Route: string(decision.Route), ConversationID: conv.ID.String()}); err != nil {
		return err
	}

	model := s.cfg.Models.For(decision.Route)
	full, err := s.llm.GenerateStream(ctx, model, chatMsgs, func(text string) error {
		return emit(ChatEvent{Type: EventChunk, Text: text})
	})
	if err != nil {
		_ = emit(ChatEvent{Type: EventStreamError, Error: "generation failed"})
		return fmt.Errorf("generate response: %w", err)
	}

	assistantMsg := domain.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		Role:           domain.RoleAssistant,
		Content:        full,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.messages.Create(ctx, assistantMsg); err != nil {
		return fmt.Errorf("persist assistant message: %w", err)
	}
	if err := s.buffer.Append(ctx, assistantMsg); err != nil && s.logger != nil {
		s.logger.Warn("buffer append failed", zap.Error(err))
	}

	// La generacion completo: recien ahora el lock decrementado se persiste.
	if err := s.sessions.Persist(ctx, nextState); err != nil && s.logger != nil {
		s.logger.Error("session persist failed", zap.Error(err))
	}
	if err := s.relationships.RecordExchange(ctx, req.UserID, conv.PersonalityID); err != nil && s.logger != nil {
		s.logger.Warn("relationship update failed", zap.Error(err))
	}

	s.dispatchBackground(req, conv, recent, tc)

	return emit(ChatEvent{
		Type:           EventDone,
		Route:          string(decision.Route),
		Label:          string(classification.Label),
		ConversationID: conv.ID.String(),
		MessageID:      assistantMsg.ID.String(),
	})
}

// finishWithoutGeneration cierra el turno con rechazo o pedido de edad.
// El estado se persiste igual: los contadores de intentos y el lock intacto
// forman parte del registro de la sesion.
func (s *ChatService) finishWithoutGeneration(
	ctx context.Context,
	conv domain.Conversation,
	state domain.SessionState,
	decision domain.RouteDecision,
	classification domain.Classification,
	emit func(ChatEvent) error,
	eventType string,
) error {
	if err := s.sessions.Persist(ctx, state); err != nil && s.logger != nil {
		s.logger.Error("session persist failed", zap.Error(err))
	}
	if err := emit(ChatEvent{
		Type:           eventType,
		Text:           decision.RefusalText,
		Route:          string(decision.Route),
		Label:          string(classification.Label),
		ConversationID: conv.ID.String(),
	}); err != nil {
		return err
	}
	return emit(ChatEvent{
		Type:           EventDone,
		Route:          string(decision.Route),
		Label:          string(classification.Label),
		ConversationID: conv.ID.String(),
	})
}

// gatherContext recolecta en paralelo el contexto del turno. Cada fallo
// individual se degrada a contexto vacio: un detector caido no frena el chat.
func (s *ChatService) gatherContext(ctx context.Context, req ChatRequest, conv domain.Conversation) turnContext {
	var tc turnContext
	var mu sync.Mutex

	dc := DetectorContext{
		UserID:         req.UserID,
		ConversationID: conv.ID,
		PersonalityID:  conv.PersonalityID,
		Message:        req.Message,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		mems, err := s.memories.Retrieve(gctx, req.UserID, conv.PersonalityID, req.Message)
		if err != nil {
			s.logDegraded("memory retrieval", err)
			return nil
		}
		mu.Lock()
		tc.memories = mems
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		rel, err := s.relationships.Get(gctx, req.UserID, conv.PersonalityID)
		if err != nil {
			s.logDegraded("relationship load", err)
			return nil
		}
		mu.Lock()
		tc.relationship = rel
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		existing := true
		pref, err := s.preferences.Get(gctx, req.UserID)
		if errors.Is(err, pgx.ErrNoRows) {
			existing = false
			pref = domain.PreferenceProfile{ID: uuid.New(), UserID: req.UserID}
		} else if err != nil {
			s.logDegraded("preference load", err)
			return nil
		}
		// Una preferencia declarada en el mensaje aplica a este mismo turno
		// y queda persistida para los siguientes.
		detected := false
		if s.preferenceDet != nil {
			if found, ok := s.preferenceDet.Detect(gctx, dc); ok && pref.Merge(found) {
				detected = true
				pref.UpdatedAt = time.Now().UTC()
				if err := s.preferences.Upsert(gctx, pref); err != nil {
					s.logDegraded("preference upsert", err)
				}
			}
		}
		if !existing && !detected {
			return nil
		}
		mu.Lock()
		tc.preferences = &pref
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		goals, err := s.goals.ListActiveByUser(gctx, req.UserID)
		if err != nil {
			s.logDegraded("goal load", err)
			return nil
		}
		mu.Lock()
		tc.goals = goals
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		if s.emotionDet == nil {
			return nil
		}
		emo, ok := s.emotionDet.Detect(gctx, dc)
		if ok {
			mu.Lock()
			tc.emotion = emo
			tc.hasEmotion = true
			mu.Unlock()
		}
		return nil
	})
	g.Go(func() error {
		persona, err := s.personalities.GetByID(gctx, req.UserID, conv.PersonalityID)
		if err != nil {
			s.logDegraded("personality load", err)
			return nil
		}
		// Una peticion de rol explicita en el mensaje gana para este turno
		// y ademas se persiste: la proxima conversacion ya arranca con el
		// arquetipo pedido. Si la escritura falla, el override igual aplica.
		if s.personalityDet != nil {
			if det, ok := s.personalityDet.Detect(gctx, dc); ok && det.Archetype != persona.Archetype {
				traits, behaviors := domain.DefaultTraitsFor(det.Archetype)
				persona.Archetype = det.Archetype
				persona.Traits, persona.Behaviors = traits, behaviors
				updated, err := s.personalities.Update(gctx, req.UserID, persona.Name, PersonalityInput{
					Archetype: det.Archetype,
					Traits:    &traits,
					Behaviors: &behaviors,
				})
				if err != nil {
					s.logDegraded("personality update", err)
				} else {
					persona = updated
				}
			}
		}
		mu.Lock()
		tc.persona = persona
		mu.Unlock()
		return nil
	})

	_ = g.Wait()
	return tc
}

// dispatchBackground encola el analisis pesado fuera del stream. Se espera
// un minimo de turnos antes de extraer memorias para no guardar saludos.
func (s *ChatService) dispatchBackground(req ChatRequest, conv domain.Conversation, recent []domain.Message, tc turnContext) {
	if s.background == nil {
		return
	}

	if tc.hasEmotion {
		emo := tc.emotion
		s.background.Submit("record_emotion", func(ctx context.Context) {
			rec := domain.EmotionRecord{
				ID:             uuid.New(),
				UserID:         req.UserID,
				ConversationID: conv.ID,
				Emotion:        emo.Emotion,
				Confidence:     emo.Confidence,
				Intensity:      emo.Intensity,
				Indicators:     emo.Indicators,
				Snippet:        domain.TruncateSnippet(req.Message),
				DetectedAt:     time.Now().UTC(),
			}
			if err := s.emotions.Create(ctx, rec); err != nil {
				s.logDegraded("record emotion", err)
			}
		})
	}

	dc := DetectorContext{
		UserID:         req.UserID,
		ConversationID: conv.ID,
		PersonalityID:  conv.PersonalityID,
		Message:        req.Message,
		Recent:         recent,
	}

	if s.goalDet != nil {
		s.background.Submit("detect_goal", func(ctx context.Context) {
			goal, ok := s.goalDet.Detect(ctx, dc)
			if !ok {
				return
			}
			goal.ID = uuid.New()
			goal.UserID = req.UserID
			goal.CreatedAt = time.Now().UTC()
			goal.IsActive = true
			if err := s.goals.Create(ctx, goal); err != nil {
				s.logDegraded("create goal", err)
			}
		})
	}

	// Extraccion de memorias recien a partir del minimo de turnos.
	if s.extractor != nil && len(recent) >= s.cfg.BackgroundMinTurns {
		emo, hasEmo := tc.emotion, tc.hasEmotion
		s.background.Submit("extract_memories", func(ctx context.Context) {
			for _, candidate := range s.extractor.Extract(ctx, dc) {
				if _, err := s.memories.StoreExtracted(ctx, req.UserID, conv.PersonalityID, conv.ID, candidate, emo, hasEmo); err != nil {
					s.logDegraded("store memory", err)
				}
			}
		})
	}
}

// resolveConversation abre o carga la conversacion y valida pertenencia.
func (s *ChatService) resolveConversation(ctx context.Context, req ChatRequest) (domain.Conversation, error) {
	if req.ConversationID != nil && *req.ConversationID != uuid.Nil {
		conv, err := s.conversations.GetByID(ctx, *req.ConversationID)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Conversation{}, ErrConversationNotFound
		}
		if err != nil {
			return domain.Conversation{}, fmt.Errorf("load conversation: %w", err)
		}
		if conv.UserID != req.UserID {
			return domain.Conversation{}, ErrForbidden
		}
		return conv, nil
	}

	name := req.PersonalityName
	if name == "" {
		name = "default"
	}
	persona, err := s.personalities.Get(ctx, req.UserID, name)
	if errors.Is(err, ErrPersonalityNotFound) && name == "default" {
		persona, err = s.personalities.Create(ctx, req.UserID, PersonalityInput{
			Name:      "default",
			Archetype: domain.ArchetypeSupportiveFriend,
		})
	}
	if err != nil {
		return domain.Conversation{}, err
	}

	conv := domain.Conversation{
		ID:            uuid.New(),
		UserID:        req.UserID,
		PersonalityID: persona.ID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return domain.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

func (s *ChatService) acquireConversationLock(id uuid.UUID) *conversationLock {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &conversationLock{}
		s.locks[id] = lock
	}
	lock.refs++
	return lock
}

func (s *ChatService) releaseConversationLock(id uuid.UUID, lock *conversationLock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock.refs--
	if lock.refs <= 0 {
		delete(s.locks, id)
	}
}

func (s *ChatService) logDegraded(stage string, err error) {
	if s.logger != nil {
		s.logger.Warn("context degraded", zap.String("stage", stage), zap.Error(err))
	}
}

func emotionForPrompt(tc turnContext) *EmotionDetection {
	if !tc.hasEmotion {
		return nil
	}
	emo := tc.emotion
	return &emo
}
