// internal/services/chat_service.go
package services

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/talkmate/talkmate/internal/errors"
	"github.com/talkmate/talkmate/internal/models"
	"github.com/talkmate/talkmate/internal/utils"
)

// ChatState is the orchestrator state of one session.
type ChatState string

const (
	StateIdle             ChatState = "idle"
	StateAwaitingResponse ChatState = "awaiting_response"
	StateErrorFallback    ChatState = "error_fallback"
)

// Event types published to session subscribers.
const (
	EventMessage = "message"
	EventNotice  = "notice"
	EventReset   = "reset"
)

// ChatEvent is a notification pushed to presentation-layer subscribers.
// Subscribers observe; they never mutate session state.
type ChatEvent struct {
	SessionID string              `json:"session_id"`
	Type      string              `json:"type"`
	Message   *models.ChatMessage `json:"message,omitempty"`
	Notice    string              `json:"notice,omitempty"`
}

// EventPublisher receives chat events for delivery to subscribers.
type EventPublisher interface {
	Publish(event ChatEvent)
}

// ChatSession is one practice conversation. All mutation goes through the
// ChatService; a session has at most one outstanding response at any time.
type ChatSession struct {
	ID          string
	mu          sync.Mutex
	state       ChatState
	personality models.PersonalityProfile
	messages    []models.ChatMessage
	context     *ConversationContext
	nextID      int64
	aiDisabled  bool
	createdAt   time.Time
}

// SessionView is the API-facing snapshot of a session.
type SessionView struct {
	ID          string                    `json:"id"`
	Personality models.PersonalityProfile `json:"personality"`
	State       ChatState                 `json:"state"`
	Messages    []models.ChatMessage      `json:"messages"`
	CreatedAt   time.Time                 `json:"created_at"`
}

// SendResult is the outcome of one sendUserMessage turn.
type SendResult struct {
	UserMessage models.ChatMessage `json:"user_message"`
	Reply       models.ChatMessage `json:"reply"`
	UsedAI      bool               `json:"used_ai"`
	Notice      string             `json:"notice,omitempty"`
}

// User-facing notices for the non-fatal degradations.
const (
	noticeNoCredits = "Crediti esauriti: risposta simulata. Acquista crediti o passa a Premium per le risposte AI."
	noticeNoAPIKey  = "Nessuna chiave API configurata: risposta simulata. Salva una chiave nelle impostazioni per le risposte AI."
	noticeAIFailed  = "Il servizio AI non è al momento disponibile: continuo in modalità simulata."
)

// ChatService is the chat orchestrator: it owns the sessions, decides per
// turn between the AI path and the simulated path, and guarantees that a
// sent message always gets a partner reply.
type ChatService struct {
	classifier *ClassifierService
	catalog    *CatalogService
	feedback   *FeedbackService
	ai         *AIService
	accounts   *AccountService

	mu       sync.RWMutex
	sessions map[string]*ChatSession

	contextMaxEntries int
	typingDelay       func() time.Duration
	publisher         EventPublisher
	logger            *utils.Logger
	metrics           *utils.MetricsCollector
}

// NewChatService wires the orchestrator with its collaborators.
// contextMaxEntries bounds the conversation context including the system
// entry.
func NewChatService(
	classifier *ClassifierService,
	catalog *CatalogService,
	feedback *FeedbackService,
	ai *AIService,
	accounts *AccountService,
	contextMaxEntries int,
) *ChatService {
	return &ChatService{
		classifier:        classifier,
		catalog:           catalog,
		feedback:          feedback,
		ai:                ai,
		accounts:          accounts,
		sessions:          make(map[string]*ChatSession),
		contextMaxEntries: contextMaxEntries,
		typingDelay: func() time.Duration {
			// Emulated typing latency for the simulated path
			return time.Duration(800+rand.Intn(1200)) * time.Millisecond
		},
		logger:  utils.GetLogger().WithComponent("chat"),
		metrics: utils.GetMetricsCollector(),
	}
}

// SetPublisher attaches the subscriber notification sink.
func (s *ChatService) SetPublisher(publisher EventPublisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publisher = publisher
}

// SetTypingDelay overrides the artificial latency of the simulated path.
func (s *ChatService) SetTypingDelay(delay func() time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.typingDelay = delay
}

// Personalities returns the fixed profile set.
func (s *ChatService) Personalities() []models.PersonalityProfile {
	return models.Personalities
}

// CreateSession starts a new conversation with the given personality
// (the default profile when personalityID is empty) and produces the
// opening line.
func (s *ChatService) CreateSession(ctx context.Context, personalityID string) (*SessionView, error) {
	if personalityID == "" {
		personalityID = models.PersonalityDefault
	}
	personality, ok := models.PersonalityByID(personalityID)
	if !ok {
		return nil, apperrors.NewValidationError("unknown personality: "+personalityID, nil)
	}

	session := &ChatSession{
		ID:          uuid.NewString(),
		state:       StateIdle,
		personality: personality,
		context:     NewConversationContext(personality, s.contextMaxEntries),
		createdAt:   time.Now(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	s.metrics.AddGauge(utils.MetricActiveSessions, 1)

	if err := s.resetChat(ctx, session, personality); err != nil {
		return nil, err
	}

	return s.snapshot(session), nil
}

// GetSession returns a snapshot of the session.
func (s *ChatService) GetSession(sessionID string) (*SessionView, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(session), nil
}

// Messages returns the message history of the session.
func (s *ChatService) Messages(sessionID string) ([]models.ChatMessage, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	out := make([]models.ChatMessage, len(session.messages))
	copy(out, session.messages)
	return out, nil
}

// CloseSession discards a session.
func (s *ChatService) CloseSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return apperrors.NewNotFoundError("session not found: "+sessionID, nil)
	}
	delete(s.sessions, sessionID)
	s.metrics.AddGauge(utils.MetricActiveSessions, -1)
	return nil
}

// ResetChat rebuilds the session conversation. When personalityID is
// empty the current personality is kept; an id outside the fixed set is a
// no-op for the personality and the current one is kept.
func (s *ChatService) ResetChat(ctx context.Context, sessionID, personalityID string) (*SessionView, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	personality := session.personality
	session.mu.Unlock()

	if personalityID != "" {
		if p, ok := models.PersonalityByID(personalityID); ok {
			personality = p
		} else {
			s.logger.Warn("ignoring unknown personality", map[string]interface{}{"id": personalityID})
		}
	}

	if err := s.resetChat(ctx, session, personality); err != nil {
		return nil, err
	}

	return s.snapshot(session), nil
}

// SetPersonality switches the active personality and resets the chat.
// Selecting an id outside the fixed set is a no-op.
func (s *ChatService) SetPersonality(ctx context.Context, sessionID, personalityID string) (*SessionView, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	if _, ok := models.PersonalityByID(personalityID); !ok {
		return s.snapshot(session), nil
	}

	return s.ResetChat(ctx, sessionID, personalityID)
}

// resetChat rebuilds history and context, then produces the opening line.
// An AI failure for the opening line falls back to the simulated path
// without surfacing an error.
func (s *ChatService) resetChat(ctx context.Context, session *ChatSession, personality models.PersonalityProfile) error {
	session.mu.Lock()
	// Covers both the AI wait and the simulated retry after an AI failure
	if session.state != StateIdle {
		session.mu.Unlock()
		return apperrors.NewConflictError("a response is still pending", nil)
	}
	session.state = StateAwaitingResponse
	session.personality = personality
	session.messages = nil
	session.nextID = 0
	session.aiDisabled = false
	session.context.Reset(personality)
	session.mu.Unlock()

	opening, rawOpening, usedAI := s.openingLine(ctx, session, personality)

	session.mu.Lock()
	message := s.appendMessageLocked(session, opening, models.SenderPartner, "")
	if usedAI {
		// The raw completion goes into the context, as on the send path,
		// so the backend keeps seeing its own annotation pattern.
		session.context.AppendPartnerTurn(rawOpening)
	}
	session.state = StateIdle
	session.mu.Unlock()

	s.publish(ChatEvent{SessionID: session.ID, Type: EventReset})
	s.publish(ChatEvent{SessionID: session.ID, Type: EventMessage, Message: &message})

	return nil
}

// openingLine asks the AI backend for a conversation opener when the
// account is eligible, sampling the greeting pool otherwise or on failure.
// It returns the display text, the raw completion for the context, and
// whether the AI path produced it.
func (s *ChatService) openingLine(ctx context.Context, session *ChatSession, personality models.PersonalityProfile) (string, string, bool) {
	if s.accounts.AIMode() && s.accounts.AIEligible() && s.ai.IsReady() {
		entries := append(session.context.Entries(), models.ContextEntry{
			Role:    models.ContextRoleUser,
			Content: "Inizia tu la conversazione con un breve saluto, senza feedback del coach.",
		})

		reply, err := s.ai.Complete(ctx, entries)
		if err == nil && strings.TrimSpace(reply.Text) != "" {
			return reply.Text, reply.Raw, true
		}
		if err != nil {
			s.logger.Warn("AI opening line failed, using simulated greeting", map[string]interface{}{"error": err})
		}
	}

	text, err := s.catalog.Sample(personality.ID, CategoryGreeting)
	if err != nil {
		// Unreachable with a validated catalog
		s.logger.Error("greeting sample failed", map[string]interface{}{"error": err})
		text = "Ciao!"
	}
	return text, text, false
}

// SendMessage appends the user message, then produces exactly one partner
// reply via the AI path or the simulated path. Only one message may be in
// flight per session; overlapping sends are rejected.
func (s *ChatService) SendMessage(ctx context.Context, sessionID, text string) (*SendResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("message text must not be empty", nil)
	}

	session, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	if session.state != StateIdle {
		session.mu.Unlock()
		return nil, apperrors.NewConflictError("a response is still pending", nil)
	}
	session.state = StateAwaitingResponse
	userMessage := s.appendMessageLocked(session, text, models.SenderUser, "")
	aiDisabled := session.aiDisabled
	session.mu.Unlock()

	s.metrics.IncrementCounter(utils.MetricMessagesSent)
	s.publish(ChatEvent{SessionID: session.ID, Type: EventMessage, Message: &userMessage})

	result := &SendResult{UserMessage: userMessage}

	wantAI := s.accounts.AIMode() && !aiDisabled
	switch {
	case wantAI && s.accounts.AIEligible():
		s.sendViaAI(ctx, session, text, result)
	case wantAI:
		// AI requested but the account cannot use it right now
		if s.accounts.HasAPIKey() {
			result.Notice = noticeNoCredits
		} else {
			result.Notice = noticeNoAPIKey
		}
		s.sendSimulated(ctx, session, text, result)
	default:
		s.sendSimulated(ctx, session, text, result)
	}

	session.mu.Lock()
	session.state = StateIdle
	session.mu.Unlock()

	if result.Notice != "" {
		s.publish(ChatEvent{SessionID: session.ID, Type: EventNotice, Notice: result.Notice})
	}
	s.publish(ChatEvent{SessionID: session.ID, Type: EventMessage, Message: &result.Reply})

	return result, nil
}

// sendViaAI runs the AI path. On failure the session enters error
// fallback: AI stays disabled for the rest of the session and the same
// utterance is retried through the simulated path.
func (s *ChatService) sendViaAI(ctx context.Context, session *ChatSession, text string, result *SendResult) {
	start := time.Now()

	entries := append(session.context.Entries(), models.ContextEntry{
		Role:    models.ContextRoleUser,
		Content: text,
	})

	reply, err := s.ai.Complete(ctx, entries)
	if err != nil {
		session.mu.Lock()
		session.state = StateErrorFallback
		session.aiDisabled = true
		session.mu.Unlock()

		s.metrics.IncrementCounter(utils.MetricAIFallbacks)
		s.logger.Warn("AI path failed, falling back to simulated replies", map[string]interface{}{
			"session": session.ID,
			"error":   err,
		})

		result.Notice = noticeAIFailed
		s.sendSimulated(ctx, session, text, result)
		return
	}

	s.metrics.RecordDuration(utils.MetricAIRequestDuration, start)
	s.metrics.IncrementCounter(utils.MetricAIResponses)

	// Credits are consumed only for completions that actually succeeded;
	// premium accounts consume none.
	if err := s.accounts.ConsumeCredit(); err != nil {
		s.logger.Warn("credit consumption failed after successful reply", map[string]interface{}{"error": err})
	}

	session.mu.Lock()
	session.context.AppendUserTurn(text)
	session.context.AppendPartnerTurn(reply.Raw)
	result.Reply = s.appendMessageLocked(session, reply.Text, models.SenderPartner, reply.Feedback)
	session.mu.Unlock()

	result.UsedAI = true
}

// sendSimulated runs the offline path: classify, sample a canned reply,
// generate coach feedback and emulate typing latency.
func (s *ChatService) sendSimulated(ctx context.Context, session *ChatSession, text string, result *SendResult) {
	session.mu.Lock()
	personality := session.personality
	session.mu.Unlock()

	category := s.classifier.Classify(text)
	replyText, err := s.catalog.Sample(personality.ID, category)
	if err != nil {
		// Unreachable with a validated catalog
		s.logger.Error("catalog sample failed", map[string]interface{}{"error": err})
		replyText = "Interessante, raccontami di più."
	}
	feedback := s.feedback.Generate(text)

	s.waitTyping(ctx)

	session.mu.Lock()
	session.context.AppendUserTurn(text)
	session.context.AppendPartnerTurn(replyText)
	result.Reply = s.appendMessageLocked(session, replyText, models.SenderPartner, feedback)
	session.mu.Unlock()

	s.metrics.IncrementCounter(utils.MetricSimulatedReplies)
}

// waitTyping blocks for the artificial response latency, or until the
// caller's context is done.
func (s *ChatService) waitTyping(ctx context.Context) {
	s.mu.RLock()
	delay := s.typingDelay()
	s.mu.RUnlock()

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// appendMessageLocked creates and stores the next message. Caller holds
// session.mu.
func (s *ChatService) appendMessageLocked(session *ChatSession, text string, sender models.Sender, feedback string) models.ChatMessage {
	session.nextID++
	message := models.ChatMessage{
		ID:        session.nextID,
		Text:      text,
		Sender:    sender,
		Timestamp: time.Now(),
		Feedback:  feedback,
	}
	session.messages = append(session.messages, message)
	return message
}

func (s *ChatService) lookup(sessionID string) (*ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, apperrors.NewNotFoundError("session not found: "+sessionID, nil)
	}
	return session, nil
}

func (s *ChatService) snapshot(session *ChatSession) *SessionView {
	session.mu.Lock()
	defer session.mu.Unlock()

	messages := make([]models.ChatMessage, len(session.messages))
	copy(messages, session.messages)

	return &SessionView{
		ID:          session.ID,
		Personality: session.personality,
		State:       session.state,
		Messages:    messages,
		CreatedAt:   session.createdAt,
	}
}

func (s *ChatService) publish(event ChatEvent) {
	s.mu.RLock()
	publisher := s.publisher
	s.mu.RUnlock()

	if publisher != nil {
		publisher.Publish(event)
	}
}
