// internal/services/ai_service.go
package services

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/talkmate/talkmate/internal/config"
	apperrors "github.com/talkmate/talkmate/internal/errors"
	"github.com/talkmate/talkmate/internal/llm"
	"github.com/talkmate/talkmate/internal/models"
	"github.com/talkmate/talkmate/internal/utils"
)

// Sampling parameters for the chat completion call.
const (
	aiTemperature = 0.7
	aiMaxTokens   = 300
)

// coachPattern matches an embedded coach annotation anywhere in a reply.
var coachPattern = regexp.MustCompile(`\[Coach:([^\]]*)\]`)

// AIReply is the parsed result of one completion: the natural reply with
// the coach annotation stripped, and the annotation text itself. Raw keeps
// the unparsed completion so the orchestrator can record it in the context
// and the backend keeps seeing its own annotation pattern.
type AIReply struct {
	Text     string `json:"text"`
	Feedback string `json:"feedback,omitempty"`
	Raw      string `json:"-"`
}

// AIService adapts the conversation context to the completion backend.
// It does not mutate the context; appending turns is the orchestrator's
// responsibility.
type AIService struct {
	providerMutex sync.RWMutex
	provider      llm.Provider
	providerName  string
	model         string
	logger        *utils.Logger
}

// NewAIService builds the adapter from the current configuration. When no
// credential is configured the service starts without a provider and every
// completion fails with a credential-missing error until one is saved.
func NewAIService() *AIService {
	s := &AIService{
		logger: utils.GetLogger().WithComponent("ai"),
	}

	cfg := config.GetCurrentConfig()
	if cfg == nil {
		return s
	}

	if cfg.LLMProvider == "" || cfg.LLMConfig == nil || cfg.LLMConfig["api_key"] == "" {
		s.logger.Info("AI adapter starting without credential, simulated path only", nil)
		return s
	}

	providerConfig := cloneConfig(cfg.LLMConfig)
	providerConfig["timeout"] = cfg.AIRequestTimeout.String()

	provider, err := llm.GetProvider(cfg.LLMProvider, providerConfig)
	if err != nil {
		s.logger.Warn("AI provider initialization failed", map[string]interface{}{"error": err})
		return s
	}

	s.provider = provider
	s.providerName = cfg.LLMProvider
	s.model = cfg.LLMConfig["default_model"]

	return s
}

// UpdateProvider replaces the completion backend, typically after the user
// saves a new API credential.
func (s *AIService) UpdateProvider(providerName string, providerConfig map[string]string) error {
	merged := cloneConfig(providerConfig)
	if merged["timeout"] == "" {
		merged["timeout"] = config.GetCurrentConfig().AIRequestTimeout.String()
	}

	provider, err := llm.GetProvider(providerName, merged)
	if err != nil {
		return apperrors.NewProcessingError("updating AI provider", err)
	}

	s.providerMutex.Lock()
	defer s.providerMutex.Unlock()

	s.provider = provider
	s.providerName = providerName
	s.model = merged["default_model"]

	return nil
}

// IsReady reports whether a completion backend is configured.
func (s *AIService) IsReady() bool {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()

	return s.provider != nil
}

// Complete sends the conversation context to the backend and parses the
// completion into reply text plus coach feedback. The context itself is
// left untouched.
func (s *AIService) Complete(ctx context.Context, entries []models.ContextEntry) (*AIReply, error) {
	s.providerMutex.RLock()
	provider := s.provider
	model := s.model
	s.providerMutex.RUnlock()

	if provider == nil {
		return nil, apperrors.NewCredentialMissingError("no API credential configured")
	}

	req := llm.ChatRequest{
		Messages:    contextToMessages(entries),
		Model:       model,
		Temperature: aiTemperature,
		MaxTokens:   aiMaxTokens,
	}

	resp, err := provider.ChatCompletion(ctx, req)
	if err != nil {
		return nil, apperrors.NewBackendError("AI completion failed", err)
	}

	reply := ParseCoachAnnotation(resp.Text)
	reply.Raw = resp.Text
	return &reply, nil
}

// ParseCoachAnnotation splits a raw completion into the displayed reply
// and the coach feedback. The annotation may appear anywhere in the text;
// it is removed verbatim (no whitespace collapsing inside the reply) and
// the ends are trimmed. Without an annotation the text passes through
// unchanged.
func ParseCoachAnnotation(raw string) AIReply {
	loc := coachPattern.FindStringSubmatchIndex(raw)
	if loc == nil {
		return AIReply{Text: raw}
	}

	text := strings.TrimSpace(raw[:loc[0]] + raw[loc[1]:])
	feedback := strings.TrimSpace(raw[loc[2]:loc[3]])

	return AIReply{Text: text, Feedback: feedback}
}

// contextToMessages maps context roles onto the wire roles understood by
// the completion API.
func contextToMessages(entries []models.ContextEntry) []llm.Message {
	messages := make([]llm.Message, 0, len(entries))
	for _, entry := range entries {
		role := llm.RoleUser
		switch entry.Role {
		case models.ContextRoleSystem:
			role = llm.RoleSystem
		case models.ContextRolePartner:
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: entry.Content})
	}
	return messages
}

func cloneConfig(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
