// internal/services/account_service.go
package services

import (
	"strings"
	"sync"
	"time"

	"github.com/talkmate/talkmate/internal/config"
	apperrors "github.com/talkmate/talkmate/internal/errors"
	"github.com/talkmate/talkmate/internal/models"
	"github.com/talkmate/talkmate/internal/storage"
	"github.com/talkmate/talkmate/internal/utils"
)

// Keys used in the key-value store.
const (
	accountStateKey  = "user_account"
	apiCredentialKey = "openai_api_key"
)

// AccountService owns the user account state: premium flag, credit
// balance and the saved API credential. State is loaded once at startup
// and persisted back to the key-value store after every mutation.
type AccountService struct {
	mu      sync.Mutex
	store   storage.KVStore
	account *models.Account
	apiKey  string
	aiMode  bool
	ai      *AIService
	logger  *utils.Logger
	metrics *utils.MetricsCollector
}

// NewAccountService loads the persisted account state, falling back to
// the free-tier defaults for a fresh install.
func NewAccountService(store storage.KVStore, ai *AIService) (*AccountService, error) {
	s := &AccountService{
		store:   store,
		ai:      ai,
		logger:  utils.GetLogger().WithComponent("account"),
		metrics: utils.GetMetricsCollector(),
	}

	account := models.NewAccount()
	found, err := store.Get(accountStateKey, account)
	if err != nil {
		return nil, apperrors.NewProcessingError("loading account state", err)
	}
	if !found {
		account = models.NewAccount()
		if err := store.Set(accountStateKey, account); err != nil {
			return nil, apperrors.NewProcessingError("persisting initial account state", err)
		}
	}
	if account.Credits < 0 {
		account.Credits = 0
	}
	s.account = account

	var sealed string
	if found, err := store.Get(apiCredentialKey, &sealed); err == nil && found {
		cfg := config.GetCurrentConfig()
		apiKey, err := utils.Decrypt(sealed, cfg.CredentialSecret)
		if err != nil {
			// Secret changed or data corrupted; the key must be re-entered
			s.logger.Warn("saved API credential could not be decrypted", map[string]interface{}{"error": err})
		} else {
			s.apiKey = apiKey
			// The config file carries no credential, so a provider saved via
			// the settings API is wired here from the decrypted copy.
			if ai != nil && !ai.IsReady() {
				providerConfig := map[string]string{
					"api_key":       apiKey,
					"default_model": cfg.LLMConfig["default_model"],
				}
				if err := ai.UpdateProvider(cfg.LLMProvider, providerConfig); err != nil {
					s.logger.Warn("restoring AI provider from saved credential failed", map[string]interface{}{"error": err})
				}
			}
		}
	}

	// AI mode starts enabled whenever the account can use it
	s.aiMode = s.account.AIEligible(s.apiKey != "")

	return s, nil
}

// Status returns the API-facing view of the account.
func (s *AccountService) Status() models.AccountStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return models.AccountStatus{
		IsPremium:  s.account.IsPremium,
		Credits:    s.account.Credits,
		HasAPIKey:  s.apiKey != "",
		AIEligible: s.account.AIEligible(s.apiKey != ""),
		AIMode:     s.aiMode,
	}
}

// AIEligible reports whether the AI path may be used right now.
func (s *AccountService) AIEligible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.account.AIEligible(s.apiKey != "")
}

// AIMode reports whether AI responses are currently enabled.
func (s *AccountService) AIMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.aiMode
}

// SetAIMode enables or disables AI responses. Enabling requires an
// eligible account.
func (s *AccountService) SetAIMode(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if enabled && !s.account.AIEligible(s.apiKey != "") {
		return apperrors.NewInsufficientCreditsError(
			"buy credits or activate premium to enable AI responses")
	}

	s.aiMode = enabled
	return nil
}

// AddCredits adds amount credits to the balance and persists the state.
func (s *AccountService) AddCredits(amount int) error {
	if amount <= 0 {
		return apperrors.NewValidationError("credit amount must be positive", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.account.Credits += amount
	if err := s.persistLocked(); err != nil {
		s.account.Credits -= amount
		return err
	}

	s.logger.Info("credits added", map[string]interface{}{"amount": amount, "balance": s.account.Credits})
	return nil
}

// ConsumeCredit deducts one credit after a successful AI response.
// Premium accounts consume nothing.
func (s *AccountService) ConsumeCredit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.account.IsPremium {
		return nil
	}

	if s.account.Credits <= 0 {
		return apperrors.NewInsufficientCreditsError("no credits left")
	}

	s.account.Credits--
	if err := s.persistLocked(); err != nil {
		s.account.Credits++
		return err
	}

	s.metrics.IncrementCounter(utils.MetricCreditsConsumed)
	return nil
}

// SetPremium switches the premium subscription flag and persists it.
func (s *AccountService) SetPremium(premium bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.account.IsPremium
	s.account.IsPremium = premium
	if err := s.persistLocked(); err != nil {
		s.account.IsPremium = previous
		return err
	}

	s.logger.Info("premium status changed", map[string]interface{}{"premium": premium})
	return nil
}

// SetAPIKey saves the API credential, persists it under its own key and
// reconfigures the AI provider.
func (s *AccountService) SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return apperrors.NewValidationError("API key must not be empty", nil)
	}

	cfg := config.GetCurrentConfig()

	// Credentials are encrypted at rest
	sealed, err := utils.Encrypt(key, cfg.CredentialSecret)
	if err != nil {
		return apperrors.NewProcessingError("encrypting API credential", err)
	}

	s.mu.Lock()
	previous := s.apiKey
	s.apiKey = key
	if err := s.store.Set(apiCredentialKey, sealed); err != nil {
		s.apiKey = previous
		s.mu.Unlock()
		return apperrors.NewProcessingError("persisting API credential", err)
	}
	s.mu.Unlock()

	providerConfig := map[string]string{
		"api_key":       key,
		"default_model": cfg.LLMConfig["default_model"],
	}
	if err := config.UpdateLLMConfig(cfg.LLMProvider, providerConfig); err != nil {
		s.logger.Warn("saving LLM config failed", map[string]interface{}{"error": err})
	}

	if s.ai != nil {
		if err := s.ai.UpdateProvider(cfg.LLMProvider, providerConfig); err != nil {
			return err
		}
	}

	return nil
}

// HasAPIKey reports whether a credential is saved.
func (s *AccountService) HasAPIKey() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.apiKey != ""
}

// RemoveAPIKey deletes the saved credential.
func (s *AccountService) RemoveAPIKey() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Remove(apiCredentialKey); err != nil {
		return apperrors.NewProcessingError("removing API credential", err)
	}
	s.apiKey = ""
	s.aiMode = s.account.AIEligible(false) && s.aiMode

	return nil
}

func (s *AccountService) persistLocked() error {
	s.account.LastUpdated = time.Now()
	if err := s.store.Set(accountStateKey, s.account); err != nil {
		return apperrors.NewProcessingError("persisting account state", err)
	}
	return nil
}
