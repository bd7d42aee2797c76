// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Current configuration singleton
var (
	currentConfig *AppConfig
	configMutex   sync.RWMutex
	configFile    string
)

// AppConfig holds the full application configuration, including the
// runtime-updatable LLM settings persisted to data/config.json.
type AppConfig struct {
	// Base configuration
	Port      string `json:"port"`
	DataDir   string `json:"data_dir"`
	LogDir    string `json:"log_dir"`
	DebugMode bool   `json:"debug_mode"`

	// Chat engine configuration
	ContextMaxEntries int           `json:"context_max_entries"`
	AIRequestTimeout  time.Duration `json:"ai_request_timeout"`

	// LLM configuration
	LLMProvider string            `json:"llm_provider"`
	LLMConfig   map[string]string `json:"llm_config"`

	// Secret used to encrypt saved credentials at rest; never persisted
	CredentialSecret string `json:"-"`
}

// Config is the base configuration loaded from the environment.
type Config struct {
	Port              string
	OpenAIAPIKey      string
	AIModel           string
	DataDir           string
	LogDir            string
	DebugMode         bool
	ContextMaxEntries int
	AIRequestTimeout  time.Duration
	CredentialSecret  string
}

// Load reads the base configuration from environment variables,
// optionally seeded from a .env file.
func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		Port:              getEnv("PORT", "8080"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		AIModel:           getEnv("AI_MODEL", "gpt-4o"),
		DataDir:           getEnvPath("DATA_DIR", "data"),
		LogDir:            getEnvPath("LOG_DIR", "logs"),
		DebugMode:         getEnvBool("DEBUG_MODE", true),
		ContextMaxEntries: getEnvInt("CONTEXT_MAX_ENTRIES", 11),
		AIRequestTimeout:  getEnvDuration("AI_REQUEST_TIMEOUT", 30*time.Second),
		CredentialSecret:  getEnv("CREDENTIAL_SECRET", "talkmate-dev-secret"),
	}

	if config.ContextMaxEntries < 2 {
		return nil, fmt.Errorf("CONTEXT_MAX_ENTRIES must leave room for the system entry plus at least one turn, got %d", config.ContextMaxEntries)
	}

	if config.OpenAIAPIKey == "" {
		// Warn only: the credential can be saved later from the settings API
		log.Println("warning: OPENAI_API_KEY not set, AI responses require a credential saved via the account settings")
	}

	return config, nil
}

// getEnv returns the environment variable or the default when unset.
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvPath returns the path from the environment, creating it if needed.
func getEnvPath(key, defaultValue string) string {
	path := getEnv(key, defaultValue)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			fmt.Printf("warning: creating directory %s failed: %v\n", path, err)
		}
	}

	return path
}

// getEnvBool reads a boolean environment variable.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt reads an integer environment variable.
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvDuration reads a duration environment variable ("30s", "1m").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

// InitConfig initializes the configuration manager, merging the base
// environment configuration with any settings saved in dataDir/config.json.
func InitConfig(dataDir string) error {
	configFile = filepath.Join(dataDir, "config.json")

	baseConfig, err := Load()
	if err != nil {
		return err
	}

	configMutex.Lock()
	defer configMutex.Unlock()

	currentConfig = &AppConfig{
		Port:              baseConfig.Port,
		DataDir:           baseConfig.DataDir,
		LogDir:            baseConfig.LogDir,
		DebugMode:         baseConfig.DebugMode,
		ContextMaxEntries: baseConfig.ContextMaxEntries,
		AIRequestTimeout:  baseConfig.AIRequestTimeout,
		CredentialSecret:  baseConfig.CredentialSecret,
		LLMProvider:       "openai",
		LLMConfig: map[string]string{
			"api_key":       baseConfig.OpenAIAPIKey,
			"default_model": baseConfig.AIModel,
		},
	}

	// Merge any previously saved configuration, keeping the LLM settings
	// from the file but always taking the fresh base configuration.
	if _, err := os.Stat(configFile); !os.IsNotExist(err) {
		data, err := os.ReadFile(configFile)
		if err == nil {
			var savedConfig AppConfig
			if json.Unmarshal(data, &savedConfig) == nil {
				savedConfig.Port = baseConfig.Port
				savedConfig.DataDir = baseConfig.DataDir
				savedConfig.LogDir = baseConfig.LogDir
				savedConfig.DebugMode = baseConfig.DebugMode
				if savedConfig.ContextMaxEntries < 2 {
					savedConfig.ContextMaxEntries = baseConfig.ContextMaxEntries
				}
				if savedConfig.AIRequestTimeout <= 0 {
					savedConfig.AIRequestTimeout = baseConfig.AIRequestTimeout
				}
				savedConfig.CredentialSecret = baseConfig.CredentialSecret

				if savedConfig.LLMConfig != nil && savedConfig.LLMConfig["api_key"] == "" {
					savedConfig.LLMConfig["api_key"] = baseConfig.OpenAIAPIKey
				}

				currentConfig = &savedConfig
			}
		}
	}

	return SaveConfig()
}

// GetCurrentConfig returns a copy of the current configuration.
func GetCurrentConfig() *AppConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if currentConfig == nil {
		// Last resort, build a minimal configuration from the environment
		baseConfig, _ := Load()
		return &AppConfig{
			Port:              baseConfig.Port,
			DataDir:           baseConfig.DataDir,
			LogDir:            baseConfig.LogDir,
			DebugMode:         baseConfig.DebugMode,
			ContextMaxEntries: baseConfig.ContextMaxEntries,
			AIRequestTimeout:  baseConfig.AIRequestTimeout,
			CredentialSecret:  baseConfig.CredentialSecret,
			LLMProvider:       "openai",
			LLMConfig: map[string]string{
				"api_key":       baseConfig.OpenAIAPIKey,
				"default_model": baseConfig.AIModel,
			},
		}
	}

	configCopy := *currentConfig
	return &configCopy
}

// UpdateLLMConfig replaces the LLM provider settings and persists them.
func UpdateLLMConfig(provider string, config map[string]string) error {
	configMutex.Lock()
	defer configMutex.Unlock()

	if currentConfig == nil {
		return fmt.Errorf("configuration system not initialized")
	}

	currentConfig.LLMProvider = provider
	currentConfig.LLMConfig = config

	return saveConfigLocked()
}

// SaveConfig persists the current configuration to the config file.
func SaveConfig() error {
	if currentConfig == nil {
		return fmt.Errorf("no configuration to save")
	}
	return saveConfigLocked()
}

func saveConfigLocked() error {
	dir := filepath.Dir(configFile)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	// The API credential never goes to the config file in the clear; it
	// lives encrypted in the key-value store and is re-injected at startup.
	persisted := *currentConfig
	if persisted.LLMConfig != nil {
		redacted := make(map[string]string, len(persisted.LLMConfig))
		for k, v := range persisted.LLMConfig {
			if k == "api_key" {
				continue
			}
			redacted[k] = v
		}
		persisted.LLMConfig = redacted
	}

	data, err := json.MarshalIndent(&persisted, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing config: %w", err)
	}

	return os.WriteFile(configFile, data, 0644)
}
