// Package config loads and watches the voxinv configuration: which providers
// and models the pipeline talks to, its timeouts, and logging. Credentials can
// live in the TOML file, in a .env file, or in the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/voxinv/voxinv/internal/extractor"
	"github.com/voxinv/voxinv/internal/transcriber"
)

type Config struct {
	Transcription TranscriptionConfig `toml:"transcription"`
	Completion    CompletionConfig    `toml:"completion"`
	Pipeline      PipelineConfig      `toml:"pipeline"`
	Logging       LoggingConfig       `toml:"logging"`
}

type TranscriptionConfig struct {
	Provider string `toml:"provider"`
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`
	Language string `toml:"language"`
}

type CompletionConfig struct {
	Provider string `toml:"provider"`
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`
}

type PipelineConfig struct {
	// RequestTimeout bounds a single transcription or extraction call.
	RequestTimeout time.Duration `toml:"request_timeout"`
	// ReconcileTimeout bounds the batched catalog comparison call.
	ReconcileTimeout time.Duration `toml:"reconcile_timeout"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

var validProviders = map[string]bool{"openai": true, "groq": true}

// apiKeyEnv names the environment fallback for each provider's credential.
var apiKeyEnv = map[string]string{
	"openai": "OPENAI_API_KEY",
	"groq":   "GROQ_API_KEY",
}

func (c *TranscriptionConfig) ResolvedAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	return os.Getenv(apiKeyEnv[c.Provider])
}

func (c *CompletionConfig) ResolvedAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	return os.Getenv(apiKeyEnv[c.Provider])
}

func (c *Config) ToTranscriberConfig() transcriber.Config {
	return transcriber.Config{
		Provider: c.Transcription.Provider,
		APIKey:   c.Transcription.ResolvedAPIKey(),
		Model:    c.Transcription.Model,
		Language: c.Transcription.Language,
		Timeout:  c.Pipeline.RequestTimeout,
	}
}

func (c *Config) ToCompleterConfig() extractor.Config {
	return extractor.Config{
		Provider: c.Completion.Provider,
		APIKey:   c.Completion.ResolvedAPIKey(),
		Model:    c.Completion.Model,
		Timeout:  c.Pipeline.RequestTimeout,
	}
}

func (c *Config) Validate() error {
	if !validProviders[c.Transcription.Provider] {
		return fmt.Errorf("invalid transcription.provider: %q (must be openai or groq)", c.Transcription.Provider)
	}
	if c.Transcription.Model == "" {
		return fmt.Errorf("invalid transcription.model: empty")
	}
	if c.Transcription.ResolvedAPIKey() == "" {
		return fmt.Errorf("%s API key required: not found in config (transcription.api_key) or environment variable (%s)",
			c.Transcription.Provider, apiKeyEnv[c.Transcription.Provider])
	}

	if !validProviders[c.Completion.Provider] {
		return fmt.Errorf("invalid completion.provider: %q (must be openai or groq)", c.Completion.Provider)
	}
	if c.Completion.Model == "" {
		return fmt.Errorf("invalid completion.model: empty")
	}
	if c.Completion.ResolvedAPIKey() == "" {
		return fmt.Errorf("%s API key required: not found in config (completion.api_key) or environment variable (%s)",
			c.Completion.Provider, apiKeyEnv[c.Completion.Provider])
	}

	if c.Pipeline.RequestTimeout <= 0 {
		return fmt.Errorf("invalid pipeline.request_timeout: %v", c.Pipeline.RequestTimeout)
	}
	if c.Pipeline.ReconcileTimeout <= 0 {
		return fmt.Errorf("invalid pipeline.reconcile_timeout: %v", c.Pipeline.ReconcileTimeout)
	}

	validLevels := map[string]bool{"": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	validFormats := map[string]bool{"": true, "text": true, "json": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid logging.format: %q", c.Logging.Format)
	}

	return nil
}

func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	voxinvDir := filepath.Join(configDir, "voxinv")
	if err := os.MkdirAll(voxinvDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(voxinvDir, "config.toml"), nil
}

// Load reads the config file, creating it with defaults when absent. A .env
// file in the working directory is folded into the environment first so
// credentials can be kept out of the TOML file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(configPath)
}

func LoadFile(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := SaveDefaultConfig(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	var config Config
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}
	return &config, nil
}

// Save writes the configuration to the default path, keeping the commented
// layout of the generated file.
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(configPath, cfg)
}

func SaveTo(configPath string, cfg *Config) error {
	content := fmt.Sprintf(`# Voxinv Configuration
# This file is automatically generated.
# Edit values as needed - changes are applied immediately without daemon restart.

# Speech Transcription Configuration
[transcription]
  provider = %q
  api_key = %q
  model = %q
  language = %q

# Text Completion Configuration (item extraction and catalog reconciliation)
[completion]
  provider = %q
  api_key = %q
  model = %q

# Pipeline Configuration
[pipeline]
  request_timeout = %q
  reconcile_timeout = %q

# Logging Configuration
[logging]
  level = %q
  format = %q
`,
		cfg.Transcription.Provider, cfg.Transcription.APIKey, cfg.Transcription.Model, cfg.Transcription.Language,
		cfg.Completion.Provider, cfg.Completion.APIKey, cfg.Completion.Model,
		cfg.Pipeline.RequestTimeout.String(), cfg.Pipeline.ReconcileTimeout.String(),
		cfg.Logging.Level, cfg.Logging.Format)

	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func SaveDefaultConfig(configPath string) error {
	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	configContent := `# Voxinv Configuration
# This file is automatically generated with defaults.
# Edit values as needed - changes are applied immediately without daemon restart.

# Speech Transcription Configuration
[transcription]
  provider = "openai"             # Transcription service ("openai" or "groq")
  api_key = ""                    # API key (or set OPENAI_API_KEY / GROQ_API_KEY, also read from .env)
  model = "gpt-4o-transcribe"     # Transcription model name
  language = ""                   # Language code hint (empty for auto-detect, "fr", "en", etc.)

# Text Completion Configuration (item extraction and catalog reconciliation)
[completion]
  provider = "openai"             # Completion service ("openai" or "groq")
  api_key = ""                    # API key (or set OPENAI_API_KEY / GROQ_API_KEY, also read from .env)
  model = "gpt-4o-mini"           # Completion model name

# Pipeline Configuration
[pipeline]
  request_timeout = "60s"         # Upper bound for one transcription or extraction call
  reconcile_timeout = "45s"       # Upper bound for the batched catalog comparison call

# Logging Configuration
[logging]
  level = "info"                  # "debug", "info", "warn" or "error"
  format = "text"                 # "text" or "json"
`

	if _, err := file.WriteString(configContent); err != nil {
		return fmt.Errorf("failed to write config content: %w", err)
	}

	return nil
}
