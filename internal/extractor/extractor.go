// Package extractor talks to the external chat-completion service. It builds
// the instruction prompts (bare item names, location-aware extraction, batched
// catalog reconciliation, inventory chat) and returns the model's raw textual
// reply. It never inspects the reply's structure; that is the parser's job.
package extractor

import (
	"context"
	"fmt"
	"time"

	"github.com/voxinv/voxinv/internal/upstream"
)

// Message is one chat message of the completion request.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Options tune a single completion call.
type Options struct {
	// JSONObject requests the upstream's structured JSON response mode.
	JSONObject bool
	// Temperature overrides the sampling temperature. Nil keeps the upstream
	// default; pointing at 0 pins the most deterministic setting.
	Temperature *float32
}

// Completer is the completion backend. The returned string is the content of
// the first choice, or "" when the upstream answered without any choices.
type Completer interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
}

// Config for a completion client.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	// Timeout bounds a single completion call. Zero means DefaultTimeout.
	Timeout time.Duration
}

// DefaultTimeout bounds one completion round-trip.
const DefaultTimeout = 60 * time.Second

func DefaultConfig() Config {
	return Config{
		Provider: "openai",
		Model:    "gpt-4o-mini",
	}
}

// NewCompleter creates the completion adapter for the configured provider.
// The credential is checked here, before anything touches the network.
func NewCompleter(config Config) (Completer, error) {
	if config.APIKey == "" {
		return nil, upstream.NewConfigError(fmt.Sprintf("%s API key not configured for completion", config.Provider))
	}

	switch config.Provider {
	case "openai", "":
		return newOpenAIAdapter(config, ""), nil
	case "groq":
		return newOpenAIAdapter(config, groqBaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported completion provider: %s", config.Provider)
	}
}
