// Package transcriber sends recorded audio to an external speech-to-text
// service and returns the transcript. Recognition is always delegated; there
// is no local fallback.
package transcriber

import (
	"context"
	"fmt"
	"time"

	"github.com/voxinv/voxinv/internal/upstream"
)

// Adapter is the transcription backend. Implementations return the transcript
// text, which may legitimately be empty when the upstream recognized nothing.
type Adapter interface {
	Transcribe(ctx context.Context, audioPath, mimeType string) (string, error)
}

// Config for a transcription client.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	Language string
	// Timeout bounds a single transcription call. Zero means DefaultTimeout.
	Timeout time.Duration
}

// DefaultTimeout bounds one transcription round-trip.
const DefaultTimeout = 60 * time.Second

func DefaultConfig() Config {
	return Config{
		Provider: "openai",
		Model:    "gpt-4o-transcribe",
	}
}

// NewAdapter creates the transcription adapter for the configured provider.
// The credential is checked here, before anything touches the network.
func NewAdapter(config Config) (Adapter, error) {
	if config.APIKey == "" {
		return nil, upstream.NewConfigError(fmt.Sprintf("%s API key not configured for transcription", config.Provider))
	}

	switch config.Provider {
	case "openai", "":
		return newOpenAIAdapter(config, ""), nil
	case "groq":
		return newOpenAIAdapter(config, groqBaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported transcription provider: %s", config.Provider)
	}
}
