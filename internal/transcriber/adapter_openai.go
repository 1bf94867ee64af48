package transcriber

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/voxinv/voxinv/internal/upstream"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// OpenAIAdapter implements Adapter against any OpenAI-compatible
// transcription endpoint (OpenAI itself, or Groq via baseURL override).
// The SDK posts the audio as a multipart body with the model field and a
// bearer credential, which is exactly the wire contract of the upstream.
type OpenAIAdapter struct {
	client *openai.Client
	config Config
}

func newOpenAIAdapter(config Config, baseURL string) *OpenAIAdapter {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	return &OpenAIAdapter{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

// Transcribe uploads the audio file and returns the transcript. An empty
// transcript with a successful status is returned as "" without error; the
// caller decides what an empty recognition means.
func (a *OpenAIAdapter) Transcribe(ctx context.Context, audioPath, mimeType string) (string, error) {
	timeout := a.config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := openai.AudioRequest{
		Model:    a.config.Model,
		FilePath: audioPath,
		Language: a.config.Language,
	}

	resp, err := a.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", upstream.Classify(err)
	}

	return resp.Text, nil
}
