package extractor

import (
	"context"
	"math"

	openai "github.com/sashabaranov/go-openai"

	"github.com/voxinv/voxinv/internal/upstream"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// OpenAIAdapter implements Completer against any OpenAI-compatible chat
// completion endpoint (OpenAI itself, or Groq via baseURL override).
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

func (a *OpenAIAdapter) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	timeout := a.config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:    a.config.Model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	if opts.JSONObject {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	if opts.Temperature != nil {
		t := *opts.Temperature
		if t == 0 {
			// The SDK omits a zero temperature from the payload; the smallest
			// positive float is its documented way to request exactly 0.
			t = math.SmallestNonzeroFloat32
		}
		req.Temperature = t
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", upstream.Classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
