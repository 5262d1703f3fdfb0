// Package llmprovider implements the two language-model service modes
// agent/builtin.LLMAgent dispatches between (spec §6): direct mode,
// where the node's own provider/model configuration picks a single
// backend, and routing mode, where a task type picks among several
// pre-registered backends. Both satisfy agent/builtin's unexported
// chatCaller surface (CallChat) structurally, so neither provider
// imports agent/builtin's interface — only its Message value type.
package llmprovider

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/agentmap-go/agentmap/agent/builtin"
)

// OpenAIProvider implements direct mode against a single OpenAI (or
// OpenAI-compatible) endpoint via sashabaranov/go-openai. Grounded on
// the teacher's llms/ernie package's direct-client-wrapping shape
// (llms/ernie/erniellm.go), adapted from langchaingo's llms.Model
// surface to the narrower CallChat contract this domain's LLMAgent
// needs.
type OpenAIProvider struct {
	client       *openai.Client
	defaultModel string
}

// NewOpenAIProvider creates a provider against the public OpenAI API.
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return NewOpenAIProviderWithClient(openai.NewClient(apiKey), "")
}

// NewOpenAIProviderWithConfig creates a provider against a custom
// endpoint (an OpenAI-compatible gateway, or a test server), using
// openai.DefaultConfig plus a BaseURL override.
func NewOpenAIProviderWithConfig(apiKey, baseURL string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return NewOpenAIProviderWithClient(openai.NewClientWithConfig(cfg), "")
}

// NewOpenAIProviderWithClient wraps an already-configured client, the
// seam used by tests.
func NewOpenAIProviderWithClient(client *openai.Client, defaultModel string) *OpenAIProvider {
	return &OpenAIProvider{client: client, defaultModel: defaultModel}
}

// CallChat implements the chatCaller surface. routingContext is
// ignored in direct mode — model selection is entirely the caller's
// (LLMAgent's) responsibility here.
func (p *OpenAIProvider) CallChat(ctx context.Context, provider, model string, temperature float64, messages []builtin.Message, _ map[string]any) (string, error) {
	if model == "" {
		model = p.defaultModel
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: float32(temperature),
		Messages:    toOpenAIMessages(messages),
	})
	if err != nil {
		return "", fmt.Errorf("llmprovider: openai chat completion for provider %q model %q: %w", provider, model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llmprovider: openai returned no choices for provider %q", provider)
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []builtin.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: openAIRole(m.Role), Content: m.Content})
	}
	return out
}

func openAIRole(role string) string {
	switch role {
	case "system":
		return openai.ChatMessageRoleSystem
	case "assistant":
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
