package llmprovider

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/agentmap-go/agentmap/agent/builtin"
)

// RoutedProvider implements LLMAgent's routing_enabled mode (spec
// §6): a task type, read from routingContext, selects among several
// pre-registered langchaingo llms.Model backends, falling back to a
// default backend when no task type is present or no backend is
// registered for it. Grounded on the teacher's llms/ernie package (an
// llms.Model implementation) and adapter/llm_adapter_test.go's
// observed GenerateContent/ContentResponse call shape, generalized
// from one hardcoded backend to a name-keyed routing table since
// "routing" here is a first-class spec concept, not an adapter detail.
type RoutedProvider struct {
	backends       map[string]llms.Model
	defaultBackend string
}

// NewRoutedProvider creates a routed provider. defaultBackend must be
// a key present in backends.
func NewRoutedProvider(defaultBackend string, backends map[string]llms.Model) *RoutedProvider {
	return &RoutedProvider{backends: backends, defaultBackend: defaultBackend}
}

// CallChat implements the chatCaller surface. provider/model are
// ignored in routing mode — backend selection is driven entirely by
// routingContext["task_type"].
func (p *RoutedProvider) CallChat(ctx context.Context, _, _ string, temperature float64, messages []builtin.Message, routingContext map[string]any) (string, error) {
	name := p.defaultBackend
	if routingContext != nil {
		if taskType, ok := routingContext["task_type"].(string); ok && taskType != "" {
			if _, exists := p.backends[taskType]; exists {
				name = taskType
			}
		}
	}

	backend, ok := p.backends[name]
	if !ok {
		return "", fmt.Errorf("llmprovider: no routed backend registered for %q", name)
	}

	opts := []llms.CallOption{llms.WithTemperature(temperature)}
	if routingContext != nil {
		if maxTokens, ok := routingContext["max_tokens"].(int); ok && maxTokens > 0 {
			opts = append(opts, llms.WithMaxTokens(maxTokens))
		}
	}

	resp, err := backend.GenerateContent(ctx, toContent(messages), opts...)
	if err != nil {
		return "", fmt.Errorf("llmprovider: routed backend %q generate content: %w", name, err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Content, nil
}

func toContent(messages []builtin.Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		out = append(out, llms.TextParts(chatMessageType(m.Role), m.Content))
	}
	return out
}

func chatMessageType(role string) llms.ChatMessageType {
	switch role {
	case "system":
		return llms.ChatMessageTypeSystem
	case "assistant":
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
