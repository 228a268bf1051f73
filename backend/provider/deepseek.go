package provider

import (
	"context"
	"strconv"

	deepseek "github.com/cohesion-org/deepseek-go"
	"github.com/cohesion-org/deepseek-go/constants"

	"github.com/relayproj/relay/backend/convo"
	"github.com/relayproj/relay/shared/resilience"
)

const (
	DeepSeekProviderName = "deepseek"

	deepseekContextWindow = 64_000
)

// DeepSeekProvider talks to the DeepSeek chat completions API.
type DeepSeekProvider struct {
	client  *deepseek.Client
	model   string
	breaker *resilience.CircuitBreaker
}

func NewDeepSeekProvider(apiKey string, opts ...Option) (*DeepSeekProvider, error) {
	if apiKey == "" {
		return nil, NewError(DeepSeekProviderName, ErrorKindUnauthenticated, nil)
	}

	options := defaultOptions(DeepSeekProviderName)
	options.Model = deepseek.DeepSeekChat
	for _, opt := range opts {
		opt(options)
	}

	return &DeepSeekProvider{
		client:  deepseek.NewClient(apiKey),
		model:   options.Model,
		breaker: options.CircuitBreaker,
	}, nil
}

func (p *DeepSeekProvider) Execute(ctx context.Context, prompt string, conversation *convo.Context) (*convo.Response, error) {
	if !p.breaker.Allow() {
		return nil, NewError(DeepSeekProviderName, ErrorKindOverloaded, nil)
	}

	messages := p.transformHistory(conversation)
	messages = append(messages, deepseek.ChatCompletionMessage{
		Role:    constants.ChatMessageRoleUser,
		Content: prompt,
	})

	completion, err := p.client.CreateChatCompletion(ctx, &deepseek.ChatCompletionRequest{
		Model:    p.model,
		Messages: messages,
	})
	p.breaker.RecordResult(err)
	if err != nil {
		if ctxErr := contextErrorKind(err); ctxErr != "" {
			return nil, NewError(DeepSeekProviderName, ctxErr, err)
		}
		return nil, NewError(DeepSeekProviderName, ErrorKindUnknown, err)
	}

	if len(completion.Choices) == 0 {
		return nil, NewError(DeepSeekProviderName, ErrorKindInternal, nil)
	}

	resp := convo.NewResponse(completion.Choices[0].Message.Content).
		WithMetadata("model", p.model).
		WithMetadata("input_tokens", strconv.Itoa(completion.Usage.PromptTokens)).
		WithMetadata("output_tokens", strconv.Itoa(completion.Usage.CompletionTokens))
	return annotate(resp, conversation), nil
}

func (p *DeepSeekProvider) Stream(ctx context.Context, prompt string, conversation *convo.Context) (<-chan Chunk, error) {
	return singleChunkStream(ctx, p, prompt, conversation)
}

func (p *DeepSeekProvider) Capabilities() Capabilities {
	return Capabilities{
		SupportsStreaming: true,
		SupportsContext:   true,
		MaxTokens:         deepseekContextWindow,
	}
}

func (p *DeepSeekProvider) Name() string {
	return DeepSeekProviderName
}

func (p *DeepSeekProvider) transformHistory(conversation *convo.Context) []deepseek.ChatCompletionMessage {
	var messages []deepseek.ChatCompletionMessage
	for _, msg := range conversation.ConversationHistory {
		role := constants.ChatMessageRoleUser
		switch msg.Role {
		case convo.RoleSystem:
			role = constants.ChatMessageRoleSystem
		case convo.RoleAssistant:
			role = constants.ChatMessageRoleAssistant
		}
		messages = append(messages, deepseek.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}
	return messages
}
