package provider

import (
	"context"
	"strconv"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/relayproj/relay/backend/convo"
	"github.com/relayproj/relay/shared/resilience"
)

const (
	CodexProviderName = "codex"

	defaultCodexModel  = "gpt-4o"
	codexContextWindow = 128_000
)

// CodexProvider talks to the OpenAI chat completions API.
type CodexProvider struct {
	client  *openai.Client
	name    string
	model   string
	window  int
	breaker *resilience.CircuitBreaker
}

func NewCodexProvider(apiKey string, opts ...Option) (*CodexProvider, error) {
	if apiKey == "" {
		return nil, NewError(CodexProviderName, ErrorKindUnauthenticated, nil)
	}

	options := defaultOptions(CodexProviderName)
	options.Model = defaultCodexModel
	for _, opt := range opts {
		opt(options)
	}

	return newChatCompletionProvider(CodexProviderName, apiKey, codexContextWindow, options), nil
}

// newChatCompletionProvider builds a provider over any OpenAI-compatible
// chat completions endpoint.
func newChatCompletionProvider(name, apiKey string, window int, options *Options) *CodexProvider {
	clientOptions := []option.RequestOption{option.WithAPIKey(apiKey)}
	if options.BaseURL != "" {
		clientOptions = append(clientOptions, option.WithBaseURL(options.BaseURL))
	}

	return &CodexProvider{
		client:  openai.NewClient(clientOptions...),
		name:    name,
		model:   options.Model,
		window:  window,
		breaker: options.CircuitBreaker,
	}
}

func (p *CodexProvider) Execute(ctx context.Context, prompt string, conversation *convo.Context) (*convo.Response, error) {
	if !p.breaker.Allow() {
		return nil, NewError(p.name, ErrorKindOverloaded, nil)
	}

	messages := p.transformHistory(conversation)
	messages = append(messages, openai.UserMessage(prompt))

	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.F(p.model),
		Messages: openai.F(messages),
	})
	p.breaker.RecordResult(err)
	if err != nil {
		return nil, p.parseError(err)
	}

	if len(completion.Choices) == 0 {
		return nil, NewError(p.name, ErrorKindInternal, nil)
	}

	resp := convo.NewResponse(completion.Choices[0].Message.Content).
		WithMetadata("model", p.model).
		WithMetadata("input_tokens", strconv.FormatInt(completion.Usage.PromptTokens, 10)).
		WithMetadata("output_tokens", strconv.FormatInt(completion.Usage.CompletionTokens, 10))
	return annotate(resp, conversation), nil
}

func (p *CodexProvider) Stream(ctx context.Context, prompt string, conversation *convo.Context) (<-chan Chunk, error) {
	return singleChunkStream(ctx, p, prompt, conversation)
}

func (p *CodexProvider) Capabilities() Capabilities {
	return Capabilities{
		SupportsStreaming: true,
		SupportsContext:   true,
		MaxTokens:         p.window,
	}
}

func (p *CodexProvider) Name() string {
	return p.name
}

func (p *CodexProvider) transformHistory(conversation *convo.Context) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	for _, msg := range conversation.ConversationHistory {
		switch msg.Role {
		case convo.RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case convo.RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case convo.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		}
	}
	return messages
}

func (p *CodexProvider) parseError(err error) *Error {
	if apiErr, ok := err.(*openai.Error); ok {
		return NewError(p.name, kindForStatus(apiErr.StatusCode), err)
	}
	if ctxErr := contextErrorKind(err); ctxErr != "" {
		return NewError(p.name, ctxErr, err)
	}
	return NewError(p.name, ErrorKindUnknown, err)
}
