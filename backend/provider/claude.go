package provider

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/relayproj/relay/backend/convo"
	"github.com/relayproj/relay/shared/resilience"
)

const (
	ClaudeProviderName = "claude"

	defaultClaudeModel     = "claude-3-5-sonnet-latest"
	claudeContextWindow    = 200_000
	claudeDefaultMaxTokens = 1024
)

// ClaudeProvider talks to the Anthropic Messages API.
type ClaudeProvider struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
	breaker   *resilience.CircuitBreaker
}

func NewClaudeProvider(apiKey string, opts ...Option) (*ClaudeProvider, error) {
	if apiKey == "" {
		return nil, NewError(ClaudeProviderName, ErrorKindUnauthenticated, nil)
	}

	options := defaultOptions(ClaudeProviderName)
	options.Model = defaultClaudeModel
	options.MaxTokens = claudeDefaultMaxTokens
	for _, opt := range opts {
		opt(options)
	}

	clientOptions := []option.RequestOption{option.WithAPIKey(apiKey)}
	if options.BaseURL != "" {
		clientOptions = append(clientOptions, option.WithBaseURL(options.BaseURL))
	}

	return &ClaudeProvider{
		client:    anthropic.NewClient(clientOptions...),
		model:     options.Model,
		maxTokens: options.MaxTokens,
		breaker:   options.CircuitBreaker,
	}, nil
}

func (p *ClaudeProvider) Execute(ctx context.Context, prompt string, conversation *convo.Context) (*convo.Response, error) {
	if !p.breaker.Allow() {
		return nil, NewError(ClaudeProviderName, ErrorKindOverloaded, nil)
	}

	system, messages := p.transformHistory(conversation)
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)))

	request := anthropic.MessageNewParams{
		Model:     anthropic.F(p.model),
		MaxTokens: anthropic.F(p.maxTokens),
		Messages:  anthropic.F(messages),
	}
	if system != "" {
		request.System = anthropic.F([]anthropic.TextBlockParam{
			{
				Type: anthropic.F(anthropic.TextBlockParamTypeText),
				Text: anthropic.F(system),
			},
		})
	}

	message, err := p.client.Messages.New(ctx, request)
	p.breaker.RecordResult(err)
	if err != nil {
		return nil, p.parseError(err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		switch block := block.AsUnion().(type) {
		case anthropic.TextBlock:
			text.WriteString(block.Text)
		}
	}

	resp := convo.NewResponse(text.String()).
		WithMetadata("model", p.model).
		WithMetadata("input_tokens", strconv.FormatInt(message.Usage.InputTokens, 10)).
		WithMetadata("output_tokens", strconv.FormatInt(message.Usage.OutputTokens, 10))
	return annotate(resp, conversation), nil
}

func (p *ClaudeProvider) Stream(ctx context.Context, prompt string, conversation *convo.Context) (<-chan Chunk, error) {
	return singleChunkStream(ctx, p, prompt, conversation)
}

func (p *ClaudeProvider) Capabilities() Capabilities {
	return Capabilities{
		SupportsStreaming: true,
		SupportsContext:   true,
		MaxTokens:         claudeContextWindow,
	}
}

func (p *ClaudeProvider) Name() string {
	return ClaudeProviderName
}

// transformHistory maps the shared conversation into the Anthropic wire
// shape: system messages are folded into the system prompt, the rest
// become user/assistant turns.
func (p *ClaudeProvider) transformHistory(conversation *convo.Context) (string, []anthropic.MessageParam) {
	var system strings.Builder
	var messages []anthropic.MessageParam

	for _, msg := range conversation.ConversationHistory {
		switch msg.Role {
		case convo.RoleSystem:
			if system.Len() > 0 {
				system.WriteString("\n\n")
			}
			system.WriteString(msg.Content)
		case convo.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case convo.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	return system.String(), messages
}

func (p *ClaudeProvider) parseError(err error) *Error {
	if apiErr, ok := err.(*anthropic.Error); ok {
		kind := kindForStatus(apiErr.StatusCode)
		perr := NewError(ClaudeProviderName, kind, err)

		if retryAfter := apiErr.Response.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, convErr := strconv.Atoi(retryAfter); convErr == nil {
				perr.RetryAfter = time.Duration(seconds) * time.Second
			}
		}
		// Anthropic reports overload with a dedicated status code.
		if apiErr.StatusCode == 529 {
			perr.Kind = ErrorKindOverloaded
		}
		return perr
	}

	if ctxErr := contextErrorKind(err); ctxErr != "" {
		return NewError(ClaudeProviderName, ctxErr, err)
	}
	return NewError(ClaudeProviderName, ErrorKindUnknown, err)
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == 400:
		return ErrorKindInvalidRequest
	case status == 401 || status == 403:
		return ErrorKindUnauthenticated
	case status == 429:
		return ErrorKindRateLimitExceeded
	case status >= 500:
		return ErrorKindInternal
	default:
		return ErrorKindUnknown
	}
}

func contextErrorKind(err error) ErrorKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorKindTimeout
	case errors.Is(err, context.Canceled):
		return ErrorKindCanceled
	default:
		return ""
	}
}
