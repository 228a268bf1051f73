package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/relayproj/relay/backend/convo"
	"github.com/relayproj/relay/shared/resilience"
)

// AIProvider is the capability contract the pipeline engine consumes.
// Implementations own their transport; the engine only sees prompts,
// contexts and responses.
type AIProvider interface {
	// Execute sends a prompt together with the conversation context and
	// returns the provider's terminal response.
	Execute(ctx context.Context, prompt string, conversation *convo.Context) (*convo.Response, error)

	// Stream delivers the response as a finite sequence of chunks. The
	// channel is closed after the last chunk. Today every implementation
	// collapses to a single terminal chunk.
	Stream(ctx context.Context, prompt string, conversation *convo.Context) (<-chan Chunk, error)

	Capabilities() Capabilities
	Name() string
}

// Chunk is one element of a streamed response.
type Chunk struct {
	Text string
	Err  error
}

type Capabilities struct {
	SupportsStreaming bool `json:"supports_streaming"`
	SupportsContext   bool `json:"supports_context"`
	MaxTokens         int  `json:"max_tokens"`
}

func DefaultCapabilities() Capabilities {
	return Capabilities{
		SupportsStreaming: false,
		SupportsContext:   false,
		MaxTokens:         4096,
	}
}

// Options configure a concrete provider client.
type Options struct {
	BaseURL        string
	Model          string
	MaxTokens      int64
	CircuitBreaker *resilience.CircuitBreaker
}

type Option func(*Options)

func WithBaseURL(url string) Option {
	return func(o *Options) {
		o.BaseURL = url
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(maxTokens int64) Option {
	return func(o *Options) {
		o.MaxTokens = maxTokens
	}
}

func WithCircuitBreaker(breaker *resilience.CircuitBreaker) Option {
	return func(o *Options) {
		o.CircuitBreaker = breaker
	}
}

func defaultOptions(name string) *Options {
	return &Options{
		MaxTokens:      1024,
		CircuitBreaker: resilience.NewCircuitBreaker(name, 5, 10*time.Second),
	}
}

// singleChunkStream adapts a blocking Execute into the Stream contract:
// one terminal chunk, then close.
func singleChunkStream(ctx context.Context, p AIProvider, prompt string, conversation *convo.Context) (<-chan Chunk, error) {
	resp, err := p.Execute(ctx, prompt, conversation)
	if err != nil {
		return nil, err
	}

	out := make(chan Chunk, 1)
	out <- Chunk{Text: resp.Content}
	close(out)
	return out, nil
}

// annotate attaches the conversation-length marker providers report
// when they received a non-empty history.
func annotate(resp *convo.Response, conversation *convo.Context) *convo.Response {
	if len(conversation.ConversationHistory) > 0 {
		resp.WithMetadata("conversation_length", fmt.Sprintf("%d", len(conversation.ConversationHistory)))
	}
	return resp
}
