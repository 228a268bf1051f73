package provider

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsRejectEmptyKey(t *testing.T) {
	tests := []struct {
		name string
		make func() error
	}{
		{name: "claude", make: func() error { _, err := NewClaudeProvider(""); return err }},
		{name: "codex", make: func() error { _, err := NewCodexProvider(""); return err }},
		{name: "gemini", make: func() error { _, err := NewGeminiProvider(""); return err }},
		{name: "deepseek", make: func() error { _, err := NewDeepSeekProvider(""); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.make()
			require.Error(t, err)

			var perr *Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, ErrorKindUnauthenticated, perr.Kind)
		})
	}
}

func TestProviderIdentities(t *testing.T) {
	claude, err := NewClaudeProvider("test-key")
	require.NoError(t, err)
	assert.Equal(t, "claude", claude.Name())

	codex, err := NewCodexProvider("test-key")
	require.NoError(t, err)
	assert.Equal(t, "codex", codex.Name())

	gemini, err := NewGeminiProvider("test-key")
	require.NoError(t, err)
	assert.Equal(t, "gemini", gemini.Name())

	deepseek, err := NewDeepSeekProvider("test-key")
	require.NoError(t, err)
	assert.Equal(t, "deepseek", deepseek.Name())
}

func TestProviderCapabilities(t *testing.T) {
	claude, err := NewClaudeProvider("test-key")
	require.NoError(t, err)

	caps := claude.Capabilities()
	assert.True(t, caps.SupportsStreaming)
	assert.True(t, caps.SupportsContext)
	assert.Equal(t, 200_000, caps.MaxTokens)

	gemini, err := NewGeminiProvider("test-key")
	require.NoError(t, err)
	assert.Equal(t, 100_000, gemini.Capabilities().MaxTokens)
}

func TestErrorRetryable(t *testing.T) {
	tests := []struct {
		kind       ErrorKind
		retryAfter time.Duration
		want       bool
		wantDelay  time.Duration
	}{
		{kind: ErrorKindRateLimitExceeded, retryAfter: 30 * time.Second, want: true, wantDelay: 30 * time.Second},
		{kind: ErrorKindRateLimitExceeded, want: true},
		{kind: ErrorKindOverloaded, want: true},
		{kind: ErrorKindInternal, want: true},
		{kind: ErrorKindTimeout, want: true},
		{kind: ErrorKindInvalidRequest, want: false},
		{kind: ErrorKindUnauthenticated, want: false},
		{kind: ErrorKindCanceled, want: false},
		{kind: ErrorKindUnknown, want: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := &Error{Provider: "claude", Kind: tt.kind, RetryAfter: tt.retryAfter}

			retryable, delay := err.Retryable()
			assert.Equal(t, tt.want, retryable)
			assert.Equal(t, tt.wantDelay, delay)
		})
	}
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewError("codex", ErrorKindInternal, cause)

	assert.Equal(t, "codex: internal server error: dial tcp: refused", err.Error())
	assert.ErrorIs(t, err, cause)

	rateLimited := &Error{Provider: "claude", Kind: ErrorKindRateLimitExceeded, RetryAfter: time.Minute}
	assert.Contains(t, rateLimited.Message(), "retry after 1m0s")
}
