package convo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnhanceWithResponse(t *testing.T) {
	ctx := New()

	first := NewResponse("analysis done").WithMetadata("model", "claude-3-5-sonnet-latest")
	ctx.EnhanceWithResponse(first)

	assert.Equal(t, "analysis done", ctx.Metadata[MetadataLastResponse])
	assert.Equal(t, "claude-3-5-sonnet-latest", ctx.Metadata["response_model"])

	log, ok := ctx.Metadata[MetadataStepResults].([]any)
	require.True(t, ok)
	require.Len(t, log, 1)

	record := log[0].(map[string]any)
	assert.Equal(t, "analysis done", record["content"])
	assert.Equal(t, "claude-3-5-sonnet-latest", record["metadata"].(map[string]any)["model"])
	_, err := time.Parse(time.RFC3339, record["timestamp"].(string))
	assert.NoError(t, err)

	second := NewResponse("optimized")
	ctx.EnhanceWithResponse(second)

	assert.Equal(t, "optimized", ctx.Metadata[MetadataLastResponse])
	log = ctx.Metadata[MetadataStepResults].([]any)
	require.Len(t, log, 2)
	assert.Equal(t, "claude-3-5-sonnet-latest", ctx.Metadata["response_model"],
		"earlier response metadata stays visible")
}

func TestFilterForProviderRemovesExcludedKeys(t *testing.T) {
	ctx := New()
	ctx.Metadata["internal_debug"] = "trace"
	ctx.Metadata["keep_me"] = "yes"

	filtered := ctx.FilterForProvider("codex", []string{"internal_debug"})

	assert.NotContains(t, filtered.Metadata, "internal_debug")
	assert.Equal(t, "yes", filtered.Metadata["keep_me"])
	assert.Equal(t, "codex", filtered.Metadata[MetadataFilteredFor])
	assert.Contains(t, filtered.Scopes, "provider:codex")

	assert.Equal(t, "trace", ctx.Metadata["internal_debug"], "source untouched")
	assert.NotContains(t, ctx.Metadata, MetadataFilteredFor)
}

func TestFilterForProviderClaudeWindow(t *testing.T) {
	ctx := New()
	for i := 0; i < 15; i++ {
		ctx.AddMessage(NewMessage(RoleUser, "m"))
	}

	filtered := ctx.FilterForProvider("claude", nil)
	assert.Len(t, filtered.ConversationHistory, 10)
	assert.Len(t, ctx.ConversationHistory, 15)

	// Prefix match covers provider variants.
	variant := ctx.FilterForProvider("claude-opus", nil)
	assert.Len(t, variant.ConversationHistory, 10)
}

func TestFilterForProviderGeminiFocusMode(t *testing.T) {
	ctx := New()

	filtered := ctx.FilterForProvider("gemini", nil)
	assert.Equal(t, true, filtered.Metadata["focus_mode"])

	other := ctx.FilterForProvider("deepseek", nil)
	assert.NotContains(t, other.Metadata, "focus_mode")
}

func TestCleanupExpired(t *testing.T) {
	ctx := New()
	old := time.Now().Add(-2 * time.Hour).Format(time.RFC3339)
	fresh := time.Now().Format(time.RFC3339)
	ctx.Metadata[MetadataStepResults] = []any{
		map[string]any{"content": "stale", "timestamp": old},
		map[string]any{"content": "recent", "timestamp": fresh},
		map[string]any{"content": "unstamped"},
	}

	ctx.CleanupExpired(time.Hour)

	log := ctx.Metadata[MetadataStepResults].([]any)
	require.Len(t, log, 2)
	assert.Equal(t, "recent", log[0].(map[string]any)["content"])
	assert.Equal(t, "unstamped", log[1].(map[string]any)["content"],
		"entries without a parsable timestamp are kept")
}

func TestCleanupExpiredNoLog(t *testing.T) {
	ctx := New()
	ctx.CleanupExpired(time.Hour)
	assert.NotContains(t, ctx.Metadata, MetadataStepResults)
}
