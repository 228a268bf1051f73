package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayproj/relay/backend/convo"
)

func TestIdentityTransform(t *testing.T) {
	resp := convo.NewResponse("unchanged").WithMetadata("model", "test")

	out, err := IdentityTransform{}.Transform(resp)

	require.NoError(t, err)
	assert.Equal(t, "unchanged", out.Content)
	assert.Equal(t, "test", out.Metadata["model"])
}

func TestJSONExtractor(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		content string
		want    string
	}{
		{
			name:    "string field verbatim",
			field:   "result",
			content: `{"result": "extracted value", "other": "ignored"}`,
			want:    "extracted value",
		},
		{
			name:    "number keeps JSON text",
			field:   "count",
			content: `{"count": 42}`,
			want:    "42",
		},
		{
			name:    "object keeps JSON text",
			field:   "data",
			content: `{"data": {"a": 1}}`,
			want:    `{"a": 1}`,
		},
		{
			name:    "boolean keeps JSON text",
			field:   "ok",
			content: `{"ok": true}`,
			want:    "true",
		},
		{
			name:    "dotted key is a literal name",
			field:   "a.b",
			content: `{"a.b": "flat", "a": {"b": "nested"}}`,
			want:    "flat",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewJSONExtractor(tt.field).Transform(convo.NewResponse(tt.content))

			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Content)
		})
	}
}

func TestJSONExtractorInvalidJSON(t *testing.T) {
	_, err := NewJSONExtractor("field").Transform(convo.NewResponse("not json at all"))

	require.Error(t, err)
	var terr *TransformError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, TransformErrorKindJSONParse, terr.Kind)
	assert.Contains(t, err.Error(), "JSON parsing failed")
}

func TestJSONExtractorFallbacks(t *testing.T) {
	content := `{"present": "here"}`

	t.Run("keep original", func(t *testing.T) {
		out, err := NewJSONExtractorWithFallback("missing", FallbackKeepOriginal).
			Transform(convo.NewResponse(content))
		require.NoError(t, err)
		assert.Equal(t, content, out.Content)
	})

	t.Run("return empty", func(t *testing.T) {
		out, err := NewJSONExtractorWithFallback("missing", FallbackReturnEmpty).
			Transform(convo.NewResponse(content))
		require.NoError(t, err)
		assert.Empty(t, out.Content)
	})

	t.Run("return error", func(t *testing.T) {
		_, err := NewJSONExtractorWithFallback("missing", FallbackReturnError).
			Transform(convo.NewResponse(content))
		require.Error(t, err)

		var terr *TransformError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, TransformErrorKindFieldNotFound, terr.Kind)
		assert.Equal(t, "missing", terr.Field)
		assert.Contains(t, err.Error(), `field "missing" not found`)
	})
}

func TestSummarizer(t *testing.T) {
	tests := []struct {
		name      string
		maxLength int
		content   string
		want      string
	}{
		{name: "short content untouched", maxLength: 100, content: "short", want: "short"},
		{name: "exact length untouched", maxLength: 5, content: "exact", want: "exact"},
		{name: "long content truncated", maxLength: 5, content: "a longer sentence", want: "a lon"},
		{name: "multibyte safe", maxLength: 5, content: "これは日本語のテスト", want: "これは日本"},
		{name: "zero length clears", maxLength: 0, content: "anything", want: ""},
		{name: "negative length treated as zero", maxLength: -3, content: "anything", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewSummarizer(tt.maxLength).Transform(convo.NewResponse(tt.content))

			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Content)
		})
	}
}
