package pipeline

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/relayproj/relay/backend/convo"
)

// Transform post-processes a single step's response before it is folded
// into the pipeline result. Transforms are pure with respect to the
// shared context; a transform failure aborts the owning step.
type Transform interface {
	Transform(resp *convo.Response) (*convo.Response, error)
	Name() string
}

type TransformErrorKind string

const (
	TransformErrorKindJSONParse     TransformErrorKind = "json_parse"
	TransformErrorKindFieldNotFound TransformErrorKind = "field_not_found"
	TransformErrorKindOperation     TransformErrorKind = "operation"
)

type TransformError struct {
	Kind  TransformErrorKind
	Field string
	Err   error
}

func (e *TransformError) Error() string {
	switch e.Kind {
	case TransformErrorKindJSONParse:
		if e.Err != nil {
			return fmt.Sprintf("JSON parsing failed: %s", e.Err)
		}
		return "JSON parsing failed: content is not valid JSON"
	case TransformErrorKindFieldNotFound:
		return fmt.Sprintf("field %q not found in JSON", e.Field)
	default:
		if e.Err != nil {
			return fmt.Sprintf("transform operation failed: %s", e.Err)
		}
		return "transform operation failed"
	}
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// IdentityTransform passes responses through unchanged.
type IdentityTransform struct{}

func (IdentityTransform) Transform(resp *convo.Response) (*convo.Response, error) {
	return resp, nil
}

func (IdentityTransform) Name() string {
	return "identity"
}

// FallbackBehavior selects what a JSON extractor does when the field is
// absent from otherwise valid JSON.
type FallbackBehavior int

const (
	FallbackKeepOriginal FallbackBehavior = iota
	FallbackReturnEmpty
	FallbackReturnError
)

// JSONExtractorTransform replaces the response content with one field
// of its JSON body. String values are taken verbatim; any other JSON
// value keeps its JSON text representation.
type JSONExtractorTransform struct {
	field    string
	fallback FallbackBehavior
}

func NewJSONExtractor(field string) *JSONExtractorTransform {
	return &JSONExtractorTransform{field: field, fallback: FallbackKeepOriginal}
}

func NewJSONExtractorWithFallback(field string, fallback FallbackBehavior) *JSONExtractorTransform {
	return &JSONExtractorTransform{field: field, fallback: fallback}
}

func (t *JSONExtractorTransform) Transform(resp *convo.Response) (*convo.Response, error) {
	if !gjson.Valid(resp.Content) {
		return nil, &TransformError{Kind: TransformErrorKindJSONParse}
	}

	value := gjson.Get(resp.Content, escapeFieldPath(t.field))
	if value.Exists() {
		if value.Type == gjson.String {
			resp.Content = value.String()
		} else {
			resp.Content = value.Raw
		}
		return resp, nil
	}

	switch t.fallback {
	case FallbackReturnEmpty:
		resp.Content = ""
	case FallbackReturnError:
		return nil, &TransformError{Kind: TransformErrorKindFieldNotFound, Field: t.field}
	}
	return resp, nil
}

func (t *JSONExtractorTransform) Name() string {
	return "json_extractor"
}

// escapeFieldPath treats the field name as a literal key rather than a
// gjson path expression.
func escapeFieldPath(field string) string {
	var out strings.Builder
	for _, r := range field {
		switch r {
		case '.', '*', '?', '\\', '|', '#', '@':
			out.WriteRune('\\')
		}
		out.WriteRune(r)
	}
	return out.String()
}

// SummarizerTransform truncates content to at most maxLength Unicode
// code points, keeping the prefix. Truncation never splits a character.
type SummarizerTransform struct {
	maxLength int
}

func NewSummarizer(maxLength int) *SummarizerTransform {
	// Lengths below zero are treated as zero.
	return &SummarizerTransform{maxLength: max(maxLength, 0)}
}

func (t *SummarizerTransform) Transform(resp *convo.Response) (*convo.Response, error) {
	runes := []rune(resp.Content)
	if len(runes) > t.maxLength {
		resp.Content = string(runes[:t.maxLength])
	}
	return resp, nil
}

func (t *SummarizerTransform) Name() string {
	return "summarizer"
}
