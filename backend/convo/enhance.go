package convo

import (
	"slices"
	"strings"
	"time"
)

const (
	// MetadataLastResponse holds the content of the most recent step
	// response folded into this context.
	MetadataLastResponse = "last_response"

	// MetadataStepResults holds the accumulating log of step responses,
	// one record per step, in execution order.
	MetadataStepResults = "step_results"

	// MetadataFilteredFor marks a context derived by FilterForProvider.
	MetadataFilteredFor = "filtered_for_provider"

	// responseKeyPrefix namespaces response metadata copied into the
	// context so later steps can read earlier step signals.
	responseKeyPrefix = "response_"

	// claudeHistoryWindow is the number of trailing messages kept when
	// filtering for the claude provider family.
	claudeHistoryWindow = 10
)

// EnhanceWithResponse folds a step response into the context metadata:
// the content becomes last_response, a structured record is appended to
// the step_results log, and every response metadata entry is copied
// under the response_ namespace.
func (c *Context) EnhanceWithResponse(resp *Response) {
	c.Metadata[MetadataLastResponse] = resp.Content

	record := map[string]any{
		"content":   resp.Content,
		"metadata":  metadataToAny(resp.Metadata),
		"timestamp": time.Now().Format(time.RFC3339),
	}

	log, _ := c.Metadata[MetadataStepResults].([]any)
	c.Metadata[MetadataStepResults] = append(log, record)

	for key, value := range resp.Metadata {
		c.Metadata[responseKeyPrefix+key] = value
	}

	c.touch()
}

func metadataToAny(md map[string]string) map[string]any {
	out := make(map[string]any, len(md))
	for key, value := range md {
		out[key] = value
	}
	return out
}

// FilterForProvider returns a derived copy shaped for one provider:
// the excluded metadata keys are removed, provider-specific shaping is
// applied, and the copy is stamped with the provider scope. The source
// context is not modified.
func (c *Context) FilterForProvider(provider string, excludedKeys []string) *Context {
	filtered := c.Clone()

	for _, key := range excludedKeys {
		delete(filtered.Metadata, key)
	}

	switch {
	case strings.HasPrefix(provider, "claude"):
		filtered.TruncateToLimit(claudeHistoryWindow)
	case strings.HasPrefix(provider, "gemini"):
		filtered.Metadata["focus_mode"] = true
	}

	filtered.Metadata[MetadataFilteredFor] = provider
	filtered.Scopes = append(filtered.Scopes, "provider:"+provider)
	filtered.touch()
	return filtered
}

// CleanupExpired prunes step-result log entries older than maxAge.
func (c *Context) CleanupExpired(maxAge time.Duration) {
	log, ok := c.Metadata[MetadataStepResults].([]any)
	if !ok {
		return
	}

	cutoff := time.Now().Add(-maxAge)
	kept := slices.DeleteFunc(slices.Clone(log), func(entry any) bool {
		record, ok := entry.(map[string]any)
		if !ok {
			return false
		}
		stamp, ok := record["timestamp"].(string)
		if !ok {
			return false
		}
		at, err := time.Parse(time.RFC3339, stamp)
		if err != nil {
			return false
		}
		return at.Before(cutoff)
	})

	if len(kept) != len(log) {
		c.Metadata[MetadataStepResults] = kept
		c.touch()
	}
}
