package convo

import (
	"fmt"
	"strings"
)

const (
	maxHistoryMessages = 1000
	maxMetadataString  = 10_000
	maxEnvValueLength  = 1000
	maxFileContentSize = 100_000
)

// reservedMetadataKeys must never hold a null value; they carry the
// cross-step signaling protocol.
var reservedMetadataKeys = []string{MetadataLastResponse, MetadataStepResults}

// Validate checks the context against its structural limits. Checks run
// in a fixed order (paths, metadata, history, environment, file
// contents) and the first violation is returned.
func (c *Context) Validate() error {
	for _, path := range c.CurrentFiles {
		if path == "" {
			return fmt.Errorf("tracked file path is empty")
		}
		if strings.Contains(path, "..") {
			return fmt.Errorf("tracked file path %q contains a parent directory traversal", path)
		}
	}

	for _, key := range reservedMetadataKeys {
		if value, ok := c.Metadata[key]; ok && value == nil {
			return fmt.Errorf("reserved metadata key %q holds a null value", key)
		}
	}
	for key, value := range c.Metadata {
		if s, ok := value.(string); ok && len(s) > maxMetadataString {
			return fmt.Errorf("metadata value for %q exceeds %d characters", key, maxMetadataString)
		}
	}

	if len(c.ConversationHistory) > maxHistoryMessages {
		return fmt.Errorf("conversation history exceeds %d messages", maxHistoryMessages)
	}

	for key, value := range c.Environment {
		if key == "" {
			return fmt.Errorf("environment key is empty")
		}
		if len(value) > maxEnvValueLength {
			return fmt.Errorf("environment value for %q exceeds %d characters", key, maxEnvValueLength)
		}
	}

	for path, content := range c.FileContents {
		if len(content) > maxFileContentSize {
			return fmt.Errorf("cached content for %q exceeds %d characters", path, maxFileContentSize)
		}
	}

	return nil
}

const (
	tokensPerWord        = 1.3
	messageTokenOverhead = 5
	fileTokenOverhead    = 10
	metadataNonStringFee = 5
	baseTokenOverhead    = 50
)

// EstimateTokens returns a heuristic token count for the whole context.
// It is an estimate for budgeting, not a provider-verified count.
func (c *Context) EstimateTokens() int {
	tokens := float64(baseTokenOverhead)

	for _, msg := range c.ConversationHistory {
		tokens += wordTokens(msg.Content) + messageTokenOverhead
	}

	for _, content := range c.FileContents {
		tokens += wordTokens(content) + fileTokenOverhead
	}

	for _, value := range c.Metadata {
		if s, ok := value.(string); ok {
			tokens += wordTokens(s) + messageTokenOverhead
		} else {
			tokens += metadataNonStringFee
		}
	}

	for key, value := range c.Environment {
		tokens += float64(len(key)+len(value)) / 4
	}

	return int(tokens)
}

func wordTokens(s string) float64 {
	return float64(len(strings.Fields(s))) * tokensPerWord
}
