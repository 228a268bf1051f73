package convo

import "slices"

// Diff captures the changes of one context relative to another.
// RemovedMessages is part of the data model but is not populated by
// Diff; message removal tracking is a known gap.
type Diff struct {
	AddedMessages   []Message      `json:"added_messages"`
	RemovedMessages []Message      `json:"removed_messages"`
	MetadataChanges map[string]any `json:"metadata_changes"`
}

func (d *Diff) IsEmpty() bool {
	return len(d.AddedMessages) == 0 && len(d.RemovedMessages) == 0 && len(d.MetadataChanges) == 0
}

// Diff returns the history appended and metadata changed in other
// relative to the receiver.
func (c *Context) Diff(other *Context) *Diff {
	diff := &Diff{
		MetadataChanges: make(map[string]any),
	}

	if len(other.ConversationHistory) > len(c.ConversationHistory) {
		diff.AddedMessages = slices.Clone(other.ConversationHistory[len(c.ConversationHistory):])
	}

	for key, value := range other.Metadata {
		if existing, ok := c.Metadata[key]; !ok || !metadataValueEqual(existing, value) {
			diff.MetadataChanges[key] = cloneValue(value)
		}
	}

	return diff
}

// ApplyDiff appends the diff's added messages and merges its metadata
// changes into the receiver.
func (c *Context) ApplyDiff(diff *Diff) {
	if diff.IsEmpty() {
		return
	}

	c.ConversationHistory = append(c.ConversationHistory, diff.AddedMessages...)
	for key, value := range diff.MetadataChanges {
		c.Metadata[key] = cloneValue(value)
	}
	c.touch()
}

func metadataValueEqual(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for key, value := range av {
			other, ok := bv[key]
			if !ok || !metadataValueEqual(value, other) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !metadataValueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
