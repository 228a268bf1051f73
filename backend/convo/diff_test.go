package convo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffAddedMessages(t *testing.T) {
	base := New()
	base.AddMessage(NewMessage(RoleUser, "first"))

	derived := base.Clone()
	derived.AddMessage(NewMessage(RoleAssistant, "second"))
	derived.AddMessage(NewMessage(RoleUser, "third"))

	diff := base.Diff(derived)

	require.Len(t, diff.AddedMessages, 2)
	assert.Equal(t, "second", diff.AddedMessages[0].Content)
	assert.Equal(t, "third", diff.AddedMessages[1].Content)
	assert.Empty(t, diff.RemovedMessages)
}

func TestDiffMetadataChanges(t *testing.T) {
	base := New()
	base.Metadata["unchanged"] = "same"
	base.Metadata["updated"] = "old"

	derived := base.Clone()
	derived.Metadata["updated"] = "new"
	derived.Metadata["added"] = []any{"x"}

	diff := base.Diff(derived)

	assert.NotContains(t, diff.MetadataChanges, "unchanged")
	assert.Equal(t, "new", diff.MetadataChanges["updated"])
	assert.Equal(t, []any{"x"}, diff.MetadataChanges["added"])
}

func TestDiffNestedMetadataComparison(t *testing.T) {
	base := New()
	base.Metadata["nested"] = map[string]any{"a": "1", "list": []any{"x", "y"}}

	same := base.Clone()
	assert.True(t, base.Diff(same).IsEmpty())

	changed := base.Clone()
	changed.Metadata["nested"].(map[string]any)["list"].([]any)[1] = "z"
	diff := base.Diff(changed)
	assert.Contains(t, diff.MetadataChanges, "nested")
}

func TestDiffIdenticalContextsIsEmpty(t *testing.T) {
	base := New()
	base.AddMessage(NewMessage(RoleUser, "hello"))
	base.Metadata["k"] = "v"

	diff := base.Diff(base.Clone())
	assert.True(t, diff.IsEmpty())
}

func TestApplyDiff(t *testing.T) {
	base := New()
	base.AddMessage(NewMessage(RoleUser, "start"))

	derived := base.Clone()
	derived.AddMessage(NewMessage(RoleAssistant, "reply"))
	derived.Metadata["result"] = "done"

	base.ApplyDiff(base.Diff(derived))

	require.Len(t, base.ConversationHistory, 2)
	assert.Equal(t, "reply", base.ConversationHistory[1].Content)
	assert.Equal(t, "done", base.Metadata["result"])
}

func TestApplyDiffEmptyIsNoop(t *testing.T) {
	base := New()
	stamp := base.LastUpdated

	base.ApplyDiff(&Diff{MetadataChanges: map[string]any{}})

	assert.Equal(t, stamp, base.LastUpdated)
	assert.Empty(t, base.ConversationHistory)
}

func TestApplyDiffClonesValues(t *testing.T) {
	diff := &Diff{
		MetadataChanges: map[string]any{"nested": map[string]any{"k": "v"}},
	}

	a := New()
	a.ApplyDiff(diff)
	a.Metadata["nested"].(map[string]any)["k"] = "mutated"

	b := New()
	b.ApplyDiff(diff)
	assert.Equal(t, "v", b.Metadata["nested"].(map[string]any)["k"])
}
