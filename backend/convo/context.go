package convo

import (
	"maps"
	"slices"
	"time"
)

// Context is the conversational state threaded through a pipeline run.
// It accumulates messages, tracked files, environment variables and
// cross-step metadata. A Context is not safe for concurrent use; the
// executor passes it by unique ownership from one step to the next.
type Context struct {
	ConversationHistory []Message         `json:"conversation_history"`
	CurrentFiles        []string          `json:"current_files"`
	FileContents        map[string]string `json:"file_contents"`
	Environment         map[string]string `json:"environment"`
	Metadata            map[string]any    `json:"metadata"`
	Scopes              []string          `json:"scopes"`
	CreatedAt           time.Time         `json:"created_at"`
	LastUpdated         time.Time         `json:"last_updated"`
}

func New() *Context {
	now := time.Now()
	return &Context{
		FileContents: make(map[string]string),
		Environment:  make(map[string]string),
		Metadata:     make(map[string]any),
		CreatedAt:    now,
		LastUpdated:  now,
	}
}

func (c *Context) touch() {
	c.LastUpdated = time.Now()
}

// AddMessage appends a message to the conversation history.
func (c *Context) AddMessage(msg Message) {
	c.ConversationHistory = append(c.ConversationHistory, msg)
	c.touch()
}

// AddFile tracks a file path without loading its content. Duplicate
// paths are ignored.
func (c *Context) AddFile(path string) {
	if slices.Contains(c.CurrentFiles, path) {
		return
	}
	c.CurrentFiles = append(c.CurrentFiles, path)
	c.touch()
}

// AddFileWithContent tracks a file path and caches its text content.
func (c *Context) AddFileWithContent(path, content string) {
	c.AddFile(path)
	c.FileContents[path] = content
	c.touch()
}

// GetFileContent returns the cached content for path, if any. A path
// may be tracked without content loaded.
func (c *Context) GetFileContent(path string) (string, bool) {
	content, ok := c.FileContents[path]
	return content, ok
}

// RemoveFile drops a path from the tracked set along with any cached
// content.
func (c *Context) RemoveFile(path string) {
	idx := slices.Index(c.CurrentFiles, path)
	if idx < 0 {
		return
	}
	c.CurrentFiles = slices.Delete(c.CurrentFiles, idx, idx+1)
	delete(c.FileContents, path)
	c.touch()
}

// InheritEnvironment copies entries from the parent environment that
// are not already set locally.
func (c *Context) InheritEnvironment(parent *Context) {
	for key, value := range parent.Environment {
		if _, ok := c.Environment[key]; !ok {
			c.Environment[key] = value
		}
	}
	c.touch()
}

// SetEnv records a single environment entry.
func (c *Context) SetEnv(key, value string) {
	c.Environment[key] = value
	c.touch()
}

// Clone returns a deep copy sharing no mutable state with the source.
func (c *Context) Clone() *Context {
	clone := &Context{
		ConversationHistory: slices.Clone(c.ConversationHistory),
		CurrentFiles:        slices.Clone(c.CurrentFiles),
		FileContents:        maps.Clone(c.FileContents),
		Environment:         maps.Clone(c.Environment),
		Metadata:            cloneMetadata(c.Metadata),
		Scopes:              slices.Clone(c.Scopes),
		CreatedAt:           c.CreatedAt,
		LastUpdated:         c.LastUpdated,
	}
	if clone.FileContents == nil {
		clone.FileContents = make(map[string]string)
	}
	if clone.Environment == nil {
		clone.Environment = make(map[string]string)
	}
	if clone.Metadata == nil {
		clone.Metadata = make(map[string]any)
	}
	return clone
}

// cloneMetadata copies the metadata map one level deep, cloning nested
// maps and slices produced by JSON decoding.
func cloneMetadata(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = cloneValue(value)
	}
	return dst
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return cloneMetadata(v)
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = cloneValue(elem)
		}
		return out
	default:
		return v
	}
}

// TruncateToLimit keeps only the most recent limit messages.
func (c *Context) TruncateToLimit(limit int) {
	if limit < 0 || len(c.ConversationHistory) <= limit {
		return
	}
	c.ConversationHistory = slices.Clone(c.ConversationHistory[len(c.ConversationHistory)-limit:])
	c.touch()
}

// CreateScoped derives an independent copy for a scoped sub-execution,
// recording the scope label on the copy.
func (c *Context) CreateScoped(label string) *Context {
	scoped := c.Clone()
	scoped.Scopes = append(scoped.Scopes, label)
	scoped.touch()
	return scoped
}

// MergeScope folds the changes made in a scoped copy back into the
// receiver: messages appended in the scope and metadata changes.
func (c *Context) MergeScope(scoped *Context) {
	c.ApplyDiff(c.Diff(scoped))
	for _, label := range scoped.Scopes {
		if !slices.Contains(c.Scopes, label) {
			c.Scopes = append(c.Scopes, label)
		}
	}
	c.touch()
}
