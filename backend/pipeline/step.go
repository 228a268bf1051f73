package pipeline

import "fmt"

// Step is one provider:action unit of work in a pipeline. Context is an
// optional static hint merged into the prompt; Transform is an optional
// post-processing applied to the step's response.
type Step struct {
	Provider  string
	Action    string
	Context   string
	Transform Transform
}

func NewStep(provider, action string) Step {
	return Step{Provider: provider, Action: action}
}

func (s Step) WithContext(context string) Step {
	s.Context = context
	return s
}

func (s Step) WithTransform(transform Transform) Step {
	s.Transform = transform
	return s
}

// String renders the step in DSL form.
func (s Step) String() string {
	return s.Provider + ":" + s.Action
}

// Prompt is the effective prompt sent to the provider: the action
// alone, or "action: context" when a static context is attached.
func (s Step) Prompt() string {
	if s.Context == "" {
		return s.Action
	}
	return fmt.Sprintf("%s: %s", s.Action, s.Context)
}

// Equal compares provider, action, context and transform presence.
// Transform identity is deliberately not compared.
func (s Step) Equal(other Step) bool {
	return s.Provider == other.Provider &&
		s.Action == other.Action &&
		s.Context == other.Context &&
		(s.Transform == nil) == (other.Transform == nil)
}

// Builder assembles pipelines programmatically, bypassing the DSL.
type Builder struct {
	steps []Step
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Step(provider, action string) *Builder {
	b.steps = append(b.steps, NewStep(provider, action))
	return b
}

func (b *Builder) StepWithContext(provider, action, context string) *Builder {
	b.steps = append(b.steps, NewStep(provider, action).WithContext(context))
	return b
}

func (b *Builder) StepWithTransform(provider, action string, transform Transform) *Builder {
	b.steps = append(b.steps, NewStep(provider, action).WithTransform(transform))
	return b
}

func (b *Builder) Build() []Step {
	return b.steps
}
