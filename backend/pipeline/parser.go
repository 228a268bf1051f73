package pipeline

import (
	"fmt"
	"slices"
	"strings"
)

const stepSeparator = "->"

// ParseError reports a malformed pipeline DSL segment.
type ParseError struct {
	Segment string
	Reason  string
}

func (e *ParseError) Error() string {
	if e.Segment == "" {
		return fmt.Sprintf("invalid pipeline: %s", e.Reason)
	}
	return fmt.Sprintf("invalid pipeline step %q: %s", e.Segment, e.Reason)
}

// UnknownProviderError reports a step referencing an unregistered
// provider.
type UnknownProviderError struct {
	Provider string
	Known    []string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider: %q, valid providers are: %v", e.Provider, e.Known)
}

// Parse compiles a pipeline DSL string into an ordered list of steps.
// The format is "provider:action -> provider:action -> ...". The first
// colon in a step is the delimiter, so actions may contain colons.
func Parse(input string) ([]Step, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, &ParseError{Reason: "pipeline string cannot be empty"}
	}

	segments := strings.Split(trimmed, stepSeparator)
	steps := make([]Step, 0, len(segments))
	for _, segment := range segments {
		step, err := parseStep(strings.TrimSpace(segment))
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func parseStep(segment string) (Step, error) {
	if segment == "" {
		return Step{}, &ParseError{Reason: "pipeline step cannot be empty"}
	}

	provider, action, found := strings.Cut(segment, ":")
	if !found {
		return Step{}, &ParseError{Segment: segment, Reason: "missing ':' separator"}
	}

	provider = strings.TrimSpace(provider)
	action = strings.TrimSpace(action)
	if provider == "" {
		return Step{}, &ParseError{Segment: segment, Reason: "provider cannot be empty"}
	}
	if action == "" {
		return Step{}, &ParseError{Segment: segment, Reason: "action cannot be empty"}
	}

	return NewStep(provider, action), nil
}

// ValidateProviders checks every step against the known provider set
// and returns the first offender.
func ValidateProviders(steps []Step, known []string) error {
	for _, step := range steps {
		if !slices.Contains(known, step.Provider) {
			return &UnknownProviderError{Provider: step.Provider, Known: known}
		}
	}
	return nil
}

// Format renders steps back into DSL form. Parse(Format(steps)) yields
// a structurally equal step list; context and transform are not part of
// the DSL surface and are not preserved.
func Format(steps []Step) string {
	parts := make([]string, len(steps))
	for i, step := range steps {
		parts[i] = step.String()
	}
	return strings.Join(parts, " "+stepSeparator+" ")
}
