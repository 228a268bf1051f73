package fail

import (
	"fmt"
	"strings"

	"github.com/relayproj/relay/frontend/cli/pkg/terminal"
)

// UserError is an error rendered for humans: what went wrong, what to
// try, and the technical cause for bug reports.
type UserError struct {
	Cause       error
	UserMessage string
	Solutions   []string
	TechDetails string
}

func (e *UserError) Error() string {
	var msg strings.Builder

	msg.WriteString(fmt.Sprintf("%s %s\n\n", terminal.ErrorSymbol, terminal.Bold(e.UserMessage)))

	if len(e.Solutions) > 0 {
		msg.WriteString(fmt.Sprintf("%s Try these solutions:\n", terminal.InfoSymbol))
		for i, solution := range e.Solutions {
			msg.WriteString(fmt.Sprintf("  %d. %s\n", i+1, solution))
		}
		msg.WriteString("\n")
	}

	if e.TechDetails != "" {
		msg.WriteString(fmt.Sprintf("Technical details: %s\n", e.TechDetails))
	}

	return msg.String()
}

func (e *UserError) Unwrap() error {
	return e.Cause
}

func NewNoAuthError(provider string, err error) *UserError {
	upper := strings.ToUpper(provider)
	return &UserError{
		Cause:       err,
		UserMessage: fmt.Sprintf("No authentication found for provider %q", provider),
		Solutions: []string{
			fmt.Sprintf("Pass an API key explicitly: relay execute --provider %s --api-key <key> ...", provider),
			fmt.Sprintf("Store a key in the system keyring: relay auth set-key %s <key>", provider),
			fmt.Sprintf("Export %s_API_KEY in your shell", upper),
			fmt.Sprintf("Log in with the %s CLI so a local session exists", provider),
		},
		TechDetails: fmt.Sprintf("auth detection for %s failed: %v", provider, err),
	}
}

func NewProviderUnavailableError(provider string, known []string) *UserError {
	return &UserError{
		UserMessage: fmt.Sprintf("Provider %q is not available", provider),
		Solutions: []string{
			"Check the provider name in your pipeline chain",
			"Provide credentials so the provider can be registered (see 'relay check-auth')",
			fmt.Sprintf("Available providers: %s", strings.Join(known, ", ")),
		},
	}
}

func NewPipelineError(chain string, err error) *UserError {
	return &UserError{
		Cause:       err,
		UserMessage: "Pipeline execution failed",
		Solutions: []string{
			"Re-run with --continue-on-error to collect partial results",
			"Increase --max-retries for flaky providers",
			"Check provider status pages for outages",
		},
		TechDetails: fmt.Sprintf("chain %q: %v", chain, err),
	}
}
