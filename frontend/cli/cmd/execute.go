package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/relayproj/relay/backend/convo"
	"github.com/relayproj/relay/backend/pipeline"
	"github.com/relayproj/relay/frontend/cli/pkg/fail"
	"github.com/relayproj/relay/frontend/cli/pkg/terminal"
)

type executeOptions struct {
	provider    string
	prompt      string
	apiKey      string
	contextFile string
	noStream    bool
}

func newExecuteCmd(app *appState) *cobra.Command {
	opts := &executeOptions{}

	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Run a single prompt against one provider",
		Example: `  relay execute --provider claude --prompt "explain this error"
  relay execute --provider gemini --prompt "summarize" --context notes.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(cmd, app, opts)
		},
	}

	cmd.Flags().StringVar(&opts.provider, "provider", "", "provider to execute against")
	cmd.Flags().StringVar(&opts.prompt, "prompt", "", "prompt to send")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "API key override for the provider")
	cmd.Flags().StringVar(&opts.contextFile, "context", "", "file whose contents seed the conversation context")
	cmd.Flags().BoolVar(&opts.noStream, "no-stream", false, "wait for the full response instead of streaming")
	_ = cmd.MarkFlagRequired("provider")
	_ = cmd.MarkFlagRequired("prompt")

	return cmd
}

func runExecute(cmd *cobra.Command, app *appState, opts *executeOptions) error {
	overrides := map[string]string{}
	if opts.apiKey != "" {
		overrides[opts.provider] = opts.apiKey
	}

	manager := app.buildAuthManager(overrides)
	executor := app.buildExecutor(manager, executionConfigFromStored(app.config))

	if !executor.HasProvider(opts.provider) {
		if _, err := manager.DetectAuth(opts.provider); err != nil {
			return fail.NewNoAuthError(opts.provider, err)
		}
		return fail.NewProviderUnavailableError(opts.provider, executor.ProviderNames())
	}

	conversation, err := seedConversation(app.fs, opts.contextFile)
	if err != nil {
		return err
	}

	steps := []pipeline.Step{pipeline.NewStep(opts.provider, opts.prompt)}

	run := executor.ExecuteStreaming
	if opts.noStream {
		run = executor.Execute
	}
	responses, err := run(cmd.Context(), steps, conversation)
	if err != nil {
		return fail.NewPipelineError(opts.provider, err)
	}

	for _, resp := range responses {
		terminal.RenderResponse(cmd.OutOrStdout(), resp)
	}
	return nil
}

// seedConversation builds the initial context, optionally preloading the
// contents of a local file as a system message and tracked file.
func seedConversation(fs afero.Fs, contextFile string) (*convo.Context, error) {
	conversation := convo.New()
	if contextFile == "" {
		return conversation, nil
	}

	data, err := afero.ReadFile(fs, contextFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read context file %s: %w", contextFile, err)
	}

	conversation.AddFileWithContent(contextFile, string(data))
	conversation.AddMessage(convo.NewMessage(convo.RoleSystem,
		fmt.Sprintf("Context from %s:\n%s", contextFile, string(data))))
	return conversation, nil
}
