package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/relayproj/relay/backend/pipeline"
	"github.com/relayproj/relay/frontend/cli/pkg/fail"
	"github.com/relayproj/relay/frontend/cli/pkg/terminal"
)

type pipelineOptions struct {
	chain           string
	contextFile     string
	noStream        bool
	continueOnError bool
	maxRetries      uint
	retryDelay      time.Duration
	timeout         time.Duration
}

func newPipelineCmd(app *appState) *cobra.Command {
	opts := &pipelineOptions{}

	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run a multi-step provider chain",
		Long: "Executes a chain of provider:action steps in order. Each step's " +
			"response is folded into the shared context before the next step runs.",
		Example: `  relay pipeline --chain "claude:analyze -> gemini:optimize"
  relay pipeline --chain "claude:review" --context main.go --continue-on-error`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, app, opts)
		},
	}

	cmd.Flags().StringVar(&opts.chain, "chain", "", `pipeline chain, e.g. "claude:analyze -> gemini:optimize"`)
	cmd.Flags().StringVar(&opts.contextFile, "context", "", "file whose contents seed the conversation context")
	cmd.Flags().BoolVar(&opts.noStream, "no-stream", false, "wait for full responses instead of streaming")
	cmd.Flags().BoolVar(&opts.continueOnError, "continue-on-error", false, "record failed steps as placeholders and keep going")
	cmd.Flags().UintVar(&opts.maxRetries, "max-retries", 0, "retries per step on transient provider failures")
	cmd.Flags().DurationVar(&opts.retryDelay, "retry-delay", 0, "delay between retry attempts")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "per-invocation deadline, 0 disables")
	_ = cmd.MarkFlagRequired("chain")

	return cmd
}

func runPipeline(cmd *cobra.Command, app *appState, opts *pipelineOptions) error {
	steps, err := pipeline.Parse(opts.chain)
	if err != nil {
		return fmt.Errorf("invalid pipeline: %w", err)
	}

	manager := app.buildAuthManager(nil)
	executor := app.buildExecutor(manager, pipelineExecutionConfig(cmd, app, opts))

	if err := pipeline.ValidateProviders(steps, executor.ProviderNames()); err != nil {
		var unknown *pipeline.UnknownProviderError
		if errors.As(err, &unknown) {
			return fail.NewProviderUnavailableError(unknown.Provider, executor.ProviderNames())
		}
		return err
	}

	conversation, err := seedConversation(app.fs, opts.contextFile)
	if err != nil {
		return err
	}

	run := executor.ExecuteStreaming
	if opts.noStream {
		run = executor.Execute
	}
	responses, err := run(cmd.Context(), steps, conversation)
	if err != nil {
		return fail.NewPipelineError(opts.chain, err)
	}

	terminal.RenderResponses(cmd.OutOrStdout(), responses)
	return nil
}

// pipelineExecutionConfig layers command flags over the stored defaults.
// Only flags the user actually set override the config file.
func pipelineExecutionConfig(cmd *cobra.Command, app *appState, opts *pipelineOptions) pipeline.ExecutionConfig {
	execConfig := executionConfigFromStored(app.config)

	if cmd.Flags().Changed("continue-on-error") {
		execConfig.ContinueOnError = opts.continueOnError
	}
	if cmd.Flags().Changed("max-retries") {
		execConfig.MaxRetries = opts.maxRetries
	}
	if cmd.Flags().Changed("retry-delay") {
		execConfig.RetryDelay = opts.retryDelay
	}
	if cmd.Flags().Changed("timeout") {
		execConfig.Timeout = opts.timeout
	}
	return execConfig
}
