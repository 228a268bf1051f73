package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/relayproj/relay/backend/auth"
	"github.com/relayproj/relay/backend/convo"
	"github.com/relayproj/relay/backend/provider"
	"github.com/relayproj/relay/shared"
	"github.com/relayproj/relay/shared/resilience"
)

// ExecutionConfig tunes the step loop. Timeout bounds each provider
// invocation; zero means no deadline.
type ExecutionConfig struct {
	ContinueOnError bool
	MaxRetries      uint
	RetryDelay      time.Duration
	Timeout         time.Duration
}

func DefaultExecutionConfig() ExecutionConfig {
	return ExecutionConfig{
		ContinueOnError: false,
		MaxRetries:      0,
		RetryDelay:      1 * time.Second,
	}
}

// StepResult is the execution record of one step. It is handed to the
// observer and discarded; it is never persisted.
type StepResult struct {
	ID       uuid.UUID
	Step     Step
	Response *convo.Response
	Err      error
	Duration time.Duration
	Retries  uint
}

// StepObserver receives a notification after every step, successful or
// not. Observers are side-effect-only and cannot influence control flow.
type StepObserver interface {
	OnStepCompleted(result *StepResult)
}

type StepObserverFunc func(result *StepResult)

func (f StepObserverFunc) OnStepCompleted(result *StepResult) {
	f(result)
}

// Executor drives a pipeline: it resolves providers by name, runs the
// steps strictly in order, retries transient provider failures, applies
// transforms and folds every response into the shared context. A single
// Executor must not run two pipelines concurrently.
type Executor struct {
	providers  map[string]provider.AIProvider
	config     ExecutionConfig
	auth       *auth.Manager
	observer   StepObserver
	retryHooks []resilience.RetryHook
	metrics    *executorMetricsProvider
}

type ExecutorOption func(*Executor)

func WithConfig(config ExecutionConfig) ExecutorOption {
	return func(e *Executor) {
		e.config = config
	}
}

func WithAuthManager(manager *auth.Manager) ExecutorOption {
	return func(e *Executor) {
		e.auth = manager
	}
}

func WithObserver(observer StepObserver) ExecutorOption {
	return func(e *Executor) {
		e.observer = observer
	}
}

func WithRetryHooks(hooks ...resilience.RetryHook) ExecutorOption {
	return func(e *Executor) {
		e.retryHooks = append(e.retryHooks, hooks...)
	}
}

func WithMetrics(registry *prometheus.Registry) ExecutorOption {
	return func(e *Executor) {
		e.metrics = newExecutorMetricsProvider(registry)
	}
}

func NewExecutor(opts ...ExecutorOption) *Executor {
	executor := &Executor{
		providers: make(map[string]provider.AIProvider),
		config:    DefaultExecutionConfig(),
	}
	for _, opt := range opts {
		opt(executor)
	}
	return executor
}

// RegisterProvider adds a provider under the given registry name. The
// registry owns the handle for the executor's lifetime; steps look it
// up by name at invocation time.
func (e *Executor) RegisterProvider(name string, p provider.AIProvider) {
	e.providers[name] = p
}

func (e *Executor) HasProvider(name string) bool {
	_, ok := e.providers[name]
	return ok
}

// ProviderNames returns the registered provider names, sorted.
func (e *Executor) ProviderNames() []string {
	return slices.Sorted(maps.Keys(e.providers))
}

func (e *Executor) SetAuthManager(manager *auth.Manager) {
	e.auth = manager
}

func (e *Executor) SetObserver(observer StepObserver) {
	e.observer = observer
}

func (e *Executor) Config() ExecutionConfig {
	return e.config
}

// Execute runs the steps in order against the shared context and
// returns one response per step. With ContinueOnError unset, the first
// failing step aborts the run and no partial results are returned; with
// it set, a placeholder response is synthesized and recorded in history
// so downstream steps see that the failure occurred.
func (e *Executor) Execute(ctx context.Context, steps []Step, conversation *convo.Context) ([]*convo.Response, error) {
	return e.execute(ctx, steps, conversation, false)
}

// ExecuteStreaming runs the same loop but drains each provider's chunk
// stream into the step response instead of calling Execute.
func (e *Executor) ExecuteStreaming(ctx context.Context, steps []Step, conversation *convo.Context) ([]*convo.Response, error) {
	return e.execute(ctx, steps, conversation, true)
}

func (e *Executor) execute(ctx context.Context, steps []Step, conversation *convo.Context, streaming bool) ([]*convo.Response, error) {
	if conversation == nil {
		conversation = convo.New()
	}
	hadInitialContext := len(conversation.ConversationHistory) > 0

	results := make([]*convo.Response, 0, len(steps))
	for i, step := range steps {
		result := e.runStep(ctx, i, step, conversation, hadInitialContext, streaming)
		e.notify(result)

		if result.Err != nil {
			// Transform failures indicate a response the pipeline cannot
			// safely keep interpreting; they abort the run even under
			// ContinueOnError.
			var terr *TransformError
			if errors.As(result.Err, &terr) || !e.config.ContinueOnError {
				return nil, shared.Wrap(shared.ErrorSourceProvider, result.Err, "pipeline step %d (%s) failed", i+1, step.Provider)
			}

			placeholder := convo.NewResponse(fmt.Sprintf("Error in step %d: %s", i+1, result.Err)).
				WithMetadata("error", "true").
				WithMetadata("step_index", strconv.Itoa(i+1))
			conversation.AddMessage(convo.NewMessage(convo.RoleAssistant, placeholder.Content))
			conversation.EnhanceWithResponse(placeholder)
			results = append(results, placeholder)
			continue
		}

		conversation.AddMessage(convo.NewMessage(convo.RoleAssistant, result.Response.Content))
		conversation.EnhanceWithResponse(result.Response)
		results = append(results, result.Response)
	}

	return results, nil
}

func (e *Executor) runStep(ctx context.Context, index int, step Step, conversation *convo.Context, hadInitialContext, streaming bool) *StepResult {
	start := time.Now()
	result := &StepResult{
		ID:   uuid.New(),
		Step: step,
	}

	prov, ok := e.providers[step.Provider]
	if !ok {
		// Lookup failure is not transient, so no retry is attempted.
		result.Err = fmt.Errorf("unknown provider: %s", step.Provider)
		result.Duration = time.Since(start)
		return result
	}

	prompt := step.Prompt()
	retryConfig := &resilience.RetryConfig{
		MaxAttempts:        e.config.MaxRetries + 1,
		Delay:              e.config.RetryDelay,
		BackoffMultiplier:  1,
		UseProviderBackoff: true,
	}
	nextDelay := func(n uint, attemptErr error) time.Duration {
		if retryConfig.UseProviderBackoff {
			var perr *provider.Error
			if errors.As(attemptErr, &perr) {
				if retryable, wait := perr.Retryable(); retryable && wait > 0 {
					return wait
				}
			}
		}
		return retryConfig.DelayForAttempt(n)
	}

	var attempts uint
	invoke := func() (*convo.Response, error) {
		attempts++
		return e.invokeProvider(ctx, prov, prompt, conversation, streaming)
	}

	resp, err := retry.DoWithData(invoke,
		retry.Attempts(retryConfig.MaxAttempts),
		retry.RetryIf(func(attemptErr error) bool {
			// Provider errors carry their own verdict; auth and request
			// errors cannot succeed on a fresh attempt.
			var perr *provider.Error
			if errors.As(attemptErr, &perr) {
				retryable, _ := perr.Retryable()
				return retryable
			}
			return true
		}),
		retry.DelayType(func(n uint, attemptErr error, _ *retry.Config) time.Duration {
			return nextDelay(n, attemptErr)
		}),
		retry.OnRetry(func(n uint, attemptErr error) {
			e.metrics.IncrementRetries(step.Provider)
			for _, hook := range e.retryHooks {
				hook.OnRetryAttempt(ctx, n, attemptErr, nextDelay(n, attemptErr))
			}
			slog.DebugContext(ctx, "retrying pipeline step",
				"provider", step.Provider,
				"attempt", n,
				"error", attemptErr,
			)
		}),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)

	result.Retries = attempts - 1
	result.Duration = time.Since(start)

	if err != nil {
		for _, hook := range e.retryHooks {
			hook.OnRetryFailure(ctx, err, attempts, result.Duration)
		}
		result.Err = err
		return result
	}
	for _, hook := range e.retryHooks {
		hook.OnRetrySuccess(ctx, attempts, result.Duration)
	}

	if e.auth != nil {
		resp.WithMetadata("authenticated", "true")
	}
	if hadInitialContext {
		resp.WithMetadata("has_initial_context", "true")
	}
	if index > 0 {
		resp.WithMetadata("previous_step", "true")
	}
	resp.WithMetadata("step_index", strconv.Itoa(index+1))
	if result.Retries > 0 {
		resp.WithMetadata("retries", strconv.FormatUint(uint64(result.Retries), 10))
	}
	resp.WithMetadata("execution_time", strconv.FormatInt(time.Now().Unix(), 10))

	if step.Transform != nil {
		transformed, terr := step.Transform.Transform(resp)
		if terr != nil {
			var transformErr *TransformError
			if !errors.As(terr, &transformErr) {
				terr = &TransformError{Kind: TransformErrorKindOperation, Err: terr}
			}
			result.Err = shared.Wrap(shared.ErrorSourceTransform, terr, "transform %s failed", step.Transform.Name())
			return result
		}
		resp = transformed
	}

	resp.Content = step.Provider + ": " + resp.Content
	result.Response = resp
	return result
}

// invokeProvider performs a single attempt, bounded by the configured
// per-call deadline.
func (e *Executor) invokeProvider(ctx context.Context, prov provider.AIProvider, prompt string, conversation *convo.Context, streaming bool) (*convo.Response, error) {
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	if streaming && prov.Capabilities().SupportsStreaming {
		return drainStream(ctx, prov, prompt, conversation)
	}
	return prov.Execute(ctx, prompt, conversation)
}

// drainStream collects the finite chunk sequence into one response.
func drainStream(ctx context.Context, prov provider.AIProvider, prompt string, conversation *convo.Context) (*convo.Response, error) {
	chunks, err := prov.Stream(ctx, prompt, conversation)
	if err != nil {
		return nil, err
	}

	var content strings.Builder
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				return convo.NewResponse(content.String()), nil
			}
			if chunk.Err != nil {
				return nil, chunk.Err
			}
			content.WriteString(chunk.Text)
		}
	}
}

func (e *Executor) notify(result *StepResult) {
	outcome := "succeeded"
	if result.Err != nil {
		outcome = "failed"
		slog.Error("pipeline step failed",
			"provider", result.Step.Provider,
			"action", result.Step.Action,
			"retries", result.Retries,
			"error", result.Err,
		)
	}
	e.metrics.ObserveStep(result.Step.Provider, outcome, result.Duration.Seconds())

	if e.observer != nil {
		e.observer.OnStepCompleted(result)
	}
}
