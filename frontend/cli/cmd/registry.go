package cmd

import (
	"errors"
	"log/slog"
	"time"

	"github.com/relayproj/relay/backend/auth"
	"github.com/relayproj/relay/backend/pipeline"
	"github.com/relayproj/relay/backend/provider"
	"github.com/relayproj/relay/shared/config"
	"github.com/relayproj/relay/shared/keyring"
)

// knownProviders is the fixed set of providers the CLI can register,
// in display order.
var knownProviders = []string{"claude", "codex", "gemini", "deepseek"}

var providerFactories = map[string]func(apiKey string) (provider.AIProvider, error){
	"claude": func(apiKey string) (provider.AIProvider, error) {
		return provider.NewClaudeProvider(apiKey)
	},
	"codex": func(apiKey string) (provider.AIProvider, error) {
		return provider.NewCodexProvider(apiKey)
	},
	"gemini": func(apiKey string) (provider.AIProvider, error) {
		return provider.NewGeminiProvider(apiKey)
	},
	"deepseek": func(apiKey string) (provider.AIProvider, error) {
		return provider.NewDeepSeekProvider(apiKey)
	},
}

// buildAuthManager constructs the credential resolver, seeding it with
// keys stored in the system keyring and any flag-supplied overrides.
func (a *appState) buildAuthManager(overrides map[string]string) *auth.Manager {
	manager := auth.NewManager(a.authOpts...)

	for _, name := range knownProviders {
		key, err := a.secrets.Get(name)
		if err != nil {
			if !errors.Is(err, &keyring.ErrSecretNotFound{}) {
				slog.Debug("keyring lookup failed", "provider", name, "error", err)
			}
			continue
		}
		manager.SetAPIKey(name, key)
	}

	for name, key := range overrides {
		if key != "" {
			manager.SetAPIKey(name, key)
		}
	}

	return manager
}

// buildExecutor registers every provider with a usable credential. CLI
// sessions are detected but cannot be bridged to an API client, so those
// providers stay unregistered and surface in check-auth instead.
func (a *appState) buildExecutor(manager *auth.Manager, execConfig pipeline.ExecutionConfig) *pipeline.Executor {
	executor := pipeline.NewExecutor(
		pipeline.WithConfig(execConfig),
		pipeline.WithAuthManager(manager),
	)

	for _, name := range knownProviders {
		method, err := manager.DetectAuth(name)
		if err != nil {
			slog.Debug("provider unavailable", "provider", name, "error", err)
			continue
		}

		apiKey, ok := method.(auth.APIKey)
		if !ok {
			slog.Debug("provider has a local session but no API key", "provider", name)
			continue
		}

		prov, err := providerFactories[name](apiKey.Key)
		if err != nil {
			slog.Warn("failed to initialize provider", "provider", name, "error", err)
			continue
		}
		executor.RegisterProvider(name, prov)
	}

	return executor
}

// executionConfigFromStored translates the persisted pipeline settings
// into an executor config. Flags layer on top of the result.
func executionConfigFromStored(cfg *config.Config) pipeline.ExecutionConfig {
	execConfig := pipeline.DefaultExecutionConfig()
	execConfig.ContinueOnError = cfg.Pipeline.ContinueOnError
	execConfig.MaxRetries = cfg.Pipeline.MaxRetries
	execConfig.RetryDelay = time.Duration(cfg.Pipeline.RetryDelayMS) * time.Millisecond
	execConfig.Timeout = time.Duration(cfg.Pipeline.TimeoutSeconds) * time.Second
	return execConfig
}
