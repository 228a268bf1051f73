package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Method is a discovered way to authenticate against a provider.
type Method interface {
	authMethod()
}

// APIKey authenticates with an explicit secret key.
type APIKey struct {
	Key string
}

// CLIAuth marks an existing local CLI/desktop session for the provider.
type CLIAuth struct{}

// BrowserAuth authenticates through a browser callback flow.
type BrowserAuth struct {
	CallbackURL string
}

// AccountBased authenticates with a provider-managed account session.
type AccountBased struct {
	Provider     string
	SessionToken string
}

func (APIKey) authMethod()       {}
func (CLIAuth) authMethod()      {}
func (BrowserAuth) authMethod()  {}
func (AccountBased) authMethod() {}

// NoAuthError reports that no credential could be discovered.
type NoAuthError struct {
	Provider string
}

func (e *NoAuthError) Error() string {
	return fmt.Sprintf("no authentication found for provider: %s", e.Provider)
}

// sessionMarkers are the config files whose presence indicates a local
// CLI/desktop session for a provider.
var sessionMarkers = map[string]string{
	"claude":   filepath.Join(".claude", "config.json"),
	"gemini":   filepath.Join(".gemini", "config.json"),
	"codex":    filepath.Join(".codex", "config.json"),
	"deepseek": filepath.Join(".deepseek", "config.json"),
}

// envAliases are the provider-specific environment variable names
// checked before the generic <PROVIDER>_API_KEY fallback.
var envAliases = map[string][]string{
	"claude":   {"ANTHROPIC_API_KEY"},
	"codex":    {"OPENAI_API_KEY"},
	"gemini":   {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"deepseek": {"DEEPSEEK_API_KEY"},
}

// Manager resolves which credential method is available for a provider.
// Probes run in a fixed precedence order: CLI/desktop session marker,
// explicitly supplied API key, provider-specific environment aliases,
// generic <PROVIDER>_API_KEY. First match wins.
type Manager struct {
	fs        afero.Fs
	home      string
	lookupEnv func(string) (string, bool)
	apiKeys   map[string]string
}

type ManagerOption func(*Manager)

// WithFileSystem replaces the filesystem used for session marker probing.
func WithFileSystem(fs afero.Fs) ManagerOption {
	return func(m *Manager) {
		m.fs = fs
	}
}

// WithHomeDir overrides the home directory the session markers live under.
func WithHomeDir(home string) ManagerOption {
	return func(m *Manager) {
		m.home = home
	}
}

// WithEnvLookup replaces the environment lookup, for tests.
func WithEnvLookup(lookup func(string) (string, bool)) ManagerOption {
	return func(m *Manager) {
		m.lookupEnv = lookup
	}
}

func NewManager(opts ...ManagerOption) *Manager {
	manager := &Manager{
		fs:        afero.NewOsFs(),
		lookupEnv: os.LookupEnv,
		apiKeys:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(manager)
	}
	if manager.home == "" {
		if home, err := os.UserHomeDir(); err == nil {
			manager.home = home
		}
	}
	return manager
}

// SetAPIKey supplies an explicit key for a provider, e.g. from a flag or
// the keyring.
func (m *Manager) SetAPIKey(provider, key string) {
	m.apiKeys[provider] = key
}

type probe func(provider string) (Method, bool)

// DetectAuth resolves the first available credential method for the
// provider, or a NoAuthError when nothing is discovered.
func (m *Manager) DetectAuth(provider string) (Method, error) {
	probes := []probe{
		m.probeSessionMarker,
		m.probeExplicitKey,
		m.probeEnvAliases,
		m.probeGenericEnv,
	}

	for _, probe := range probes {
		if method, ok := probe(provider); ok {
			return method, nil
		}
	}
	return nil, &NoAuthError{Provider: provider}
}

func (m *Manager) probeSessionMarker(provider string) (Method, bool) {
	marker, ok := sessionMarkers[provider]
	if !ok || m.home == "" {
		return nil, false
	}

	exists, err := afero.Exists(m.fs, filepath.Join(m.home, marker))
	if err != nil || !exists {
		return nil, false
	}
	return CLIAuth{}, true
}

func (m *Manager) probeExplicitKey(provider string) (Method, bool) {
	if key, ok := m.apiKeys[provider]; ok && key != "" {
		return APIKey{Key: key}, true
	}
	return nil, false
}

func (m *Manager) probeEnvAliases(provider string) (Method, bool) {
	for _, name := range envAliases[provider] {
		if key, ok := m.lookupEnv(name); ok && key != "" {
			return APIKey{Key: key}, true
		}
	}
	return nil, false
}

func (m *Manager) probeGenericEnv(provider string) (Method, bool) {
	name := strings.ToUpper(provider) + "_API_KEY"
	if key, ok := m.lookupEnv(name); ok && key != "" {
		return APIKey{Key: key}, true
	}
	return nil, false
}
