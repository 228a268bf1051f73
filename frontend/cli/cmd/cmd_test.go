package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayproj/relay/backend/auth"
	"github.com/relayproj/relay/shared/config"
	"github.com/relayproj/relay/shared/keyring"
)

// fakeSecrets is an in-memory stand-in for the system keyring.
type fakeSecrets struct {
	values map[string]string
}

func newFakeSecrets() *fakeSecrets {
	return &fakeSecrets{values: map[string]string{}}
}

func (f *fakeSecrets) Get(key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", &keyring.ErrSecretNotFound{Key: key}
	}
	return value, nil
}

func (f *fakeSecrets) Set(key, value string) error {
	f.values[key] = value
	return nil
}

func (f *fakeSecrets) Delete(key string) error {
	if _, ok := f.values[key]; !ok {
		return &keyring.ErrSecretNotFound{Key: key}
	}
	delete(f.values, key)
	return nil
}

func newTestApp() *appState {
	return &appState{
		fs:       afero.NewMemMapFs(),
		basePath: "/home/dev/.relay",
		config:   config.Default(),
		secrets:  newFakeSecrets(),
		authOpts: []auth.ManagerOption{
			auth.WithFileSystem(afero.NewMemMapFs()),
			auth.WithHomeDir("/home/dev"),
			auth.WithEnvLookup(func(string) (string, bool) { return "", false }),
		},
	}
}

func TestAuthSetKeyStoresSecret(t *testing.T) {
	app := newTestApp()
	cmd := newAuthSetKeyCmd(app)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"claude", "sk-test"})

	require.NoError(t, cmd.Execute())

	stored, err := app.secrets.Get("claude")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", stored)
	assert.Contains(t, out.String(), "Stored API key for claude")
}

func TestAuthSetKeyRejectsUnknownProvider(t *testing.T) {
	app := newTestApp()
	cmd := newAuthSetKeyCmd(app)
	cmd.SetArgs([]string{"mystery", "sk-test"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "mystery"`)
}

func TestAuthDeleteKey(t *testing.T) {
	app := newTestApp()
	require.NoError(t, app.secrets.Set("gemini", "sk-old"))

	cmd := newAuthDeleteKeyCmd(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"gemini"})

	require.NoError(t, cmd.Execute())

	_, err := app.secrets.Get("gemini")
	require.Error(t, err)
	assert.Contains(t, out.String(), "Deleted API key for gemini")
}

func TestAuthDeleteKeyMissingIsNotAnError(t *testing.T) {
	app := newTestApp()

	cmd := newAuthDeleteKeyCmd(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"codex"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "No stored key for codex")
}

func TestBuildAuthManagerPrefersOverrides(t *testing.T) {
	app := newTestApp()
	require.NoError(t, app.secrets.Set("claude", "keyring-key"))

	manager := app.buildAuthManager(map[string]string{"claude": "flag-key"})

	method, err := manager.DetectAuth("claude")
	require.NoError(t, err)
	assert.Equal(t, "flag-key", methodKey(t, method))
}

func TestBuildAuthManagerReadsKeyring(t *testing.T) {
	app := newTestApp()
	require.NoError(t, app.secrets.Set("deepseek", "keyring-key"))

	manager := app.buildAuthManager(nil)

	method, err := manager.DetectAuth("deepseek")
	require.NoError(t, err)
	assert.Equal(t, "keyring-key", methodKey(t, method))
}

func methodKey(t *testing.T, method auth.Method) string {
	t.Helper()
	key, ok := method.(auth.APIKey)
	require.True(t, ok, "expected an API key method, got %T", method)
	return key.Key
}

func TestCheckAuthScopedToOneProvider(t *testing.T) {
	app := newTestApp()
	require.NoError(t, app.secrets.Set("claude", "sk-test"))

	cmd := newCheckAuthCmd(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"claude"})

	require.NoError(t, cmd.Execute())

	rendered := out.String()
	assert.Contains(t, rendered, "claude: API key")
	assert.NotContains(t, rendered, "gemini")
	assert.NotContains(t, rendered, "deepseek")
}

func TestCheckAuthListsAllProvidersByDefault(t *testing.T) {
	app := newTestApp()

	cmd := newCheckAuthCmd(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	rendered := out.String()
	for _, name := range knownProviders {
		assert.Contains(t, rendered, name+": no credentials found")
	}
}

func TestCheckAuthRejectsUnknownProvider(t *testing.T) {
	app := newTestApp()

	cmd := newCheckAuthCmd(app)
	cmd.SetArgs([]string{"mystery"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "mystery"`)
}

func TestExecutionConfigFromStored(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.ContinueOnError = true
	cfg.Pipeline.MaxRetries = 2
	cfg.Pipeline.RetryDelayMS = 250
	cfg.Pipeline.TimeoutSeconds = 15

	execConfig := executionConfigFromStored(cfg)

	assert.True(t, execConfig.ContinueOnError)
	assert.Equal(t, uint(2), execConfig.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, execConfig.RetryDelay)
	assert.Equal(t, 15*time.Second, execConfig.Timeout)
}

func TestSeedConversation(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "notes.txt", []byte("remember this"), 0o600))

	conversation, err := seedConversation(fs, "notes.txt")
	require.NoError(t, err)

	content, ok := conversation.GetFileContent("notes.txt")
	require.True(t, ok)
	assert.Equal(t, "remember this", content)

	require.Len(t, conversation.ConversationHistory, 1)
	assert.Contains(t, conversation.ConversationHistory[0].Content, "remember this")
}

func TestSeedConversationMissingFile(t *testing.T) {
	_, err := seedConversation(afero.NewMemMapFs(), "absent.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read context file")
}

func TestSeedConversationNoFile(t *testing.T) {
	conversation, err := seedConversation(afero.NewMemMapFs(), "")
	require.NoError(t, err)
	assert.Empty(t, conversation.ConversationHistory)
}

func TestLogLevelFlag(t *testing.T) {
	var level LogLevel

	require.NoError(t, level.Set("debug"))
	assert.Equal(t, "debug", level.String())

	err := level.Set("verbose")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid log level "verbose"`)
}
