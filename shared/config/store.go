package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const configFileName = "config.yaml"

// Config holds the user-level defaults for pipeline execution and
// logging. Flags override whatever is stored here.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Log      LogConfig      `yaml:"log"`
}

type PipelineConfig struct {
	ContinueOnError bool   `yaml:"continue_on_error"`
	MaxRetries      uint   `yaml:"max_retries"`
	RetryDelayMS    uint64 `yaml:"retry_delay_ms"`
	TimeoutSeconds  uint64 `yaml:"timeout_seconds,omitempty"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			ContinueOnError: false,
			MaxRetries:      0,
			RetryDelayMS:    1000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Store reads and writes the user config file under basePath.
type Store struct {
	fs       afero.Fs
	basePath string
}

func NewStore(fs afero.Fs, basePath string) (*Store, error) {
	if err := fs.MkdirAll(basePath, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	return &Store{fs: fs, basePath: basePath}, nil
}

// DefaultBasePath is the per-user config directory, ~/.relay.
func DefaultBasePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".relay"), nil
}

// Load returns the stored config, or defaults when no file exists yet.
func (s *Store) Load() (*Config, error) {
	path := filepath.Join(s.basePath, configFileName)

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func (s *Store) Save(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(s.basePath, configFileName)
	if err := afero.WriteFile(s.fs, path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
