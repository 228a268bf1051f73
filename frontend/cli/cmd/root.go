package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/relayproj/relay/backend/auth"
	"github.com/relayproj/relay/shared/config"
	"github.com/relayproj/relay/shared/keyring"
)

var (
	// Version information, set at build time via ldflags.
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

const logLevelEnvVar = "RELAY_LOG_LEVEL"

// LogLevel is a pflag.Value for the --log-level flag.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

func (l *LogLevel) String() string {
	return string(*l)
}

func (l *LogLevel) Set(value string) error {
	switch LogLevel(value) {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		*l = LogLevel(value)
		return nil
	default:
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", value)
	}
}

func (l *LogLevel) Type() string {
	return "string"
}

func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// appState carries the shared dependencies of all commands.
type appState struct {
	fs       afero.Fs
	basePath string
	config   *config.Config
	secrets  keyring.Provider
	authOpts []auth.ManagerOption

	logLevel LogLevel
}

func NewRootCmd() *cobra.Command {
	app := &appState{
		fs:      afero.NewOsFs(),
		secrets: keyring.NewKeyringProvider(),
	}

	rootCmd := &cobra.Command{
		Use:   "relay",
		Short: "Chain AI providers into multi-step pipelines",
		Long: "Relay chains AI CLI providers into pipelines where each step's " +
			"output feeds the next step's context.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.initialize()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			printBanner(cmd.OutOrStdout())
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().Var(&app.logLevel, "log-level", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newExecuteCmd(app),
		newPipelineCmd(app),
		newProvidersCmd(app),
		newCheckAuthCmd(app),
		newAuthCmd(app),
		newVersionCmd(),
	)

	return rootCmd
}

// initialize loads the user config and wires the global logger. It runs
// before every command.
func (a *appState) initialize() error {
	if a.basePath == "" {
		basePath, err := config.DefaultBasePath()
		if err != nil {
			return err
		}
		a.basePath = basePath
	}

	store, err := config.NewStore(a.fs, a.basePath)
	if err != nil {
		return err
	}
	cfg, err := store.Load()
	if err != nil {
		return err
	}
	a.config = cfg

	logger := slog.New(slog.NewJSONHandler(a.logSink(), &slog.HandlerOptions{
		Level: a.resolveLogLevel().SlogLevel(),
	}))
	slog.SetDefault(logger)

	return nil
}

// resolveLogLevel picks the level from the flag, then the environment,
// then the stored config.
func (a *appState) resolveLogLevel() LogLevel {
	if a.logLevel != "" {
		return a.logLevel
	}
	if env, ok := os.LookupEnv(logLevelEnvVar); ok {
		var level LogLevel
		if err := level.Set(env); err == nil {
			return level
		}
	}
	var level LogLevel
	if err := level.Set(a.config.Log.Level); err == nil {
		return level
	}
	return LogLevelInfo
}

// logSink writes structured logs to a rotated file under the config
// directory and mirrors them on stderr so responses on stdout stay clean.
func (a *appState) logSink() io.Writer {
	logFile := a.config.Log.File
	if logFile == "" {
		logFile = filepath.Join(a.basePath, "logs", "relay.json")
	}

	fileLogger := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    50,
		MaxAge:     7,
		MaxBackups: 3,
		Compress:   true,
	}
	return io.MultiWriter(os.Stderr, fileLogger)
}

func printBanner(w io.Writer) {
	banner := figure.NewFigure("relay", "", true)
	fmt.Fprintln(w, banner.String())
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
