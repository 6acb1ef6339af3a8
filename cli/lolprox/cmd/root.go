// Package cmd wires the lolprox command hierarchy.
package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/EnigmaKM/LoLLCULiveAPISpike/cli/lolprox/internal/audit"
	"github.com/EnigmaKM/LoLLCULiveAPISpike/cli/lolprox/internal/config"
	renderio "github.com/EnigmaKM/LoLLCULiveAPISpike/cli/lolprox/internal/io"
	"github.com/EnigmaKM/LoLLCULiveAPISpike/cli/lolprox/internal/metrics"
	"github.com/EnigmaKM/LoLLCULiveAPISpike/cli/shared/lcu"
)

type appStateKey struct{}

type runtimeState struct {
	Config       config.Config
	ConfigPath   string
	Strategy     string
	TrustAnchor  string
	PinnedPID    int32
	OutputFormat renderio.Format
	Logger       *slog.Logger
	AuditLogger  *audit.Logger
	Metrics      *metrics.Recorder
}

type rootOptions struct {
	configPath  string
	output      string
	trustAnchor string
	strategy    string
	pid         int32
}

var (
	rootOpts = &rootOptions{}
	rootCmd  = newRootCommand()

	// processTable is swapped by tests.
	processTable lcu.ProcessTable = lcu.SystemProcessTable{}
)

// Execute runs the lolprox command tree.
func Execute() error {
	return rootCmd.Execute()
}

// IsClientUnavailable reports whether err means the client is not running or not signed in.
func IsClientUnavailable(err error) bool {
	return errors.Is(err, lcu.ErrProcessNotFound) ||
		errors.Is(err, lcu.ErrLockfileMissing) ||
		errors.Is(err, lcu.ErrMalformedLockfile)
}

// UnavailableReason names what was missing when IsClientUnavailable holds.
func UnavailableReason(err error) string {
	switch {
	case errors.Is(err, lcu.ErrMalformedLockfile):
		return "League client lockfile unreadable"
	case errors.Is(err, lcu.ErrLockfileMissing):
		return "League client lockfile not detected"
	default:
		return "League client process not detected"
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lolprox",
		Short: "Probe the local League client APIs",
		Long:  "lolprox discovers the running League client's credentials, validates the authenticated session, and reads match state from the local client APIs.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initializeState(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	defaultConfigPath, err := config.DefaultPath()
	if err != nil {
		defaultConfigPath = ""
	}

	cmd.PersistentFlags().StringVar(&rootOpts.configPath, "config", defaultConfigPath, "Path to the lolprox configuration file")
	cmd.PersistentFlags().StringVar(&rootOpts.output, "output", "", "Output format (table|plain|json)")
	cmd.PersistentFlags().StringVar(&rootOpts.trustAnchor, "trust-anchor", "", "PEM root certificate used to verify the local APIs (verification is skipped when empty)")
	cmd.PersistentFlags().StringVar(&rootOpts.strategy, "strategy", "", "Credential discovery strategy (lockfile|process-args|auto)")
	cmd.PersistentFlags().Int32Var(&rootOpts.pid, "pid", 0, "Only consider the process with this PID when several match")

	cmd.SetContext(context.Background())
	cmd.AddCommand(newProbeCommand())
	cmd.AddCommand(newCredentialsCommand())
	cmd.AddCommand(newWatchCommand())
	cmd.AddCommand(newLivePlayerCommand())
	return cmd
}

func initializeState(cmd *cobra.Command) error {
	root := cmd.Root()
	ctx := root.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Value(appStateKey{}).(*runtimeState); ok {
		return nil
	}

	cfgPath, err := resolveConfigPath(rootOpts.configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	strategy := cfg.Lolprox.Strategy
	if strings.TrimSpace(rootOpts.strategy) != "" {
		strategy, err = config.NormalizeStrategy(rootOpts.strategy)
		if err != nil {
			return err
		}
	}

	auditLogger, err := audit.NewLogger(cfg.Lolprox.AuditLog)
	if err != nil {
		return err
	}

	state := &runtimeState{
		Config:       cfg,
		ConfigPath:   cfgPath,
		Strategy:     strategy,
		TrustAnchor:  coalesce(rootOpts.trustAnchor, cfg.Lolprox.TrustAnchor),
		PinnedPID:    rootOpts.pid,
		OutputFormat: resolveOutputFormat(rootOpts.output, cfg.Output()),
		Logger:       newLogger(),
		AuditLogger:  auditLogger,
		Metrics:      metrics.NewRecorder(),
	}

	root.SetContext(context.WithValue(ctx, appStateKey{}, state))
	return nil
}

func obtainState(cmd *cobra.Command) (*runtimeState, error) {
	ctx := cmd.Root().Context()
	if ctx == nil {
		return nil, errors.New("lolprox: command context missing")
	}
	state, _ := ctx.Value(appStateKey{}).(*runtimeState)
	if state == nil {
		return nil, errors.New("lolprox: application state not initialised")
	}
	return state, nil
}

// resolveConfigPath selects the configuration path based on flag and environment overrides.
func resolveConfigPath(flagValue string) (string, error) {
	if trimmed := strings.TrimSpace(flagValue); trimmed != "" {
		return trimmed, nil
	}
	return config.DefaultPath()
}

func resolveOutputFormat(flagValue, configValue string) renderio.Format {
	candidate := strings.TrimSpace(flagValue)
	if candidate == "" {
		candidate = configValue
	}
	return renderio.ParseFormat(candidate)
}

// newLogger constructs the structured logger used by the CLI for diagnostics.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if raw := strings.TrimSpace(os.Getenv("LOLPROX_LOG_LEVEL")); raw != "" {
		switch strings.ToLower(raw) {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn", "warning":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
