package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/EnigmaKM/LoLLCULiveAPISpike/cli/lolprox/internal/audit"
	"github.com/EnigmaKM/LoLLCULiveAPISpike/cli/lolprox/internal/config"
	renderio "github.com/EnigmaKM/LoLLCULiveAPISpike/cli/lolprox/internal/io"
	"github.com/EnigmaKM/LoLLCULiveAPISpike/cli/shared/lcu"
)

// buildResolver assembles the credential strategy selected by flag or configuration.
func buildResolver(state *runtimeState) (lcu.Resolver, error) {
	logger := loggerForState(state)
	opts := []lcu.LocatorOption{lcu.WithLocatorLogger(logger)}
	if state.PinnedPID != 0 {
		opts = append(opts, lcu.WithPinnedPID(state.PinnedPID))
	}
	locator := lcu.NewLocator(processTable, opts...)

	lockfile := &lcu.LockfileResolver{
		Locator:     locator,
		ProcessName: state.Config.Lolprox.ClientProcess,
		Path:        state.Config.Lolprox.Lockfile,
		Logger:      logger,
	}
	args := &lcu.ProcessArgsResolver{
		Locator:     locator,
		ProcessName: state.Config.Lolprox.UXProcess,
		Logger:      logger,
	}

	switch state.Strategy {
	case config.StrategyLockfile:
		return lockfile, nil
	case config.StrategyProcessArgs:
		return args, nil
	case config.StrategyAuto:
		return lcu.ChainResolver{lockfile, args}, nil
	default:
		return nil, fmt.Errorf("lolprox: unknown strategy %q", state.Strategy)
	}
}

// clientConfig derives the loopback client settings from the runtime state.
func clientConfig(state *runtimeState) lcu.ClientConfig {
	return lcu.ClientConfig{
		TrustAnchorPath: state.TrustAnchor,
		RequestTimeout:  state.Config.Lolprox.RequestTimeout,
		Logger:          loggerForState(state),
	}
}

// finishRun records metrics and the audit entry for a completed command.
func finishRun(state *runtimeState, command, traceID string, report lcu.Report, runErr error, started time.Time) {
	logger := loggerForState(state).With(slog.String("trace_id", traceID))

	state.Metrics.RecordReport(report)
	if err := state.Metrics.WriteTextfile(state.Config.Lolprox.MetricsTextfile); err != nil {
		logger.Warn("lolprox.metrics :: write_failed", slog.String("error", err.Error()))
	}

	entry := audit.FromReport(command, traceID, report, runErr, time.Since(started))
	if err := state.AuditLogger.Append(entry); err != nil {
		logger.Warn("lolprox.audit :: append_failed", slog.String("error", err.Error()))
	}
}

// printReport renders the report in the configured format to stdout.
func printReport(cmd *cobra.Command, state *runtimeState, report lcu.Report, traceID string) error {
	output, err := renderio.Render(report, renderio.Options{
		TraceID:   traceID,
		Presenter: state.OutputFormat,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
	return err
}

// newTraceID creates a correlation identifier for audit and log lines.
func newTraceID() string {
	return uuid.NewString()
}

// loggerForState returns the state logger or falls back to slog.Default.
func loggerForState(state *runtimeState) *slog.Logger {
	if state != nil && state.Logger != nil {
		return state.Logger
	}
	return slog.Default()
}

// coalesce returns the first non-empty string from the provided arguments.
func coalesce(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
