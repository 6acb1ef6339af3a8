package cmd

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/EnigmaKM/LoLLCULiveAPISpike/cli/shared/lcu"
)

// newProbeCommand returns the Cobra subcommand that runs the full bootstrap once.
func newProbeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Resolve credentials, validate the session, and report match state",
		Long:  "probe runs every bootstrap step once: credential discovery, session validation, gameflow phase check, and, while in a match, the active player lookup.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := obtainState(cmd)
			if err != nil {
				return err
			}
			traceID := newTraceID()
			started := time.Now()
			logger := loggerForState(state).With(
				slog.String("command", "probe"),
				slog.String("trace_id", traceID),
			)

			resolver, err := buildResolver(state)
			if err != nil {
				return err
			}
			logger.Info("lolprox.probe :: request", slog.String("strategy", resolver.Name()))

			report, err := lcu.Bootstrap(cmd.Context(), lcu.BootstrapConfig{
				Resolver:       resolver,
				Client:         clientConfig(state),
				LiveClientPort: state.Config.Lolprox.LiveClientPort,
				Logger:         logger,
			})
			finishRun(state, "probe", traceID, report, err, started)
			if err != nil {
				logger.Error("lolprox.probe :: error", slog.String("state", report.State.String()), slog.String("error", err.Error()))
				return err
			}

			logger.Info(
				"lolprox.probe :: success",
				slog.Duration("duration", time.Since(started)),
				slog.String("state", report.State.String()),
			)
			return printReport(cmd, state, report, traceID)
		},
	}
}
