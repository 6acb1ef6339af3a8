package cmd

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/EnigmaKM/LoLLCULiveAPISpike/cli/shared/lcu"
)

// newLivePlayerCommand returns the Cobra subcommand that reads the Live Client Data API only.
func newLivePlayerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "live-player",
		Short: "Print the active player name from the in-match Live Client Data API",
		Long:  "live-player queries the unauthenticated Live Client Data API, which only answers while a match is in progress. No credentials are needed.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := obtainState(cmd)
			if err != nil {
				return err
			}
			traceID := newTraceID()
			started := time.Now()
			logger := loggerForState(state).With(
				slog.String("command", "live-player"),
				slog.String("trace_id", traceID),
			)

			report := lcu.Report{State: lcu.StateInMatch, InMatch: true}
			_, err = lcu.FetchParticipant(cmd.Context(), state.Config.Lolprox.LiveClientPort, clientConfig(state), &report)
			if err != nil {
				report.InMatch = false
			}
			finishRun(state, "live-player", traceID, report, err, started)
			if err != nil {
				logger.Error("lolprox.live_player :: error", slog.String("error", err.Error()))
				return err
			}
			return printReport(cmd, state, report, traceID)
		},
	}
}
