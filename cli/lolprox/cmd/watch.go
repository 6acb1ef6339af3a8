package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/EnigmaKM/LoLLCULiveAPISpike/cli/shared/lcu"
)

// newWatchCommand returns the Cobra subcommand that polls until a match starts.
func newWatchCommand() *cobra.Command {
	var (
		interval time.Duration
		maxPolls int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Validate the session, then poll the gameflow phase until a match starts",
		Long:  "watch polls /lol-gameflow/v1/gameflow-phase on a fixed interval without jitter. It stops when a match is in progress, after --max-polls checks, on interrupt, or on the first failed check.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := obtainState(cmd)
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = state.Config.Lolprox.PollInterval
			}
			traceID := newTraceID()
			started := time.Now()
			logger := loggerForState(state).With(
				slog.String("command", "watch"),
				slog.String("trace_id", traceID),
			)

			resolver, err := buildResolver(state)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			report, err := runWatch(ctx, cmd, state, resolver, interval, maxPolls, logger)
			finishRun(state, "watch", traceID, report, err, started)
			if err != nil {
				logger.Error("lolprox.watch :: error", slog.String("state", report.State.String()), slog.String("error", err.Error()))
				return err
			}
			return printReport(cmd, state, report, traceID)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Fixed delay between gameflow polls (defaults to poll_interval from config)")
	cmd.Flags().IntVar(&maxPolls, "max-polls", 0, "Stop after this many polls without a match (0 polls until interrupted)")
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, state *runtimeState, resolver lcu.Resolver, interval time.Duration, maxPolls int, logger *slog.Logger) (lcu.Report, error) {
	cfg := clientConfig(state)
	report, err := lcu.Bootstrap(ctx, lcu.BootstrapConfig{
		Resolver:       resolver,
		Client:         cfg,
		LiveClientPort: state.Config.Lolprox.LiveClientPort,
		Logger:         logger,
	})
	// The gameflow read inside Bootstrap is poll 1.
	if slices.ContainsFunc(report.Stages, func(s lcu.StageResult) bool { return s.Stage == lcu.StagePoll }) {
		state.Metrics.RecordPoll()
	}
	if err != nil || report.InMatch {
		return report, err
	}
	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "poll 1: not in game (%s)\n", report.Phase)

	client, err := lcu.NewClient(report.Descriptor, cfg)
	if err != nil {
		return report, err
	}

	pollStarted := time.Now()
	_, err = lcu.Watch(ctx, client, lcu.WatchOptions{
		Interval:   interval,
		MaxPolls:   maxPolls,
		PriorPolls: 1,
		Logger:     logger,
		OnPoll: func(attempt int, status lcu.GameflowStatus) {
			state.Metrics.RecordPoll()
			report.Phase = status.Phase
			if !status.InMatch {
				fmt.Fprintf(out, "poll %d: not in game (%s)\n", attempt, status.Phase)
			}
		},
	})
	report.Stages = append(report.Stages, lcu.StageResult{Stage: lcu.StageWatch, Duration: time.Since(pollStarted), Err: err})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("lolprox.watch :: interrupted")
		}
		return report, err
	}
	report.InMatch = true
	report.State = lcu.StateInMatch

	_, err = lcu.FetchParticipant(ctx, state.Config.Lolprox.LiveClientPort, cfg, &report)
	return report, err
}
