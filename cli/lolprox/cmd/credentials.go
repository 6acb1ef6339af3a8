package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	renderio "github.com/EnigmaKM/LoLLCULiveAPISpike/cli/lolprox/internal/io"
	"github.com/EnigmaKM/LoLLCULiveAPISpike/cli/shared/lcu"
)

// newCredentialsCommand returns the Cobra subcommand that only resolves the connection descriptor.
func newCredentialsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "credentials",
		Short: "Resolve the local API connection parameters (token redacted)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := obtainState(cmd)
			if err != nil {
				return err
			}
			traceID := newTraceID()
			started := time.Now()
			logger := loggerForState(state).With(slog.String("trace_id", traceID))

			resolver, err := buildResolver(state)
			if err != nil {
				return err
			}

			report := lcu.Report{State: lcu.StateNoClient, Strategy: resolver.Name()}
			desc, err := resolver.Resolve(cmd.Context())
			report.Stages = append(report.Stages, lcu.StageResult{Stage: lcu.StageResolve, Duration: time.Since(started), Err: err})
			if err != nil {
				if !errors.Is(err, lcu.ErrProcessNotFound) {
					report.State = lcu.StateClientDetected
				}
				finishRun(state, "credentials", traceID, report, err, started)
				logger.Error("lolprox.credentials :: error", slog.String("error", err.Error()))
				return err
			}
			report.State = lcu.StateCredentialsResolved
			report.Descriptor = desc
			finishRun(state, "credentials", traceID, report, nil, started)

			output, err := renderio.RenderDescriptor(desc, resolver.Name(), renderio.Options{
				TraceID:   traceID,
				Presenter: state.OutputFormat,
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
			return err
		},
	}
}
