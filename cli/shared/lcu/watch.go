package lcu

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrWatchExhausted is returned when MaxPolls checks passed without a match starting.
var ErrWatchExhausted = errors.New("lcu: match did not start within poll budget")

// GameflowReader is satisfied by *Client.
type GameflowReader interface {
	Gameflow(ctx context.Context) (GameflowStatus, error)
}

// WatchOptions make the polling schedule explicit: a fixed interval without jitter,
// stopping on match start, after MaxPolls checks (0 means unbounded), on context
// cancellation, or on the first failed check.
//
// PriorPolls counts checks the caller already made, such as the one inside Bootstrap.
// They count against MaxPolls and the first check here waits one interval.
type WatchOptions struct {
	Interval   time.Duration
	MaxPolls   int
	PriorPolls int
	OnPoll     func(attempt int, status GameflowStatus)
	Logger     *slog.Logger
}

const defaultWatchInterval = 5 * time.Second

// Watch polls the gameflow phase until a match is in progress. It returns the number
// of the last attempt, counting PriorPolls.
func Watch(ctx context.Context, reader GameflowReader, opts WatchOptions) (int, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultWatchInterval
	}
	prior := max(opts.PriorPolls, 0)
	log := loggerOrDefault(opts.Logger).With(slog.Duration("interval", interval), slog.Int("max_polls", opts.MaxPolls))

	if opts.MaxPolls > 0 && prior >= opts.MaxPolls {
		return prior, ErrWatchExhausted
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := prior + 1; ; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return attempt - 1, ctx.Err()
			case <-ticker.C:
			}
		}

		status, err := reader.Gameflow(ctx)
		if err != nil {
			log.Warn("Watch(ctx, reader, options) :: poll_failed", slog.Int("attempt", attempt), slog.String("error", err.Error()))
			return attempt, err
		}
		if opts.OnPoll != nil {
			opts.OnPoll(attempt, status)
		}
		if status.InMatch {
			log.Info("Watch(ctx, reader, options) :: in_match", slog.Int("attempt", attempt))
			return attempt, nil
		}
		if opts.MaxPolls > 0 && attempt >= opts.MaxPolls {
			return attempt, ErrWatchExhausted
		}
	}
}
