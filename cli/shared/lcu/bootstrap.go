package lcu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// State is a point in the bootstrap state machine.
type State int

// Bootstrap states in the order they are reached.
const (
	StateNoClient State = iota
	StateClientDetected
	StateCredentialsResolved
	StateSessionValidated
	StateNotInMatch
	StateInMatch
	StateParticipantKnown
)

var stateNames = map[State]string{
	StateNoClient:            "no_client",
	StateClientDetected:      "client_detected",
	StateCredentialsResolved: "credentials_resolved",
	StateSessionValidated:    "session_validated",
	StateNotInMatch:          "not_in_match",
	StateInMatch:             "in_match",
	StateParticipantKnown:    "participant_known",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Stage names recorded in a Report.
const (
	StageResolve     = "resolve"
	StageValidate    = "validate"
	StagePoll        = "poll"
	StageWatch       = "watch"
	StageParticipant = "participant"
)

// StageResult records the outcome of one attempted transition.
type StageResult struct {
	Stage    string
	Duration time.Duration
	Err      error
}

// Report summarises a bootstrap run. Descriptor carries the token; render it via String.
type Report struct {
	State       State
	Strategy    string
	Descriptor  ConnectionDescriptor
	Identity    string
	Phase       string
	InMatch     bool
	Participant string
	Stages      []StageResult
}

// Bootstrap resolves credentials, validates the session, checks the gameflow phase, and,
// only while in a match, reads the active participant. Each step runs once and the first
// failure stops the run; the returned Report reflects the last state reached.
func Bootstrap(ctx context.Context, cfg BootstrapConfig) (Report, error) {
	if cfg.Resolver == nil {
		return Report{}, errors.New("lcu: resolver must be provided")
	}
	log := loggerOrDefault(cfg.Logger).With(slog.String("strategy", cfg.Resolver.Name()))
	if cfg.Client.Logger == nil {
		cfg.Client.Logger = cfg.Logger
	}

	report := Report{State: StateNoClient, Strategy: cfg.Resolver.Name()}
	log.Info("Bootstrap(ctx, config) :: start")

	var desc ConnectionDescriptor
	err := report.run(StageResolve, func() error {
		var err error
		desc, err = cfg.Resolver.Resolve(ctx)
		return err
	})
	if err != nil {
		if !noClientFound(err) {
			report.State = StateClientDetected
		}
		log.Warn("Bootstrap(ctx, config) :: resolve_failed", slog.String("error", err.Error()))
		return report, err
	}
	report.Descriptor = desc
	report.State = StateCredentialsResolved

	var client *Client
	err = report.run(StageValidate, func() error {
		var err error
		if client, err = NewClient(desc, cfg.Client); err != nil {
			return err
		}
		report.Identity, err = client.FetchCurrentIdentity(ctx)
		return err
	})
	if err != nil {
		log.Warn("Bootstrap(ctx, config) :: validate_failed", slog.String("error", err.Error()))
		return report, err
	}
	report.State = StateSessionValidated

	err = report.run(StagePoll, func() error {
		status, err := client.Gameflow(ctx)
		report.Phase, report.InMatch = status.Phase, status.InMatch
		return err
	})
	if err != nil {
		log.Warn("Bootstrap(ctx, config) :: poll_failed", slog.String("error", err.Error()))
		return report, err
	}
	if !report.InMatch {
		report.State = StateNotInMatch
		log.Info("Bootstrap(ctx, config) :: not_in_match", slog.String("phase", report.Phase))
		return report, nil
	}
	report.State = StateInMatch

	participant, err := FetchParticipant(ctx, cfg.LiveClientPort, cfg.Client, &report)
	if err != nil {
		log.Warn("Bootstrap(ctx, config) :: participant_failed", slog.String("error", err.Error()))
		return report, err
	}
	log.Info("Bootstrap(ctx, config) :: participant_known", slog.String("participant", participant))
	return report, nil
}

// FetchParticipant reads the active participant from the companion API and records the
// stage on report when one is given.
func FetchParticipant(ctx context.Context, port int, cfg ClientConfig, report *Report) (string, error) {
	if report == nil {
		report = &Report{}
	}
	live, err := NewLiveClient(port, cfg)
	if err != nil {
		return "", err
	}
	err = report.run(StageParticipant, func() error {
		var err error
		report.Participant, err = live.ActivePlayerName(ctx)
		return err
	})
	if err != nil {
		return "", err
	}
	report.State = StateParticipantKnown
	return report.Participant, nil
}

// noClientFound reports whether every strategy behind err failed to find its process.
// A chained resolver joins one error per strategy.
func noClientFound(err error) bool {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs := joined.Unwrap()
		for _, e := range errs {
			if !noClientFound(e) {
				return false
			}
		}
		return len(errs) > 0
	}
	return errors.Is(err, ErrProcessNotFound)
}

// Err returns the first failed stage error, if any.
func (r Report) Err() error {
	for _, s := range r.Stages {
		if s.Err != nil {
			return s.Err
		}
	}
	return nil
}

func (r *Report) run(stage string, fn func() error) error {
	started := time.Now()
	err := fn()
	r.Stages = append(r.Stages, StageResult{Stage: stage, Duration: time.Since(started), Err: err})
	return err
}
