package lcu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Resolver obtains connection parameters for the authenticated API.
type Resolver interface {
	Resolve(ctx context.Context) (ConnectionDescriptor, error)
	Name() string
}

// LockfileResolver reads the lockfile written next to the client executable.
type LockfileResolver struct {
	Locator *Locator
	// ProcessName defaults to DefaultClientProcess.
	ProcessName string
	// Path skips process discovery and reads this lockfile directly.
	Path   string
	Logger *slog.Logger
}

// Name identifies the strategy.
func (r *LockfileResolver) Name() string { return "lockfile" }

// Resolve locates the client, reads its lockfile, and parses it.
func (r *LockfileResolver) Resolve(ctx context.Context) (ConnectionDescriptor, error) {
	log := loggerOrDefault(r.Logger).With(slog.String("strategy", r.Name()))

	path := strings.TrimSpace(r.Path)
	if path == "" {
		var err error
		path, err = r.discoverPath(ctx)
		if err != nil {
			log.Debug("LockfileResolver.Resolve(ctx) :: locate_failed", slog.String("error", err.Error()))
			return ConnectionDescriptor{}, err
		}
	}
	log = log.With(slog.String("lockfile", path))

	data, err := os.ReadFile(path)
	if err != nil {
		log.Debug("LockfileResolver.Resolve(ctx) :: read_failed", slog.String("error", err.Error()))
		return ConnectionDescriptor{}, fmt.Errorf("%w: %s: %v", ErrLockfileMissing, path, err)
	}

	desc, err := ParseLockfile(string(data))
	if err != nil {
		log.Warn("LockfileResolver.Resolve(ctx) :: parse_failed", slog.String("error", err.Error()))
		return ConnectionDescriptor{}, err
	}
	log.Info("LockfileResolver.Resolve(ctx) :: resolved", slog.Any("descriptor", desc))
	return desc, nil
}

func (r *LockfileResolver) discoverPath(ctx context.Context) (string, error) {
	locator := r.Locator
	if locator == nil {
		locator = NewLocator(nil)
	}
	name := r.ProcessName
	if strings.TrimSpace(name) == "" {
		name = DefaultClientProcess
	}

	proc, err := locator.Find(ctx, name)
	if err != nil {
		return "", err
	}
	exe, err := proc.Exe(ctx)
	if err != nil || strings.TrimSpace(exe) == "" {
		return "", fmt.Errorf("%w: executable path for pid %d unavailable: %v", ErrLockfileMissing, proc.PID(), err)
	}
	return filepath.Join(filepath.Dir(exe), lockfileName), nil
}

// ProcessArgsResolver reads the port and token from the UX process launch arguments.
// It stops working once the UX window closes, which the client does during a match.
type ProcessArgsResolver struct {
	Locator *Locator
	// ProcessName defaults to DefaultUXProcess.
	ProcessName string
	Logger      *slog.Logger
}

// Name identifies the strategy.
func (r *ProcessArgsResolver) Name() string { return "process-args" }

// Resolve locates the UX process and extracts --app-port and --remoting-auth-token.
func (r *ProcessArgsResolver) Resolve(ctx context.Context) (ConnectionDescriptor, error) {
	log := loggerOrDefault(r.Logger).With(slog.String("strategy", r.Name()))

	locator := r.Locator
	if locator == nil {
		locator = NewLocator(nil)
	}
	name := r.ProcessName
	if strings.TrimSpace(name) == "" {
		name = DefaultUXProcess
	}

	proc, err := locator.Find(ctx, name)
	if err != nil {
		log.Debug("ProcessArgsResolver.Resolve(ctx) :: locate_failed", slog.String("error", err.Error()))
		return ConnectionDescriptor{}, err
	}
	argv, err := proc.Cmdline(ctx)
	if err != nil {
		return ConnectionDescriptor{}, fmt.Errorf("lcu: read arguments of pid %d: %w", proc.PID(), err)
	}

	args, err := ParseLaunchArgs(argv)
	if err != nil {
		return ConnectionDescriptor{}, err
	}
	rawPort, err := args.Require(appPortArg)
	if err != nil {
		return ConnectionDescriptor{}, err
	}
	token, err := args.Require(authTokenArg)
	if err != nil {
		return ConnectionDescriptor{}, err
	}
	port, err := strconv.Atoi(rawPort)
	if err != nil {
		return ConnectionDescriptor{}, fmt.Errorf("%w: %s=%q", ErrMalformedArgument, appPortArg, rawPort)
	}

	procName, err := proc.Name(ctx)
	if err != nil {
		procName = name
	}
	desc, err := NewConnectionDescriptor(procName, int(proc.PID()), port, token, defaultProtocol)
	if err != nil {
		return ConnectionDescriptor{}, fmt.Errorf("%w: %v", ErrMalformedArgument, err)
	}
	log.Info("ProcessArgsResolver.Resolve(ctx) :: resolved", slog.Any("descriptor", desc))
	return desc, nil
}

// ChainResolver tries each resolver in order and returns the first success.
type ChainResolver []Resolver

// Name lists the chained strategies.
func (c ChainResolver) Name() string {
	names := make([]string, 0, len(c))
	for _, r := range c {
		names = append(names, r.Name())
	}
	return strings.Join(names, ",")
}

// Resolve returns the first successful descriptor or all strategy errors joined.
func (c ChainResolver) Resolve(ctx context.Context) (ConnectionDescriptor, error) {
	if len(c) == 0 {
		return ConnectionDescriptor{}, errors.New("lcu: no credential strategies configured")
	}
	var errs []error
	for _, r := range c {
		desc, err := r.Resolve(ctx)
		if err == nil {
			return desc, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
	}
	return ConnectionDescriptor{}, errors.Join(errs...)
}
