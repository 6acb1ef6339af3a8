package lcu

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// Process is a read-only handle on one running process.
type Process interface {
	PID() int32
	Name(ctx context.Context) (string, error)
	Exe(ctx context.Context) (string, error)
	Cmdline(ctx context.Context) ([]string, error)
}

// ProcessTable enumerates the live processes.
type ProcessTable interface {
	Processes(ctx context.Context) ([]Process, error)
}

// SystemProcessTable reads the host process table through gopsutil.
type SystemProcessTable struct{}

// Processes lists every process visible to the current user.
func (SystemProcessTable) Processes(ctx context.Context) ([]Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("lcu: list processes: %w", err)
	}
	out := make([]Process, 0, len(procs))
	for _, p := range procs {
		out = append(out, systemProcess{p: p})
	}
	return out, nil
}

type systemProcess struct {
	p *process.Process
}

func (s systemProcess) PID() int32 { return s.p.Pid }

func (s systemProcess) Name(ctx context.Context) (string, error) { return s.p.NameWithContext(ctx) }

func (s systemProcess) Exe(ctx context.Context) (string, error) { return s.p.ExeWithContext(ctx) }

func (s systemProcess) Cmdline(ctx context.Context) ([]string, error) {
	return s.p.CmdlineSliceWithContext(ctx)
}

// Locator finds a running process by case-insensitive name substring.
type Locator struct {
	table ProcessTable
	pid   int32
	log   *slog.Logger
}

// LocatorOption customises a Locator.
type LocatorOption func(*Locator)

// WithPinnedPID restricts matching to a single PID, resolving ambiguity explicitly.
func WithPinnedPID(pid int32) LocatorOption {
	return func(l *Locator) {
		l.pid = pid
	}
}

// WithLocatorLogger sets the logger used for diagnostics.
func WithLocatorLogger(logger *slog.Logger) LocatorOption {
	return func(l *Locator) {
		l.log = logger
	}
}

// NewLocator returns a Locator over the given table. A nil table uses the host process table.
func NewLocator(table ProcessTable, opts ...LocatorOption) *Locator {
	if table == nil {
		table = SystemProcessTable{}
	}
	l := &Locator{table: table}
	for _, opt := range opts {
		opt(l)
	}
	l.log = loggerOrDefault(l.log)
	return l
}

// Find returns the single process whose name contains needle. Zero matches yield
// ErrProcessNotFound and several unpinned matches yield ErrAmbiguousProcess.
func (l *Locator) Find(ctx context.Context, needle string) (Process, error) {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return nil, fmt.Errorf("%w: empty process name", ErrProcessNotFound)
	}
	log := l.log.With(slog.String("needle", needle))
	log.Debug("Locator.Find(ctx, needle) :: scan")

	procs, err := l.table.Processes(ctx)
	if err != nil {
		return nil, err
	}

	var matches []Process
	for _, p := range procs {
		if l.pid != 0 && p.PID() != l.pid {
			continue
		}
		name, err := p.Name(ctx)
		if err != nil {
			// Other users' processes are routinely unreadable.
			continue
		}
		if strings.Contains(strings.ToLower(name), needle) {
			matches = append(matches, p)
		}
	}

	switch len(matches) {
	case 0:
		log.Debug("Locator.Find(ctx, needle) :: not_found")
		return nil, fmt.Errorf("%w: %s", ErrProcessNotFound, needle)
	case 1:
		log.Debug("Locator.Find(ctx, needle) :: found", slog.Int("pid", int(matches[0].PID())))
		return matches[0], nil
	default:
		pids := make([]int, 0, len(matches))
		for _, m := range matches {
			pids = append(pids, int(m.PID()))
		}
		sort.Ints(pids)
		log.Warn("Locator.Find(ctx, needle) :: ambiguous", slog.Any("pids", pids))
		return nil, fmt.Errorf("%w: %s (pids %v)", ErrAmbiguousProcess, needle, pids)
	}
}
