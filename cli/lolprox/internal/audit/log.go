// Package audit keeps a token-free JSON-line record of each lolprox run.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/EnigmaKM/LoLLCULiveAPISpike/cli/shared/lcu"
)

const redacted = "[redacted]"

// Entry is one recorded CLI run. It never carries the API token.
type Entry struct {
	Timestamp  time.Time `json:"timestamp"`
	TraceID    string    `json:"trace_id"`
	Command    string    `json:"command"`
	Strategy   string    `json:"strategy,omitempty"`
	State      string    `json:"state"`
	Outcome    string    `json:"outcome"`
	ProcessID  int       `json:"process_id,omitempty"`
	Port       int       `json:"port,omitempty"`
	Phase      string    `json:"phase,omitempty"`
	InMatch    bool      `json:"in_match"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`

	token string
}

// FromReport maps a finished run onto an entry. The descriptor contributes only its
// process id and port; its token is kept aside so Append can scrub it from Error.
func FromReport(command, traceID string, report lcu.Report, runErr error, elapsed time.Duration) Entry {
	entry := Entry{
		TraceID:    traceID,
		Command:    command,
		Strategy:   report.Strategy,
		State:      report.State.String(),
		Outcome:    "success",
		Phase:      report.Phase,
		InMatch:    report.InMatch,
		DurationMS: elapsed.Milliseconds(),
	}
	if !report.Descriptor.IsZero() {
		entry.ProcessID = report.Descriptor.ProcessID()
		entry.Port = report.Descriptor.Port()
		entry.token = report.Descriptor.Token()
	}
	if runErr != nil {
		entry.Outcome = "failure"
		entry.Error = runErr.Error()
	}
	return entry
}

// Logger appends newline-delimited JSON audit entries.
type Logger struct {
	path string
	mu   sync.Mutex
}

// NewLogger creates a logger using the provided path. When empty, the default
// XDG-compliant audit path is used.
func NewLogger(path string) (*Logger, error) {
	resolved := strings.TrimSpace(path)
	if resolved == "" {
		var err error
		resolved, err = defaultLogPath()
		if err != nil {
			return nil, err
		}
	}
	return &Logger{path: resolved}, nil
}

// Path returns the file the logger appends to.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append writes the entry as a JSON line. The run's API token never reaches the file.
func (l *Logger) Append(entry Entry) error {
	if l == nil {
		return nil
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.token != "" {
		entry.Error = strings.ReplaceAll(entry.Error, entry.token, redacted)
		entry.token = ""
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("audit: create directory: %w", err)
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit: encode entry: %w", err)
	}

	handle, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("audit: open log: %w", err)
	}
	defer handle.Close()

	if _, err := handle.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("audit: write entry: %w", err)
	}
	return nil
}

func defaultLogPath() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdg != "" {
		return filepath.Join(xdg, "lolprox", "audit.log"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("audit: determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "lolprox", "audit.log"), nil
}
