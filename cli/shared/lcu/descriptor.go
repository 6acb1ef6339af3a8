package lcu

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

const lockfileFieldCount = 5

// ConnectionDescriptor is an immutable snapshot of one running client's API credentials.
type ConnectionDescriptor struct {
	processName string
	processID   int
	port        int
	token       string
	protocol    string
}

// NewConnectionDescriptor validates the fields and returns a descriptor.
func NewConnectionDescriptor(processName string, processID, port int, token, protocol string) (ConnectionDescriptor, error) {
	if port < 1 || port > 65535 {
		return ConnectionDescriptor{}, fmt.Errorf("port %d out of range", port)
	}
	if token == "" {
		return ConnectionDescriptor{}, fmt.Errorf("token must not be empty")
	}
	switch protocol {
	case "http", "https":
	default:
		return ConnectionDescriptor{}, fmt.Errorf("unsupported protocol %q", protocol)
	}
	return ConnectionDescriptor{
		processName: processName,
		processID:   processID,
		port:        port,
		token:       token,
		protocol:    protocol,
	}, nil
}

// ProcessName is informational only.
func (d ConnectionDescriptor) ProcessName() string { return d.processName }

// ProcessID is informational only.
func (d ConnectionDescriptor) ProcessID() int { return d.processID }

// Port is the TCP port of the authenticated API.
func (d ConnectionDescriptor) Port() int { return d.port }

// Token returns the shared secret. Callers must never log it.
func (d ConnectionDescriptor) Token() string { return d.token }

// Protocol is the URL scheme, normally "https".
func (d ConnectionDescriptor) Protocol() string { return d.protocol }

// IsZero reports whether the descriptor was never populated.
func (d ConnectionDescriptor) IsZero() bool { return d.port == 0 }

// String renders the descriptor with the token redacted.
func (d ConnectionDescriptor) String() string {
	return fmt.Sprintf("%s(pid=%d port=%d protocol=%s token=%s)", d.processName, d.processID, d.port, d.protocol, redact(d.token))
}

// LogValue keeps the token out of structured logs.
func (d ConnectionDescriptor) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("process", d.processName),
		slog.Int("pid", d.processID),
		slog.Int("port", d.port),
		slog.String("protocol", d.protocol),
	)
}

// ParseLockfile parses the `name:pid:port:token:protocol` lockfile contents.
func ParseLockfile(contents string) (ConnectionDescriptor, error) {
	line := strings.TrimSuffix(strings.TrimSuffix(contents, "\n"), "\r")
	fields := strings.Split(line, ":")
	if len(fields) != lockfileFieldCount {
		return ConnectionDescriptor{}, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedLockfile, lockfileFieldCount, len(fields))
	}

	pid, err := strconv.Atoi(fields[1])
	if err != nil {
		return ConnectionDescriptor{}, fmt.Errorf("%w: process id %q: %v", ErrMalformedLockfile, fields[1], err)
	}
	port, err := strconv.Atoi(fields[2])
	if err != nil {
		return ConnectionDescriptor{}, fmt.Errorf("%w: port %q: %v", ErrMalformedLockfile, fields[2], err)
	}

	desc, err := NewConnectionDescriptor(fields[0], pid, port, fields[3], fields[4])
	if err != nil {
		return ConnectionDescriptor{}, fmt.Errorf("%w: %v", ErrMalformedLockfile, err)
	}
	return desc, nil
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "[redacted]"
}
