package lcu

import (
	"fmt"
	"strings"
)

// LaunchArgs maps `--key` to its value. A nil value marks a flag given without `=`.
type LaunchArgs map[string]*string

// ParseLaunchArgs strictly parses a process argument list. Tokens that do not start
// with `-` are ignored; empty keys and repeated keys are rejected.
func ParseLaunchArgs(argv []string) (LaunchArgs, error) {
	args := make(LaunchArgs, len(argv))
	for _, token := range argv {
		if !strings.HasPrefix(token, "-") {
			continue
		}

		key, value, hasValue := strings.Cut(token, "=")
		if strings.TrimLeft(key, "-") == "" {
			return nil, fmt.Errorf("%w: empty key in %q", ErrMalformedArgument, token)
		}
		if _, dup := args[key]; dup {
			return nil, fmt.Errorf("%w: duplicate key %q", ErrMalformedArgument, key)
		}
		if hasValue {
			v := value
			args[key] = &v
		} else {
			args[key] = nil
		}
	}
	return args, nil
}

// Value returns the argument value and whether it was present with a value.
func (a LaunchArgs) Value(key string) (string, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// Require returns the value for key or ErrMissingArgument.
func (a LaunchArgs) Require(key string) (string, error) {
	v, ok := a.Value(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, key)
	}
	return v, nil
}
