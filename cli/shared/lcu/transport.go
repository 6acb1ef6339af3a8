package lcu

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
)

// loopbackTransport wraps the base transport to enforce literal loopback IP requests.
// The local API answers 403 when addressed as "localhost", and the relaxed TLS
// policy must never reach another host.
type loopbackTransport struct {
	base http.RoundTripper
	log  *slog.Logger
}

// RoundTrip refuses requests to anything other than a loopback IP literal.
func (t *loopbackTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil || req.URL == nil {
		return nil, fmt.Errorf("%w: request without url", ErrNonLoopbackHost)
	}

	host := req.URL.Hostname()
	if !isLoopbackLiteral(host) {
		t.log.Warn(
			"LoopbackGuard blocked outbound HTTP request",
			slog.String("method", req.Method),
			slog.String("url", req.URL.Redacted()),
		)
		return nil, fmt.Errorf("%w: %s", ErrNonLoopbackHost, host)
	}

	return t.base.RoundTrip(req)
}

// isLoopbackLiteral reports whether host is an IP literal inside the loopback range.
func isLoopbackLiteral(host string) bool {
	if host == "" {
		return false
	}
	ip := net.ParseIP(strings.Trim(host, "[]"))
	if ip == nil {
		return false
	}
	return ip.IsLoopback()
}

// newTLSConfig applies the trust policy: verify against the explicit trust anchor
// when one is configured, otherwise skip verification for the loopback connection.
func newTLSConfig(trustAnchorPath string) (*tls.Config, error) {
	path := strings.TrimSpace(trustAnchorPath)
	if path == "" {
		return &tls.Config{InsecureSkipVerify: true}, nil //nolint:gosec // loopback-only, guarded by loopbackTransport
	}

	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrTrustAnchor, path, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("%w: no certificates in %s", ErrTrustAnchor, path)
	}
	return &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// newHTTPClient builds the loopback-only HTTP client shared by the API clients.
func newHTTPClient(cfg ClientConfig, log *slog.Logger) (*http.Client, error) {
	tlsConfig, err := newTLSConfig(cfg.TrustAnchorPath)
	if err != nil {
		return nil, err
	}

	base := &http.Transport{}
	if def, ok := http.DefaultTransport.(*http.Transport); ok {
		base = def.Clone()
	}
	base.TLSClientConfig = tlsConfig
	base.Proxy = nil

	return &http.Client{
		Timeout: cfg.timeout(),
		Transport: &loopbackTransport{
			base: base,
			log:  log.With(slog.String("component", "lcu.loopback_guard")),
		},
	}, nil
}

// slogdiscardHandler is a no-op handler used when no logger is configured.
type slogdiscardHandler struct{}

// Enabled indicates that no log levels are handled by the discard logger.
func (slogdiscardHandler) Enabled(context.Context, slog.Level) bool { return false }

// Handle drops all log records without processing.
func (slogdiscardHandler) Handle(context.Context, slog.Record) error { return nil }

// WithAttrs returns the discard logger unchanged.
func (slogdiscardHandler) WithAttrs([]slog.Attr) slog.Handler { return slogdiscardHandler{} }

// WithGroup returns the discard logger unchanged for grouped logging.
func (slogdiscardHandler) WithGroup(string) slog.Handler { return slogdiscardHandler{} }
