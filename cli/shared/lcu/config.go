// Package lcu centralizes the credential discovery and loopback HTTP clients for the League client APIs.
package lcu

import (
	"log/slog"
	"time"
)

// Constants describing the local League client surface.
const (
	DefaultClientProcess  = "leagueclient.exe"
	DefaultUXProcess      = "leagueclientux.exe"
	DefaultLiveClientPort = 2999

	lockfileName    = "lockfile"
	loopbackHost    = "127.0.0.1"
	basicAuthUser   = "riot"
	defaultProtocol = "https"

	appPortArg   = "--app-port"
	authTokenArg = "--remoting-auth-token"

	currentSummonerPath  = "/lol-summoner/v1/current-summoner"
	gameflowPhasePath    = "/lol-gameflow/v1/gameflow-phase"
	activePlayerNamePath = "/liveclientdata/activeplayername"

	inProgressPhase = `"InProgress"`

	defaultRequestTimeout = 10 * time.Second
	maxBodySize           = 1 << 20 // 1 MiB guardrail for API responses.
)

// ClientConfig describes how to construct the loopback HTTP clients.
type ClientConfig struct {
	// TrustAnchorPath optionally points at a PEM root certificate. When empty,
	// certificate verification is disabled for the loopback connection.
	TrustAnchorPath string
	RequestTimeout  time.Duration
	Logger          *slog.Logger
}

// BootstrapConfig describes a single credential discovery and session bootstrap run.
type BootstrapConfig struct {
	Resolver       Resolver
	Client         ClientConfig
	LiveClientPort int
	Logger         *slog.Logger
}

func (c ClientConfig) timeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return defaultRequestTimeout
	}
	return c.RequestTimeout
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slogdiscardHandler{})
	}
	return logger
}
