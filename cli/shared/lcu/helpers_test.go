package lcu

import (
	"context"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeProcess struct {
	pid     int32
	name    string
	exe     string
	args    []string
	nameErr error
}

func (p fakeProcess) PID() int32 { return p.pid }

func (p fakeProcess) Name(context.Context) (string, error) {
	if p.nameErr != nil {
		return "", p.nameErr
	}
	return p.name, nil
}

func (p fakeProcess) Exe(context.Context) (string, error) {
	if p.exe == "" {
		return "", errors.New("access denied")
	}
	return p.exe, nil
}

func (p fakeProcess) Cmdline(context.Context) ([]string, error) { return p.args, nil }

type fakeTable []fakeProcess

func (t fakeTable) Processes(context.Context) ([]Process, error) {
	out := make([]Process, 0, len(t))
	for _, p := range t {
		out = append(out, p)
	}
	return out, nil
}

// serverPort returns the loopback port an httptest server listens on.
func serverPort(t *testing.T, srv *httptest.Server) int {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return port
}

// writeTrustAnchor stores the server's certificate as a PEM trust anchor.
func writeTrustAnchor(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "riotgames.pem")
	block := &pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw}
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
	return path
}

// lcuHandler serves the authenticated endpoints with a fixed token and phase.
func lcuHandler(t *testing.T, token, phase string) http.Handler {
	t.Helper()
	want := "Basic " + BuildAuthHeader(token)
	mux := http.NewServeMux()
	mux.HandleFunc(currentSummonerPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != want {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"displayName":"Faker","gameName":"Faker","tagLine":"KR1","puuid":"p-1","summonerId":42,"summonerLevel":700}`))
	})
	mux.HandleFunc(gameflowPhasePath, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != want {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(strconv.Quote(phase)))
	})
	return mux
}

func mustDescriptor(t *testing.T, port int, token string) ConnectionDescriptor {
	t.Helper()
	desc, err := NewConnectionDescriptor("LeagueClient", 1234, port, token, "https")
	require.NoError(t, err)
	return desc
}
