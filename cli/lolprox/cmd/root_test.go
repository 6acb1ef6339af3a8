package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EnigmaKM/LoLLCULiveAPISpike/cli/lolprox/internal/audit"
	"github.com/EnigmaKM/LoLLCULiveAPISpike/cli/shared/lcu"
)

type stubProcess struct {
	pid  int32
	name string
	exe  string
	args []string
}

func (p stubProcess) PID() int32                                { return p.pid }
func (p stubProcess) Name(context.Context) (string, error)      { return p.name, nil }
func (p stubProcess) Exe(context.Context) (string, error)       { return p.exe, nil }
func (p stubProcess) Cmdline(context.Context) ([]string, error) { return p.args, nil }

type stubTable []stubProcess

func (t stubTable) Processes(context.Context) ([]lcu.Process, error) {
	out := make([]lcu.Process, 0, len(t))
	for _, p := range t {
		out = append(out, p)
	}
	return out, nil
}

type cliFixture struct {
	dir           string
	configPath    string
	auditPath     string
	promPath      string
	lcuPort       int
	gameflowCalls *atomic.Int32
}

func portOf(t *testing.T, srv *httptest.Server) int {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return port
}

func newCLIFixture(t *testing.T, phase string) *cliFixture {
	t.Helper()
	auth := "Basic " + lcu.BuildAuthHeader("tok")
	gameflowCalls := &atomic.Int32{}

	lcuSrv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != auth {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		switch r.URL.Path {
		case "/lol-summoner/v1/current-summoner":
			_, _ = w.Write([]byte(`{"displayName":"Caps","tagLine":"EUW"}`))
		case "/lol-gameflow/v1/gameflow-phase":
			gameflowCalls.Add(1)
			_, _ = w.Write([]byte(strconv.Quote(phase)))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	liveSrv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`"Ahri"`))
	}))
	t.Cleanup(lcuSrv.Close)
	t.Cleanup(liveSrv.Close)

	dir := t.TempDir()
	f := &cliFixture{
		dir:           dir,
		configPath:    filepath.Join(dir, "config.yaml"),
		auditPath:     filepath.Join(dir, "audit.log"),
		promPath:      filepath.Join(dir, "lolprox.prom"),
		lcuPort:       portOf(t, lcuSrv),
		gameflowCalls: gameflowCalls,
	}
	cfg := fmt.Sprintf("lolprox:\n  live_client_port: %d\n  audit_log: %s\n  metrics_textfile: %s\n  poll_interval: 1ms\n",
		portOf(t, liveSrv), f.auditPath, f.promPath)
	require.NoError(t, os.WriteFile(f.configPath, []byte(cfg), 0o600))
	return f
}

func (f *cliFixture) writeLockfile(t *testing.T) {
	t.Helper()
	contents := fmt.Sprintf("LeagueClient:4242:%d:tok:https", f.lcuPort)
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "lockfile"), []byte(contents), 0o600))
}

func (f *cliFixture) clientProcess() stubProcess {
	return stubProcess{pid: 4242, name: "LeagueClient.exe", exe: filepath.Join(f.dir, "LeagueClient.exe")}
}

func (f *cliFixture) uxProcess() stubProcess {
	return stubProcess{
		pid:  4343,
		name: "LeagueClientUx.exe",
		args: []string{"LeagueClientUx.exe", "--app-port=" + strconv.Itoa(f.lcuPort), "--remoting-auth-token=tok"},
	}
}

func useProcessTable(t *testing.T, table stubTable) {
	t.Helper()
	original := processTable
	processTable = table
	t.Cleanup(func() { processTable = original })
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	*rootOpts = rootOptions{}
	root := newRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func readAudit(t *testing.T, path string) []audit.Entry {
	t.Helper()
	handle, err := os.Open(path)
	require.NoError(t, err)
	defer handle.Close()

	var entries []audit.Entry
	scanner := bufio.NewScanner(handle)
	for scanner.Scan() {
		var entry audit.Entry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestProbeReportsParticipantWhileInMatch(t *testing.T) {
	f := newCLIFixture(t, "InProgress")
	f.writeLockfile(t)
	useProcessTable(t, stubTable{f.clientProcess()})

	out, err := executeCommand(t, "probe", "--config", f.configPath, "--output", "plain")
	require.NoError(t, err)
	assert.Contains(t, out, "Username: Caps#EUW")
	assert.Contains(t, out, "In Game As: Ahri")
	assert.NotContains(t, out, "tok:")

	entries := readAudit(t, f.auditPath)
	require.Len(t, entries, 1)
	assert.Equal(t, "participant_known", entries[0].State)
	assert.Equal(t, "success", entries[0].Outcome)
	assert.Equal(t, f.lcuPort, entries[0].Port)

	prom, err := os.ReadFile(f.promPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `lolprox_bootstrap_state{state="participant_known"} 1`)
}

func TestProbeNotInMatchSkipsLiveClient(t *testing.T) {
	f := newCLIFixture(t, "Lobby")
	f.writeLockfile(t)
	useProcessTable(t, stubTable{f.clientProcess()})

	out, err := executeCommand(t, "probe", "--config", f.configPath, "--output", "json")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "not_in_match", decoded["state"])
	assert.Equal(t, "Lobby", decoded["phase"])
	assert.Equal(t, false, decoded["in_match"])
	assert.NotContains(t, decoded, "participant")
}

func TestProbeWithoutClientIsFriendlyFailure(t *testing.T) {
	f := newCLIFixture(t, "None")
	useProcessTable(t, stubTable{})

	_, err := executeCommand(t, "probe", "--config", f.configPath)
	require.ErrorIs(t, err, lcu.ErrProcessNotFound)
	assert.True(t, IsClientUnavailable(err))

	entries := readAudit(t, f.auditPath)
	require.Len(t, entries, 1)
	assert.Equal(t, "failure", entries[0].Outcome)
	assert.Equal(t, "no_client", entries[0].State)
}

func TestProbeSignedOutReportsMissingLockfile(t *testing.T) {
	f := newCLIFixture(t, "None")
	useProcessTable(t, stubTable{f.clientProcess()})

	_, err := executeCommand(t, "probe", "--config", f.configPath)
	require.ErrorIs(t, err, lcu.ErrLockfileMissing)
	assert.True(t, IsClientUnavailable(err))
}

func TestProbeAutoStrategyFallsBackToProcessArgs(t *testing.T) {
	f := newCLIFixture(t, "None")
	useProcessTable(t, stubTable{f.uxProcess()})

	out, err := executeCommand(t, "probe", "--config", f.configPath, "--strategy", "auto")
	require.NoError(t, err)
	assert.Contains(t, out, "Strategy: lockfile,process-args")
	assert.Contains(t, out, "Identity: Caps#EUW")
}

func TestCredentialsRedactsToken(t *testing.T) {
	f := newCLIFixture(t, "None")
	useProcessTable(t, stubTable{f.uxProcess()})

	out, err := executeCommand(t, "credentials", "--config", f.configPath, "--strategy", "process-args", "--output", "plain")
	require.NoError(t, err)
	assert.Contains(t, out, "port="+strconv.Itoa(f.lcuPort))
	assert.Contains(t, out, "[redacted]")
	assert.False(t, strings.Contains(out, "token=tok"))
}

func TestWatchPollsUntilBudgetExhausted(t *testing.T) {
	f := newCLIFixture(t, "ChampSelect")
	f.writeLockfile(t)
	useProcessTable(t, stubTable{f.clientProcess()})

	_, err := executeCommand(t, "watch", "--config", f.configPath, "--max-polls", "2")
	require.ErrorIs(t, err, lcu.ErrWatchExhausted)
	assert.False(t, IsClientUnavailable(err))
	assert.Equal(t, int32(2), f.gameflowCalls.Load())
}

func TestWatchMaxPollsCountsBootstrapRead(t *testing.T) {
	for _, tc := range []struct {
		maxPolls string
		want     int32
	}{
		{maxPolls: "1", want: 1},
		{maxPolls: "3", want: 3},
	} {
		t.Run(tc.maxPolls, func(t *testing.T) {
			f := newCLIFixture(t, "None")
			f.writeLockfile(t)
			useProcessTable(t, stubTable{f.clientProcess()})

			_, err := executeCommand(t, "watch", "--config", f.configPath, "--max-polls", tc.maxPolls)
			require.ErrorIs(t, err, lcu.ErrWatchExhausted)
			assert.Equal(t, tc.want, f.gameflowCalls.Load())

			prom, err := os.ReadFile(f.promPath)
			require.NoError(t, err)
			assert.Contains(t, string(prom), fmt.Sprintf("lolprox_watch_polls_total %d", tc.want))
			assert.Contains(t, string(prom), `stage="watch"`)
		})
	}
}

func TestWatchReturnsImmediatelyWhenAlreadyInMatch(t *testing.T) {
	f := newCLIFixture(t, "InProgress")
	f.writeLockfile(t)
	useProcessTable(t, stubTable{f.clientProcess()})

	out, err := executeCommand(t, "watch", "--config", f.configPath, "--output", "plain")
	require.NoError(t, err)
	assert.Contains(t, out, "In Game As: Ahri")
}

func TestLivePlayerNeedsNoCredentials(t *testing.T) {
	f := newCLIFixture(t, "None")
	useProcessTable(t, stubTable{})

	out, err := executeCommand(t, "live-player", "--config", f.configPath, "--output", "plain")
	require.NoError(t, err)
	assert.Contains(t, out, "In Game As: Ahri")
}

func TestUnknownStrategyFlagIsRejected(t *testing.T) {
	f := newCLIFixture(t, "None")

	_, err := executeCommand(t, "probe", "--config", f.configPath, "--strategy", "guess")
	require.Error(t, err)
	assert.False(t, IsClientUnavailable(err))
}

func TestIsClientUnavailable(t *testing.T) {
	assert.True(t, IsClientUnavailable(fmt.Errorf("wrapped: %w", lcu.ErrMalformedLockfile)))
	assert.False(t, IsClientUnavailable(&lcu.APIRequestError{StatusCode: 403}))
	assert.False(t, IsClientUnavailable(errors.New("other")))
}

func TestUnavailableReasonFollowsErrorClass(t *testing.T) {
	assert.Equal(t, "League client process not detected", UnavailableReason(fmt.Errorf("process-args: %w", lcu.ErrProcessNotFound)))
	assert.Equal(t, "League client lockfile not detected", UnavailableReason(lcu.ErrLockfileMissing))
	assert.Equal(t, "League client lockfile unreadable", UnavailableReason(lcu.ErrMalformedLockfile))
	joined := errors.Join(fmt.Errorf("lockfile: %w", lcu.ErrLockfileMissing), fmt.Errorf("process-args: %w", lcu.ErrProcessNotFound))
	assert.Equal(t, "League client lockfile not detected", UnavailableReason(joined))
}

func TestProcessArgsWithoutUXProcessIsProcessNotDetected(t *testing.T) {
	f := newCLIFixture(t, "None")
	useProcessTable(t, stubTable{})

	_, err := executeCommand(t, "probe", "--config", f.configPath, "--strategy", "process-args")
	require.ErrorIs(t, err, lcu.ErrProcessNotFound)
	require.True(t, IsClientUnavailable(err))
	assert.Equal(t, "League client process not detected", UnavailableReason(err))
}
