package lcu

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockfileResolverReadsLockfileNextToExecutable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lockfile"), []byte("LeagueClient:15516:54321:tok:https"), 0o600))

	resolver := &LockfileResolver{
		Locator: NewLocator(fakeTable{{pid: 15516, name: "LeagueClient.exe", exe: filepath.Join(dir, "LeagueClient.exe")}}),
	}
	desc, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 54321, desc.Port())
	assert.Equal(t, "tok", desc.Token())
	assert.Equal(t, 15516, desc.ProcessID())
}

func TestLockfileResolverReportsMissingLockfile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	resolver := &LockfileResolver{
		Locator: NewLocator(fakeTable{{pid: 1, name: "LeagueClient.exe", exe: filepath.Join(dir, "LeagueClient.exe")}}),
	}
	_, err := resolver.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrLockfileMissing)
}

func TestLockfileResolverReportsMissingProcess(t *testing.T) {
	t.Parallel()

	resolver := &LockfileResolver{Locator: NewLocator(fakeTable{})}
	_, err := resolver.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrProcessNotFound)
}

func TestLockfileResolverExplicitPathSkipsDiscovery(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lockfile")
	require.NoError(t, os.WriteFile(path, []byte("LeagueClient:1:2:3"), 0o600))

	resolver := &LockfileResolver{Locator: NewLocator(fakeTable{}), Path: path}
	_, err := resolver.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrMalformedLockfile)
}

func TestProcessArgsResolverBuildsHTTPSDescriptor(t *testing.T) {
	t.Parallel()

	resolver := &ProcessArgsResolver{
		Locator: NewLocator(fakeTable{{
			pid:  777,
			name: "LeagueClientUx.exe",
			args: []string{"LeagueClientUx.exe", "--app-port=60000", "--remoting-auth-token=abc", "--no-rads"},
		}}),
	}
	desc, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "LeagueClientUx.exe", desc.ProcessName())
	assert.Equal(t, 777, desc.ProcessID())
	assert.Equal(t, 60000, desc.Port())
	assert.Equal(t, "abc", desc.Token())
	assert.Equal(t, "https", desc.Protocol())
}

func TestProcessArgsResolverFailures(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		args []string
		want error
	}{
		"missing port":   {[]string{"--remoting-auth-token=abc"}, ErrMissingArgument},
		"missing token":  {[]string{"--app-port=60000"}, ErrMissingArgument},
		"bare token":     {[]string{"--app-port=60000", "--remoting-auth-token"}, ErrMissingArgument},
		"bad port":       {[]string{"--app-port=sixty", "--remoting-auth-token=abc"}, ErrMalformedArgument},
		"port range":     {[]string{"--app-port=70000", "--remoting-auth-token=abc"}, ErrMalformedArgument},
		"duplicate port": {[]string{"--app-port=1", "--app-port=2", "--remoting-auth-token=abc"}, ErrMalformedArgument},
	}
	for name, tc := range cases {
		resolver := &ProcessArgsResolver{
			Locator: NewLocator(fakeTable{{pid: 1, name: "LeagueClientUx.exe", args: tc.args}}),
		}
		_, err := resolver.Resolve(context.Background())
		assert.ErrorIs(t, err, tc.want, name)
	}

	_, err := (&ProcessArgsResolver{Locator: NewLocator(fakeTable{})}).Resolve(context.Background())
	assert.ErrorIs(t, err, ErrProcessNotFound)
}

func TestChainResolverFallsBackInOrder(t *testing.T) {
	t.Parallel()

	table := fakeTable{{
		pid:  5,
		name: "LeagueClientUx.exe",
		args: []string{"--app-port=60000", "--remoting-auth-token=abc"},
	}}
	chain := ChainResolver{
		&LockfileResolver{Locator: NewLocator(table)},
		&ProcessArgsResolver{Locator: NewLocator(table)},
	}
	assert.Equal(t, "lockfile,process-args", chain.Name())

	desc, err := chain.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 60000, desc.Port())
}

func TestChainResolverJoinsErrors(t *testing.T) {
	t.Parallel()

	chain := ChainResolver{
		&LockfileResolver{Locator: NewLocator(fakeTable{})},
		&ProcessArgsResolver{Locator: NewLocator(fakeTable{{pid: 1, name: "LeagueClientUx.exe"}})},
	}
	_, err := chain.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrProcessNotFound)
	assert.ErrorIs(t, err, ErrMissingArgument)

	_, err = ChainResolver{}.Resolve(context.Background())
	assert.Error(t, err)
}
