package supervisor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/netresolved/pkg/dnsengine"
)

func writeNetworkFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
}

func newTestSupervisor(t *testing.T, configDir string) *Supervisor {
	t.Helper()
	resolvConf := filepath.Join(t.TempDir(), "resolv.conf")
	require.NoError(t, os.WriteFile(resolvConf, []byte("nameserver 8.8.8.8\n"), 0o644))

	sup := New(Options{
		ConfigDir:          configDir,
		Port:               0, // ephemeral: tests only need a successful bind, not a fixed port
		FilterSearchDomain: ".dns.podman",
		ResolverFile:       resolvConf,
	})
	t.Cleanup(func() {
		sup.mu.Lock()
		for _, l := range sup.v4 {
			l.Stop()
		}
		for _, l := range sup.v6 {
			l.Stop()
		}
		sup.mu.Unlock()
	})
	return sup
}

func TestLoadAndReconcileBindsListenerForEachNetwork(t *testing.T) {
	dir := t.TempDir()
	writeNetworkFile(t, dir, "podman", "127.0.0.1\n")

	sup := newTestSupervisor(t, dir)
	require.NoError(t, sup.loadAndReconcile())

	sup.mu.Lock()
	defer sup.mu.Unlock()
	assert.Len(t, sup.v4, 1)
	assert.False(t, sup.planDone)

	for id := range sup.v4 {
		assert.Equal(t, "podman", id.Network)
		assert.Equal(t, "127.0.0.1", id.ListenIP.String())
	}
}

func TestLoadAndReconcileStopsListenersRemovedFromConfig(t *testing.T) {
	dir := t.TempDir()
	writeNetworkFile(t, dir, "podman", "127.0.0.1\n")

	sup := newTestSupervisor(t, dir)
	require.NoError(t, sup.loadAndReconcile())
	require.Len(t, sup.v4, 1)

	require.NoError(t, os.Remove(filepath.Join(dir, "podman")))
	require.NoError(t, sup.loadAndReconcile())

	sup.mu.Lock()
	defer sup.mu.Unlock()
	assert.Empty(t, sup.v4)
	assert.True(t, sup.planDone)
}

func TestLoadAndReconcileKeepsListenerAcrossReloadWhenUnchanged(t *testing.T) {
	dir := t.TempDir()
	writeNetworkFile(t, dir, "podman", "127.0.0.1\n")

	sup := newTestSupervisor(t, dir)
	require.NoError(t, sup.loadAndReconcile())

	sup.mu.Lock()
	var before *dnsengine.Listener
	for _, l := range sup.v4 {
		before = l
	}
	sup.mu.Unlock()

	// Add a second, unrelated network: the first listener must survive
	// reconcile untouched rather than being stopped and rebound.
	writeNetworkFile(t, dir, "podman2", "127.0.0.2\n")
	require.NoError(t, sup.loadAndReconcile())

	sup.mu.Lock()
	defer sup.mu.Unlock()
	assert.Len(t, sup.v4, 2)
	for _, l := range sup.v4 {
		if l == before {
			return
		}
	}
	t.Fatal("original listener was replaced instead of kept across reload")
}

func TestLoadAndReconcileOnEmptyConfigSetsPlanDone(t *testing.T) {
	dir := t.TempDir()

	sup := newTestSupervisor(t, dir)
	require.NoError(t, sup.loadAndReconcile())

	assert.True(t, sup.planDone)
	assert.Empty(t, sup.v4)
	assert.Empty(t, sup.v6)
}

func TestLoadAndReconcileFailsOnMalformedNetworkFile(t *testing.T) {
	dir := t.TempDir()
	writeNetworkFile(t, dir, "broken", "\nbadline\n")

	sup := newTestSupervisor(t, dir)
	assert.Error(t, sup.loadAndReconcile())
}

func TestLoadAndReconcilePopulatesHostUpstreamsOnce(t *testing.T) {
	dir := t.TempDir()
	writeNetworkFile(t, dir, "podman", "127.0.0.1\n")

	sup := newTestSupervisor(t, dir)
	require.NoError(t, sup.loadAndReconcile())

	require.NotNil(t, sup.hostUpstreams)
	require.Len(t, sup.hostUpstreams.Get(), 1)
	assert.Equal(t, "8.8.8.8", sup.hostUpstreams.Get()[0].Host())
}

func TestReconcileBindFailureIsLoggedNotFatal(t *testing.T) {
	dir := t.TempDir()
	// An address that cannot be bound on this host (outside any local
	// interface range) forces a bind failure without colliding with a
	// real listening socket.
	writeNetworkFile(t, dir, "podman", "203.0.113.1\n")

	sup := newTestSupervisor(t, dir)
	// A listener bind failure is not a fatal startup error: Run must be
	// able to keep serving whatever did bind successfully.
	err := sup.loadAndReconcile()
	assert.NoError(t, err)
	assert.Empty(t, sup.v4)
	assert.False(t, sup.planDone)
}
