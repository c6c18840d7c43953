package config

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ip(s string) net.IP {
	parsed := net.ParseIP(s)
	if parsed == nil {
		panic("bad ip in test: " + s)
	}
	return parsed
}

func writeConfigDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, contents := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
	}
	return dir
}

// literalScenarioFiles reproduces the two network files from the
// specification's end-to-end scenarios verbatim.
func literalScenarioFiles() map[string]string {
	return map[string]string{
		"podman": "10.88.0.1\n" +
			"7b46c7ad93fc 10.88.0.2  condescendingnash\n" +
			"88dde8a24897 10.88.0.4  trustingzhukovsky,ctr1,ctra\n" +
			"a1b2c3d4e5f6 10.88.0.5  helloworld\n",
		"podman_v6_entries": "10.89.0.1\n" +
			"7b46c7ad93fc 10.89.0.2 fdfd:733b:dc3:220b::2 test1\n" +
			"88dde8a24897 10.89.0.3 fdfd:733b:dc3:220b::3 test2\n",
	}
}

func TestParseLiteralScenario_Forward(t *testing.T) {
	dir := writeConfigDir(t, literalScenarioFiles())

	snap, plan, err := Parse(dir, ".dns.podman")
	require.NoError(t, err)
	require.NotNil(t, plan)

	// Scenario 1: A-query for trustingzhukovsky from 10.88.0.2.
	addrs, ok := snap.Forward(ip("10.88.0.2"), "trustingzhukovsky", "")
	require.True(t, ok)
	require.Len(t, addrs, 1)
	assert.Equal(t, "10.88.0.4", addrs[0].String())

	// Scenario 2: case-insensitive A-query for HELLOWORLD.
	addrs, ok = snap.Forward(ip("10.88.0.2"), "HELLOWORLD", "")
	require.True(t, ok)
	require.Len(t, addrs, 1)
	assert.Equal(t, "10.88.0.5", addrs[0].String())
}

func TestParseLiteralScenario_DualStackContainer(t *testing.T) {
	dir := writeConfigDir(t, literalScenarioFiles())

	snap, _, err := Parse(dir, ".dns.podman")
	require.NoError(t, err)

	// Scenario 4: test1 resolves to its v4 address from a v6 network peer.
	addrs, ok := snap.Forward(ip("10.89.0.2"), "test1", "")
	require.True(t, ok)
	assert.Contains(t, addrMapStrings(addrs), "10.89.0.2")

	addrs, ok = snap.Forward(ip("fdfd:733b:dc3:220b::2"), "test1", "")
	require.True(t, ok)
	assert.Contains(t, addrMapStrings(addrs), "fdfd:733b:dc3:220b::2")
}

func TestParseLiteralScenario_Reverse(t *testing.T) {
	dir := writeConfigDir(t, literalScenarioFiles())

	snap, _, err := Parse(dir, ".dns.podman")
	require.NoError(t, err)

	// Scenario 5: PTR for 10.88.0.4 from a peer on the same network.
	names, ok := snap.Reverse(ip("10.88.0.2"), ip("10.88.0.4"))
	require.True(t, ok)
	assert.Equal(t, []string{"trustingzhukovsky", "ctr1", "ctra"}, names)
}

func TestParseLiteralScenario_ListenPlan(t *testing.T) {
	dir := writeConfigDir(t, literalScenarioFiles())

	_, plan, err := Parse(dir, ".dns.podman")
	require.NoError(t, err)

	require.Contains(t, plan.V4, "podman")
	require.Len(t, plan.V4["podman"], 1)
	assert.Equal(t, "10.88.0.1", plan.V4["podman"][0].String())

	require.Contains(t, plan.V4, "podman_v6_entries")
	assert.Equal(t, "10.89.0.1", plan.V4["podman_v6_entries"][0].String())
}

func TestParseLiteralScenario_Reload(t *testing.T) {
	files := literalScenarioFiles()
	dir := writeConfigDir(t, files)

	require.NoError(t, os.Remove(filepath.Join(dir, "podman")))

	_, plan, err := Parse(dir, ".dns.podman")
	require.NoError(t, err)

	assert.NotContains(t, plan.V4, "podman")
	require.Contains(t, plan.V4, "podman_v6_entries")
}

func TestParseSkipsPIDFile(t *testing.T) {
	files := literalScenarioFiles()
	files[PIDFileName] = "1234"
	dir := writeConfigDir(t, files)

	_, plan, err := Parse(dir, ".dns.podman")
	require.NoError(t, err)
	assert.NotContains(t, plan.V4, PIDFileName)
}

func TestParseMissingBindAddressFails(t *testing.T) {
	dir := writeConfigDir(t, map[string]string{
		"broken": "\n7b46c7ad93fc 10.88.0.2  somename\n",
	})

	_, _, err := Parse(dir, ".dns.podman")
	assert.Error(t, err)
}

func TestParseInternalNetworkSuppressesContainerUpstreams(t *testing.T) {
	dir := writeConfigDir(t, map[string]string{
		"isolated%int": "10.90.0.1\n" +
			"aaa111 10.90.0.2  onlyname  8.8.8.8\n",
	})

	snap, _, err := Parse(dir, ".dns.podman")
	require.NoError(t, err)

	assert.True(t, snap.IsInternal(ip("10.90.0.2")))
	_, ok := snap.ContainerUpstreams(ip("10.90.0.2"))
	assert.False(t, ok)
}

func TestParseIDIsUsableAsForwardKeyButNotReverseName(t *testing.T) {
	dir := writeConfigDir(t, map[string]string{
		"podman2": "10.91.0.1\ncafebabe0001 10.91.0.2  onlyname\n",
	})

	snap, _, err := Parse(dir, ".dns.podman")
	require.NoError(t, err)

	addrs, ok := snap.Forward(ip("10.91.0.2"), "cafebabe0001", "")
	require.True(t, ok)
	assert.Equal(t, "10.91.0.2", addrs[0].String())

	names, ok := snap.Reverse(ip("10.91.0.2"), ip("10.91.0.2"))
	require.True(t, ok)
	assert.Equal(t, []string{"onlyname"}, names)
}

func addrMapStrings(addrs []net.IP) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}
	return out
}
