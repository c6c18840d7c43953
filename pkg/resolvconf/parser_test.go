package resolvconf

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeResolvConf(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "resolv.conf")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func endpoints(addrs ...string) []Endpoint {
	out := make([]Endpoint, len(addrs))
	for i, a := range addrs {
		out[i] = Endpoint{IP: net.ParseIP(a)}
	}
	return out
}

func TestParseBasicNameservers(t *testing.T) {
	path := writeResolvConf(t, "nameserver 1.1.1.1\nnameserver 8.8.8.8\n")

	got, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, endpoints("1.1.1.1", "8.8.8.8"), got)
}

func TestParseStripsComments(t *testing.T) {
	path := writeResolvConf(t, "nameserver 1.1.1.1 # primary\n; a whole comment line\nnameserver 8.8.8.8\n")

	got, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, endpoints("1.1.1.1", "8.8.8.8"), got)
}

func TestParseIgnoresNonNameserverLines(t *testing.T) {
	path := writeResolvConf(t, "search example.com\nnameserver 1.1.1.1\noptions edns0\n")

	got, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, endpoints("1.1.1.1"), got)
}

func TestParseTruncatesToThree(t *testing.T) {
	path := writeResolvConf(t, "nameserver 1.1.1.1\nnameserver 2.2.2.2\nnameserver 3.3.3.3\nnameserver 4.4.4.4\n")

	got, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, endpoints("1.1.1.1", "2.2.2.2", "3.3.3.3"), got)
}

func TestParseIPv6NumericZoneIsCarriedThrough(t *testing.T) {
	path := writeResolvConf(t, "nameserver fe80::1%2\n")

	got, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, net.ParseIP("fe80::1"), got[0].IP)
	assert.Equal(t, "2", got[0].Zone)
	assert.Equal(t, "fe80::1%2", got[0].Host())
}

func TestParseIPv6NamedZoneResolvesViaInterfaceTable(t *testing.T) {
	path := writeResolvConf(t, "nameserver fe80::1%lo\n")

	got, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, net.ParseIP("fe80::1"), got[0].IP)
	assert.Equal(t, "lo", got[0].Zone)
	assert.Equal(t, "fe80::1%lo", got[0].Host())
}

func TestParseIPv6UnknownNamedZoneFails(t *testing.T) {
	path := writeResolvConf(t, "nameserver fe80::1%nonexistent0\n")

	_, err := Parse(path)
	assert.Error(t, err)
}

func TestParseIPv4WithZoneSuffixRejected(t *testing.T) {
	path := writeResolvConf(t, "nameserver 1.1.1.1%2\n")

	_, err := Parse(path)
	assert.Error(t, err)
}

func TestParseInvalidAddressFails(t *testing.T) {
	path := writeResolvConf(t, "nameserver not-an-ip\n")

	_, err := Parse(path)
	assert.Error(t, err)
}

func TestParseMissingFileFails(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
