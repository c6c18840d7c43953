package dnsengine

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconstructPTRAddressV4(t *testing.T) {
	ip, ok := reconstructPTRAddress("4.0.88.10.in-addr.arpa.")
	assert.True(t, ok)
	assert.Equal(t, net.ParseIP("10.88.0.4").To4(), ip.To4())
}

func TestReconstructPTRAddressV6(t *testing.T) {
	// fdfd:733b:0dc3:220b:0000:0000:0000:0002 nibble-reversed under ip6.arpa.
	name := "2.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.b.0.2.2.3.c.d.0.b.3.3.7.d.f.d.f.ip6.arpa."
	ip, ok := reconstructPTRAddress(name)
	assert.True(t, ok)
	assert.Equal(t, net.ParseIP("fdfd:733b:dc3:220b::2"), ip)
}

func TestReconstructPTRAddressNoRecognizedSuffix(t *testing.T) {
	_, ok := reconstructPTRAddress("somehost.example.com.")
	assert.False(t, ok)
}

func TestReconstructPTRAddressMalformedFallsThrough(t *testing.T) {
	_, ok := reconstructPTRAddress("not.a.valid.address.in-addr.arpa.")
	assert.False(t, ok)
}
