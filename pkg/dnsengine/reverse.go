package dnsengine

import (
	"net"
	"strings"
)

const (
	v4ReverseSuffix = ".in-addr.arpa."
	v6ReverseSuffix = ".ip6.arpa."
)

// reconstructPTRAddress turns a PTR query name such as
// "4.0.88.10.in-addr.arpa." or the nibble-reversed IPv6 form back into the
// address it names. ok is false when name does not carry a recognized
// reverse-lookup suffix or the reconstructed literal does not parse.
func reconstructPTRAddress(name string) (net.IP, bool) {
	switch {
	case strings.HasSuffix(name, v4ReverseSuffix):
		return reconstructV4(strings.TrimSuffix(name, v4ReverseSuffix))
	case strings.HasSuffix(name, v6ReverseSuffix):
		return reconstructV6(strings.TrimSuffix(name, v6ReverseSuffix))
	default:
		return nil, false
	}
}

func reconstructV4(labels string) (net.IP, bool) {
	parts := strings.Split(labels, ".")
	reverse(parts)
	ip := net.ParseIP(strings.Join(parts, "."))
	if ip == nil || ip.To4() == nil {
		return nil, false
	}
	return ip, true
}

func reconstructV6(labels string) (net.IP, bool) {
	nibbles := strings.Split(labels, ".")
	reverse(nibbles)

	var sb strings.Builder
	for i, nibble := range nibbles {
		if i > 0 && i%4 == 0 {
			sb.WriteByte(':')
		}
		sb.WriteString(nibble)
	}

	ip := net.ParseIP(sb.String())
	if ip == nil || ip.To4() != nil {
		return nil, false
	}
	return ip, true
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
