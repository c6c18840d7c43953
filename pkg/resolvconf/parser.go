package resolvconf

import (
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/cuemby/netresolved/pkg/dnserr"
)

// maxEntries is the maximum number of upstream resolvers kept from a host
// resolver file; entries beyond this are ignored.
const maxEntries = 3

// Endpoint is a single upstream resolver address, with its IPv6 zone (if
// any) carried alongside the bare IP so a link-local nameserver can still
// be dialed after parsing.
type Endpoint struct {
	IP   net.IP
	Zone string
}

// Host renders the endpoint the way net.JoinHostPort expects its host
// argument: the bare IP, or "ip%zone" when a zone is set.
func (e Endpoint) Host() string {
	if e.Zone == "" {
		return e.IP.String()
	}
	return e.IP.String() + "%" + e.Zone
}

// Parse reads path and returns up to three upstream resolver endpoints.
// Every entry is always queried on port 53.
func Parse(path string) ([]Endpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, dnserr.WrapIO("resolver file read failed: "+path, err)
	}

	var endpoints []Endpoint
	for _, line := range strings.Split(string(data), "\n") {
		if len(endpoints) >= maxEntries {
			break
		}

		line = stripComment(line)
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != "nameserver" {
			continue
		}

		ep, err := parseNameserver(fields[1])
		if err != nil {
			return nil, dnserr.Chainf("resolver file %s: nameserver line", err, path)
		}
		endpoints = append(endpoints, ep)
	}

	return endpoints, nil
}

// stripComment removes everything from the first '#' or ';' onward.
func stripComment(line string) string {
	if i := strings.IndexAny(line, "#;"); i >= 0 {
		line = line[:i]
	}
	return line
}

// parseNameserver parses a single nameserver address, handling the
// optional IPv6 zone suffix ("fe80::1%eth0" or "fe80::1%2"). The zone is
// validated against the local interface table and, if valid, carried
// through on the returned Endpoint so a link-local resolver can still be
// dialed later.
func parseNameserver(addr string) (Endpoint, error) {
	host, zone, hasZone := strings.Cut(addr, "%")

	ip := net.ParseIP(host)
	if ip == nil {
		return Endpoint{}, dnserr.WrapAddrParse(addr, errInvalidAddr)
	}
	isV4 := ip.To4() != nil

	if !hasZone {
		return Endpoint{IP: ip}, nil
	}
	if isV4 {
		return Endpoint{}, dnserr.Newf("nameserver %q: IPv4 address may not carry a zone suffix", addr)
	}
	if _, err := resolveZone(zone); err != nil {
		return Endpoint{}, dnserr.Chainf("nameserver %q: zone %q", err, addr, zone)
	}

	return Endpoint{IP: ip, Zone: zone}, nil
}

// resolveZone accepts either a numeric interface index or an interface
// name, returning the numeric scope id.
func resolveZone(zone string) (int, error) {
	if n, err := strconv.Atoi(zone); err == nil {
		return n, nil
	}
	iface, err := net.InterfaceByName(zone)
	if err != nil {
		return 0, dnserr.WrapIO("interface lookup for zone "+zone, err)
	}
	return iface.Index, nil
}

var errInvalidAddr = dnserr.New("invalid nameserver address")
