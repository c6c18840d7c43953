package backend

import (
	"net"
	"strings"
)

// Snapshot is an immutable view of the container/network name tables.
// It is built once by pkg/config via Builder and never mutated afterward;
// reload publishes a new Snapshot rather than editing this one.
type Snapshot struct {
	ipToNetworks     map[string][]string
	networkToNames   map[string]map[string][]net.IP
	networkToReverse map[string]map[string][]string
	ipToCtrDNS       map[string][]net.IP
	networkToDNS     map[string][]net.IP
	networkIsInternal map[string]bool
	searchDomain     string
}

// ipKey canonicalizes an IP for use as a map key so "10.0.0.1" and its
// 4-in-6 form never disagree.
func ipKey(ip net.IP) string {
	if v4 := ip.To4(); v4 != nil {
		return v4.String()
	}
	return ip.String()
}

// SearchDomain returns the lowercase, dot-terminated search domain this
// snapshot was built with.
func (s *Snapshot) SearchDomain() string {
	return s.searchDomain
}

// networksFor returns the ordered network membership list for requester,
// falling back to a singleton [fallback] when requester is unknown and a
// non-empty fallback network name was supplied.
func (s *Snapshot) networksFor(requester net.IP, fallback string) ([]string, bool) {
	if nets, ok := s.ipToNetworks[ipKey(requester)]; ok {
		return nets, true
	}
	if fallback != "" {
		return []string{fallback}, true
	}
	return nil, false
}

// Forward resolves name to the ordered list of IPs registered for it on
// every network the requester belongs to (or, if the requester is
// unknown, on fallbackNetwork alone). It returns ok=false when the
// requester has no candidate network or no network has a match.
func (s *Snapshot) Forward(requester net.IP, name string, fallbackNetwork string) ([]net.IP, bool) {
	normalized := s.normalizeQueryName(name)

	networks, ok := s.networksFor(requester, fallbackNetwork)
	if !ok {
		return nil, false
	}

	var ips []net.IP
	for _, network := range networks {
		names, ok := s.networkToNames[network]
		if !ok {
			continue
		}
		ips = append(ips, names[normalized]...)
	}
	if len(ips) == 0 {
		return nil, false
	}
	return ips, true
}

// normalizeQueryName lowercases name, strips one trailing occurrence of
// the search domain, then strips one trailing dot.
func (s *Snapshot) normalizeQueryName(name string) string {
	name = strings.ToLower(name)
	if s.searchDomain != "" && strings.HasSuffix(name, s.searchDomain) {
		name = strings.TrimSuffix(name, s.searchDomain)
	}
	name = strings.TrimSuffix(name, ".")
	return name
}

// Reverse resolves target to the names registered for it, consulting the
// per-network reverse table for each network the requester belongs to, in
// membership order, and returning the first hit.
func (s *Snapshot) Reverse(requester net.IP, target net.IP) ([]string, bool) {
	networks, ok := s.ipToNetworks[ipKey(requester)]
	if !ok {
		return nil, false
	}

	key := ipKey(target)
	for _, network := range networks {
		reverse, ok := s.networkToReverse[network]
		if !ok {
			continue
		}
		if names, ok := reverse[key]; ok {
			return names, true
		}
	}
	return nil, false
}

// ContainerUpstreams returns the container-scoped upstream resolver list
// declared for ip, if any. A missing entry and an explicitly empty list
// both report ok=false since neither participates in precedence.
func (s *Snapshot) ContainerUpstreams(ip net.IP) ([]net.IP, bool) {
	ups, ok := s.ipToCtrDNS[ipKey(ip)]
	if !ok || len(ups) == 0 {
		return nil, false
	}
	return ups, true
}

// NetworkUpstreams returns the concatenation of every network-scoped
// upstream list for networks the requester belongs to. ok is false only
// when the requester is entirely unknown.
func (s *Snapshot) NetworkUpstreams(requester net.IP) ([]net.IP, bool) {
	networks, ok := s.ipToNetworks[ipKey(requester)]
	if !ok {
		return nil, false
	}

	var ups []net.IP
	for _, network := range networks {
		ups = append(ups, s.networkToDNS[network]...)
	}
	return ups, true
}

// ResolveUpstreams applies the full container > network > host precedence
// rule for requester, falling back to host when neither the container nor
// any of its networks declared a non-empty upstream list.
func (s *Snapshot) ResolveUpstreams(requester net.IP, host []net.IP) []net.IP {
	if ups, ok := s.ContainerUpstreams(requester); ok {
		return ups
	}
	if ups, ok := s.NetworkUpstreams(requester); ok && len(ups) > 0 {
		return ups
	}
	return host
}

// IsInternal reports whether requester is known and every network it
// belongs to that has an internal-flag entry is marked internal. An
// unknown requester is external, not internal, so it can still be
// forwarded.
func (s *Snapshot) IsInternal(requester net.IP) bool {
	networks, ok := s.ipToNetworks[ipKey(requester)]
	if !ok {
		return false
	}
	for _, network := range networks {
		if internal, present := s.networkIsInternal[network]; present && !internal {
			return false
		}
	}
	return true
}
