package backend

import (
	"net"
	"strings"
)

// Builder assembles a Snapshot from the denormalized per-container,
// per-network facts the config parser extracts from the config
// directory. It is not safe for concurrent use; the parser owns one
// Builder per parse and calls Build exactly once.
type Builder struct {
	snap *Snapshot
}

// NewBuilder creates a Builder for a snapshot whose search domain is
// filterSearchDomain, lowercased and guaranteed to end with a single dot.
func NewBuilder(filterSearchDomain string) *Builder {
	domain := strings.ToLower(filterSearchDomain)
	if domain != "" && !strings.HasSuffix(domain, ".") {
		domain += "."
	}
	return &Builder{
		snap: &Snapshot{
			ipToNetworks:      make(map[string][]string),
			networkToNames:    make(map[string]map[string][]net.IP),
			networkToReverse:  make(map[string]map[string][]string),
			ipToCtrDNS:        make(map[string][]net.IP),
			networkToDNS:      make(map[string][]net.IP),
			networkIsInternal: make(map[string]bool),
			searchDomain:      domain,
		},
	}
}

// AddMembership records that ip belongs to network, appending network to
// ip's membership list if it is not already present.
func (b *Builder) AddMembership(ip net.IP, network string) {
	key := ipKey(ip)
	for _, existing := range b.snap.ipToNetworks[key] {
		if existing == network {
			return
		}
	}
	b.snap.ipToNetworks[key] = append(b.snap.ipToNetworks[key], network)
}

// AddName unions ips into the IP list registered for name on network.
// Called once per (container, alias) pair, it implements the "union of
// every container's IPs per alias" forward-name semantics.
func (b *Builder) AddName(network, name string, ips []net.IP) {
	if len(ips) == 0 {
		return
	}
	names, ok := b.snap.networkToNames[network]
	if !ok {
		names = make(map[string][]net.IP)
		b.snap.networkToNames[network] = names
	}
	names[name] = append(names[name], ips...)
}

// AddReverse appends names to the reverse-lookup entry for ip on network.
// Callers pass the container's primary name first and its aliases after,
// in declaration order.
func (b *Builder) AddReverse(network string, ip net.IP, names []string) {
	if len(names) == 0 {
		return
	}
	reverse, ok := b.snap.networkToReverse[network]
	if !ok {
		reverse = make(map[string][]string)
		b.snap.networkToReverse[network] = reverse
	}
	key := ipKey(ip)
	reverse[key] = append(reverse[key], names...)
}

// SetContainerUpstreams records the container-scoped upstream resolver
// list declared for ip. Passing a nil or empty list is a no-op since an
// absent entry and an empty entry are equivalent for precedence purposes.
func (b *Builder) SetContainerUpstreams(ip net.IP, upstreams []net.IP) {
	if len(upstreams) == 0 {
		return
	}
	b.snap.ipToCtrDNS[ipKey(ip)] = upstreams
}

// SetNetwork records network's upstream resolver list and internal flag.
// Per spec, an internal network always stores an empty upstream list
// regardless of what was configured.
func (b *Builder) SetNetwork(network string, upstreams []net.IP, internal bool) {
	if internal {
		b.snap.networkToDNS[network] = []net.IP{}
	} else {
		b.snap.networkToDNS[network] = upstreams
	}
	b.snap.networkIsInternal[network] = internal
}

// Build finalizes and returns the assembled Snapshot. The Builder must
// not be used again afterward.
func (b *Builder) Build() *Snapshot {
	return b.snap
}
