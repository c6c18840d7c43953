package dnsengine

import (
	"net"
	"time"

	"github.com/miekg/dns"

	"github.com/cuemby/netresolved/pkg/backend"
	"github.com/cuemby/netresolved/pkg/log"
	"github.com/cuemby/netresolved/pkg/metrics"
	"github.com/cuemby/netresolved/pkg/resolvconf"
)

// forwardBudget is the total time allotted to trying every upstream
// resolver for a single query, split evenly across the resolver list.
const forwardBudget = 5 * time.Second

// resolveEndpoints applies the container > network > host upstream
// precedence rule for requester. Container- and network-scoped upstreams
// come from the config directory and never carry an IPv6 zone; only the
// host fallback, read from the resolver file, can.
func (l *Listener) resolveEndpoints(snap *backend.Snapshot, requester net.IP) []resolvconf.Endpoint {
	if ups, ok := snap.ContainerUpstreams(requester); ok {
		return asEndpoints(ups)
	}
	if ups, ok := snap.NetworkUpstreams(requester); ok && len(ups) > 0 {
		return asEndpoints(ups)
	}
	return l.cfg.HostUpstreams.Get()
}

func asEndpoints(ips []net.IP) []resolvconf.Endpoint {
	eps := make([]resolvconf.Endpoint, len(ips))
	for i, ip := range ips {
		eps[i] = resolvconf.Endpoint{IP: ip}
	}
	return eps
}

// forwardQuery picks one resolver list by the container > network > host
// precedence rule and tries its resolvers in order, over proto ("udp" or
// "tcp"), stopping at the first response. Lists of lower precedence are
// not tried when the chosen list fails. It returns ok=false when every resolver failed or timed out.
func (l *Listener) forwardQuery(proto string, req *dns.Msg, snap *backend.Snapshot, requester net.IP) (*dns.Msg, bool) {
	resolvers := l.resolveEndpoints(snap, requester)
	if len(resolvers) == 0 {
		return nil, false
	}

	perResolver := forwardBudget / time.Duration(len(resolvers))
	client := &dns.Client{Net: proto, Timeout: perResolver}

	for _, resolver := range resolvers {
		addr := net.JoinHostPort(resolver.Host(), "53")
		resp, _, err := client.Exchange(req, addr)
		if err != nil {
			log.Logger.Debug().
				Str("component", "dnsengine").
				Str("upstream", addr).
				Err(err).
				Msg("forward attempt failed, trying next resolver")
			metrics.ForwardsTotal.WithLabelValues("connect_error").Inc()
			continue
		}

		resp.Id = req.Id
		metrics.ForwardsTotal.WithLabelValues("resolved").Inc()
		return resp, true
	}

	metrics.ForwardsTotal.WithLabelValues("timeout").Inc()
	return nil, false
}
