package dnsengine

import (
	"net"

	"github.com/miekg/dns"

	"github.com/cuemby/netresolved/pkg/backend"
	"github.com/cuemby/netresolved/pkg/metrics"
)

// answer builds the reply for req, observed from requester. It never
// returns nil: when no local answer applies and
// forwarding is gated out, the reply carries NXDOMAIN.
//
// forward reports whether the caller should additionally attempt upstream
// forwarding; when true, reply is the caller's fallback only if forwarding
// itself produces nothing.
func (l *Listener) answer(req *dns.Msg, requester net.IP) (reply *dns.Msg, forward bool) {
	reply = new(dns.Msg)
	reply.SetReply(req)
	reply.Authoritative = true
	if req.RecursionDesired {
		reply.RecursionAvailable = true
	}

	if len(req.Question) == 0 {
		return reply, false
	}
	q := req.Question[0]

	snap := l.cfg.Backend.Load()

	switch q.Qtype {
	case dns.TypeA, dns.TypeAAAA:
		if rrs := l.answerForward(snap, q, requester); len(rrs) > 0 {
			reply.Answer = rrs
			metrics.QueriesTotal.WithLabelValues("answered").Inc()
			return reply, false
		}
	case dns.TypePTR:
		if rrs := l.answerReverse(snap, q, requester); len(rrs) > 0 {
			reply.Answer = rrs
			metrics.QueriesTotal.WithLabelValues("answered").Inc()
			return reply, false
		}
	}

	if !l.shouldForward(snap, q.Name, requester) {
		reply.Rcode = dns.RcodeNameError
		metrics.QueriesTotal.WithLabelValues("nxdomain").Inc()
		return reply, false
	}

	metrics.QueriesTotal.WithLabelValues("forwarded").Inc()
	return reply, true
}

func (l *Listener) answerForward(snap *backend.Snapshot, q dns.Question, requester net.IP) []dns.RR {
	ips, ok := snap.Forward(requester, q.Name, l.cfg.Network)
	if !ok {
		return nil
	}

	var rrs []dns.RR
	for _, ip := range ips {
		isV4 := ip.To4() != nil
		switch {
		case q.Qtype == dns.TypeA && isV4:
			rrs = append(rrs, &dns.A{
				Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 0},
				A:   ip.To4(),
			})
		case q.Qtype == dns.TypeAAAA && !isV4:
			rrs = append(rrs, &dns.AAAA{
				Hdr:  dns.RR_Header{Name: q.Name, Rrtype: dns.TypeAAAA, Class: dns.ClassINET, Ttl: 0},
				AAAA: ip.To16(),
			})
		}
	}
	return rrs
}

func (l *Listener) answerReverse(snap *backend.Snapshot, q dns.Question, requester net.IP) []dns.RR {
	target, ok := reconstructPTRAddress(q.Name)
	if !ok {
		return nil
	}

	names, ok := snap.Reverse(requester, target)
	if !ok {
		return nil
	}

	rrs := make([]dns.RR, 0, len(names))
	for _, name := range names {
		rrs = append(rrs, &dns.PTR{
			Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypePTR, Class: dns.ClassINET, Ttl: 0},
			Ptr: dns.Fqdn(name),
		})
	}
	return rrs
}

// shouldForward implements the forwarding gate: forward iff no_proxy is
// unset, the requester is not internal, and the query name does not end
// with the configured search domain.
func (l *Listener) shouldForward(snap *backend.Snapshot, name string, requester net.IP) bool {
	if l.cfg.NoProxy {
		return false
	}
	if snap.IsInternal(requester) {
		return false
	}
	if hasSearchDomainSuffix(name, snap.SearchDomain()) {
		return false
	}
	return true
}

func hasSearchDomainSuffix(name, searchDomain string) bool {
	if searchDomain == "" {
		return false
	}
	lower := dns.Fqdn(name)
	return len(lower) >= len(searchDomain) &&
		equalFoldSuffix(lower, searchDomain)
}

func equalFoldSuffix(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}
	tail := s[len(s)-len(suffix):]
	for i := 0; i < len(tail); i++ {
		a, b := tail[i], suffix[i]
		if 'A' <= a && a <= 'Z' {
			a += 'a' - 'A'
		}
		if 'A' <= b && b <= 'Z' {
			b += 'a' - 'A'
		}
		if a != b {
			return false
		}
	}
	return true
}
