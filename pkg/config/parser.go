package config

import (
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/cuemby/netresolved/pkg/backend"
	"github.com/cuemby/netresolved/pkg/dnserr"
	"github.com/cuemby/netresolved/pkg/log"
)

// PIDFileName is the reserved file name, within a config directory, that
// holds the running daemon's PID rather than describing a network.
const PIDFileName = "netresolved.pid"

// internalSuffix marks a network file as internal; it is stripped from
// the stored network name.
const internalSuffix = "%int"

// ListenPlan is the set of bind addresses the supervisor must listen on,
// split by IP family and keyed by network name.
type ListenPlan struct {
	V4 map[string][]net.IP
	V6 map[string][]net.IP
}

func newListenPlan() *ListenPlan {
	return &ListenPlan{
		V4: make(map[string][]net.IP),
		V6: make(map[string][]net.IP),
	}
}

// Empty reports whether the plan has no listen addresses at all, the
// condition the supervisor treats as "shut down".
func (p *ListenPlan) Empty() bool {
	for _, v := range p.V4 {
		if len(v) > 0 {
			return false
		}
	}
	for _, v := range p.V6 {
		if len(v) > 0 {
			return false
		}
	}
	return true
}

// Parse reads every network file in dir and returns the resulting
// backend snapshot and listen plan. filterSearchDomain is the suffix
// Forward lookups strip from query names before matching.
func Parse(dir string, filterSearchDomain string) (*backend.Snapshot, *ListenPlan, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, nil, dnserr.WrapIO("config directory stat failed: "+dir, err)
	}
	if !info.IsDir() {
		return nil, nil, dnserr.Newf("config path is not a directory: %s", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, dnserr.WrapIO("config directory read failed: "+dir, err)
	}

	builder := backend.NewBuilder(filterSearchDomain)
	plan := newListenPlan()

	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == PIDFileName {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Logger.Warn().
				Str("component", "config").
				Str("file", path).
				Err(err).
				Msg("network file vanished before it could be read, skipping")
			continue
		}

		if err := parseNetworkFile(entry.Name(), string(data), builder, plan); err != nil {
			return nil, nil, dnserr.Chainf("parsing network file %s", err, path)
		}
	}

	return builder.Build(), plan, nil
}

func parseNetworkFile(fileName, contents string, builder *backend.Builder, plan *ListenPlan) error {
	network := fileName
	internal := false
	if strings.HasSuffix(network, internalSuffix) {
		internal = true
		network = strings.TrimSuffix(network, internalSuffix)
	}
	network = strings.ToLower(network)

	lines := nonEmptyLines(contents)
	if len(lines) == 0 {
		return dnserr.Newf("network file %q has no content", fileName)
	}

	if err := parseHeaderLine(lines[0], network, internal, builder, plan); err != nil {
		return err
	}

	for _, line := range lines[1:] {
		if err := parseContainerLine(line, network, internal, builder); err != nil {
			return err
		}
	}

	return nil
}

func nonEmptyLines(contents string) []string {
	var lines []string
	for _, line := range strings.Split(contents, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func parseHeaderLine(line, network string, internal bool, builder *backend.Builder, plan *ListenPlan) error {
	// Fields are split on a single space, not collapsed whitespace: a
	// container line's empty v6 field is represented by two consecutive
	// spaces, which only a literal split preserves as an empty token.
	fields := strings.Split(line, " ")
	if len(fields) == 0 || fields[0] == "" {
		return dnserr.Newf("network %q: header line has no bind addresses", network)
	}

	bindIPs, err := parseIPList(fields[0])
	if err != nil {
		return dnserr.Chainf("network %q: bind address list", err, network)
	}
	if len(bindIPs) == 0 {
		return dnserr.Newf("network %q: at least one bind address is required", network)
	}

	for _, listenIP := range bindIPs {
		if v4 := listenIP.To4(); v4 != nil {
			plan.V4[network] = append(plan.V4[network], v4)
		} else {
			plan.V6[network] = append(plan.V6[network], listenIP)
		}
	}

	var networkUpstreams []net.IP
	if len(fields) > 1 {
		networkUpstreams, err = parseIPList(fields[1])
		if err != nil {
			return dnserr.Chainf("network %q: upstream resolver list", err, network)
		}
	}

	builder.SetNetwork(network, networkUpstreams, internal)
	return nil
}

func parseContainerLine(line, network string, internal bool, builder *backend.Builder) error {
	fields := strings.Split(line, " ")
	if len(fields) < 4 {
		return dnserr.Newf("network %q: container line has fewer than 4 fields: %q", network, line)
	}

	id := strings.ToLower(fields[0])
	if id == "" {
		return dnserr.Newf("network %q: container line has empty id", network)
	}

	v4s, err := parseIPListOfFamily(fields[1], true)
	if err != nil {
		return dnserr.Chainf("network %q: container %s v4 addresses", err, network, id)
	}
	v6s, err := parseIPListOfFamily(fields[2], false)
	if err != nil {
		return dnserr.Chainf("network %q: container %s v6 addresses", err, network, id)
	}

	names := dedupLowerCSV(fields[3])
	if len(names) == 0 {
		return dnserr.Newf("network %q: container %s has no names", network, id)
	}

	allIPs := make([]net.IP, 0, len(v4s)+len(v6s))
	allIPs = append(allIPs, v4s...)
	allIPs = append(allIPs, v6s...)

	for _, containerIP := range allIPs {
		builder.AddMembership(containerIP, network)
	}

	isName := make(map[string]bool, len(names))
	for _, name := range names {
		isName[name] = true
		builder.AddName(network, name, allIPs)
	}
	if !isName[id] {
		builder.AddName(network, id, allIPs)
	}

	for _, containerIP := range allIPs {
		builder.AddReverse(network, containerIP, names)
	}

	if len(fields) > 4 && !internal {
		ctrUpstreams, err := parseIPList(fields[4])
		if err != nil {
			return dnserr.Chainf("network %q: container %s upstream resolvers", err, network, id)
		}
		for _, containerIP := range allIPs {
			builder.SetContainerUpstreams(containerIP, ctrUpstreams)
		}
	}

	return nil
}

// parseIPList parses a comma-separated list of IPv4/IPv6 literals,
// skipping empty entries (an empty field means "none for this list").
func parseIPList(field string) ([]net.IP, error) {
	if field == "" {
		return nil, nil
	}
	var ips []net.IP
	for _, tok := range strings.Split(field, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		parsed := net.ParseIP(tok)
		if parsed == nil {
			return nil, dnserr.WrapAddrParse(tok, errInvalidIP)
		}
		ips = append(ips, parsed)
	}
	return ips, nil
}

// parseIPListOfFamily is parseIPList plus a family check, used for the
// per-container v4/v6 address fields where mixing families is a
// structural error rather than silently accepted.
func parseIPListOfFamily(field string, wantV4 bool) ([]net.IP, error) {
	ips, err := parseIPList(field)
	if err != nil {
		return nil, err
	}
	for _, addr := range ips {
		isV4 := addr.To4() != nil
		if isV4 != wantV4 {
			return nil, dnserr.Newf("address %s is not %s", addr, familyName(wantV4))
		}
	}
	return ips, nil
}

func familyName(wantV4 bool) string {
	if wantV4 {
		return "IPv4"
	}
	return "IPv6"
}

// dedupLowerCSV splits field on commas, lowercases and trims each entry,
// drops empties, and removes duplicates while preserving first-seen order.
func dedupLowerCSV(field string) []string {
	if field == "" {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, tok := range strings.Split(field, ",") {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

var errInvalidIP = dnserr.New("invalid IP literal")
