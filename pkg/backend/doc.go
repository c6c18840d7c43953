/*
Package backend holds the immutable, read-only data model that answers
forward and reverse DNS queries for containers on user-defined networks.

A Snapshot is built once by pkg/config and never mutated afterward; reload
publishes a new Snapshot through an atomic pointer (see supervisor), so
readers never observe a partially-updated view and never take a lock on
the query fast path.

# Lookups

	┌──────────────────────────────────────────────────────────┐
	│                       Snapshot                            │
	│                                                            │
	│  ipToNetworks     : requester IP -> [network names]       │
	│  networkToNames   : network -> name/alias/id -> [IPs]     │
	│  networkToReverse : network -> IP -> [names]              │
	│  ipToCtrDNS       : container IP -> [upstream IPs]?       │
	│  networkToDNS     : network -> [upstream IPs]             │
	│  networkIsInternal: network -> bool                       │
	│  searchDomain     : string                                 │
	└──────────────────────────────────────────────────────────┘

The read operations are Forward, Reverse, NetworkUpstreams (together with
ContainerUpstreams and the ResolveUpstreams precedence helper), and
IsInternal. Each takes the requester's IP so it can be scoped to only the
networks that requester belongs to: containers on different networks
never see each other.
*/
package backend
