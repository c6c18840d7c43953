/*
Package config parses the on-disk configuration directory a companion
process (the container engine's network plugin) writes into, producing an
immutable *backend.Snapshot plus the per-network listen plans the
supervisor uses to decide which sockets to bind.

# File layout

One file per network, named after the network; a file name ending in the
reserved suffix "%int" marks that network internal (the suffix is
stripped from the stored name). A conventional PID file name is ignored
if present alongside the network files.

# Line format

The first non-empty line holds the network's bind IPs (comma-separated,
required) and an optional second field of network-scoped upstream
resolver IPs (comma-separated). Every subsequent non-empty line describes
one container: id, comma-separated v4 addresses, comma-separated v6
addresses, comma-separated names/aliases, and an optional fifth field of
container-scoped upstream resolver IPs.

Parsing tolerates a file vanishing between directory listing and open (it
is logged and skipped), but a structural error inside a file that was
read successfully aborts the whole parse - a half-applied network
configuration is worse than none.
*/
package config
