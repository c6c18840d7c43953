/*
Package resolvconf parses a host resolver configuration file (conventionally
/etc/resolv.conf) into a bounded list of upstream DNS endpoints, and watches
it for changes so the supervisor can pick up edits without a restart.

Only "nameserver" lines are consulted. The result is capped at three
entries, matching glibc's own resolver limit.
*/
package resolvconf
