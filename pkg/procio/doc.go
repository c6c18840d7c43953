/*
Package procio holds the daemon's external process-lifecycle adapters: the
PID file left in the configuration directory, the readiness handshake with
a parent process over an inherited pipe, and stdio detachment once that
handshake completes.

None of these participate in DNS resolution; they exist purely so an
external launcher can supervise the daemon (confirm it reached a bound,
serving state, then stop watching its stdio).
*/
package procio
