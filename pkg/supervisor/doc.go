/*
Package supervisor owns the daemon's process-wide mutable state: the atomic
backend snapshot pointer, the shared host upstream resolver list, and the
per-family listener registries. It drives startup, the reload/event loop,
and the reconcile algorithm that brings running listeners in line with a
newly parsed configuration.

Everything else in this module is a pure function of either the config
directory or a single query; supervisor is where those pure results get
turned into running goroutines and open sockets.
*/
package supervisor
