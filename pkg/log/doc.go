/*
Package log provides structured logging for netresolved using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging with
component-specific loggers and configurable log levels. All logs include
timestamps and support filtering by severity level for production debugging.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent("supervisor")              │          │
	│  │  - WithListener("podman", "10.88.0.1")      │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │  {"level":"info","component":"supervisor",  │          │
	│  │   "time":"...","message":"reload applied"}  │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	log.Logger.Info().Msg("netresolved starting")

	engineLog := log.WithComponent("dnsengine")
	engineLog.Debug().Str("query", name).Msg("forwarding query")

	listenerLog := log.WithListener("podman", "10.88.0.1")
	listenerLog.Warn().Err(err).Msg("bind failed during reconcile")

# Integration points

This package is used by every other package in this module: pkg/config logs
network files it skips because they could not be read, pkg/dnsengine logs per-query drops and forwards,
pkg/supervisor logs reload/reconcile decisions, and cmd/netresolved calls
log.Init once at startup from the --log-level flag and NETRESOLVED_LOG_LEVEL
environment variable.
*/
package log
