/*
Package metrics exposes netresolved's Prometheus metrics: query/forward
counters, per-family listener gauges, and reconcile-pass timing. Metrics
are purely additive observability (nothing in the resolve/forward/
reconcile paths depends on them being read).

Handler returns the promhttp handler the optional --metrics-addr endpoint
serves.
*/
package metrics
