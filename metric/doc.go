// Package metric provides Prometheus-based metrics for workflow processing.
//
// A Registry owns one prometheus.Registry with the core processing metrics
// (run and frame counters, frame duration histogram, worker gauge, plugin
// catalogue gauge) plus the Go runtime collectors. Components register their
// own collectors under a component-qualified key; duplicate registrations are
// rejected rather than silently replaced.
//
// Metrics are optional throughout the module: components accept a nil
// *Metrics and skip recording.
package metric
