// Package metrics exposes assetboard's Prometheus metrics: refresh outcomes,
// the size and grade mix of the current snapshot, firing alerts, and
// per-handler HTTP request metrics.
//
// All metrics live on the registry passed to New rather than the global
// default, so tests can create independent instances. A nil *Metrics is
// valid and records nothing.
package metrics
