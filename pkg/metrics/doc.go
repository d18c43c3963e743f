// Package metrics defines Prometheus metrics for digest runs, covering parsed
// entries, rotation cursors, run outcomes and mail delivery.
package metrics
