// Package metrics provides Prometheus instrumentation for treescope components.
//
// The package instruments:
//   - Task lifecycle (launches, completions, failures, cancellations, durations)
//   - Unhandled-failure handler deliveries
//   - Channel backpressure (depth, sends, receives, drops, blocked sends)
//   - Suspending synchronization primitives (waiters, held permits, wait times)
//   - Executor pools (workers, queue depth, executed work)
//
// Components accept a metrics.Config; with Enabled set they record to the
// resolved Registry. Expose metrics over HTTP with promhttp:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
package metrics
