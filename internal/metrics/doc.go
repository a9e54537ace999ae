// Package metrics instruments the runtime's watch pipelines and lease
// coordinators with Prometheus collectors. A Metrics value owns its own
// registry so that independent runtimes in one process do not collide; the
// admin endpoint serves it. All recording methods are nil-receiver safe so
// components constructed without a runtime skip instrumentation.
package metrics
