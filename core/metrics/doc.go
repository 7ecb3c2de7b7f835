// Package metrics defines the sinks receiving clearing results. A sink gets
// one SlotSummary per cleared time slot and, when it implements the optional
// recorder interfaces, batch summaries and rejected orders. Sinks are created
// from configuration through NewMetricsSink, which wraps several sinks in a
// MultiSink. Concrete Prometheus and InfluxDB sinks live in infra/metrics.
package metrics
