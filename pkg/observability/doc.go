/*
Package observability provides tools for monitoring the weft runtime.

Metrics turns lifecycle hooks into Prometheus series. LoggingHooks writes the
same events as structured log records. Both return domain.LifecycleHooks, so
they compose with Merge:

	m := observability.NewMetrics()
	hooks := m.Hooks().Merge(observability.LoggingHooks(logger))
*/
package observability
