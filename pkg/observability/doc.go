/*
Package observability exposes Prometheus metrics for the dialogue engine and the proxies.

Metrics are registered on their own registry so several engines (or tests) can coexist
in one process. Hooks adapts the collectors to domain.LifecycleHooks.
*/
package observability
