// Package api hosts the HTTP server, middleware, and REST handlers for
// operator access. Notable routes:
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /v1/reconcile for reconciliation request submission.
//   - GET /v1/previews for cached preview lookup by URL.
package api
