package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/aura/internal/health"
	"github.com/MrWong99/aura/internal/observe"
)

// newDiagnosticsMux serves the health checks and the Prometheus scrape endpoint,
// all behind the observe diagnostics middleware.
func newDiagnosticsMux(checks []health.Checker, status health.StatusFunc, m *observe.Metrics) http.Handler {
	mux := http.NewServeMux()
	health.New(checks, health.WithStatus(status)).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	return observe.Diagnostics(m)(mux)
}
