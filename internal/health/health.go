// Package health serves the health endpoints of Aura's diagnostics server.
//
//   - GET /healthz answers 200 while the process can serve HTTP.
//   - GET /readyz answers 200 only when every registered [Checker] passes.
//   - GET /statusz reports what the assistant is doing right now.
//
// Responses are JSON objects with a top-level "status" field ("ok" or "fail").
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/aura/internal/resilience"
)

// checkTimeout bounds a single readiness check.
const checkTimeout = 5 * time.Second

// Checker is a named readiness check. Check returns nil when the dependency
// is usable.
type Checker struct {
	// Name appears as a key in the "checks" map, e.g. "llm" or "history".
	Name string

	// Check tests the dependency. It must respect context cancellation.
	Check func(ctx context.Context) error
}

// StatusFunc returns a snapshot of runtime details for /statusz.
type StatusFunc func() map[string]any

type result struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type statusResult struct {
	Status  string         `json:"status"`
	Uptime  string         `json:"uptime"`
	Details map[string]any `json:"details,omitempty"`
}

// Handler serves the health endpoints. The checker list is fixed at
// construction time, so Handler is safe for concurrent use.
type Handler struct {
	checkers []Checker
	status   StatusFunc
	started  time.Time
}

// Option configures a [Handler].
type Option func(*Handler)

// WithStatus sets the source of the /statusz details.
func WithStatus(fn StatusFunc) Option {
	return func(h *Handler) { h.status = fn }
}

// New creates a [Handler] evaluating checkers on every /readyz request.
func New(checkers []Checker, opts ...Option) *Handler {
	h := &Handler{
		checkers: append([]Checker(nil), checkers...),
		started:  time.Now(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Healthz is the liveness check.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, result{Status: "ok"})
}

// Readyz runs all checkers concurrently, each bounded by [checkTimeout], and
// answers 503 if any of them fails.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	var (
		mu     sync.Mutex
		checks = make(map[string]string, len(h.checkers))
		failed bool
	)

	var g errgroup.Group
	for _, c := range h.checkers {
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
			defer cancel()
			err := c.Check(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				checks[c.Name] = "fail: " + err.Error()
				failed = true
				return nil
			}
			checks[c.Name] = "ok"
			return nil
		})
	}
	_ = g.Wait()

	res := result{Status: "ok", Checks: checks}
	code := http.StatusOK
	if failed {
		res.Status = "fail"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, res)
}

// Statusz reports the uptime and the [StatusFunc] snapshot.
func (h *Handler) Statusz(w http.ResponseWriter, _ *http.Request) {
	res := statusResult{
		Status: "ok",
		Uptime: time.Since(h.started).Round(time.Second).String(),
	}
	if h.status != nil {
		res.Details = h.status()
	}
	writeJSON(w, http.StatusOK, res)
}

// Register adds the health routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	mux.HandleFunc("GET /statusz", h.Statusz)
}

// Circuit is implemented by provider groups that track breaker health, such
// as [resilience.FallbackGroup].
type Circuit interface {
	Healthy() bool
	States() map[string]resilience.State
}

// CircuitCheck reports a provider group as unready once every member's
// breaker is open. The error lists the member states.
func CircuitCheck(name string, c Circuit) Checker {
	return Checker{
		Name: name,
		Check: func(context.Context) error {
			if c.Healthy() {
				return nil
			}
			states := c.States()
			parts := make([]string, 0, len(states))
			for member, s := range states {
				parts = append(parts, member+"="+s.String())
			}
			sort.Strings(parts)
			return fmt.Errorf("no provider available (%s)", strings.Join(parts, ", "))
		},
	}
}

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
