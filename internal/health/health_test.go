package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrWong99/aura/internal/resilience"
)

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return v
}

func ok(context.Context) error { return nil }

func TestHealthz(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	New(nil).Healthz(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if body := decode[result](t, rec); body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
}

func TestReadyz(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		checkers   []Checker
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name:       "no checkers",
			wantCode:   http.StatusOK,
			wantStatus: "ok",
		},
		{
			name: "all pass",
			checkers: []Checker{
				{Name: "llm", Check: ok},
				{Name: "history", Check: ok},
			},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantChecks: map[string]string{"llm": "ok", "history": "ok"},
		},
		{
			name: "one fails",
			checkers: []Checker{
				{Name: "llm", Check: ok},
				{Name: "history", Check: func(context.Context) error { return errors.New("connection refused") }},
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "fail",
			wantChecks: map[string]string{"llm": "ok", "history": "fail: connection refused"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			New(tt.checkers).Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", rec.Code, tt.wantCode)
			}
			body := decode[result](t, rec)
			if body.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", body.Status, tt.wantStatus)
			}
			for name, want := range tt.wantChecks {
				if got := body.Checks[name]; got != want {
					t.Errorf("check %q = %q, want %q", name, got, want)
				}
			}
		})
	}
}

func TestReadyz_RespectsContextCancellation(t *testing.T) {
	t.Parallel()

	h := New([]Checker{{Name: "slow", Check: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil).WithContext(ctx))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestStatusz(t *testing.T) {
	t.Parallel()

	h := New(nil, WithStatus(func() map[string]any {
		return map[string]any{"state": "awaiting_input", "turns": 3}
	}))

	rec := httptest.NewRecorder()
	h.Statusz(rec, httptest.NewRequest("GET", "/statusz", nil))

	body := decode[statusResult](t, rec)
	if body.Details["state"] != "awaiting_input" {
		t.Errorf("state = %v", body.Details["state"])
	}
	if body.Details["turns"] != float64(3) {
		t.Errorf("turns = %v", body.Details["turns"])
	}
	if body.Uptime == "" {
		t.Error("uptime is empty")
	}
}

func TestCircuitCheck(t *testing.T) {
	t.Parallel()

	cfg := resilience.FallbackConfig{CircuitBreaker: resilience.CircuitBreakerConfig{MaxFailures: 1}}
	group := resilience.NewFallbackGroup("groq", "groq", cfg)
	group.AddFallback("openai", "openai")
	check := CircuitCheck("llm", group)

	if err := check.Check(context.Background()); err != nil {
		t.Fatalf("healthy group: %v", err)
	}

	_ = group.Execute(func(string) error { return errors.New("down") })
	err := check.Check(context.Background())
	if err == nil {
		t.Fatal("expected error with every breaker open")
	}
	if !strings.Contains(err.Error(), "groq=open") || !strings.Contains(err.Error(), "openai=open") {
		t.Errorf("err = %q, want member states", err)
	}
}

func TestRegister_Routes(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	New([]Checker{{Name: "llm", Check: ok}}).Register(mux)

	for _, path := range []string{"/healthz", "/readyz", "/statusz"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
		})
	}
}
