package health

import (
	"context"
	"net/http"
	"time"

	"employee-service/internal/httputil"

	"github.com/go-chi/chi/v5"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// CheckRecorder observes the outcome of each readiness probe.
type CheckRecorder interface {
	RecordDependencyCheck(ctx context.Context, dependency string, duration time.Duration, err error)
}

type Handler struct {
	checks   map[string]Pinger
	recorder CheckRecorder
}

// NewHandler takes the named dependencies /ready must reach. Nil pingers are
// skipped; recorder may be nil.
func NewHandler(checks map[string]Pinger, recorder CheckRecorder) *Handler {
	active := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			active[name] = p
		}
	}
	return &Handler{checks: active, recorder: recorder}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.Health)
	router.Get("/ready", h.Ready)
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	resp := HealthResponse{Status: "ready", Checks: make(map[string]string, len(h.checks))}
	for name, p := range h.checks {
		start := time.Now()
		err := p.PingContext(ctx)
		if h.recorder != nil {
			h.recorder.RecordDependencyCheck(ctx, name, time.Since(start), err)
		}
		if err != nil {
			resp.Checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			resp.Status = "unavailable"
			continue
		}
		resp.Checks[name] = "ok"
	}
	httputil.RespondWithJSON(w, status, resp)
}
