package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

// HealthCheck is one named dependency probe.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type HealthCheckHandler struct {
	service string
	checks  []HealthCheck
}

func NewHealthCheckHandler(service string, checks ...HealthCheck) *HealthCheckHandler {
	return &HealthCheckHandler{
		service: service,
		checks:  checks,
	}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}

// HealthCheck answers 200 when every dependency responds and 503 otherwise.
func (h *HealthCheckHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.checks))
	overallStatus := "healthy"

	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			checks[check.Name] = "unhealthy: " + err.Error()
			overallStatus = "unhealthy"
		} else {
			checks[check.Name] = "healthy"
		}
	}

	response := HealthResponse{
		Status:    overallStatus,
		Service:   h.service,
		Checks:    checks,
		Timestamp: time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")

	if overallStatus != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

func (h *HealthCheckHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("alive"))
}

// CheckNames lists the configured probes in sorted order.
func (h *HealthCheckHandler) CheckNames() []string {
	names := make([]string, 0, len(h.checks))
	for _, check := range h.checks {
		names = append(names, check.Name)
	}
	sort.Strings(names)
	return names
}

func (h *HealthCheckHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/health/liveness", h.Liveness)
}
