package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"fleetroute/internal/planner"
	"fleetroute/internal/routing"
)

// Problem represents an RFC7807 problem details response body.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, instance string) {
	writeJSON(w, status, Problem{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}

// writeError maps engine errors to problem responses. Rate limiting sets
// Retry-After; provider failures surface as 502 so callers can distinguish
// upstream trouble from bad requests.
func writeError(w http.ResponseWriter, err error, instance string) {
	var verr *planner.ValidationError
	var rerr *planner.RateLimitError
	var perr *routing.ProviderError
	switch {
	case errors.As(err, &verr):
		writeProblem(w, http.StatusBadRequest, "Invalid request", verr.Reason, instance)
	case errors.As(err, &rerr):
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rerr.RetryAfter.Seconds()+0.999)))
		writeProblem(w, http.StatusTooManyRequests, "Rate limit exceeded", rerr.Error(), instance)
	case errors.As(err, &perr):
		writeProblem(w, http.StatusBadGateway, "Routing provider error", perr.Status, instance)
	case errors.Is(err, routing.ErrNotConfigured):
		writeProblem(w, http.StatusServiceUnavailable, "Routing provider not configured", err.Error(), instance)
	default:
		writeProblem(w, http.StatusInternalServerError, "Internal error", err.Error(), instance)
	}
}
