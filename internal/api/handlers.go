package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"fleetroute/internal/buildinfo"
	"fleetroute/internal/deviation"
	"fleetroute/internal/metrics"
	"fleetroute/internal/model"
)

// OptimizeHandler handles POST /v1/routes/optimize.
func (s *Server) OptimizeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	req.CallerID = callerID(r, req.CallerID)

	route, cached, err := s.Planner.Optimize(r.Context(), req)
	if err != nil {
		writeError(w, err, r.URL.Path)
		return
	}

	// Computed routes become deviation references immediately; a cache hit
	// re-registers the same path, which is idempotent.
	if rerr := s.Registry.RegisterRoute(route.RouteID, route.Polyline); rerr != nil {
		s.log.Warn("route polyline not registrable", zap.String("route_id", route.RouteID), zap.Error(rerr))
	}

	writeJSON(w, http.StatusOK, map[string]any{"route": route, "cached": cached})
}

// RouteByIDHandler handles GET /v1/routes/{routeId} and
// GET /v1/routes/{routeId}/locations.
func (s *Server) RouteByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/routes/")
	parts := strings.SplitN(rest, "/", 2)
	routeID := parts[0]
	if routeID == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}

	if len(parts) == 2 && parts[1] == "locations" {
		writeJSON(w, http.StatusOK, map[string]any{"items": s.Registry.ListLocationsByRoute(routeID)})
		return
	}

	points, ok := s.Registry.Route(routeID)
	if !ok {
		writeProblem(w, http.StatusNotFound, "Unknown route", routeID, r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"routeId": routeID, "route": points})
}

type etaRequest struct {
	From          model.LatLng `json:"from"`
	To            model.LatLng `json:"to"`
	DepartureTime *time.Time   `json:"departureTime,omitempty"`
}

// ETAHandler handles POST /v1/eta.
func (s *Server) ETAHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req etaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	departAt := time.Now()
	if req.DepartureTime != nil {
		departAt = *req.DepartureTime
	}
	writeJSON(w, http.StatusOK, s.Planner.EstimateETA(r.Context(), req.From, req.To, departAt))
}

type deviationCheckRequest struct {
	VehicleID            string                     `json:"vehicleId"`
	Lat                  float64                    `json:"lat"`
	Lng                  float64                    `json:"lng"`
	SpeedMetersPerSecond *float64                   `json:"speedMetersPerSecond"`
	RouteID              string                     `json:"routeId,omitempty"`
	Route                []model.RoutePolylinePoint `json:"route,omitempty"`
	ThresholdMeters      float64                    `json:"thresholdMeters,omitempty"`
}

// DeviationCheckHandler handles POST /v1/deviation/check. The planned path
// comes inline or by reference to a registered route.
func (s *Server) DeviationCheckHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req deviationCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}

	route := req.Route
	if len(route) == 0 && req.RouteID != "" {
		var ok bool
		route, ok = s.Registry.Route(req.RouteID)
		if !ok {
			writeProblem(w, http.StatusNotFound, "Unknown route", req.RouteID, r.URL.Path)
			return
		}
	}
	threshold := req.ThresholdMeters
	if threshold <= 0 {
		threshold = s.thresholdMeters
	}

	result := deviation.Detect(req.Lat, req.Lng, req.SpeedMetersPerSecond, route, threshold)
	metrics.DeviationChecks.WithLabelValues(strconv.FormatBool(result.IsDeviated)).Inc()
	writeJSON(w, http.StatusOK, result)
}

type deviationBatchRequest struct {
	Samples         []model.VehicleSample `json:"samples"`
	ThresholdMeters float64               `json:"thresholdMeters,omitempty"`
}

// DeviationBatchHandler handles POST /v1/deviation/batch against registered
// routes. Samples on unknown routes are skipped, not failed.
func (s *Server) DeviationBatchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req deviationBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	threshold := req.ThresholdMeters
	if threshold <= 0 {
		threshold = s.thresholdMeters
	}

	for _, sample := range req.Samples {
		s.Registry.UpsertLocation(sample)
	}
	results := deviation.DetectBatch(req.Samples, s.Registry.Routes(), threshold)
	for _, res := range results {
		metrics.DeviationChecks.WithLabelValues(strconv.FormatBool(res.IsDeviated)).Inc()
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "evaluated": len(results), "received": len(req.Samples)})
}

type trajectoryRequest struct {
	Planned         []deviation.PlannedPoint   `json:"planned"`
	Actual          []deviation.ActualPosition `json:"actual"`
	ThresholdMeters float64                    `json:"thresholdMeters,omitempty"`
}

// TrajectoryHandler handles POST /v1/trajectory/analyze.
func (s *Server) TrajectoryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req trajectoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	threshold := req.ThresholdMeters
	if threshold <= 0 {
		threshold = s.thresholdMeters
	}
	writeJSON(w, http.StatusOK, deviation.AnalyzeTrajectory(req.Planned, req.Actual, threshold))
}

// HealthHandler handles GET /healthz.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "build": buildinfo.Info()})
}

// ReadyHandler handles GET /readyz.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	if s.rdb != nil {
		if err := s.rdb.Ping(r.Context()).Err(); err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Redis unavailable", err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
