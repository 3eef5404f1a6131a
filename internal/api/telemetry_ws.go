package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"fleetroute/internal/deviation"
	"fleetroute/internal/metrics"
	"fleetroute/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Telemetry devices connect from arbitrary origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// telemetryVerdict is one per-sample answer on the telemetry stream.
type telemetryVerdict struct {
	VehicleID string                `json:"vehicleId"`
	RouteID   string                `json:"routeId"`
	Known     bool                  `json:"known"`
	Result    model.DeviationResult `json:"result,omitempty"`
}

// TelemetryWSHandler handles GET /v1/telemetry/ws. Each inbound message is
// one vehicle sample; the reply carries the conformance verdict against the
// sample's registered route. Samples on unknown routes are acknowledged
// with Known=false so devices can detect stale route ids.
func (s *Server) TelemetryWSHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the handshake error.
		return
	}
	defer func() { _ = conn.Close() }()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("telemetry connection dropped", zap.Error(err))
			}
			return
		}

		var sample model.VehicleSample
		if err := json.Unmarshal(data, &sample); err != nil {
			if werr := conn.WriteJSON(Problem{Type: "about:blank", Title: "Invalid JSON", Status: http.StatusBadRequest, Detail: err.Error()}); werr != nil {
				return
			}
			continue
		}

		s.Registry.UpsertLocation(sample)

		verdict := telemetryVerdict{VehicleID: sample.VehicleID, RouteID: sample.RouteID}
		if route, ok := s.Registry.Route(sample.RouteID); ok {
			verdict.Known = true
			verdict.Result = deviation.Detect(sample.Lat, sample.Lng, sample.SpeedMetersPerSecond, route, s.thresholdMeters)
			metrics.DeviationChecks.WithLabelValues(strconv.FormatBool(verdict.Result.IsDeviated)).Inc()
		}
		if err := conn.WriteJSON(verdict); err != nil {
			return
		}
	}
}
