package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"fleetroute/internal/model"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/directions/json"

// GoogleClient implements Provider against the Google Directions API.
// It is safe for concurrent use. Outbound calls share one QPS budget so a
// burst of optimizations cannot exhaust the API quota.
type GoogleClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

// GoogleOption customizes a GoogleClient.
type GoogleOption func(*GoogleClient)

// WithBaseURL overrides the Directions endpoint (tests).
func WithBaseURL(u string) GoogleOption {
	return func(c *GoogleClient) { c.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) GoogleOption {
	return func(c *GoogleClient) { c.http = h }
}

// WithQPS bounds outbound calls per second.
func WithQPS(qps float64) GoogleOption {
	return func(c *GoogleClient) { c.limiter = rate.NewLimiter(rate.Limit(qps), 1) }
}

// NewGoogleClient builds a Directions client. A missing API key returns
// ErrNotConfigured.
func NewGoogleClient(apiKey string, timeout time.Duration, log *zap.Logger, opts ...GoogleOption) (*GoogleClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNotConfigured
	}
	c := &GoogleClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(10), 5),
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// directionsResponse mirrors the subset of the Directions payload the
// engine consumes. Everything else is ignored at the boundary.
type directionsResponse struct {
	Status string `json:"status"`
	Routes []struct {
		WaypointOrder    []int `json:"waypoint_order"`
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		Legs []struct {
			Distance struct {
				Value float64 `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value float64 `json:"value"`
			} `json:"duration"`
			DurationInTraffic *struct {
				Value float64 `json:"value"`
			} `json:"duration_in_traffic"`
		} `json:"legs"`
	} `json:"routes"`
	GeocodedWaypoints []struct {
		GeocoderStatus string `json:"geocoder_status"`
	} `json:"geocoded_waypoints"`
}

func formatLatLng(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
}

func (c *GoogleClient) directions(ctx context.Context, origin, destination model.LatLng, waypointsParam string, departAt time.Time) (*directionsResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("await provider rate budget: %w", err)
	}

	q := url.Values{}
	q.Set("origin", formatLatLng(origin.Lat, origin.Lng))
	q.Set("destination", formatLatLng(destination.Lat, destination.Lng))
	if waypointsParam != "" {
		q.Set("waypoints", waypointsParam)
	}
	departure := time.Now().Unix()
	if !departAt.IsZero() {
		departure = departAt.Unix()
	}
	q.Set("departure_time", strconv.FormatInt(departure, 10))
	q.Set("traffic_model", "best_guess")
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build directions request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		// Timeouts and transport failures are provider failures, not
		// empty results.
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &ProviderError{Status: "TIMEOUT"}
		}
		return nil, &ProviderError{Status: "UNREACHABLE"}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Status: fmt.Sprintf("HTTP_%d", resp.StatusCode)}
	}

	var body directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &ProviderError{Status: "MALFORMED_RESPONSE"}
	}

	c.log.Debug("directions call",
		zap.String("status", body.Status),
		zap.Duration("latency", time.Since(start)),
	)

	if body.Status != "OK" {
		return nil, &ProviderError{Status: body.Status}
	}
	if len(body.Routes) == 0 {
		return nil, &ProviderError{Status: "ZERO_RESULTS"}
	}
	return &body, nil
}

// OptimizeStops delegates waypoint ordering to the Directions API
// (optimize:true). The returned permutation refers to input indices.
func (c *GoogleClient) OptimizeStops(ctx context.Context, origin, destination model.LatLng, waypoints []model.Waypoint, departAt time.Time) (*StopsResult, error) {
	parts := make([]string, 0, len(waypoints)+1)
	parts = append(parts, "optimize:true")
	for _, w := range waypoints {
		parts = append(parts, formatLatLng(w.Lat, w.Lng))
	}

	body, err := c.directions(ctx, origin, destination, strings.Join(parts, "|"), departAt)
	if err != nil {
		return nil, err
	}

	route := body.Routes[0]
	if len(route.WaypointOrder) != len(waypoints) {
		return nil, &ProviderError{Status: "BAD_WAYPOINT_ORDER"}
	}

	res := &StopsResult{
		WaypointOrder: route.WaypointOrder,
		Polyline:      route.OverviewPolyline.Points,
	}
	for _, leg := range route.Legs {
		res.TotalDistanceMeters += leg.Distance.Value
		if leg.DurationInTraffic != nil {
			res.TotalDurationSeconds += leg.DurationInTraffic.Value
			res.UsedTraffic = true
		} else {
			res.TotalDurationSeconds += leg.Duration.Value
		}
	}
	for _, gw := range body.GeocodedWaypoints {
		if gw.GeocoderStatus != "OK" {
			res.Warnings = append(res.Warnings, gw.GeocoderStatus)
		}
	}
	return res, nil
}

// GetRoute resolves metrics for a fixed sequence; the waypoint order is
// passed through untouched.
func (c *GoogleClient) GetRoute(ctx context.Context, origin, destination model.LatLng, ordered []model.OrderedWaypoint, departAt time.Time) (*RouteResult, error) {
	parts := make([]string, 0, len(ordered))
	for _, w := range ordered {
		parts = append(parts, formatLatLng(w.Lat, w.Lng))
	}

	body, err := c.directions(ctx, origin, destination, strings.Join(parts, "|"), departAt)
	if err != nil {
		return nil, err
	}

	route := body.Routes[0]
	res := &RouteResult{
		Polyline: route.OverviewPolyline.Points,
		Legs:     make([]Leg, 0, len(route.Legs)),
	}
	for _, leg := range route.Legs {
		l := Leg{
			DistanceMeters:  leg.Distance.Value,
			DurationSeconds: leg.Duration.Value,
		}
		if leg.DurationInTraffic != nil {
			l.DurationSeconds = leg.DurationInTraffic.Value
			l.UsedTraffic = true
		}
		res.Legs = append(res.Legs, l)
	}
	return res, nil
}
