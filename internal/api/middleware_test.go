package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsPathBoundsRouteIDs(t *testing.T) {
	cases := map[string]string{
		"/v1/routes/optimize":            "/v1/routes/optimize",
		"/v1/routes/0a1b2c3d":            "/v1/routes/{routeId}",
		"/v1/routes/0a1b2c3d/locations":  "/v1/routes/{routeId}/locations",
		"/v1/routes/":                    "/v1/routes/",
		"/v1/deviation/check":            "/v1/deviation/check",
		"/v1/eta":                        "/v1/eta",
		"/healthz":                       "/healthz",
	}
	for in, want := range cases {
		assert.Equal(t, want, metricsPath(in), in)
	}
}
