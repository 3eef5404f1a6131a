// Package main runs a demo telemetry client: it plans a route, then
// streams vehicle samples over WebSocket and prints the conformance
// verdicts.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type optimizeResponse struct {
	Route struct {
		ID       string `json:"routeId"`
		Polyline string `json:"polyline"`
		Ordered  []struct {
			ID    string  `json:"id"`
			Lat   float64 `json:"lat"`
			Lng   float64 `json:"lng"`
			Order int     `json:"order"`
		} `json:"ordered"`
	} `json:"route"`
	Cached bool `json:"cached"`
}

type sample struct {
	VehicleID string    `json:"vehicleId"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Speed     *float64  `json:"speedMetersPerSecond"`
	RouteID   string    `json:"routeId"`
	Timestamp time.Time `json:"timestamp"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Plan a small route around Belo Horizonte.
	body := []byte(`{
		"callerId": "demo",
		"origin": {"lat": -19.916681, "lng": -43.934493},
		"destination": {"lat": -19.938556, "lng": -43.953403},
		"waypoints": [
			{"id": "stop-a", "lat": -19.917681, "lng": -43.935493},
			{"id": "stop-b", "lat": -19.928681, "lng": -43.946493}
		]
	}`)
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/routes/optimize", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Caller-Id", "demo")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	var opt optimizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&opt); err != nil {
		log.Fatal(err)
	}
	if opt.Route.ID == "" {
		log.Fatal("no route returned")
	}
	log.Printf("Route ID: %s (cached=%v, %d stops)", opt.Route.ID, opt.Cached, len(opt.Route.Ordered))

	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/telemetry/ws"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %s", string(msg))
		}
	}()

	// One sample on the path, one well off it.
	speed := 8.0
	samples := []sample{
		{VehicleID: "veh-1", Lat: -19.917681, Lng: -43.935493, Speed: &speed, RouteID: opt.Route.ID, Timestamp: time.Now()},
		{VehicleID: "veh-1", Lat: -19.960000, Lng: -43.990000, Speed: &speed, RouteID: opt.Route.ID, Timestamp: time.Now().Add(time.Minute)},
	}
	for _, s := range samples {
		if err := c.WriteJSON(s); err != nil {
			log.Fatal(err)
		}
		time.Sleep(300 * time.Millisecond)
	}

	select {
	case <-time.After(2 * time.Second):
	case <-done:
	}
}
