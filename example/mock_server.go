package main

import (
	"encoding/json"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"
)

// orbitPeriod is compressed so the demo ground track visibly moves.
const orbitPeriod = 2 * time.Minute

// StartMockPositionServer runs a wheretheiss.at-shaped API that moves a
// satellite along a simulated ground track, plus a GitHub-shaped
// releases endpoint for the update check demo.
// Call this in a goroutine before creating the tracker.
func StartMockPositionServer(addr string) {
	var (
		mu    sync.Mutex
		start = time.Now()
	)

	mux := http.NewServeMux()

	mux.HandleFunc("/satellites/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		elapsed := time.Since(start)
		mu.Unlock()

		// inclined circular orbit: latitude oscillates within the
		// inclination band while longitude drifts westward
		phase := 2 * math.Pi * float64(elapsed) / float64(orbitPeriod)
		lat := 51.6 * math.Sin(phase)
		lon := math.Mod(-(float64(elapsed.Seconds())*3.0)+180, 360) - 180

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name":      strings.TrimPrefix(r.URL.Path, "/satellites/"),
			"latitude":  lat,
			"longitude": lon,
			"altitude":  417.5 + 5*math.Sin(phase*2),
			"velocity":  27571.8,
			"timestamp": time.Now().Unix(),
		})
	})

	mux.HandleFunc("/repos/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"tag_name": "v9.9.9",
			"html_url": "http://localhost" + addr + "/releases/v9.9.9",
			"body":     "Mock release for the demo.",
			"assets": []map[string]any{
				{"browser_download_url": "http://localhost" + addr + "/download/skywatch-9.9.9.tar.gz"},
			},
		})
	})

	_ = http.ListenAndServe(addr, mux)
}
