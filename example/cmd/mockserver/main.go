// Standalone mock position server for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/skywatch serve -c example/config.yaml
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	fmt.Println("Mock position server starting on :9999")
	fmt.Println("Serves /satellites/{id} and /repos/{owner}/{repo}/releases/latest")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	const orbitPeriod = 2 * time.Minute
	start := time.Now()

	http.HandleFunc("/satellites/", func(w http.ResponseWriter, r *http.Request) {
		elapsed := time.Since(start)
		phase := 2 * math.Pi * float64(elapsed) / float64(orbitPeriod)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name":      strings.TrimPrefix(r.URL.Path, "/satellites/"),
			"latitude":  51.6 * math.Sin(phase),
			"longitude": math.Mod(-(elapsed.Seconds()*3.0)+180, 360) - 180,
			"altitude":  417.5 + 5*math.Sin(phase*2),
			"velocity":  27571.8,
			"timestamp": time.Now().Unix(),
		})
	})

	http.HandleFunc("/repos/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"tag_name": "v9.9.9",
			"html_url": "http://localhost:9999/releases/v9.9.9",
			"body":     "Mock release for CLI testing.",
			"assets": []map[string]any{
				{"browser_download_url": "http://localhost:9999/download/skywatch-9.9.9.tar.gz"},
			},
		})
	})

	if err := http.ListenAndServe(":9999", nil); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
