// Package monitor serves the human-facing side of the analyzer: a status
// page, go-echarts dashboards over stored runs, PNG plot exports, and the
// Prometheus scrape endpoint.
package monitor

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/prash-dwivedi/crater.report/internal/db"
	"github.com/prash-dwivedi/crater.report/internal/metrics"
	"github.com/prash-dwivedi/crater.report/internal/version"
)

//go:embed status.html
var StatusHTML embed.FS

// WebServer handles the HTTP interface for monitoring analysis runs.
type WebServer struct {
	address   string
	db        *db.DB
	dataDirs  []string
	plotDir   string
	server    *http.Server
	startTime time.Time
}

// WebServerConfig contains configuration options for the monitor server.
type WebServerConfig struct {
	Address string
	DB      *db.DB

	// DataDirs restricts the dump files the frame-level chart and plot
	// handlers may read. Empty accepts any local dump path.
	DataDirs []string

	// PlotDir is where PNG renderings are written. Defaults to a
	// crater-plots directory under the system temp directory.
	PlotDir string
}

// NewWebServer creates a monitor server with the provided configuration.
func NewWebServer(config WebServerConfig) *WebServer {
	plotDir := config.PlotDir
	if plotDir == "" {
		plotDir = filepath.Join(os.TempDir(), "crater-plots")
	}

	ws := &WebServer{
		address:   config.Address,
		db:        config.DB,
		dataDirs:  config.DataDirs,
		plotDir:   plotDir,
		startTime: time.Now(),
	}

	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.setupRoutes(),
	}

	return ws
}

func (ws *WebServer) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// Start begins the HTTP server in a goroutine and handles graceful shutdown
// when the context is canceled.
func (ws *WebServer) Start(ctx context.Context) error {
	go func() {
		log.Printf("Starting monitor HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start monitor server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down monitor HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("monitor server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			log.Printf("monitor server force close error: %v", err)
		}
	}

	log.Printf("monitor HTTP server stopped")
	return nil
}

// setupRoutes configures the HTTP routes and handlers.
func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/", ws.handleStatus)
	mux.HandleFunc("/charts/run", ws.handleRunCharts)
	mux.HandleFunc("/charts/rim", ws.handleRimScatter)
	mux.HandleFunc("/plots/depth", ws.handleDepthPlot)
	mux.HandleFunc("/plots/histogram", ws.handleHistogramPlot)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	return mux
}

// handleHealth handles the health check endpoint.
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "ok", "service": "crater-report", "timestamp": "%s"}`, time.Now().UTC().Format(time.RFC3339))
}

// handleStatus handles the main status page endpoint.
func (ws *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")

	var runs []*db.AnalysisRun
	if ws.db != nil {
		var err error
		runs, err = ws.db.ListAnalysisRuns(20)
		if err != nil {
			http.Error(w, "Error loading runs: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	tmpl, err := template.ParseFS(StatusHTML, "status.html")
	if err != nil {
		http.Error(w, "Error loading template: "+err.Error(), http.StatusInternalServerError)
		return
	}

	data := struct {
		HTTPAddress string
		Version     string
		Uptime      string
		Runs        []*db.AnalysisRun
	}{
		HTTPAddress: ws.address,
		Version:     version.Version,
		Uptime:      time.Since(ws.startTime).Round(time.Second).String(),
		Runs:        runs,
	}

	if err := tmpl.Execute(w, data); err != nil {
		http.Error(w, "Error executing template: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// Close shuts down the web server.
func (ws *WebServer) Close() error {
	if ws.server != nil {
		return ws.server.Close()
	}
	return nil
}
