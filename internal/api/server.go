// Package api exposes the analysis pipeline and stored results over HTTP
// JSON.
package api

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/prash-dwivedi/crater.report/internal/config"
	"github.com/prash-dwivedi/crater.report/internal/crater"
	"github.com/prash-dwivedi/crater.report/internal/db"
	"github.com/prash-dwivedi/crater.report/internal/metrics"
	"github.com/prash-dwivedi/crater.report/internal/runner"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	db       *db.DB
	runner   *runner.Runner
	analyzer *crater.Analyzer
	cfg      *config.AnalysisConfig
	units    string
	dataDirs []string
}

// NewServer creates an API server. units labels report lengths in responses.
// dataDirs, when non-empty, restricts server-side dump analysis to those
// directories; empty accepts any local path with a dump extension.
func NewServer(database *db.DB, run *runner.Runner, cfg *config.AnalysisConfig, units string, dataDirs []string) *Server {
	return &Server{
		db:       database,
		runner:   run,
		analyzer: run.Analyzer(),
		cfg:      cfg,
		units:    units,
		dataDirs: dataDirs,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400 && statusCode < 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration, and
// feeds the request counters.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		elapsed := time.Since(start)

		status := strconv.Itoa(lrw.statusCode)
		metrics.RecordHTTPRequest(r.URL.Path, r.Method, status)
		metrics.RecordHTTPRequestDuration(r.URL.Path, r.Method, status,
			float64(elapsed.Nanoseconds())/1e6)

		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(elapsed.Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/runs", s.handleRuns)
	mux.HandleFunc("/api/runs/", s.handleRunByID)
	mux.HandleFunc("/api/frames", s.handleFrames)
	mux.HandleFunc("/api/params", s.handleParams)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/healthz", s.handleHealthz)
	return mux
}
