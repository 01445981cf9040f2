package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prash-dwivedi/crater.report/internal/api"
	"github.com/prash-dwivedi/crater.report/internal/config"
	"github.com/prash-dwivedi/crater.report/internal/db"
	"github.com/prash-dwivedi/crater.report/internal/monitor"
	"github.com/prash-dwivedi/crater.report/internal/runner"
	"github.com/prash-dwivedi/crater.report/internal/units"
)

// loadAnalysisConfig resolves the analysis parameters: the JSON file when
// -config is given, the built-in defaults otherwise.
func loadAnalysisConfig() *config.AnalysisConfig {
	if *configFile == "" {
		return config.MustLoadDefaultConfig()
	}
	cfg, err := config.LoadAnalysisConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load analysis config: %v", err)
	}
	return cfg
}

// splitDataDirs turns the -data-dirs flag value into a directory list.
func splitDataDirs(list string) []string {
	if list == "" {
		return nil
	}
	var dirs []string
	for _, d := range strings.Split(list, ",") {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// runServe starts the analysis API and the monitor server and blocks until
// interrupted.
func runServe() {
	if *listen == "" {
		log.Fatal("API listen address is required")
	}
	if !units.IsValid(*reportUnits) {
		log.Fatalf("Invalid -report-units %q (valid: %s)", *reportUnits, units.GetValidUnitsString())
	}

	cfg := loadAnalysisConfig()

	db.DevMode = *devMode
	database, err := db.OpenDBWithMigrationCheck(*dbFile, *skipMigCheck)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	run, err := runner.New(cfg, database)
	if err != nil {
		log.Fatalf("Failed to create analysis runner: %v", err)
	}

	dataDirs := splitDataDirs(*dataDirList)

	// Create a wait group for the API server and monitor server routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Monitor server goroutine (status page, charts, plots, /metrics)
	if *monitorListen != "" {
		ws := monitor.NewWebServer(monitor.WebServerConfig{
			Address:  *monitorListen,
			DB:       database,
			DataDirs: dataDirs,
			PlotDir:  *plotDir,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ws.Start(ctx); err != nil {
				log.Printf("monitor server error: %v", err)
			}
			log.Print("monitor routine terminated")
		}()
	}

	// API server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		// create a new API server instance over the runner and database
		// and mount the API handlers
		mux := api.NewServer(database, run, cfg, *reportUnits, dataDirs).ServeMux()

		// mount the admin debugging routes (tailsql console, db stats, backup)
		database.AttachAdminRoutes(mux)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			log.Printf("Starting API server on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		// Create a shutdown context with a shorter timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			// Force close the server if graceful shutdown fails
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	// Wait for all goroutines to finish
	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
