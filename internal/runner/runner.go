// Package runner drives frame-by-frame crater analysis over particle dumps
// and persists each frame's outcome under an analysis run.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prash-dwivedi/crater.report/internal/config"
	"github.com/prash-dwivedi/crater.report/internal/crater"
	"github.com/prash-dwivedi/crater.report/internal/db"
	"github.com/prash-dwivedi/crater.report/internal/dump"
	"github.com/prash-dwivedi/crater.report/internal/metrics"
	"github.com/prash-dwivedi/crater.report/internal/monitoring"
	"github.com/prash-dwivedi/crater.report/internal/timeutil"
)

// Runner analyzes dump files and records results in the database.
type Runner struct {
	analyzer *crater.Analyzer
	db       *db.DB
	clock    timeutil.Clock
	stats    *AnalysisStats

	watchInterval time.Duration
	statsInterval time.Duration
}

// New creates a Runner using the analysis parameters from cfg.
func New(cfg *config.AnalysisConfig, database *db.DB) (*Runner, error) {
	return NewWithClock(cfg, database, timeutil.RealClock{})
}

// NewWithClock creates a Runner with an injected clock for testing.
func NewWithClock(cfg *config.AnalysisConfig, database *db.DB, clock timeutil.Clock) (*Runner, error) {
	analyzer, err := crater.NewAnalyzer(ParamsFromConfig(cfg))
	if err != nil {
		return nil, err
	}
	return &Runner{
		analyzer:      analyzer,
		db:            database,
		clock:         clock,
		stats:         NewAnalysisStats(clock),
		watchInterval: cfg.GetWatchInterval(),
		statsInterval: cfg.GetStatsInterval(),
	}, nil
}

// Analyzer exposes the configured analyzer for callers that analyze frames
// outside a stored run.
func (r *Runner) Analyzer() *crater.Analyzer {
	return r.analyzer
}

// ParamsFromConfig maps the analysis configuration onto analyzer parameters,
// applying defaults for unset fields.
func ParamsFromConfig(cfg *config.AnalysisConfig) crater.Params {
	return crater.Params{
		SurfaceBins:        cfg.GetSurfaceBins(),
		PileupCount:        cfg.GetPileupCount(),
		RimTolerance:       cfg.GetRimTolerance(),
		MinorAxisWindow:    cfg.GetMinorAxisWindow(),
		ProjectileDiameter: cfg.GetProjectileDiameter(),
		LengthScale:        cfg.GetLengthScale(),
	}
}

// AnalyzeFile analyzes every frame of the dump at path under a fresh run and
// returns the run ID. Frames that fail analysis are recorded and skipped;
// only unreadable input fails the whole run.
func (r *Runner) AnalyzeFile(ctx context.Context, path string) (string, error) {
	runID := uuid.New().String()
	if err := r.db.CreateAnalysisRun(runID, path, r.paramsJSON()); err != nil {
		return "", err
	}
	metrics.RecordRunStarted()
	monitoring.Logf("run %s: analyzing %s", runID, path)

	f, err := os.Open(path)
	if err != nil {
		r.failRun(runID, 0, 0, 0)
		return runID, err
	}
	defer f.Close()

	frames, okCount, errCount, err := r.analyzeFrames(ctx, runID, newFrameReader(path, f), 0)
	if err != nil {
		r.failRun(runID, frames, okCount, errCount)
		return runID, fmt.Errorf("%s: %w", path, err)
	}
	if frames == 0 {
		r.failRun(runID, 0, 0, 0)
		return runID, fmt.Errorf("%s: %w", path, dump.ErrNoFrames)
	}

	if err := r.db.CompleteAnalysisRun(runID, db.RunStatusComplete, frames, okCount, errCount); err != nil {
		return runID, err
	}
	metrics.RecordRunCompleted()
	r.stats.LogStats()
	monitoring.Logf("run %s: %d frames analyzed, %d failed", runID, okCount, errCount)
	return runID, nil
}

// analyzeFrames drains fr, analyzing and storing every frame whose ordinal
// index is at least skip. The returned total counts all frames read,
// including skipped ones.
func (r *Runner) analyzeFrames(ctx context.Context, runID string, fr dump.FrameReader, skip int) (int, int, int, error) {
	var total, okCount, errCount int
	for {
		select {
		case <-ctx.Done():
			return total, okCount, errCount, ctx.Err()
		default:
		}

		frame, err := fr.Next()
		if errors.Is(err, io.EOF) {
			return total, okCount, errCount, nil
		}
		if err != nil {
			metrics.RecordDumpReadError()
			return total, okCount, errCount, err
		}
		metrics.RecordDumpFrameRead()
		total++
		if frame.Index < skip {
			continue
		}
		if r.analyzeAndStore(runID, frame) {
			okCount++
		} else {
			errCount++
		}
	}
}

// analyzeAndStore runs the three-stage analysis on one frame and persists
// the outcome. Reports whether the frame analyzed and stored cleanly.
func (r *Runner) analyzeAndStore(runID string, frame *dump.Frame) bool {
	start := r.clock.Now()
	analysis, err := r.analyzer.Analyze(frame.Index, frame.Points)
	elapsed := r.clock.Since(start)

	if err != nil {
		r.stats.AddError()
		metrics.RecordFrameFailed()
		monitoring.Logf("run %s: %v", runID, err)
		if dbErr := r.db.InsertFrameError(runID, frame.Index, frame.Timestep, len(frame.Points), err); dbErr != nil {
			monitoring.Logf("run %s: failed to record frame error: %v", runID, dbErr)
		}
		return false
	}

	metrics.RecordFrameAnalyzed()
	metrics.RecordFrameLatency(elapsed.Seconds() * 1000)
	metrics.RecordPointsPerFrame(len(frame.Points))
	metrics.RecordAnalysisWarnings(len(analysis.Warnings))
	metrics.UpdateCraterGeometry(
		analysis.Ratios.Depth,
		analysis.Ratios.FinalDiameter,
		analysis.Ratios.CraterVolume,
		analysis.Surface.Pileup,
		analysis.Axes.RimCount,
	)
	for _, warning := range analysis.Warnings {
		monitoring.Logf("run %s frame %d: %s", runID, frame.Index, warning)
	}

	writeStart := r.clock.Now()
	if err := r.db.InsertFrameResult(runID, frame.Timestep, analysis); err != nil {
		r.stats.AddError()
		monitoring.Logf("run %s: failed to store frame %d: %v", runID, frame.Index, err)
		return false
	}
	metrics.RecordDBWriteLatency(r.clock.Since(writeStart).Seconds() * 1000)

	r.stats.AddFrame(len(frame.Points), elapsed)
	monitoring.Debugf("frame %d: %d points, depth %.2f nm, diameter %.2f nm",
		frame.Index, len(frame.Points), analysis.Ratios.Depth, analysis.Ratios.FinalDiameter)
	return true
}

// failRun marks the run failed with whatever tallies were reached.
func (r *Runner) failRun(runID string, frames, okCount, errCount int) {
	metrics.RecordRunFailed()
	if err := r.db.CompleteAnalysisRun(runID, db.RunStatusFailed, frames, okCount, errCount); err != nil {
		monitoring.Logf("run %s: failed to mark run failed: %v", runID, err)
	}
}

// paramsJSON serializes the active analyzer parameters for the run record.
func (r *Runner) paramsJSON() string {
	params := r.analyzer.Params()
	data, err := json.Marshal(map[string]any{
		"surface_bins":        params.SurfaceBins,
		"pileup_count":        params.PileupCount,
		"rim_tolerance":       params.RimTolerance,
		"minor_axis_window":   params.MinorAxisWindow,
		"projectile_diameter": params.ProjectileDiameter,
		"length_scale":        params.LengthScale,
	})
	if err != nil {
		return "{}"
	}
	return string(data)
}

// newFrameReader picks the reader by file extension, matching dump.ReadFile.
func newFrameReader(path string, f io.Reader) dump.FrameReader {
	if strings.ToLower(filepath.Ext(path)) == ".xyz" {
		return dump.NewXYZReader(f)
	}
	return dump.NewReader(f)
}
