package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/prash-dwivedi/crater.report/internal/db"
	"github.com/prash-dwivedi/crater.report/internal/metrics"
	"github.com/prash-dwivedi/crater.report/internal/monitoring"
	"github.com/prash-dwivedi/crater.report/internal/security"
)

// Watch analyzes path and then keeps polling it, picking up frames a still
// running simulation appends. It blocks until ctx is canceled, then marks
// the run complete with the tallies reached so far.
//
// The dump format is line oriented with no frame index in the file, so
// appended frames cannot be sought to directly. Each poll that observes a
// size change re-reads the file from the start and analyzes only frames
// past the last one already stored.
func (r *Runner) Watch(ctx context.Context, path string) (string, error) {
	runID := uuid.New().String()
	if err := r.db.CreateAnalysisRun(runID, path, r.paramsJSON()); err != nil {
		return "", err
	}
	metrics.RecordRunStarted()
	monitoring.Logf("run %s: watching %s (poll interval %s)", runID, path, r.watchInterval)

	var done, okCount, errCount int
	var lastSize int64 = -1

	resync := func() error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		total, ok, failed, err := r.analyzeFrames(ctx, runID, newFrameReader(path, f), done)
		if total > done {
			done = total
		}
		okCount += ok
		errCount += failed
		return err
	}

	if info, err := os.Stat(path); err == nil {
		lastSize = info.Size()
	}
	if err := resync(); err != nil && !errors.Is(err, context.Canceled) {
		r.failRun(runID, done, okCount, errCount)
		return runID, fmt.Errorf("%s: %w", path, err)
	}

	poll := r.clock.NewTicker(r.watchInterval)
	defer poll.Stop()
	statsTick := r.clock.NewTicker(r.statsInterval)
	defer statsTick.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := r.db.CompleteAnalysisRun(runID, db.RunStatusComplete, done, okCount, errCount); err != nil {
				monitoring.Logf("run %s: failed to mark run complete: %v", runID, err)
			}
			metrics.RecordRunCompleted()
			r.stats.LogStats()
			monitoring.Logf("run %s: watch stopped, %d frames analyzed, %d failed", runID, okCount, errCount)
			return runID, nil

		case <-statsTick.C():
			r.stats.LogStats()

		case <-poll.C():
			info, err := os.Stat(path)
			if err != nil {
				// The file may be mid-rotation. Keep polling.
				monitoring.Logf("run %s: %v", runID, err)
				continue
			}
			if info.Size() == lastSize {
				continue
			}
			lastSize = info.Size()
			if err := resync(); err != nil && !errors.Is(err, context.Canceled) {
				// A partial trailing frame mid-write parses as an error.
				// Completed frames before it were stored; the next size
				// change retries the remainder.
				monitoring.Logf("run %s: %v", runID, err)
			}
		}
	}
}

// WatchDir polls dir and analyzes each dump file as its own run. A file is
// picked up once its size has been stable for a full poll interval, so a
// dump still being written is left alone until the writer finishes. WatchDir
// blocks until ctx is canceled.
func (r *Runner) WatchDir(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	monitoring.Logf("watching %s for dump files (poll interval %s)", dir, r.watchInterval)

	sizes := make(map[string]int64)
	analyzed := make(map[string]bool)

	scan := func(entries []os.DirEntry) {
		for _, entry := range entries {
			if entry.IsDir() || analyzed[entry.Name()] {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if err := security.ValidateDumpPath(path, []string{dir}); err != nil {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}

			last, seen := sizes[entry.Name()]
			sizes[entry.Name()] = info.Size()
			if !seen || info.Size() != last {
				continue
			}

			analyzed[entry.Name()] = true
			if _, err := r.AnalyzeFile(ctx, path); err != nil {
				monitoring.Logf("%s: %v", path, err)
			}
		}
	}
	scan(entries)

	poll := r.clock.NewTicker(r.watchInterval)
	defer poll.Stop()
	statsTick := r.clock.NewTicker(r.statsInterval)
	defer statsTick.Stop()

	for {
		select {
		case <-ctx.Done():
			r.stats.LogStats()
			monitoring.Logf("stopped watching %s", dir)
			return nil

		case <-statsTick.C():
			r.stats.LogStats()

		case <-poll.C():
			entries, err := os.ReadDir(dir)
			if err != nil {
				monitoring.Logf("%s: %v", dir, err)
				continue
			}
			scan(entries)
		}
	}
}
