package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prash-dwivedi/crater.report/internal/crater"
)

// FrameResult is the stored outcome for one frame of a run. Surface and axis
// columns keep the simulation units of the dump; the diameter, depth and
// volume columns carry the report units produced by the length scale.
// A failed frame has Error set and all metric columns zero.
type FrameResult struct {
	ID               int64     `json:"id"`
	RunID            string    `json:"run_id"`
	FrameIndex       int       `json:"frame_index"`
	Timestep         int64     `json:"timestep"`
	PointCount       int       `json:"point_count"`
	SurfaceZ         float64   `json:"surface_z"`
	Depth            float64   `json:"depth"`
	Pileup           float64   `json:"pileup"`
	MajorAxis        float64   `json:"major_axis"`
	MinorAxis        float64   `json:"minor_axis"`
	FinalDiameter    float64   `json:"final_diameter"`
	DiameterRatio    float64   `json:"diameter_ratio"`
	DepthRatio       float64   `json:"depth_ratio"`
	ProjectileVolume float64   `json:"projectile_volume"`
	CraterVolume     float64   `json:"crater_volume"`
	VolumeRatio      float64   `json:"volume_ratio"`
	ReportJSON       string    `json:"report_json,omitempty"`
	Warnings         []string  `json:"warnings,omitempty"`
	Error            string    `json:"error,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// InsertFrameResult stores a completed frame analysis under the given run.
func (db *DB) InsertFrameResult(runID string, timestep int64, analysis *crater.Analysis) error {
	reportJSON, err := json.Marshal(analysis.Report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO frame_results (
			run_id, frame_index, timestep, point_count,
			surface_z, depth, pileup, major_axis, minor_axis,
			final_diameter, diameter_ratio, depth_ratio,
			projectile_volume, crater_volume, volume_ratio,
			report_json, warnings
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, analysis.Frame, timestep, analysis.Points,
		analysis.Surface.SurfaceZ, analysis.Surface.Depth, analysis.Surface.Pileup,
		analysis.Axes.MajorAxis, analysis.Axes.MinorAxis,
		analysis.Ratios.FinalDiameter, analysis.Ratios.DiameterRatio, analysis.Ratios.DepthRatio,
		analysis.Ratios.ProjectileVolume, analysis.Ratios.CraterVolume, analysis.Ratios.VolumeRatio,
		string(reportJSON), strings.Join(analysis.Warnings, "\n"))
	if err != nil {
		return fmt.Errorf("failed to insert frame result: %w", err)
	}
	return nil
}

// InsertFrameError records a frame that could not be analyzed.
func (db *DB) InsertFrameError(runID string, frameIndex int, timestep int64, pointCount int, cause error) error {
	_, err := db.Exec(`
		INSERT INTO frame_results (run_id, frame_index, timestep, point_count, error)
		VALUES (?, ?, ?, ?, ?)`,
		runID, frameIndex, timestep, pointCount, cause.Error())
	if err != nil {
		return fmt.Errorf("failed to insert frame error: %w", err)
	}
	return nil
}

// FrameResults returns all stored frames for a run in frame order.
func (db *DB) FrameResults(runID string) ([]*FrameResult, error) {
	rows, err := db.Query(`
		SELECT id, run_id, frame_index, timestep, point_count,
		       COALESCE(surface_z, 0), COALESCE(depth, 0), COALESCE(pileup, 0),
		       COALESCE(major_axis, 0), COALESCE(minor_axis, 0),
		       COALESCE(final_diameter, 0), COALESCE(diameter_ratio, 0), COALESCE(depth_ratio, 0),
		       COALESCE(projectile_volume, 0), COALESCE(crater_volume, 0), COALESCE(volume_ratio, 0),
		       COALESCE(report_json, ''), COALESCE(warnings, ''), COALESCE(error, ''),
		       created_at
		FROM frame_results
		WHERE run_id = ?
		ORDER BY frame_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query frame results: %w", err)
	}
	defer rows.Close()

	var results []*FrameResult
	for rows.Next() {
		var r FrameResult
		var warnings string
		err := rows.Scan(&r.ID, &r.RunID, &r.FrameIndex, &r.Timestep, &r.PointCount,
			&r.SurfaceZ, &r.Depth, &r.Pileup,
			&r.MajorAxis, &r.MinorAxis,
			&r.FinalDiameter, &r.DiameterRatio, &r.DepthRatio,
			&r.ProjectileVolume, &r.CraterVolume, &r.VolumeRatio,
			&r.ReportJSON, &warnings, &r.Error,
			&r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan frame result: %w", err)
		}
		if warnings != "" {
			r.Warnings = strings.Split(warnings, "\n")
		}
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate frame results: %w", err)
	}
	return results, nil
}

// FrameResult returns one stored frame of a run.
func (db *DB) FrameResult(runID string, frameIndex int) (*FrameResult, error) {
	row := db.QueryRow(`
		SELECT id, run_id, frame_index, timestep, point_count,
		       COALESCE(surface_z, 0), COALESCE(depth, 0), COALESCE(pileup, 0),
		       COALESCE(major_axis, 0), COALESCE(minor_axis, 0),
		       COALESCE(final_diameter, 0), COALESCE(diameter_ratio, 0), COALESCE(depth_ratio, 0),
		       COALESCE(projectile_volume, 0), COALESCE(crater_volume, 0), COALESCE(volume_ratio, 0),
		       COALESCE(report_json, ''), COALESCE(warnings, ''), COALESCE(error, ''),
		       created_at
		FROM frame_results
		WHERE run_id = ? AND frame_index = ?`, runID, frameIndex)

	var r FrameResult
	var warnings string
	err := row.Scan(&r.ID, &r.RunID, &r.FrameIndex, &r.Timestep, &r.PointCount,
		&r.SurfaceZ, &r.Depth, &r.Pileup,
		&r.MajorAxis, &r.MinorAxis,
		&r.FinalDiameter, &r.DiameterRatio, &r.DepthRatio,
		&r.ProjectileVolume, &r.CraterVolume, &r.VolumeRatio,
		&r.ReportJSON, &warnings, &r.Error,
		&r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("frame %d of run %s: %w", frameIndex, runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query frame result: %w", err)
	}
	if warnings != "" {
		r.Warnings = strings.Split(warnings, "\n")
	}
	return &r, nil
}

// CountFrameResults reports how many frames a run has stored, split into
// analyzed and failed.
func (db *DB) CountFrameResults(runID string) (ok, failed int, err error) {
	row := db.QueryRow(`
		SELECT COUNT(CASE WHEN error IS NULL THEN 1 END),
		       COUNT(CASE WHEN error IS NOT NULL THEN 1 END)
		FROM frame_results
		WHERE run_id = ?`, runID)
	if err := row.Scan(&ok, &failed); err != nil {
		return 0, 0, fmt.Errorf("failed to count frame results: %w", err)
	}
	return ok, failed, nil
}
