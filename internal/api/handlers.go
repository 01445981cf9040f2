package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/prash-dwivedi/crater.report/internal/crater"
	"github.com/prash-dwivedi/crater.report/internal/db"
	"github.com/prash-dwivedi/crater.report/internal/httputil"
	"github.com/prash-dwivedi/crater.report/internal/security"
	"github.com/prash-dwivedi/crater.report/internal/version"
)

// analyzeRequest is one frame of particle positions, [x y z] per particle.
type analyzeRequest struct {
	Frame  int          `json:"frame"`
	Points [][3]float64 `json:"points"`
}

// handleAnalyze runs the three-stage analysis on positions supplied in the
// request body and returns the full analysis. Nothing is persisted.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req analyzeRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	points := make([]crater.Point, len(req.Points))
	for i, p := range req.Points {
		points[i] = crater.Point{X: p[0], Y: p[1], Z: p[2]}
	}

	analysis, err := s.analyzer.Analyze(req.Frame, points)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, analysis)
}

// createRunRequest names a dump file on the server's filesystem.
type createRunRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListRuns(w, r)
	case http.MethodPost:
		s.handleCreateRun(w, r)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			httputil.BadRequest(w, "invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	runs, err := s.db.ListAnalysisRuns(limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list runs: %v", err))
		return
	}
	if runs == nil {
		runs = []*db.AnalysisRun{}
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// handleCreateRun analyzes a dump file already on the server's filesystem
// under a new run and returns the completed run record.
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if req.Path == "" {
		httputil.BadRequest(w, "path is required")
		return
	}
	if err := security.ValidateDumpPath(req.Path, s.dataDirs); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	runID, err := s.runner.AnalyzeFile(r.Context(), req.Path)
	if err != nil {
		if runID == "" {
			httputil.InternalServerError(w, fmt.Sprintf("failed to start run: %v", err))
			return
		}
		// The run exists in failed state; the input was unreadable.
		httputil.BadRequest(w, err.Error())
		return
	}

	run, err := s.db.GetAnalysisRun(runID)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load run: %v", err))
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, run)
}

// handleRunByID handles get, delete, and frame listing for a specific run.
func (s *Server) handleRunByID(w http.ResponseWriter, r *http.Request) {
	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/api/runs/"), "/", 2)
	runID := strings.TrimSpace(parts[0])
	if runID == "" {
		httputil.BadRequest(w, "run_id is required")
		return
	}

	if len(parts) == 2 && parts[1] != "" {
		if parts[1] != "frames" {
			httputil.NotFound(w, "not found")
			return
		}
		if r.Method != http.MethodGet {
			httputil.MethodNotAllowed(w)
			return
		}
		s.handleRunFrames(w, r, runID)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetRun(w, r, runID)
	case http.MethodDelete:
		s.handleDeleteRun(w, r, runID)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request, runID string) {
	run, err := s.db.GetAnalysisRun(runID)
	if errors.Is(err, db.ErrNotFound) {
		httputil.NotFound(w, "run not found")
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load run: %v", err))
		return
	}
	httputil.WriteJSONOK(w, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request, runID string) {
	err := s.db.DeleteAnalysisRun(runID)
	if errors.Is(err, db.ErrNotFound) {
		httputil.NotFound(w, "run not found")
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to delete run: %v", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRunFrames(w http.ResponseWriter, r *http.Request, runID string) {
	if _, err := s.db.GetAnalysisRun(runID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			httputil.NotFound(w, "run not found")
			return
		}
		httputil.InternalServerError(w, fmt.Sprintf("failed to load run: %v", err))
		return
	}

	frames, err := s.db.FrameResults(runID)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load frame results: %v", err))
		return
	}
	if frames == nil {
		frames = []*db.FrameResult{}
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"run_id": runID,
		"frames": frames,
		"count":  len(frames),
	})
}

// handleFrames returns a single stored frame, keyed by run and frame index.
func (s *Server) handleFrames(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	runID := r.URL.Query().Get("run")
	if runID == "" {
		httputil.BadRequest(w, "'run' parameter is required")
		return
	}
	frameStr := r.URL.Query().Get("frame")
	if frameStr == "" {
		httputil.BadRequest(w, "'frame' parameter is required")
		return
	}
	frameIndex, err := strconv.Atoi(frameStr)
	if err != nil || frameIndex < 0 {
		httputil.BadRequest(w, "invalid 'frame' parameter")
		return
	}

	result, err := s.db.FrameResult(runID, frameIndex)
	if errors.Is(err, db.ErrNotFound) {
		httputil.NotFound(w, "frame not found")
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load frame result: %v", err))
		return
	}
	httputil.WriteJSONOK(w, result)
}

// handleParams reports the resolved analysis parameters. The keys match the
// config file schema so a response can be fed back in as configuration.
func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	params := s.analyzer.Params()
	httputil.WriteJSONOK(w, map[string]interface{}{
		"surface_bins":        params.SurfaceBins,
		"pileup_count":        params.PileupCount,
		"rim_tolerance":       params.RimTolerance,
		"minor_axis_window":   params.MinorAxisWindow,
		"projectile_diameter": params.ProjectileDiameter,
		"length_scale":        params.LengthScale,
		"watch_interval":      s.cfg.GetWatchInterval().String(),
		"stats_interval":      s.cfg.GetStatsInterval().String(),
		"units":               s.units,
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{
		"version":    version.Version,
		"git_sha":    version.GitSHA,
		"build_time": version.BuildTime,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"status": "ok"})
}
