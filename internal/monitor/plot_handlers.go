package monitor

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prash-dwivedi/crater.report/internal/crater"
	"github.com/prash-dwivedi/crater.report/internal/db"
	"github.com/prash-dwivedi/crater.report/internal/dump"
	"github.com/prash-dwivedi/crater.report/internal/security"
)

// handleDepthPlot renders the depth profile PNG for one run. The output path
// is generated internally under the configured plot directory.
// Query params:
//
//	run (required)
func (ws *WebServer) handleDepthPlot(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run")
	if runID == "" {
		ws.writeJSONError(w, http.StatusBadRequest, "missing 'run' parameter")
		return
	}
	if ws.db == nil {
		ws.writeJSONError(w, http.StatusInternalServerError, "no database configured for run lookup")
		return
	}

	if _, err := ws.db.GetAnalysisRun(runID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ws.writeJSONError(w, http.StatusNotFound, "run not found")
			return
		}
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("get run: %v", err))
		return
	}

	results, err := ws.db.FrameResults(runID)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("get frame results: %v", err))
		return
	}
	analyzed := 0
	for _, fr := range results {
		if fr.Error == "" {
			analyzed++
		}
	}
	if analyzed == 0 {
		ws.writeJSONError(w, http.StatusNotFound, "no analyzed frames for run")
		return
	}

	rp, err := NewRunPlotter(ws.plotDir)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("plot dir: %v", err))
		return
	}
	outFile, err := rp.DepthProfile(runID, results)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render depth profile: %v", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"plot":   outFile,
		"frames": strconv.Itoa(analyzed),
	})
}

// handleHistogramPlot renders the z distribution PNG for one dump frame with
// the surface estimate marked. The output path is generated internally.
// Query params:
//
//	file (required) dump path on the server
//	frame (optional, default 0) frame index within the dump
func (ws *WebServer) handleHistogramPlot(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("file")
	if path == "" {
		ws.writeJSONError(w, http.StatusBadRequest, "missing 'file' parameter")
		return
	}
	if err := security.ValidateDumpPath(path, ws.dataDirs); err != nil {
		ws.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	frameIdx := 0
	if f := r.URL.Query().Get("frame"); f != "" {
		v, err := strconv.Atoi(f)
		if err != nil || v < 0 {
			ws.writeJSONError(w, http.StatusBadRequest, "invalid 'frame' parameter")
			return
		}
		frameIdx = v
	}

	frames, err := dump.ReadFile(path)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("read dump: %v", err))
		return
	}
	if frameIdx >= len(frames) {
		ws.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("frame %d not in dump (%d frames)", frameIdx, len(frames)))
		return
	}
	frame := frames[frameIdx]

	surface, err := crater.EstimateSurface(frame.Points, crater.DefaultParams())
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("estimate surface: %v", err))
		return
	}

	rp, err := NewRunPlotter(MakePlotOutputDir(ws.plotDir, path))
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("plot dir: %v", err))
		return
	}
	outFile, err := rp.ZHistogram(frame.Index, frame.Points, surface)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render histogram: %v", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"plot":   outFile,
	})
}
