package api

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prash-dwivedi/crater.report/internal/crater"
	"github.com/prash-dwivedi/crater.report/internal/db"
	"github.com/prash-dwivedi/crater.report/internal/dump"
)

func analyzeBody(t *testing.T, frame int, points []crater.Point) *bytes.Buffer {
	t.Helper()
	req := analyzeRequest{Frame: frame, Points: make([][3]float64, len(points))}
	for i, p := range points {
		req.Points[i] = [3]float64{p.X, p.Y, p.Z}
	}
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(req); err != nil {
		t.Fatalf("Failed to encode request: %v", err)
	}
	return buf
}

func writeDump(t *testing.T, path string, frames int) {
	t.Helper()
	gen := dump.NewSyntheticGenerator(7)
	var trajectory []*dump.Frame
	for i := 0; i < frames; i++ {
		trajectory = append(trajectory, gen.NextFrame())
	}
	if err := dump.WriteFile(path, trajectory); err != nil {
		t.Fatalf("Failed to write dump file: %v", err)
	}
}

// sparseRimPoints is a cloud whose near-peak band holds only three
// particles, too few pairwise distances for the minor axis.
func sparseRimPoints() []crater.Point {
	points := make([]crater.Point, 0, 103)
	for i := 0; i < 100; i++ {
		points = append(points, crater.Point{
			X: float64(i % 10),
			Y: float64(i / 10),
			Z: 10 + float64(i%41),
		})
	}
	return append(points,
		crater.Point{X: 0, Y: 0, Z: 58.5},
		crater.Point{X: 5, Y: 5, Z: 59},
		crater.Point{X: 9, Y: 9, Z: 60},
	)
}

func TestHandleAnalyze(t *testing.T) {
	server, _ := setupTestServer(t)
	frame := dump.NewSyntheticGenerator(3).NextFrame()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", analyzeBody(t, 5, frame.Points))
	w := httptest.NewRecorder()
	server.handleAnalyze(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var analysis crater.Analysis
	if err := json.NewDecoder(w.Body).Decode(&analysis); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if analysis.Frame != 5 {
		t.Errorf("Expected frame 5, got %d", analysis.Frame)
	}
	if analysis.Points != len(frame.Points) {
		t.Errorf("Expected %d points, got %d", len(frame.Points), analysis.Points)
	}
	if math.Abs(analysis.Surface.SurfaceZ-80) > 0.5 {
		t.Errorf("Expected surface near z=80, got %.2f", analysis.Surface.SurfaceZ)
	}
	if math.Abs(analysis.Report.FinalDiameter-4.0) > 0.4 {
		t.Errorf("Expected final diameter near 4.0 nm, got %.2f", analysis.Report.FinalDiameter)
	}
}

func TestHandleAnalyze_NoPoints(t *testing.T) {
	server, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"frame": 0, "points": []}`))
	w := httptest.NewRecorder()
	server.handleAnalyze(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
	if msg := decodeError(t, w); !strings.Contains(msg, "no particle position data") {
		t.Errorf("Expected missing data error, got %q", msg)
	}
}

func TestHandleAnalyze_SparseRim(t *testing.T) {
	server, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", analyzeBody(t, 9, sparseRimPoints()))
	w := httptest.NewRecorder()
	server.handleAnalyze(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
	msg := decodeError(t, w)
	if !strings.Contains(msg, "frame 9") {
		t.Errorf("Expected error to name frame 9, got %q", msg)
	}
	if !strings.Contains(msg, "insufficient sample") {
		t.Errorf("Expected insufficient sample error, got %q", msg)
	}
}

func TestHandleAnalyze_MalformedBody(t *testing.T) {
	server, _ := setupTestServer(t)

	for name, body := range map[string]string{
		"not json":      `crater`,
		"unknown field": `{"frame": 1, "pts": [[0,0,0]]}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
		w := httptest.NewRecorder()
		server.handleAnalyze(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", name, w.Code)
		}
	}
}

func TestHandleAnalyze_WrongMethod(t *testing.T) {
	server, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/analyze", nil)
	w := httptest.NewRecorder()
	server.handleAnalyze(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestHandleListRuns(t *testing.T) {
	server, database := setupTestServer(t)
	seedRun(t, database, "run-1", 1)
	seedRun(t, database, "run-2", 2)

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	w := httptest.NewRecorder()
	server.handleRuns(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var body struct {
		Runs  []*db.AnalysisRun `json:"runs"`
		Count int               `json:"count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Count != 2 || len(body.Runs) != 2 {
		t.Fatalf("Expected 2 runs, got count=%d len=%d", body.Count, len(body.Runs))
	}
	for _, run := range body.Runs {
		if run.Status != db.RunStatusComplete {
			t.Errorf("Run %s: expected status complete, got %s", run.RunID, run.Status)
		}
	}
}

func TestHandleListRuns_Limit(t *testing.T) {
	server, database := setupTestServer(t)
	seedRun(t, database, "run-1", 1)
	seedRun(t, database, "run-2", 1)

	req := httptest.NewRequest(http.MethodGet, "/api/runs?limit=1", nil)
	w := httptest.NewRecorder()
	server.handleRuns(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var body struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Count != 1 {
		t.Errorf("Expected 1 run, got %d", body.Count)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/runs?limit=zero", nil)
	w = httptest.NewRecorder()
	server.handleRuns(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad limit, got %d", w.Code)
	}
}

func TestHandleListRuns_Empty(t *testing.T) {
	server, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	w := httptest.NewRecorder()
	server.handleRuns(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"runs":[]`) {
		t.Errorf("Expected empty runs array, got %s", w.Body.String())
	}
}

func TestHandleCreateRun(t *testing.T) {
	dataDir := t.TempDir()
	server, _ := setupTestServer(t, dataDir)
	dumpPath := filepath.Join(dataDir, "impact.dump")
	writeDump(t, dumpPath, 2)

	body, _ := json.Marshal(map[string]string{"path": dumpPath})
	req := httptest.NewRequest(http.MethodPost, "/api/runs", bytes.NewReader(body))
	w := httptest.NewRecorder()
	server.handleRuns(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var run db.AnalysisRun
	if err := json.NewDecoder(w.Body).Decode(&run); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if run.RunID == "" {
		t.Error("Expected a run ID")
	}
	if run.Status != db.RunStatusComplete {
		t.Errorf("Expected status complete, got %s", run.Status)
	}
	if run.FrameCount != 2 || run.OKCount != 2 {
		t.Errorf("Expected 2 frames analyzed, got frame_count=%d ok_count=%d", run.FrameCount, run.OKCount)
	}
	if run.SourcePath != dumpPath {
		t.Errorf("Expected source path %s, got %s", dumpPath, run.SourcePath)
	}
}

func TestHandleCreateRun_OutsideDataDir(t *testing.T) {
	server, _ := setupTestServer(t, t.TempDir())
	otherDir := t.TempDir()
	dumpPath := filepath.Join(otherDir, "impact.dump")
	writeDump(t, dumpPath, 1)

	body, _ := json.Marshal(map[string]string{"path": dumpPath})
	req := httptest.NewRequest(http.MethodPost, "/api/runs", bytes.NewReader(body))
	w := httptest.NewRecorder()
	server.handleRuns(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
}

func TestHandleCreateRun_BadExtension(t *testing.T) {
	dataDir := t.TempDir()
	server, _ := setupTestServer(t, dataDir)

	body, _ := json.Marshal(map[string]string{"path": filepath.Join(dataDir, "impact.csv")})
	req := httptest.NewRequest(http.MethodPost, "/api/runs", bytes.NewReader(body))
	w := httptest.NewRecorder()
	server.handleRuns(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
}

func TestHandleCreateRun_MissingPath(t *testing.T) {
	server, _ := setupTestServer(t, t.TempDir())

	req := httptest.NewRequest(http.MethodPost, "/api/runs", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	server.handleRuns(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
	if msg := decodeError(t, w); !strings.Contains(msg, "path is required") {
		t.Errorf("Expected path required error, got %q", msg)
	}
}

func TestHandleCreateRun_UnreadableFile(t *testing.T) {
	dataDir := t.TempDir()
	server, database := setupTestServer(t, dataDir)

	body, _ := json.Marshal(map[string]string{"path": filepath.Join(dataDir, "ghost.dump")})
	req := httptest.NewRequest(http.MethodPost, "/api/runs", bytes.NewReader(body))
	w := httptest.NewRecorder()
	server.handleRuns(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}

	// The attempt is still recorded as a failed run.
	runs, err := database.ListAnalysisRuns(10)
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != db.RunStatusFailed {
		t.Errorf("Expected one failed run, got %+v", runs)
	}
}

func TestHandleGetRun(t *testing.T) {
	server, database := setupTestServer(t)
	seedRun(t, database, "run-1", 2)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/run-1", nil)
	w := httptest.NewRecorder()
	server.handleRunByID(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var run db.AnalysisRun
	if err := json.NewDecoder(w.Body).Decode(&run); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if run.RunID != "run-1" || run.FrameCount != 2 {
		t.Errorf("Expected run-1 with 2 frames, got %s with %d", run.RunID, run.FrameCount)
	}
}

func TestHandleGetRun_NotFound(t *testing.T) {
	server, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/ghost", nil)
	w := httptest.NewRecorder()
	server.handleRunByID(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestHandleDeleteRun(t *testing.T) {
	server, database := setupTestServer(t)
	seedRun(t, database, "run-1", 1)

	req := httptest.NewRequest(http.MethodDelete, "/api/runs/run-1", nil)
	w := httptest.NewRecorder()
	server.handleRunByID(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", w.Code)
	}
	if _, err := database.GetAnalysisRun("run-1"); err == nil {
		t.Error("Expected run to be deleted")
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/runs/run-1", nil)
	w = httptest.NewRecorder()
	server.handleRunByID(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 on second delete, got %d", w.Code)
	}
}

func TestHandleRunByID_WrongMethod(t *testing.T) {
	server, database := setupTestServer(t)
	seedRun(t, database, "run-1", 1)

	req := httptest.NewRequest(http.MethodPut, "/api/runs/run-1", nil)
	w := httptest.NewRecorder()
	server.handleRunByID(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestHandleRunFrames(t *testing.T) {
	server, database := setupTestServer(t)
	seedRun(t, database, "run-1", 3)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/run-1/frames", nil)
	w := httptest.NewRecorder()
	server.handleRunByID(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var body struct {
		RunID  string            `json:"run_id"`
		Frames []*db.FrameResult `json:"frames"`
		Count  int               `json:"count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.RunID != "run-1" || body.Count != 3 {
		t.Fatalf("Expected 3 frames for run-1, got %d for %s", body.Count, body.RunID)
	}
	for i, frame := range body.Frames {
		if frame.FrameIndex != i {
			t.Errorf("Frame %d: expected index %d, got %d", i, i, frame.FrameIndex)
		}
	}
}

func TestHandleRunFrames_UnknownRun(t *testing.T) {
	server, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/ghost/frames", nil)
	w := httptest.NewRecorder()
	server.handleRunByID(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestHandleRunByID_UnknownSuffix(t *testing.T) {
	server, database := setupTestServer(t)
	seedRun(t, database, "run-1", 1)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/run-1/bogus", nil)
	w := httptest.NewRecorder()
	server.handleRunByID(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestHandleFrames(t *testing.T) {
	server, database := setupTestServer(t)
	seedRun(t, database, "run-1", 3)

	req := httptest.NewRequest(http.MethodGet, "/api/frames?run=run-1&frame=1", nil)
	w := httptest.NewRecorder()
	server.handleFrames(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var result db.FrameResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.FrameIndex != 1 || result.Timestep != 100 {
		t.Errorf("Expected frame 1 at timestep 100, got %d at %d", result.FrameIndex, result.Timestep)
	}
	if result.PointCount != 1000 {
		t.Errorf("Expected 1000 points, got %d", result.PointCount)
	}
}

func TestHandleFrames_NotFound(t *testing.T) {
	server, database := setupTestServer(t)
	seedRun(t, database, "run-1", 1)

	req := httptest.NewRequest(http.MethodGet, "/api/frames?run=run-1&frame=99", nil)
	w := httptest.NewRecorder()
	server.handleFrames(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestHandleFrames_BadParams(t *testing.T) {
	server, _ := setupTestServer(t)

	for name, target := range map[string]string{
		"missing run":    "/api/frames?frame=0",
		"missing frame":  "/api/frames?run=run-1",
		"negative frame": "/api/frames?run=run-1&frame=-1",
		"bogus frame":    "/api/frames?run=run-1&frame=first",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()
		server.handleFrames(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", name, w.Code)
		}
	}
}
