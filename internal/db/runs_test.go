package db

import (
	"strings"
	"testing"
)

func TestCreateAnalysisRun_AndGet(t *testing.T) {
	db := newTestDB(t)

	if err := db.CreateAnalysisRun("run-1", "dumps/impact.dump", `{"surface_bins":100}`); err != nil {
		t.Fatalf("CreateAnalysisRun failed: %v", err)
	}

	run, err := db.GetAnalysisRun("run-1")
	if err != nil {
		t.Fatalf("GetAnalysisRun failed: %v", err)
	}
	if run.RunID != "run-1" {
		t.Errorf("Expected run ID run-1, got %s", run.RunID)
	}
	if run.SourcePath != "dumps/impact.dump" {
		t.Errorf("Expected source path dumps/impact.dump, got %s", run.SourcePath)
	}
	if run.ParamsJSON != `{"surface_bins":100}` {
		t.Errorf("Expected params JSON to round-trip, got %s", run.ParamsJSON)
	}
	if run.Status != RunStatusRunning {
		t.Errorf("Expected status %s, got %s", RunStatusRunning, run.Status)
	}
	if run.StartedAt.IsZero() {
		t.Error("Expected StartedAt to be set")
	}
	if run.CompletedAt != nil {
		t.Error("Expected CompletedAt to be unset while running")
	}
}

func TestCreateAnalysisRun_DuplicateID(t *testing.T) {
	db := newTestDB(t)

	if err := db.CreateAnalysisRun("run-1", "a.dump", "{}"); err != nil {
		t.Fatalf("CreateAnalysisRun failed: %v", err)
	}
	if err := db.CreateAnalysisRun("run-1", "b.dump", "{}"); err == nil {
		t.Error("Expected duplicate run ID to fail")
	}
}

func TestCompleteAnalysisRun(t *testing.T) {
	db := newTestDB(t)

	if err := db.CreateAnalysisRun("run-1", "a.dump", "{}"); err != nil {
		t.Fatalf("CreateAnalysisRun failed: %v", err)
	}
	if err := db.CompleteAnalysisRun("run-1", RunStatusComplete, 12, 10, 2); err != nil {
		t.Fatalf("CompleteAnalysisRun failed: %v", err)
	}

	run, err := db.GetAnalysisRun("run-1")
	if err != nil {
		t.Fatalf("GetAnalysisRun failed: %v", err)
	}
	if run.Status != RunStatusComplete {
		t.Errorf("Expected status %s, got %s", RunStatusComplete, run.Status)
	}
	if run.FrameCount != 12 || run.OKCount != 10 || run.ErrorCount != 2 {
		t.Errorf("Expected counts 12/10/2, got %d/%d/%d", run.FrameCount, run.OKCount, run.ErrorCount)
	}
	if run.CompletedAt == nil {
		t.Error("Expected CompletedAt to be set after completion")
	}
}

func TestCompleteAnalysisRun_Missing(t *testing.T) {
	db := newTestDB(t)

	err := db.CompleteAnalysisRun("nope", RunStatusFailed, 0, 0, 0)
	if err == nil {
		t.Fatal("Expected error for missing run")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected not-found error, got: %v", err)
	}
}

func TestGetAnalysisRun_Missing(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetAnalysisRun("nope")
	if err == nil {
		t.Fatal("Expected error for missing run")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected not-found error, got: %v", err)
	}
}

func TestListAnalysisRuns_NewestFirst(t *testing.T) {
	db := newTestDB(t)

	for _, id := range []string{"run-a", "run-b", "run-c"} {
		if err := db.CreateAnalysisRun(id, "a.dump", "{}"); err != nil {
			t.Fatalf("CreateAnalysisRun failed: %v", err)
		}
	}

	runs, err := db.ListAnalysisRuns(10)
	if err != nil {
		t.Fatalf("ListAnalysisRuns failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("Expected 3 runs, got %d", len(runs))
	}
	// started_at has second resolution so the run ID breaks ties; either
	// way the newest insert lists first.
	if runs[0].RunID != "run-c" || runs[2].RunID != "run-a" {
		t.Errorf("Expected newest-first ordering run-c..run-a, got %s..%s", runs[0].RunID, runs[2].RunID)
	}

	limited, err := db.ListAnalysisRuns(2)
	if err != nil {
		t.Fatalf("ListAnalysisRuns failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("Expected limit of 2 runs, got %d", len(limited))
	}
}

func TestDeleteAnalysisRun(t *testing.T) {
	db := newTestDB(t)

	if err := db.CreateAnalysisRun("run-1", "a.dump", "{}"); err != nil {
		t.Fatalf("CreateAnalysisRun failed: %v", err)
	}
	if err := db.DeleteAnalysisRun("run-1"); err != nil {
		t.Fatalf("DeleteAnalysisRun failed: %v", err)
	}
	if _, err := db.GetAnalysisRun("run-1"); err == nil {
		t.Error("Expected deleted run to be gone")
	}
	if err := db.DeleteAnalysisRun("run-1"); err == nil {
		t.Error("Expected second delete to report not found")
	}
}
