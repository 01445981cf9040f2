package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/prash-dwivedi/crater.report/internal/testutil"
)

func TestLoadAnalysisConfig(t *testing.T) {
	path := testutil.WriteTempFile(t, "analysis.json", `{
		"surface_bins": 50,
		"rim_tolerance": 2.5,
		"watch_interval": "10s"
	}`)

	cfg, err := LoadAnalysisConfig(path)
	if err != nil {
		t.Fatalf("LoadAnalysisConfig failed: %v", err)
	}

	if got := cfg.GetSurfaceBins(); got != 50 {
		t.Errorf("GetSurfaceBins() = %d, want 50", got)
	}
	if got := cfg.GetRimTolerance(); got != 2.5 {
		t.Errorf("GetRimTolerance() = %f, want 2.5", got)
	}
	if got := cfg.GetWatchInterval(); got != 10*time.Second {
		t.Errorf("GetWatchInterval() = %v, want 10s", got)
	}

	// Fields absent from the file fall back to defaults.
	if got := cfg.GetPileupCount(); got != 7 {
		t.Errorf("GetPileupCount() = %d, want default 7", got)
	}
	if got := cfg.GetMinorAxisWindow(); got != 10 {
		t.Errorf("GetMinorAxisWindow() = %d, want default 10", got)
	}
	if got := cfg.GetProjectileDiameter(); got != 100.0 {
		t.Errorf("GetProjectileDiameter() = %f, want default 100", got)
	}
	if got := cfg.GetLengthScale(); got != 0.1 {
		t.Errorf("GetLengthScale() = %f, want default 0.1", got)
	}
}

func TestLoadAnalysisConfigRejectsNonJSON(t *testing.T) {
	path := testutil.WriteTempFile(t, "analysis.yaml", "surface_bins: 50")
	if _, err := LoadAnalysisConfig(path); err == nil {
		t.Error("expected error for non-json extension, got nil")
	}
}

func TestLoadAnalysisConfigMissingFile(t *testing.T) {
	if _, err := LoadAnalysisConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestLoadAnalysisConfigMalformed(t *testing.T) {
	path := testutil.WriteTempFile(t, "bad.json", `{"surface_bins": `)
	if _, err := LoadAnalysisConfig(path); err == nil {
		t.Error("expected error for malformed JSON, got nil")
	}
}

func TestEmptyConfigDefaults(t *testing.T) {
	cfg := EmptyAnalysisConfig()

	if got := cfg.GetSurfaceBins(); got != 100 {
		t.Errorf("GetSurfaceBins() = %d, want 100", got)
	}
	if got := cfg.GetPileupCount(); got != 7 {
		t.Errorf("GetPileupCount() = %d, want 7", got)
	}
	if got := cfg.GetRimTolerance(); got != 3.0 {
		t.Errorf("GetRimTolerance() = %f, want 3.0", got)
	}
	if got := cfg.GetMinorAxisWindow(); got != 10 {
		t.Errorf("GetMinorAxisWindow() = %d, want 10", got)
	}
	if got := cfg.GetProjectileDiameter(); got != 100.0 {
		t.Errorf("GetProjectileDiameter() = %f, want 100.0", got)
	}
	if got := cfg.GetLengthScale(); got != 0.1 {
		t.Errorf("GetLengthScale() = %f, want 0.1", got)
	}
	if got := cfg.GetWatchInterval(); got != 5*time.Second {
		t.Errorf("GetWatchInterval() = %v, want 5s", got)
	}
	if got := cfg.GetStatsInterval(); got != 60*time.Second {
		t.Errorf("GetStatsInterval() = %v, want 60s", got)
	}
}

func TestValidate(t *testing.T) {
	intPtr := func(v int) *int { return &v }
	floatPtr := func(v float64) *float64 { return &v }
	strPtr := func(v string) *string { return &v }

	tests := []struct {
		name    string
		cfg     AnalysisConfig
		wantErr bool
	}{
		{"empty is valid", AnalysisConfig{}, false},
		{"valid bins", AnalysisConfig{SurfaceBins: intPtr(100)}, false},
		{"one bin rejected", AnalysisConfig{SurfaceBins: intPtr(1)}, true},
		{"zero pileup rejected", AnalysisConfig{PileupCount: intPtr(0)}, true},
		{"negative tolerance rejected", AnalysisConfig{RimTolerance: floatPtr(-1)}, true},
		{"zero tolerance rejected", AnalysisConfig{RimTolerance: floatPtr(0)}, true},
		{"window of one rejected", AnalysisConfig{MinorAxisWindow: intPtr(1)}, true},
		{"window of two ok", AnalysisConfig{MinorAxisWindow: intPtr(2)}, false},
		{"zero diameter rejected", AnalysisConfig{ProjectileDiameter: floatPtr(0)}, true},
		{"zero scale rejected", AnalysisConfig{LengthScale: floatPtr(0)}, true},
		{"bad watch interval", AnalysisConfig{WatchInterval: strPtr("fast")}, true},
		{"good watch interval", AnalysisConfig{WatchInterval: strPtr("250ms")}, false},
		{"bad stats interval", AnalysisConfig{StatsInterval: strPtr("hourly")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()

	// The defaults file must agree with the in-code fallbacks, otherwise a
	// deployment with and without the file behaves differently.
	if got := cfg.GetSurfaceBins(); got != 100 {
		t.Errorf("defaults file surface_bins = %d, want 100", got)
	}
	if got := cfg.GetRimTolerance(); got != 3.0 {
		t.Errorf("defaults file rim_tolerance = %f, want 3.0", got)
	}
	if got := cfg.GetPileupCount(); got != 7 {
		t.Errorf("defaults file pileup_count = %d, want 7", got)
	}
	if got := cfg.GetMinorAxisWindow(); got != 10 {
		t.Errorf("defaults file minor_axis_window = %d, want 10", got)
	}
}
