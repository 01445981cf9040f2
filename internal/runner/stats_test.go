package runner

import (
	"fmt"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/prash-dwivedi/crater.report/internal/monitoring"
	"github.com/prash-dwivedi/crater.report/internal/timeutil"
)

// captureLog redirects the package logger into a slice for the duration of
// the test.
func captureLog(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() { monitoring.SetLogger(log.Printf) })
	return &lines
}

func TestAnalysisStats_GetAndReset(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(1700000000, 0))
	stats := NewAnalysisStats(clock)

	stats.AddFrame(1000, 5*time.Millisecond)
	stats.AddFrame(1000, 5*time.Millisecond)
	stats.AddFrame(1000, 5*time.Millisecond)
	stats.AddError()
	clock.Advance(2 * time.Second)

	frames, errCount, points, analysisTime, duration := stats.GetAndReset()
	if frames != 3 {
		t.Errorf("Expected 3 frames, got %d", frames)
	}
	if errCount != 1 {
		t.Errorf("Expected 1 error, got %d", errCount)
	}
	if points != 3000 {
		t.Errorf("Expected 3000 points, got %d", points)
	}
	if analysisTime != 15*time.Millisecond {
		t.Errorf("Expected 15ms analysis time, got %s", analysisTime)
	}
	if duration != 2*time.Second {
		t.Errorf("Expected 2s duration, got %s", duration)
	}

	// The reset must zero the tallies and restart the interval.
	clock.Advance(time.Second)
	frames, errCount, points, analysisTime, duration = stats.GetAndReset()
	if frames != 0 || errCount != 0 || points != 0 || analysisTime != 0 {
		t.Errorf("Expected zeroed tallies after reset, got frames=%d errors=%d points=%d time=%s",
			frames, errCount, points, analysisTime)
	}
	if duration != time.Second {
		t.Errorf("Expected 1s duration after reset, got %s", duration)
	}
}

func TestAnalysisStats_LogStats(t *testing.T) {
	lines := captureLog(t)
	clock := timeutil.NewMockClock(time.Unix(1700000000, 0))
	stats := NewAnalysisStats(clock)

	stats.AddFrame(500, 10*time.Millisecond)
	stats.AddFrame(500, 10*time.Millisecond)
	clock.Advance(2 * time.Second)
	stats.LogStats()

	if len(*lines) != 1 {
		t.Fatalf("Expected 1 log line, got %d: %v", len(*lines), *lines)
	}
	line := (*lines)[0]
	if !strings.Contains(line, "Analysis stats (/sec): 1.0 frames") {
		t.Errorf("Expected frame rate in log line, got %q", line)
	}
	if !strings.Contains(line, "500 points") {
		t.Errorf("Expected point rate in log line, got %q", line)
	}
	if !strings.Contains(line, "mean frame time 10.00 ms") {
		t.Errorf("Expected mean frame time in log line, got %q", line)
	}
	if !strings.Contains(line, "0 errors") {
		t.Errorf("Expected error count in log line, got %q", line)
	}
}

func TestAnalysisStats_LogStats_QuietInterval(t *testing.T) {
	lines := captureLog(t)
	clock := timeutil.NewMockClock(time.Unix(1700000000, 0))
	stats := NewAnalysisStats(clock)

	clock.Advance(time.Minute)
	stats.LogStats()

	if len(*lines) != 0 {
		t.Errorf("Expected no log output for a quiet interval, got %v", *lines)
	}
}

func TestFormatWithCommas(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{7, "7"},
		{999, "999"},
		{1000, "1,000"},
		{65536, "65,536"},
		{1234567, "1,234,567"},
		{-4500, "-4,500"},
	}
	for _, tt := range tests {
		if got := formatWithCommas(tt.n); got != tt.want {
			t.Errorf("formatWithCommas(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
