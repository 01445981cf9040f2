package runner

import (
	"sync"
	"time"

	"github.com/prash-dwivedi/crater.report/internal/monitoring"
	"github.com/prash-dwivedi/crater.report/internal/timeutil"
)

// Frame throughput tracking between log intervals.
type AnalysisStats struct {
	mu           sync.Mutex
	clock        timeutil.Clock
	frameCount   int64
	errorCount   int64
	pointCount   int64
	analysisTime time.Duration
	lastReset    time.Time
}

// NewAnalysisStats creates a stats tracker starting now.
func NewAnalysisStats(clock timeutil.Clock) *AnalysisStats {
	return &AnalysisStats{clock: clock, lastReset: clock.Now()}
}

// AddFrame records one analyzed frame.
func (as *AnalysisStats) AddFrame(points int, elapsed time.Duration) {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.frameCount++
	as.pointCount += int64(points)
	as.analysisTime += elapsed
}

// AddError records one frame that failed analysis or storage.
func (as *AnalysisStats) AddError() {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.errorCount++
}

func (as *AnalysisStats) GetAndReset() (frames, errors, points int64, analysisTime, duration time.Duration) {
	as.mu.Lock()
	defer as.mu.Unlock()

	now := as.clock.Now()
	duration = now.Sub(as.lastReset)
	frames = as.frameCount
	errors = as.errorCount
	points = as.pointCount
	analysisTime = as.analysisTime

	as.frameCount = 0
	as.errorCount = 0
	as.pointCount = 0
	as.analysisTime = 0
	as.lastReset = now

	return
}

// LogStats emits a one-line throughput summary and resets the tallies.
// Quiet intervals log nothing.
func (as *AnalysisStats) LogStats() {
	frames, errors, points, analysisTime, duration := as.GetAndReset()
	if frames == 0 && errors == 0 {
		return
	}

	framesPerSec := 0.0
	pointsPerSec := 0.0
	if duration > 0 {
		framesPerSec = float64(frames) / duration.Seconds()
		pointsPerSec = float64(points) / duration.Seconds()
	}
	meanMs := 0.0
	if frames > 0 {
		meanMs = analysisTime.Seconds() * 1000 / float64(frames)
	}

	monitoring.Logf("Analysis stats (/sec): %.1f frames, %s points, mean frame time %.2f ms, %d errors",
		framesPerSec, formatWithCommas(int64(pointsPerSec)), meanMs, errors)
}

// formatWithCommas adds thousand separators to large numbers for readability.
func formatWithCommas(n int64) string {
	str := ""
	if n < 0 {
		str = "-"
		n = -n
	}

	digits := ""
	if n == 0 {
		digits = "0"
	}
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}

	result := ""
	for i, char := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			result += ","
		}
		result += string(char)
	}
	return str + result
}
