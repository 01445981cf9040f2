package monitor

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/prash-dwivedi/crater.report/internal/crater"
	"github.com/prash-dwivedi/crater.report/internal/db"
	"github.com/prash-dwivedi/crater.report/internal/dump"
	"github.com/prash-dwivedi/crater.report/internal/security"
)

const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// handleRunCharts renders line charts of the per-frame geometry of one run:
// depth and pileup, rim axes, and volumes over frame index.
// Query params:
//
//	run (required)
func (ws *WebServer) handleRunCharts(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run")
	if runID == "" {
		ws.writeJSONError(w, http.StatusBadRequest, "missing 'run' parameter")
		return
	}
	if ws.db == nil {
		ws.writeJSONError(w, http.StatusInternalServerError, "no database configured for run lookup")
		return
	}

	run, err := ws.db.GetAnalysisRun(runID)
	if errors.Is(err, db.ErrNotFound) {
		ws.writeJSONError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("get run: %v", err))
		return
	}

	results, err := ws.db.FrameResults(runID)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("get frame results: %v", err))
		return
	}

	x := make([]string, 0, len(results))
	depth := make([]opts.LineData, 0, len(results))
	pileup := make([]opts.LineData, 0, len(results))
	major := make([]opts.LineData, 0, len(results))
	minor := make([]opts.LineData, 0, len(results))
	craterVol := make([]opts.LineData, 0, len(results))
	projVol := make([]opts.LineData, 0, len(results))
	for _, fr := range results {
		if fr.Error != "" {
			continue
		}
		x = append(x, strconv.Itoa(fr.FrameIndex))
		depth = append(depth, opts.LineData{Value: fr.Depth})
		pileup = append(pileup, opts.LineData{Value: fr.Pileup})
		major = append(major, opts.LineData{Value: fr.MajorAxis})
		minor = append(minor, opts.LineData{Value: fr.MinorAxis})
		craterVol = append(craterVol, opts.LineData{Value: fr.CraterVolume})
		projVol = append(projVol, opts.LineData{Value: fr.ProjectileVolume})
	}
	if len(x) == 0 {
		ws.writeJSONError(w, http.StatusNotFound, "no analyzed frames for run")
		return
	}

	subtitle := fmt.Sprintf("run=%s source=%s frames=%d", runID, run.SourcePath, len(x))

	depthChart := charts.NewLine()
	depthChart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Crater Geometry", Theme: "dark", Width: "1200px", Height: "460px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Depth and Pileup (angstrom)", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	depthChart.SetXAxis(x).
		AddSeries("depth", depth).
		AddSeries("pileup", pileup)

	axesChart := charts.NewLine()
	axesChart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "1200px", Height: "460px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Rim Axes (angstrom)", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	axesChart.SetXAxis(x).
		AddSeries("major axis", major).
		AddSeries("minor axis", minor)

	volumeChart := charts.NewLine()
	volumeChart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "1200px", Height: "460px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Volumes (nm^3)", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	volumeChart.SetXAxis(x).
		AddSeries("crater volume", craterVol).
		AddSeries("projectile volume", projVol)

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsPrefix)
	page.AddCharts(depthChart, axesChart, volumeChart)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleRimScatter renders a top-down scatter of one frame with the rim band
// highlighted against the rest of the cloud.
// Query params:
//
//	file (required) dump path on the server
//	frame (optional, default 0) frame index within the dump
//	max_points (optional, default 8000) to reduce payload size
func (ws *WebServer) handleRimScatter(w http.ResponseWriter, r *http.Request) {
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

	maxPoints := 8000
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v > 100 && v <= 50000 {
			maxPoints = v
		}
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

	params := crater.DefaultParams()
	surface, err := crater.EstimateSurface(frame.Points, params)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("estimate surface: %v", err))
		return
	}

	cutoff := surface.MaxZ - params.RimTolerance
	rim := crater.FilterRim(frame.Points, surface.MaxZ, params.RimTolerance)
	if len(rim) == 0 {
		ws.writeJSONError(w, http.StatusNotFound, "no rim particles in band")
		return
	}

	// Downsample the bulk by stride to stay within maxPoints; the rim band
	// is small and always plotted in full.
	bulkTotal := len(frame.Points) - len(rim)
	stride := 1
	if bulkTotal > maxPoints {
		stride = int(math.Ceil(float64(bulkTotal) / float64(maxPoints)))
	}

	rimPts := make([]opts.ScatterData, 0, len(rim))
	bulkPts := make([]opts.ScatterData, 0, bulkTotal/stride+1)
	maxAbs := 0.0
	bulkSeen := 0
	for _, pt := range frame.Points {
		if math.Abs(pt.X) > maxAbs {
			maxAbs = math.Abs(pt.X)
		}
		if math.Abs(pt.Y) > maxAbs {
			maxAbs = math.Abs(pt.Y)
		}
		if pt.Z > cutoff {
			rimPts = append(rimPts, opts.ScatterData{Value: []interface{}{pt.X, pt.Y}})
			continue
		}
		if bulkSeen%stride == 0 {
			bulkPts = append(bulkPts, opts.ScatterData{Value: []interface{}{pt.X, pt.Y}})
		}
		bulkSeen++
	}

	pad := maxAbs * 1.05
	if pad == 0 {
		pad = 1.0
	}

	subtitle := fmt.Sprintf(
		"file=%s frame=%d rim=%d of %d points (z > %.2f)",
		filepath.Base(path), frame.Index, len(rim), len(frame.Points), cutoff,
	)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Crater Rim", Theme: "dark", Width: "900px", Height: "900px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Rim Band (top down)", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (angstrom)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y (angstrom)", NameLocation: "middle", NameGap: 30}),
	)

	scatter.AddSeries("bulk", bulkPts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#9e9e9e"}))
	scatter.AddSeries("rim", rimPts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ff5252"}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render rim chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
