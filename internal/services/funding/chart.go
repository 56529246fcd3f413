package funding

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/fundcast/internal/models"
)

// RenderSeriesChart renders the daily series as a PNG: equity as a filled
// line with its closing value annotated, cumulative net deposits as a dashed
// cost-basis line. Returns raw PNG bytes.
func RenderSeriesChart(points []models.DailyPoint) ([]byte, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(points))
	}

	xValues := make([]time.Time, len(points))
	equityY := make([]float64, len(points))
	depositsY := make([]float64, len(points))

	for i, p := range points {
		xValues[i] = p.Date
		equityY[i] = p.Equity
		depositsY[i] = p.NetDeposits
	}

	equityColor := drawing.ColorFromHex("2563eb") // blue-600
	equitySeries := chart.TimeSeries{
		Name: "Equity",
		Style: chart.Style{
			StrokeColor: equityColor,
			StrokeWidth: 2.0,
			FillColor:   equityColor.WithAlpha(24),
		},
		XValues: xValues,
		YValues: equityY,
	}

	depositsSeries := chart.TimeSeries{
		Name: "Net Deposits",
		Style: chart.Style{
			StrokeColor:     drawing.ColorFromHex("6b7280"), // gray-500
			StrokeWidth:     1.2,
			StrokeDashArray: []float64{6.0, 4.0},
		},
		XValues: xValues,
		YValues: depositsY,
	}

	graph := chart.Chart{
		Width:  1024,
		Height: 420,
		Background: chart.Style{
			Padding: chart.Box{Top: 30, Left: 15, Right: 30, Bottom: 15},
		},
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 2006")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: formatDollars,
			GridMajorStyle: chart.Style{
				StrokeColor: drawing.ColorFromHex("e5e7eb"), // gray-200
				StrokeWidth: 1.0,
			},
		},
		Series: []chart.Series{
			equitySeries,
			depositsSeries,
			chart.LastValueAnnotationSeries(equitySeries, formatDollars),
		},
	}

	graph.Elements = []chart.Renderable{
		chart.Legend(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}

func formatDollars(v interface{}) string {
	f, ok := v.(float64)
	if !ok {
		return ""
	}
	if f >= 10000 || f <= -10000 {
		return fmt.Sprintf("$%.1fk", f/1000)
	}
	return fmt.Sprintf("$%.0f", f)
}
