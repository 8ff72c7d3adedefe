package chart

import (
	"bytes"
	"time"

	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/lucashahnndev/radar-do-caos/internal/quotes"
)

// RenderCloses draws a PNG line chart of daily closes for one ticker.
func RenderCloses(ticker string, points []quotes.ClosePoint) ([]byte, error) {
	if len(points) < 2 {
		return nil, errors.Errorf("not enough points to chart %s", ticker)
	}

	x := make([]time.Time, len(points))
	closes := make([]float64, len(points))
	for i, p := range points {
		x[i] = p.Date
		closes[i] = p.Close
	}

	priceFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Title:  ticker,
		Width:  900,
		Height: 450,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "R$",
			ValueFormatter: priceFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    ticker,
				XValues: x,
				YValues: closes,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, errors.Wrapf(err, "rendering chart for %s", ticker)
	}
	return buf.Bytes(), nil
}
