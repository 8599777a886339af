package charts

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

type TrendSeries struct {
	Name   string
	Color  string
	Values []float64
}

// Marker is a dashed vertical line between two builds, e.g. where a cache was
// switched off.
type Marker struct {
	At    float64
	Label string
}

var trendColors = []string{"1f77b4", "ff7f0e", "2ca02c", "d62728"}

// Trend draws one line of total build times per series with every point
// annotated in seconds.
func Trend(title string, labels []string, series []TrendSeries, marker *Marker) (chart.Chart, error) {
	if len(labels) < 2 {
		return chart.Chart{}, errors.New("trend-needs-at-least-two-builds")
	}

	minX, maxX := -0.5, float64(len(labels))-0.5

	xValues := make([]float64, len(labels))
	ticks := []chart.Tick{{Value: minX}}
	for i, label := range labels {
		xValues[i] = float64(i)
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: label})
	}
	ticks = append(ticks, chart.Tick{Value: maxX})

	var maxY float64
	var chartSeries []chart.Series
	for index, s := range series {
		if len(s.Values) != len(labels) {
			return chart.Chart{}, errors.Errorf("series-%q-has-%d-values-for-%d-builds", s.Name, len(s.Values), len(labels))
		}

		hex := s.Color
		if hex == "" {
			hex = trendColors[index%len(trendColors)]
		}
		color := ParseColor(hex)

		values := chart.AnnotationSeries{Name: s.Name + " values"}
		for i, v := range s.Values {
			if v > maxY {
				maxY = v
			}
			values.Annotations = append(values.Annotations, chart.Value2{
				XValue: xValues[i],
				YValue: v,
				Label:  fmt.Sprintf("%gs", v),
				Style:  chart.Style{FontColor: color, StrokeColor: color},
			})
		}

		chartSeries = append(chartSeries,
			chart.ContinuousSeries{
				Name:    s.Name,
				XValues: xValues,
				YValues: s.Values,
				Style: chart.Style{
					StrokeColor: color,
					StrokeWidth: 2,
					DotColor:    color,
					DotWidth:    4,
				},
			},
			values,
		)
	}

	if maxY == 0 {
		maxY = 1
	}

	if marker != nil {
		chartSeries = append(chartSeries,
			chart.ContinuousSeries{
				Name:    marker.Label,
				XValues: []float64{marker.At, marker.At},
				YValues: []float64{0, maxY * headroom},
				Style: chart.Style{
					StrokeColor:     drawing.ColorRed,
					StrokeWidth:     1.5,
					StrokeDashArray: []float64{5, 5},
				},
			},
			chart.AnnotationSeries{
				Name: marker.Label + " label",
				Annotations: []chart.Value2{{
					XValue: marker.At,
					YValue: maxY * 0.9,
					Label:  marker.Label,
					Style:  chart.Style{FontColor: drawing.ColorRed, StrokeColor: drawing.ColorRed},
				}},
			},
		)
	}

	ch := chart.Chart{
		Title:  title,
		Width:  1000,
		Height: 600,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{
			Name:  "Build",
			Ticks: ticks,
			Range: &chart.ContinuousRange{Min: minX, Max: maxX},
		},
		YAxis: chart.YAxis{
			Name:  "Duration (seconds)",
			Range: &chart.ContinuousRange{Min: 0, Max: maxY * headroom},
		},
		Series: chartSeries,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	return ch, nil
}
