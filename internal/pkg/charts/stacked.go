package charts

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/models"
	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/utils"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	barWidth     = 0.4
	margin       = 0.2
	headroom     = 1.1
	legendSwatch = 10
)

// Bar is one stacked column of the comparison chart. Top is the higher of
// the stacked height and the reported total.
type Bar struct {
	X        float64
	Total    float64
	Top      float64
	Segments []float64
}

type Comparison struct {
	Title  string
	Schema models.StageSchema
	Colors []drawing.Color
	Labels []string
	Bars   []Bar
	MaxY   float64
}

// NewComparison lays out paired stacked bars: old builds left of each tick,
// new builds right of it, stages stacked in schema order.
func NewComparison(title string, schema models.StageSchema, palette Palette, oldRows, newRows []models.NormalizedBuildRow, labels []string) Comparison {
	count := utils.PairCount(oldRows, newRows)

	comparison := Comparison{
		Title:  title,
		Schema: schema,
		Colors: palette.StageColors(schema),
	}

	for i := 0; i < count; i++ {
		for side, row := range []models.NormalizedBuildRow{oldRows[i], newRows[i]} {
			offset := -barWidth / 2
			if side == 1 {
				offset = barWidth / 2
			}

			bar := Bar{X: float64(i) + offset, Total: row.TotalDurationSeconds}
			for _, stage := range schema {
				bar.Segments = append(bar.Segments, row.Duration(stage))
			}

			bar.Top = row.Sum()
			if bar.Total > bar.Top {
				bar.Top = bar.Total
			}
			if bar.Top > comparison.MaxY {
				comparison.MaxY = bar.Top
			}

			comparison.Bars = append(comparison.Bars, bar)
		}

		label := ""
		if i < len(labels) {
			label = strings.Replace(labels[i], "\n", " ", -1)
		}
		comparison.Labels = append(comparison.Labels, label)
	}

	if comparison.MaxY == 0 {
		comparison.MaxY = 1
	}

	return comparison
}

// XRange is the x extent the bars are drawn in: half a pair of margin on
// both sides.
func (c Comparison) XRange() (float64, float64) {
	return -(barWidth + margin), float64(len(c.Labels)-1) + barWidth + margin
}

// Chart draws the bars as a series followed by the totals, so the totals sit
// on top of their bars.
func (c Comparison) Chart() chart.Chart {
	minX, maxX := c.XRange()

	// go-chart takes the x range from the outermost ticks, so the edges get
	// blank ticks of their own.
	ticks := []chart.Tick{{Value: minX}}
	for i, label := range c.Labels {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: label})
	}
	ticks = append(ticks, chart.Tick{Value: maxX})

	totals := chart.AnnotationSeries{Name: "Totals"}
	for _, bar := range c.Bars {
		totals.Annotations = append(totals.Annotations, chart.Value2{
			XValue: bar.X - barWidth/2,
			YValue: bar.Top,
			Label:  fmt.Sprintf("%.0fs", bar.Total),
		})
	}

	ch := chart.Chart{
		Title:  c.Title,
		Width:  1600,
		Height: 800,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 220, Bottom: 16},
		},
		XAxis: chart.XAxis{
			Name:  "Build pairs (old vs new)",
			Ticks: ticks,
			Range: &chart.ContinuousRange{Min: minX, Max: maxX},
		},
		YAxis: chart.YAxis{
			Name:  "Duration (seconds)",
			Range: &chart.ContinuousRange{Min: 0, Max: c.MaxY * headroom},
		},
		Series: []chart.Series{
			stackedBars{bars: c.Bars, colors: c.Colors},
			totals,
		},
	}
	ch.Elements = []chart.Renderable{c.drawLegend()}

	return ch
}

// stackedBars is a chart.Series drawing absolute stacked columns.
type stackedBars struct {
	bars   []Bar
	colors []drawing.Color
}

func (s stackedBars) GetName() string { return "Stages" }

func (s stackedBars) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }

func (s stackedBars) GetStyle() chart.Style { return chart.Style{} }

func (s stackedBars) Validate() error {
	if len(s.bars) == 0 {
		return errors.New("no-bars-to-draw")
	}
	return nil
}

func (s stackedBars) Render(r chart.Renderer, canvasBox chart.Box, xrange, yrange chart.Range, defaults chart.Style) {
	for _, bar := range s.bars {
		left := canvasBox.Left + xrange.Translate(bar.X-barWidth/2)
		right := canvasBox.Left + xrange.Translate(bar.X+barWidth/2)

		var bottom float64
		for index, value := range bar.Segments {
			if value <= 0 {
				continue
			}

			lower := canvasBox.Bottom - yrange.Translate(bottom)
			upper := canvasBox.Bottom - yrange.Translate(bottom+value)
			chart.Draw.Box(r, chart.Box{Top: upper, Left: left, Right: right, Bottom: lower}, chart.Style{
				FillColor:   s.colors[index].WithAlpha(230),
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 0.5,
			})

			bottom += value
		}
	}
}

func (c Comparison) drawLegend() chart.Renderable {
	return func(r chart.Renderer, canvasBox chart.Box, defaults chart.Style) {
		left := canvasBox.Right + 20
		top := canvasBox.Top

		chart.Draw.Text(r, "Stages", left, top, chart.Style{
			Font:      defaults.GetFont(),
			FontSize:  11,
			FontColor: drawing.ColorBlack,
		})

		for index, stage := range c.Schema {
			y := top + 12 + index*(legendSwatch+8)
			chart.Draw.Box(r, chart.Box{Top: y, Left: left, Right: left + legendSwatch, Bottom: y + legendSwatch}, chart.Style{
				FillColor:   c.Colors[index],
				StrokeColor: c.Colors[index],
				StrokeWidth: 1,
			})
			chart.Draw.Text(r, stage, left+legendSwatch+6, y+legendSwatch, chart.Style{
				Font:      defaults.GetFont(),
				FontSize:  9,
				FontColor: drawing.ColorBlack,
			})
		}
	}
}

func RenderPNG(path string, ch chart.Chart) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed-to-create-chart-file")
	}

	err = ch.Render(chart.PNG, file)
	if err != nil {
		file.Close()
		return errors.Wrap(err, "failed-to-render-chart")
	}

	return errors.Wrap(file.Close(), "failed-to-close-chart-file")
}
