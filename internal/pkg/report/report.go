package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	units "github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/models"
	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/utils"
)

type Verdict string

const (
	Faster Verdict = "faster"
	Slower Verdict = "slower"
	Same   Verdict = "same"
)

type PairComparison struct {
	Label    string
	OldTotal float64
	NewTotal float64
	Diff     float64
	Percent  float64
	Verdict  Verdict
}

type StageAverage struct {
	Stage   string
	OldMean float64
	NewMean float64
	Diff    float64
}

// ComparePairs compares the totals of builds paired by position.
func ComparePairs(oldRows, newRows []models.NormalizedBuildRow) []PairComparison {
	count := utils.PairCount(oldRows, newRows)
	labels := utils.PairLabels(oldRows, newRows, utils.LabelByID)

	comparisons := make([]PairComparison, count)
	for i := 0; i < count; i++ {
		oldTotal := oldRows[i].TotalDurationSeconds
		newTotal := newRows[i].TotalDurationSeconds
		diff := newTotal - oldTotal

		var percent float64
		if oldTotal > 0 {
			percent = diff / oldTotal * 100
		}

		verdict := Same
		if diff < 0 {
			verdict = Faster
		} else if diff > 0 {
			verdict = Slower
		}

		comparisons[i] = PairComparison{
			Label:    labels[i],
			OldTotal: oldTotal,
			NewTotal: newTotal,
			Diff:     diff,
			Percent:  percent,
			Verdict:  verdict,
		}
	}

	return comparisons
}

// AverageStages averages every stage over the paired rows of each side.
func AverageStages(schema models.StageSchema, oldRows, newRows []models.NormalizedBuildRow) []StageAverage {
	count := utils.PairCount(oldRows, newRows)

	averages := make([]StageAverage, 0, len(schema))
	for _, stage := range schema {
		oldMean := mean(oldRows[:count], stage)
		newMean := mean(newRows[:count], stage)
		averages = append(averages, StageAverage{
			Stage:   stage,
			OldMean: oldMean,
			NewMean: newMean,
			Diff:    newMean - oldMean,
		})
	}

	return averages
}

func mean(rows []models.NormalizedBuildRow, stage string) float64 {
	if len(rows) == 0 {
		return 0
	}

	var sum float64
	for _, row := range rows {
		sum += row.Duration(stage)
	}
	return sum / float64(len(rows))
}

func colorize(verdict Verdict) string {
	switch verdict {
	case Faster:
		return color.GreenString(string(verdict))
	case Slower:
		return color.RedString(string(verdict))
	default:
		return string(verdict)
	}
}

func humanize(seconds float64) string {
	return units.HumanDuration(time.Duration(seconds * float64(time.Second)))
}

func rule(w io.Writer, title string) {
	fmt.Fprintln(w, strings.Repeat("=", 90))
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", 90))
}

func Schema(w io.Writer, schema models.StageSchema) {
	fmt.Fprintf(w, "Stage order: %s\n", strings.Join(schema, ", "))
}

func Totals(w io.Writer, comparisons []PairComparison) error {
	rule(w, "PER BUILD DETAILS")

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BUILD (OLD VS NEW)\tOLD TOTAL (S)\tNEW TOTAL (S)\tDIFF\t%\tNEW")
	for _, c := range comparisons {
		fmt.Fprintf(tw, "%s\t%.1f\t%.1f\t%.1f\t%+.1f%% (%s)\t%s\n",
			c.Label, c.OldTotal, c.NewTotal, c.Diff, c.Percent, colorize(c.Verdict), humanize(c.NewTotal))
	}
	return tw.Flush()
}

func StageAverages(w io.Writer, averages []StageAverage) error {
	rule(w, "AVERAGE STAGE DURATIONS")

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STAGE\tOLD MEAN (S)\tNEW MEAN (S)\tDIFF")
	for _, a := range averages {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%+.2fs\n", a.Stage, a.OldMean, a.NewMean, a.Diff)
	}
	return tw.Flush()
}
