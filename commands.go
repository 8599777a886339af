package main

import (
	"fmt"
	"io"
	"os"

	"code.cloudfoundry.org/lager"
	"github.com/pkg/errors"
	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/aligner"
	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/charts"
	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/config"
	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/export"
	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/jenkins"
	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/models"
	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/report"
	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/utils"
)

var ErrNoBuilds = errors.New("no builds to compare on one of the sides")

type OutputOptions struct {
	Chart string `long:"chart" description:"PNG file for the chart (defaults to the config)"`
	CSV   string `long:"csv" description:"CSV file for the data (defaults to the config)"`
	JSON  bool   `long:"json" description:"print the normalized rows as JSON lines"`
}

type RunsCommand struct {
	Last     int             `long:"last" description:"only compare the last N builds of each side (overrides the config)"`
	Exclude  []string        `long:"exclude" description:"build id to leave out, repeatable (overrides the config)"`
	WithTime bool            `long:"with-time" description:"add the _Time column to the CSV"`
	LabelBy  utils.LabelMode `long:"label-by" default:"id" choice:"id" choice:"time" description:"x axis labels"`
	Output   OutputOptions   `group:"Output"`
}

type PairsCommand struct {
	Output OutputOptions `group:"Output"`
}

type TrendCommand struct {
	Last  int    `long:"last" description:"number of runs to plot when no series are configured"`
	Chart string `long:"chart" default:"trend.png" description:"PNG file for the chart"`
}

// Comparison is the aligned result shared by the runs and pairs commands.
type Comparison struct {
	Schema  models.StageSchema
	OldRows []models.NormalizedBuildRow
	NewRows []models.NormalizedBuildRow
}

func Compare(preferredOrder []string, oldRecords, newRecords []models.BuildRecord) (Comparison, error) {
	if len(oldRecords) == 0 || len(newRecords) == 0 {
		return Comparison{}, ErrNoBuilds
	}

	schema, aligned := aligner.Align(preferredOrder, oldRecords, newRecords)

	return Comparison{
		Schema:  schema,
		OldRows: aligned[0],
		NewRows: aligned[1],
	}, nil
}

func (c Comparison) Paired() ([]models.NormalizedBuildRow, []models.NormalizedBuildRow) {
	count := utils.PairCount(c.OldRows, c.NewRows)
	return c.OldRows[:count], c.NewRows[:count]
}

func (c Comparison) Report(w io.Writer) error {
	oldRows, newRows := c.Paired()

	report.Schema(w, c.Schema)
	fmt.Fprintf(w, "%d build pairs (by position)\n", len(oldRows))

	err := report.Totals(w, report.ComparePairs(oldRows, newRows))
	if err != nil {
		return err
	}

	return report.StageAverages(w, report.AverageStages(c.Schema, oldRows, newRows))
}

func (c Comparison) Write(env Environment, options OutputOptions, labelBy utils.LabelMode, withTime bool) error {
	logger := env.Logger.Session("write")
	oldRows, newRows := c.Paired()

	if options.JSON {
		utils.PrettyPrint(c.Schema)
		for _, row := range append(append([]models.NormalizedBuildRow{}, oldRows...), newRows...) {
			utils.UglyPrint(row)
		}
	}

	chartPath := firstNonEmpty(options.Chart, env.Config.Output.Chart)
	if chartPath != "" {
		labels := utils.PairLabels(oldRows, newRows, labelBy)
		comparison := charts.NewComparison(env.Config.Title, c.Schema, charts.Palette{Colors: env.Config.Colors}, oldRows, newRows, labels)

		err := charts.RenderPNG(chartPath, comparison.Chart())
		if err != nil {
			logger.Error("render-chart-failed", err)
			return err
		}
		logger.Info("chart-written", lager.Data{"path": chartPath})
	}

	csvPath := firstNonEmpty(options.CSV, env.Config.Output.CSV)
	if csvPath != "" {
		err := export.WriteFile(csvPath, c.Schema, withTime, oldRows, newRows)
		if err != nil {
			logger.Error("write-csv-failed", err)
			return err
		}
		logger.Info("csv-written", lager.Data{"path": csvPath})
	}

	return nil
}

// SelectRuns puts wfapi/runs results in chronological order, drops excluded
// builds and keeps the last ones.
func SelectRuns(records []models.BuildRecord, exclude []string, last int) []models.BuildRecord {
	records = utils.Chronological(records)
	records = utils.ExcludeBuilds(records, exclude)
	return utils.LastN(records, last)
}

func (command *RunsCommand) Execute(args []string) error {
	env, err := Collector.Setup()
	if err != nil {
		return err
	}
	logger := env.Logger.Session("runs")

	err = env.RequireInstances()
	if err != nil {
		return err
	}

	last := env.Config.Last
	if command.Last != 0 {
		last = command.Last
	}
	exclude := env.Config.ExcludeBuilds
	if len(command.Exclude) != 0 {
		exclude = command.Exclude
	}

	oldRecords := SelectRuns(jenkins.FetchRecords(env.OldClient, logger), exclude, last)
	newRecords := SelectRuns(jenkins.FetchRecords(env.NewClient, logger), exclude, last)
	logger.Info("selected", lager.Data{"old": len(oldRecords), "new": len(newRecords), "excluded": exclude, "last": last})

	comparison, err := Compare(env.Config.PreferredOrder, oldRecords, newRecords)
	if err != nil {
		logger.Error("compare-failed", err)
		return err
	}

	err = comparison.Report(os.Stdout)
	if err != nil {
		return err
	}

	return comparison.Write(env, command.Output, command.LabelBy, command.WithTime)
}

func (command *PairsCommand) Execute(args []string) error {
	env, err := Collector.Setup()
	if err != nil {
		return err
	}
	logger := env.Logger.Session("pairs")

	err = env.RequireInstances()
	if err != nil {
		return err
	}

	if len(env.Config.BuildPairs) == 0 {
		return errors.New("no-build-pairs-configured")
	}

	runCache, err := Collector.RunCache(logger)
	if err != nil {
		return err
	}

	oldRecords, newRecords, err := jenkins.FetchPairs(env.OldClient, env.NewClient, env.Config.BuildPairs, runCache, logger)
	if err != nil {
		logger.Error("some-pairs-failed", err)
	}

	comparison, err := Compare(env.Config.PreferredOrder, oldRecords, newRecords)
	if err != nil {
		logger.Error("compare-failed", err)
		return err
	}

	err = comparison.Report(os.Stdout)
	if err != nil {
		return err
	}

	return comparison.Write(env, command.Output, utils.LabelByID, true)
}

func (command *TrendCommand) Execute(args []string) error {
	env, err := Collector.Setup()
	if err != nil {
		return err
	}
	logger := env.Logger.Session("trend")

	trend := env.Config.Trend
	if len(trend.Series) == 0 {
		trend, err = trendFromRuns(env, command.Last, logger)
		if err != nil {
			return err
		}
	}

	var series []charts.TrendSeries
	for _, s := range trend.Series {
		series = append(series, charts.TrendSeries{Name: s.Name, Color: s.Color, Values: s.Values})
	}

	var marker *charts.Marker
	if trend.Marker != nil {
		marker = &charts.Marker{At: trend.Marker.At, Label: trend.Marker.Label}
	}

	ch, err := charts.Trend(firstNonEmpty(trend.Title, env.Config.Title), trend.Labels, series, marker)
	if err != nil {
		logger.Error("trend-failed", err)
		return err
	}

	err = charts.RenderPNG(command.Chart, ch)
	if err != nil {
		logger.Error("render-chart-failed", err)
		return err
	}

	logger.Info("chart-written", lager.Data{"path": command.Chart})
	return nil
}

// trendFromRuns builds the two total-time series from the latest runs of both
// jobs, paired by position and labelled with the new build's id.
func trendFromRuns(env Environment, last int, logger lager.Logger) (config.Trend, error) {
	err := env.RequireInstances()
	if err != nil {
		return config.Trend{}, err
	}

	if last == 0 {
		last = env.Config.Last
	}

	oldRecords := SelectRuns(jenkins.FetchRecords(env.OldClient, logger), env.Config.ExcludeBuilds, last)
	newRecords := SelectRuns(jenkins.FetchRecords(env.NewClient, logger), env.Config.ExcludeBuilds, last)
	if len(oldRecords) == 0 || len(newRecords) == 0 {
		logger.Error("compare-failed", ErrNoBuilds)
		return config.Trend{}, ErrNoBuilds
	}

	count := len(oldRecords)
	if len(newRecords) < count {
		count = len(newRecords)
	}

	trend := config.Trend{
		Series: []config.TrendSeries{
			{Name: env.Config.Old.Label},
			{Name: env.Config.New.Label},
		},
	}
	for i := 0; i < count; i++ {
		trend.Labels = append(trend.Labels, "#"+newRecords[i].ID)
		trend.Series[0].Values = append(trend.Series[0].Values, oldRecords[i].TotalDurationSeconds)
		trend.Series[1].Values = append(trend.Series[1].Values, newRecords[i].TotalDurationSeconds)
	}

	return trend, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
