package models

import (
	"time"
)

const NotAvailable = "N/A"

const TimeLayout = "2006-01-02 15:04"

// Run is one pipeline execution as reported by the Jenkins workflow API
// (wfapi/runs and wfapi/describe).
type Run struct {
	ID              string  `json:"id" mapstructure:"id"`
	Name            string  `json:"name" mapstructure:"name"`
	Status          string  `json:"status" mapstructure:"status"`
	StartTimeMillis int64   `json:"startTimeMillis" mapstructure:"startTimeMillis"`
	DurationMillis  int64   `json:"durationMillis" mapstructure:"durationMillis"`
	Stages          []Stage `json:"stages" mapstructure:"stages"`
}

type Stage struct {
	ID             string `json:"id" mapstructure:"id"`
	Name           string `json:"name" mapstructure:"name"`
	Status         string `json:"status" mapstructure:"status"`
	DurationMillis int64  `json:"durationMillis" mapstructure:"durationMillis"`
}

const StatusInProgress = "IN_PROGRESS"

func (r Run) IsRunning() bool {
	return r.Status == StatusInProgress
}

// ToBuildRecord converts the raw run into a BuildRecord tagged with label.
// Missing fields degrade to defaults instead of failing.
func (r Run) ToBuildRecord(label string) BuildRecord {
	id := r.ID
	if id == "" {
		id = NotAvailable
	}

	timestamp := NotAvailable
	if r.StartTimeMillis != 0 {
		timestamp = time.Unix(0, r.StartTimeMillis*int64(time.Millisecond)).Format(TimeLayout)
	}

	stages := map[string]float64{}
	var order []string
	for _, stage := range r.Stages {
		if _, seen := stages[stage.Name]; !seen {
			order = append(order, stage.Name)
		}
		stages[stage.Name] = millisToSeconds(stage.DurationMillis)
	}

	return BuildRecord{
		ID:                   id,
		Label:                label,
		Timestamp:            timestamp,
		TotalDurationSeconds: millisToSeconds(r.DurationMillis),
		Stages:               stages,
		StageOrder:           order,
	}
}

func millisToSeconds(millis int64) float64 {
	if millis < 0 {
		return 0
	}
	return float64(millis) / 1000
}

type BuildRecord struct {
	ID                   string             `json:"id"`
	Label                string             `json:"label"`
	Timestamp            string             `json:"timestamp,omitempty"`
	TotalDurationSeconds float64            `json:"total_duration_seconds"`
	Stages               map[string]float64 `json:"stages"`

	// StageOrder is the order in which the server reported the stages.
	StageOrder []string `json:"stage_order,omitempty"`
}

type StageSchema []string

func (s StageSchema) IndexOf(stage string) int {
	for i, name := range s {
		if name == stage {
			return i
		}
	}
	return -1
}

func (s StageSchema) Contains(stage string) bool {
	return s.IndexOf(stage) >= 0
}

// NormalizedBuildRow is a BuildRecord with an explicit duration for every
// stage of a schema.
type NormalizedBuildRow struct {
	BuildRecord

	Schema       StageSchema        `json:"schema"`
	Durations    map[string]float64 `json:"durations"`
	StageSum     float64            `json:"stage_sum"`
	DerivedOther float64            `json:"derived_other"`
}

func (r NormalizedBuildRow) Duration(stage string) float64 {
	return r.Durations[stage]
}

// Values returns the durations ordered by the row's schema.
func (r NormalizedBuildRow) Values() []float64 {
	values := make([]float64, len(r.Schema))
	for i, stage := range r.Schema {
		values[i] = r.Durations[stage]
	}
	return values
}

func (r NormalizedBuildRow) Sum() float64 {
	var sum float64
	for _, stage := range r.Schema {
		sum += r.Durations[stage]
	}
	return sum
}

// Record turns the row back into a BuildRecord carrying the normalized
// durations as its stages.
func (r NormalizedBuildRow) Record() BuildRecord {
	stages := make(map[string]float64, len(r.Durations))
	for stage, duration := range r.Durations {
		stages[stage] = duration
	}

	record := r.BuildRecord
	record.Stages = stages
	record.StageOrder = append([]string(nil), r.Schema...)
	return record
}
