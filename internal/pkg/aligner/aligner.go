package aligner

import (
	"sort"

	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/models"
)

// WaitOther holds the part of a build's total that no reported stage covers.
const WaitOther = "Wait/Other"

// BuildSchema returns the ordered union of all stage names found in recordSets.
// Names from preferredOrder come first, the rest follow sorted, and WaitOther
// is put in front unless preferredOrder already placed it.
func BuildSchema(recordSets [][]models.BuildRecord, preferredOrder []string) models.StageSchema {
	remaining := map[string]bool{}
	for _, records := range recordSets {
		for _, record := range records {
			for stage := range record.Stages {
				remaining[stage] = true
			}
		}
	}

	var schema models.StageSchema
	for _, stage := range preferredOrder {
		if remaining[stage] {
			schema = append(schema, stage)
			delete(remaining, stage)
		}
	}

	rest := make([]string, 0, len(remaining))
	for stage := range remaining {
		rest = append(rest, stage)
	}
	sort.Strings(rest)
	schema = append(schema, rest...)

	if !schema.Contains(WaitOther) {
		schema = append(models.StageSchema{WaitOther}, schema...)
	}

	return schema
}

// Normalize gives every record an explicit duration for each stage in schema.
// WaitOther is always recomputed as total minus the reported stages, floored
// at zero; a raw stage of that name is overwritten.
func Normalize(records []models.BuildRecord, schema models.StageSchema) []models.NormalizedBuildRow {
	rows := make([]models.NormalizedBuildRow, 0, len(records))

	for _, record := range records {
		var explicitSum float64
		for _, stage := range schema {
			if stage == WaitOther {
				continue
			}
			explicitSum += record.Stages[stage]
		}

		derivedOther := record.TotalDurationSeconds - explicitSum
		if derivedOther < 0 {
			derivedOther = 0
		}

		durations := make(map[string]float64, len(schema))
		for _, stage := range schema {
			durations[stage] = record.Stages[stage]
		}
		if schema.Contains(WaitOther) {
			durations[WaitOther] = derivedOther
		}

		rows = append(rows, models.NormalizedBuildRow{
			BuildRecord:  record,
			Schema:       schema,
			Durations:    durations,
			StageSum:     explicitSum,
			DerivedOther: derivedOther,
		})
	}

	return rows
}

// Align builds one schema over all sets and normalizes each set against it.
func Align(preferredOrder []string, recordSets ...[]models.BuildRecord) (models.StageSchema, [][]models.NormalizedBuildRow) {
	schema := BuildSchema(recordSets, preferredOrder)

	aligned := make([][]models.NormalizedBuildRow, len(recordSets))
	for i, records := range recordSets {
		aligned[i] = Normalize(records, schema)
	}

	return schema, aligned
}
