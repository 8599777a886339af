package utils

import (
	"encoding/json"
	"fmt"

	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/models"
)

type LabelMode string

const (
	LabelByID   LabelMode = "id"
	LabelByTime LabelMode = "time"
)

// Chronological reverses the newest-first order of wfapi/runs.
func Chronological(records []models.BuildRecord) []models.BuildRecord {
	reversed := make([]models.BuildRecord, len(records))
	for i, record := range records {
		reversed[len(records)-1-i] = record
	}
	return reversed
}

func ExcludeBuilds(records []models.BuildRecord, buildIDs []string) []models.BuildRecord {
	if len(buildIDs) == 0 {
		return records
	}

	excluded := map[string]bool{}
	for _, id := range buildIDs {
		excluded[id] = true
	}

	var kept []models.BuildRecord
	for _, record := range records {
		if excluded[record.ID] {
			continue
		}
		kept = append(kept, record)
	}

	return kept
}

// LastN keeps the n most recent records; n <= 0 keeps everything.
func LastN(records []models.BuildRecord, n int) []models.BuildRecord {
	if n <= 0 || n >= len(records) {
		return records
	}
	return records[len(records)-n:]
}

// PairCount is the number of builds that can be paired by position.
func PairCount(oldRows, newRows []models.NormalizedBuildRow) int {
	if len(oldRows) < len(newRows) {
		return len(oldRows)
	}
	return len(newRows)
}

func PairLabels(oldRows, newRows []models.NormalizedBuildRow, mode LabelMode) []string {
	count := PairCount(oldRows, newRows)

	labels := make([]string, count)
	for i := 0; i < count; i++ {
		if mode == LabelByTime {
			labels[i] = fmt.Sprintf("O: %s\nN: %s", oldRows[i].Timestamp, newRows[i].Timestamp)
			continue
		}
		labels[i] = fmt.Sprintf("#%s vs #%s", oldRows[i].ID, newRows[i].ID)
	}

	return labels
}

func PrettyPrint(v interface{}) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func UglyPrint(v interface{}) {
	b, _ := json.Marshal(v)
	fmt.Println(string(b))
}
