package export

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/aligner"
	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/models"
)

const Separator = ';'

// Columns returns the header: metadata, then Wait/Other, then the other
// stages in schema order.
func Columns(schema models.StageSchema, includeTime bool) []string {
	columns := []string{"_Job", "_BuildID", "_Total"}
	if includeTime {
		columns = append(columns, "_Time")
	}
	columns = append(columns, aligner.WaitOther)

	for _, stage := range schema {
		if stage != aligner.WaitOther {
			columns = append(columns, stage)
		}
	}

	return columns
}

// FormatDecimal writes v with a decimal comma.
func FormatDecimal(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', -1, 64), ".", ",", 1)
}

// WriteCSV writes the rows of every set one after the other.
func WriteCSV(w io.Writer, schema models.StageSchema, includeTime bool, sets ...[]models.NormalizedBuildRow) error {
	writer := csv.NewWriter(w)
	writer.Comma = Separator

	columns := Columns(schema, includeTime)
	err := writer.Write(columns)
	if err != nil {
		return errors.Wrap(err, "failed-to-write-header")
	}

	metaColumns := 3
	if includeTime {
		metaColumns = 4
	}
	stageColumns := columns[metaColumns:]

	for _, rows := range sets {
		for _, row := range rows {
			record := []string{row.Label, row.ID, FormatDecimal(row.TotalDurationSeconds)}
			if includeTime {
				record = append(record, row.Timestamp)
			}
			for _, stage := range stageColumns {
				record = append(record, FormatDecimal(row.Duration(stage)))
			}

			err = writer.Write(record)
			if err != nil {
				return errors.Wrap(err, "failed-to-write-row")
			}
		}
	}

	writer.Flush()
	return errors.Wrap(writer.Error(), "failed-to-flush-csv")
}

func WriteFile(path string, schema models.StageSchema, includeTime bool, sets ...[]models.NormalizedBuildRow) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed-to-create-csv-file")
	}

	err = WriteCSV(file, schema, includeTime, sets...)
	if err != nil {
		file.Close()
		return err
	}

	return errors.Wrap(file.Close(), "failed-to-close-csv-file")
}
