package utils_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/models"
	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/utils"
)

func Builds(ids ...string) []models.BuildRecord {
	var records []models.BuildRecord
	for _, id := range ids {
		records = append(records, models.BuildRecord{ID: id, Timestamp: "t" + id})
	}
	return records
}

func Rows(ids ...string) []models.NormalizedBuildRow {
	var rows []models.NormalizedBuildRow
	for _, record := range Builds(ids...) {
		rows = append(rows, models.NormalizedBuildRow{BuildRecord: record})
	}
	return rows
}

func IDs(records []models.BuildRecord) []string {
	var ids []string
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	return ids
}

var _ = Describe("Utils", func() {

	It("reverses the runs into chronological order", func() {
		Expect(IDs(utils.Chronological(Builds("5", "4", "3")))).To(Equal([]string{"3", "4", "5"}))
		Expect(utils.Chronological(nil)).To(BeEmpty())
	})

	It("excludes builds by id", func() {
		Expect(IDs(utils.ExcludeBuilds(Builds("3", "4", "5"), []string{"4"}))).To(Equal([]string{"3", "5"}))
		Expect(IDs(utils.ExcludeBuilds(Builds("3"), nil))).To(Equal([]string{"3"}))
	})

	It("keeps the last n builds", func() {
		builds := Builds("1", "2", "3", "4", "5", "6")

		Expect(IDs(utils.LastN(builds, 5))).To(Equal([]string{"2", "3", "4", "5", "6"}))
		Expect(IDs(utils.LastN(builds, 0))).To(HaveLen(6))
		Expect(IDs(utils.LastN(builds, 10))).To(HaveLen(6))
	})

	It("pairs by position up to the shorter side", func() {
		Expect(utils.PairCount(Rows("1", "2", "3"), Rows("7", "8"))).To(Equal(2))
		Expect(utils.PairCount(nil, Rows("7"))).To(Equal(0))
	})

	It("labels pairs by id or by time", func() {
		oldRows := Rows("823", "826")
		newRows := Rows("908", "909", "910")

		Expect(utils.PairLabels(oldRows, newRows, utils.LabelByID)).To(Equal([]string{"#823 vs #908", "#826 vs #909"}))
		Expect(utils.PairLabels(oldRows, newRows, utils.LabelByTime)).To(Equal([]string{"O: t823\nN: t908", "O: t826\nN: t909"}))
	})
})
