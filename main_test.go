package main

import (
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/models"
)

func wfapiRun(id string, durationMillis int64, stages map[string]int64) map[string]interface{} {
	var stageList []map[string]interface{}
	for name, millis := range stages {
		stageList = append(stageList, map[string]interface{}{"name": name, "durationMillis": millis})
	}
	return map[string]interface{}{
		"id":              id,
		"status":          "SUCCESS",
		"startTimeMillis": 1700000000000,
		"durationMillis":  durationMillis,
		"stages":          stageList,
	}
}

var _ = Describe("Commands", func() {

	Describe("SelectRuns", func() {
		It("orders, excludes and trims", func() {
			records := []models.BuildRecord{{ID: "6"}, {ID: "5"}, {ID: "4"}, {ID: "3"}, {ID: "2"}}

			selected := SelectRuns(records, []string{"4"}, 3)

			Expect(selected).To(HaveLen(3))
			Expect(selected[0].ID).To(Equal("3"))
			Expect(selected[2].ID).To(Equal("6"))
		})
	})

	Describe("Compare", func() {
		It("refuses to compare when a side is empty", func() {
			_, err := Compare(nil, []models.BuildRecord{{ID: "1"}}, nil)
			Expect(err).To(Equal(ErrNoBuilds))
		})

		It("pairs by position", func() {
			comparison, err := Compare([]string{"Build"},
				[]models.BuildRecord{{ID: "1", TotalDurationSeconds: 10}, {ID: "2", TotalDurationSeconds: 12}},
				[]models.BuildRecord{{ID: "9", TotalDurationSeconds: 8, Stages: map[string]float64{"Build": 5}}},
			)
			Expect(err).NotTo(HaveOccurred())

			oldRows, newRows := comparison.Paired()
			Expect(oldRows).To(HaveLen(1))
			Expect(newRows).To(HaveLen(1))
			Expect(comparison.Schema).To(Equal(models.StageSchema{"Wait/Other", "Build"}))
		})
	})

	Describe("end to end", func() {
		var (
			oldServer *ghttp.Server
			newServer *ghttp.Server
			tempDir   string
			chartPath string
			csvPath   string
		)

		writeConfig := func(extra string) {
			configPath := filepath.Join(tempDir, "config.json")
			content := fmt.Sprintf(`{
				"old": {"url": %q, "job": "job/merge-requests/job/EWT-114"},
				"new": {"url": %q, "job": "job/merge-requests-gke/job/MR-5283"},
				"preferred_order": ["Checkout", "Git clone", "Build", "Test"],
				"output": {"chart": %q, "csv": %q}%s
			}`, oldServer.URL(), newServer.URL(), chartPath, csvPath, extra)
			Expect(ioutil.WriteFile(configPath, []byte(content), 0644)).To(Succeed())

			Collector = Command{ConfigPath: configPath, LogLevel: "error"}
		}

		BeforeEach(func() {
			oldServer = ghttp.NewServer()
			newServer = ghttp.NewServer()

			var err error
			tempDir, err = ioutil.TempDir("", "jenkins-stage-metrics")
			Expect(err).NotTo(HaveOccurred())
			chartPath = filepath.Join(tempDir, "chart.png")
			csvPath = filepath.Join(tempDir, "data.csv")
		})

		AfterEach(func() {
			oldServer.Close()
			newServer.Close()
			os.RemoveAll(tempDir)
		})

		It("compares the latest runs and writes the chart and the csv", func() {
			writeConfig(`, "exclude_builds": ["4"]`)

			oldServer.RouteToHandler("GET", "/job/merge-requests/job/EWT-114/wfapi/runs",
				ghttp.RespondWithJSONEncoded(http.StatusOK, []interface{}{
					wfapiRun("5", 300000, map[string]int64{"Checkout": 50000, "Build": 200000}),
					wfapiRun("4", 999000, map[string]int64{"Build": 999000}),
					wfapiRun("3", 280000, map[string]int64{"Checkout": 40000, "Build": 190000}),
				}))
			newServer.RouteToHandler("GET", "/job/merge-requests-gke/job/MR-5283/wfapi/runs",
				ghttp.RespondWithJSONEncoded(http.StatusOK, []interface{}{
					wfapiRun("2", 200000, map[string]int64{"Git clone": 20000, "Build": 150000}),
					wfapiRun("1", 210000, map[string]int64{"Git clone": 25000, "Build": 160000}),
				}))

			Expect((&RunsCommand{}).Execute(nil)).To(Succeed())

			Expect(chartPath).To(BeAnExistingFile())

			content, err := ioutil.ReadFile(csvPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(content)).To(Equal(
				"_Job;_BuildID;_Total;Wait/Other;Checkout;Git clone;Build\n" +
					"Old Job;3;280;50;40;0;190\n" +
					"Old Job;5;300;50;50;0;200\n" +
					"New Job;1;210;25;0;25;160\n" +
					"New Job;2;200;30;0;20;150\n"))
		})

		It("writes the chart and the csv for a single pair", func() {
			writeConfig("")

			oldServer.RouteToHandler("GET", "/job/merge-requests/job/EWT-114/wfapi/runs",
				ghttp.RespondWithJSONEncoded(http.StatusOK, []interface{}{
					wfapiRun("5", 300000, map[string]int64{"Build": 200000}),
					wfapiRun("3", 280000, map[string]int64{"Build": 190000}),
				}))
			newServer.RouteToHandler("GET", "/job/merge-requests-gke/job/MR-5283/wfapi/runs",
				ghttp.RespondWithJSONEncoded(http.StatusOK, []interface{}{
					wfapiRun("2", 200000, map[string]int64{"Build": 150000}),
				}))

			Expect((&RunsCommand{Last: 1}).Execute(nil)).To(Succeed())

			Expect(chartPath).To(BeAnExistingFile())
			content, err := ioutil.ReadFile(csvPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(content)).To(Equal(
				"_Job;_BuildID;_Total;Wait/Other;Build\n" +
					"Old Job;5;300;100;200\n" +
					"New Job;2;200;50;150\n"))
		})

		It("fails when one side has no builds", func() {
			writeConfig("")

			oldServer.RouteToHandler("GET", "/job/merge-requests/job/EWT-114/wfapi/runs",
				ghttp.RespondWith(http.StatusUnauthorized, ""))
			newServer.RouteToHandler("GET", "/job/merge-requests-gke/job/MR-5283/wfapi/runs",
				ghttp.RespondWithJSONEncoded(http.StatusOK, []interface{}{wfapiRun("1", 1000, nil)}))

			Expect((&RunsCommand{}).Execute(nil)).To(MatchError(ErrNoBuilds))
			Expect(csvPath).NotTo(BeAnExistingFile())
		})

		It("compares explicit pairs with the time column and caches them", func() {
			writeConfig(`, "build_pairs": [[823, 908]]`)
			Collector.CachePath = filepath.Join(tempDir, "cache.json")

			oldServer.RouteToHandler("GET", "/job/merge-requests/job/EWT-114/823/wfapi/describe",
				ghttp.RespondWithJSONEncoded(http.StatusOK, wfapiRun("823", 310000, map[string]int64{"Build": 250000})))
			newServer.RouteToHandler("GET", "/job/merge-requests-gke/job/MR-5283/908/wfapi/describe",
				ghttp.RespondWithJSONEncoded(http.StatusOK, wfapiRun("908", 220000, map[string]int64{"Build": 200000})))

			Expect((&PairsCommand{}).Execute(nil)).To(Succeed())

			content, err := ioutil.ReadFile(csvPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(content)).To(HavePrefix("_Job;_BuildID;_Total;_Time;Wait/Other;Build\n"))
			Expect(string(content)).To(ContainSubstring(";823;310;"))
			Expect(Collector.CachePath).To(BeAnExistingFile())

			Expect((&PairsCommand{}).Execute(nil)).To(Succeed())
			Expect(oldServer.ReceivedRequests()).To(HaveLen(1))
			Expect(newServer.ReceivedRequests()).To(HaveLen(1))
		})

		It("plots a configured trend without contacting Jenkins", func() {
			writeConfig(`, "trend": {
				"labels": ["#908", "#909", "#910"],
				"series": [{"name": "Jenkins", "values": [310, 306, 291]}, {"name": "Cloud Build", "values": [220, 216, 214]}],
				"marker": {"at": 1.5, "label": "remote cache disabled"}
			}`)
			trendPath := filepath.Join(tempDir, "trend.png")

			Expect((&TrendCommand{Chart: trendPath}).Execute(nil)).To(Succeed())

			Expect(trendPath).To(BeAnExistingFile())
			Expect(oldServer.ReceivedRequests()).To(BeEmpty())
		})

		It("plots a trend from the latest runs", func() {
			writeConfig("")
			oldServer.RouteToHandler("GET", "/job/merge-requests/job/EWT-114/wfapi/runs",
				ghttp.RespondWithJSONEncoded(http.StatusOK, []interface{}{wfapiRun("2", 2000, nil), wfapiRun("1", 1000, nil)}))
			newServer.RouteToHandler("GET", "/job/merge-requests-gke/job/MR-5283/wfapi/runs",
				ghttp.RespondWithJSONEncoded(http.StatusOK, []interface{}{wfapiRun("9", 900, nil), wfapiRun("8", 800, nil)}))
			trendPath := filepath.Join(tempDir, "trend.png")

			Expect((&TrendCommand{Chart: trendPath}).Execute(nil)).To(Succeed())
			Expect(trendPath).To(BeAnExistingFile())
		})
	})
})
