package jenkins

import (
	"fmt"

	"code.cloudfoundry.org/lager"
	multierror "github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/config"
	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/models"
)

// RunCache keeps describe responses of finished builds between runs.
type RunCache interface {
	Lookup(key string) (models.Run, bool)
	Store(key string, run models.Run) error
}

// FetchRecords lists the job's runs and converts them into build records.
// A failed request is logged and gives an empty result.
func FetchRecords(client *Client, logger lager.Logger) []models.BuildRecord {
	instance := client.Instance()
	logger = logger.Session("fetch-runs", lager.Data{"label": instance.Label})

	runs, err := client.ListRuns()
	if err != nil {
		logger.Error("list-runs-failed", err)
		return []models.BuildRecord{}
	}

	records := make([]models.BuildRecord, 0, len(runs))
	for _, run := range runs {
		records = append(records, run.ToBuildRecord(instance.Label))
	}

	logger.Info("fetched", lager.Data{"builds": len(records)})
	return records
}

// FetchPairs describes each build of pairs on both instances. A pair is kept
// only when both sides could be fetched; the failures are returned together.
func FetchPairs(oldClient, newClient *Client, pairs []config.BuildPair, cache RunCache, logger lager.Logger) ([]models.BuildRecord, []models.BuildRecord, error) {
	logger = logger.Session("fetch-pairs", lager.Data{"pairs": len(pairs)})

	var result *multierror.Error
	var oldRecords, newRecords []models.BuildRecord

	for _, pair := range pairs {
		oldRun, oldErr := describe(oldClient, pair.Old(), cache, logger)
		newRun, newErr := describe(newClient, pair.New(), cache, logger)

		if oldErr != nil {
			result = multierror.Append(result, oldErr)
		}
		if newErr != nil {
			result = multierror.Append(result, newErr)
		}
		if oldErr != nil || newErr != nil {
			logger.Info("skipping-pair", lager.Data{"old": pair.Old(), "new": pair.New()})
			continue
		}

		oldRecords = append(oldRecords, oldRun.ToBuildRecord(oldClient.Instance().Label))
		newRecords = append(newRecords, newRun.ToBuildRecord(newClient.Instance().Label))
	}

	return oldRecords, newRecords, result.ErrorOrNil()
}

func CacheKey(instance config.Instance, buildID int) string {
	return fmt.Sprintf("%s#%s#%d", instance.URL, instance.Job, buildID)
}

func describe(client *Client, buildID int, cache RunCache, logger lager.Logger) (models.Run, error) {
	key := CacheKey(client.Instance(), buildID)

	if cache != nil {
		if run, found := cache.Lookup(key); found {
			logger.Debug("cache-hit", lager.Data{"build-id": buildID})
			return run, nil
		}
	}

	run, err := client.DescribeRun(buildID)
	if err != nil {
		logger.Error("describe-run-failed", err, lager.Data{"build-id": buildID, "label": client.Instance().Label})
		return models.Run{}, errors.Wrapf(err, "failed to describe %s #%d", client.Instance().Label, buildID)
	}

	if cache != nil && !run.IsRunning() {
		err = cache.Store(key, run)
		if err != nil {
			logger.Error("cache-store-failed", err, lager.Data{"build-id": buildID})
		}
	}

	return run, nil
}
