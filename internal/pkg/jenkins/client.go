package jenkins

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"code.cloudfoundry.org/lager"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/config"
	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/models"
)

// Client talks to the workflow API (wfapi) of one Jenkins instance.
type Client struct {
	instance   config.Instance
	httpClient *http.Client
	logger     lager.Logger
}

func NewClient(instance config.Instance, insecureSkipVerify bool, timeout time.Duration, logger lager.Logger) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		instance: instance,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		logger: logger.Session("jenkins-client", lager.Data{"url": instance.URL, "job": instance.Job}),
	}
}

func (c *Client) Instance() config.Instance {
	return c.instance
}

func (c *Client) jobURL() string {
	return strings.TrimRight(c.instance.URL, "/") + "/" + strings.Trim(c.instance.Job, "/")
}

func (c *Client) RunsURL() string {
	return c.jobURL() + "/wfapi/runs"
}

func (c *Client) DescribeURL(buildID int) string {
	return fmt.Sprintf("%s/%d/wfapi/describe", c.jobURL(), buildID)
}

// ListRuns returns the recent runs of the job, newest first as Jenkins
// reports them.
func (c *Client) ListRuns() ([]models.Run, error) {
	payload, err := c.get(c.RunsURL())
	if err != nil {
		return nil, err
	}

	runs, err := DecodeRuns(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed-to-decode-runs")
	}

	return runs, nil
}

func (c *Client) DescribeRun(buildID int) (models.Run, error) {
	payload, err := c.get(c.DescribeURL(buildID))
	if err != nil {
		return models.Run{}, err
	}

	runs, err := DecodeRuns(payload)
	if err != nil {
		return models.Run{}, errors.Wrap(err, "failed-to-decode-run")
	}

	if len(runs) != 1 {
		return models.Run{}, errors.Errorf("expected-one-run-got-%d", len(runs))
	}

	return runs[0], nil
}

func (c *Client) get(url string) (interface{}, error) {
	c.logger.Debug("get", lager.Data{"request-url": url})

	request, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed-to-create-request")
	}
	request.Header.Set("Accept", "application/json")
	if c.instance.Username != "" || c.instance.Token != "" {
		request.SetBasicAuth(c.instance.Username, c.instance.Token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, errors.Wrap(err, "request-failed")
	}
	defer response.Body.Close()

	body, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed-to-read-response")
	}

	if response.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected-status %d from %s", response.StatusCode, url)
	}

	var payload interface{}
	err = json.Unmarshal(body, &payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed-to-unmarshal-response")
	}

	return payload, nil
}

// DecodeRuns accepts either a JSON array of runs or a single run object.
func DecodeRuns(payload interface{}) ([]models.Run, error) {
	var items []interface{}
	switch value := payload.(type) {
	case []interface{}:
		items = value
	case map[string]interface{}:
		items = []interface{}{value}
	case nil:
		return nil, nil
	default:
		return nil, errors.Errorf("unexpected-payload-type %T", payload)
	}

	runs := make([]models.Run, 0, len(items))
	for _, item := range items {
		var run models.Run
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &run,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed-to-create-decoder")
		}

		err = decoder.Decode(item)
		if err != nil {
			return nil, errors.Wrap(err, "failed-to-decode-run")
		}

		runs = append(runs, run)
	}

	return runs, nil
}
