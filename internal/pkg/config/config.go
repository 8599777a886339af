package config

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Instance describes one Jenkins deployment taking part in the comparison.
type Instance struct {
	URL         string `json:"url"`
	Job         string `json:"job"`
	Label       string `json:"label"`
	UsernameEnv string `json:"username_env"`
	TokenEnv    string `json:"token_env"`

	Username string `json:"-"`
	Token    string `json:"-"`
}

// BuildPair is an [old, new] pair of build numbers.
type BuildPair [2]int

func (p BuildPair) Old() int { return p[0] }
func (p BuildPair) New() int { return p[1] }

type TrendSeries struct {
	Name   string    `json:"name"`
	Color  string    `json:"color"`
	Values []float64 `json:"values"`
}

type Marker struct {
	At    float64 `json:"at"`
	Label string  `json:"label"`
}

type Trend struct {
	Title  string        `json:"title"`
	Labels []string      `json:"labels"`
	Series []TrendSeries `json:"series"`
	Marker *Marker       `json:"marker"`
}

type Output struct {
	Chart string `json:"chart"`
	CSV   string `json:"csv"`
}

type Config struct {
	Old Instance `json:"old"`
	New Instance `json:"new"`

	PreferredOrder []string          `json:"preferred_order"`
	Colors         map[string]string `json:"colors"`

	ExcludeBuilds []string    `json:"exclude_builds"`
	Last          int         `json:"last"`
	BuildPairs    []BuildPair `json:"build_pairs"`

	Title  string `json:"title"`
	Trend  Trend  `json:"trend"`
	Output Output `json:"output"`

	InsecureSkipVerify bool     `json:"insecure_skip_verify"`
	Timeout            Duration `json:"timeout"`
}

// Duration reads "30s" style strings from JSON.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return errors.Wrap(err, "duration-must-be-a-string")
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "invalid-duration %q", s)
	}

	*d = Duration(parsed)
	return nil
}

func Default() Config {
	return Config{
		Old: Instance{
			Label:       "Old Job",
			UsernameEnv: "JENKINS_USER",
			TokenEnv:    "JENKINS_TOKEN_OLD",
		},
		New: Instance{
			Label:       "New Job",
			UsernameEnv: "JENKINS_USER",
			TokenEnv:    "JENKINS_TOKEN_NEW",
		},
		PreferredOrder: []string{
			"Wait/Other",
			"Init",
			"Declarative: Checkout SCM",
			"Git clone",
			"Checkout",
			"Build",
			"Build & Push (Google Cloud Build)",
			"Push image",
			"Test",
			"Declarative: Post Actions",
		},
		Colors: map[string]string{
			"Wait/Other":                        "#BDBDBD",
			"Init":                              "#795548",
			"Declarative: Checkout SCM":         "#4CAF50",
			"Git clone":                         "#FF9800",
			"Checkout":                          "#CDDC39",
			"Build":                             "#2196F3",
			"Build & Push (Google Cloud Build)": "#E91E63",
			"Push image":                        "#00BCD4",
			"Test":                              "#FF7F0E",
			"Declarative: Post Actions":         "#9C27B0",
		},
		Title: "Jenkins pipeline stage durations - old vs new",
		Output: Output{
			Chart: "jenkins_comparison.png",
			CSV:   "jenkins_comparison_data.csv",
		},
		InsecureSkipVerify: true,
		Timeout:            Duration(30 * time.Second),
	}
}

// ReadConfig overlays the JSON file at configPath on Default and resolves the
// credentials from the environment. A .env file next to the working directory
// is loaded first when present.
func ReadConfig(configPath string) (Config, error) {
	raw, err := ioutil.ReadFile(configPath)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed-to-read-config-file")
	}

	config := Default()
	err = json.Unmarshal(raw, &config)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed-to-unmarshal-config")
	}

	err = LoadDotEnv(".env")
	if err != nil {
		return Config{}, err
	}

	config.Old.resolveCredentials()
	config.New.resolveCredentials()

	return config, nil
}

// LoadDotEnv exports the variables of an env file; a missing file is ignored.
// Variables already set in the process environment win.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	err := godotenv.Load(path)
	if err != nil {
		return errors.Wrap(err, "failed-to-load-env-file")
	}

	return nil
}

func (i *Instance) resolveCredentials() {
	if i.UsernameEnv != "" {
		i.Username = os.Getenv(i.UsernameEnv)
	}
	if i.TokenEnv != "" {
		i.Token = os.Getenv(i.TokenEnv)
	}
}

func (i Instance) Validate(name string) error {
	if i.URL == "" {
		return errors.Errorf("%s-instance-has-no-url", name)
	}
	if strings.Trim(i.Job, "/") == "" {
		return errors.Errorf("%s-instance-has-no-job", name)
	}
	return nil
}

func (c Config) Validate() error {
	if err := c.Old.Validate("old"); err != nil {
		return err
	}
	return c.New.Validate("new")
}
