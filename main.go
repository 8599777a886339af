package main

import (
	"fmt"
	"os"
	"time"

	"code.cloudfoundry.org/lager"
	flags "github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/cache"
	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/config"
	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/jenkins"
)

type Command struct {
	ConfigPath string `long:"config-path" required:"true" description:"please provide the path to your config file"`
	CachePath  string `long:"cache-path" description:"file to keep describe responses of finished builds in"`
	LogLevel   string `long:"log-level" default:"info" choice:"debug" choice:"info" choice:"error" description:"minimum level written to stderr"`

	Runs  RunsCommand  `command:"runs" description:"Compare the latest runs of the old and the new job"`
	Pairs PairsCommand `command:"pairs" description:"Compare explicit pairs of builds"`
	Trend TrendCommand `command:"trend" description:"Plot total build times of both sides as lines"`
}

var Collector Command

var logLevels = map[string]lager.LogLevel{
	"debug": lager.DEBUG,
	"info":  lager.INFO,
	"error": lager.ERROR,
}

// Environment is what every subcommand needs: a logger, the configuration and
// one client per Jenkins instance.
type Environment struct {
	Logger    lager.Logger
	Config    config.Config
	OldClient *jenkins.Client
	NewClient *jenkins.Client
}

func (c *Command) Setup() (Environment, error) {
	logger := lager.NewLogger("jenkins-stage-metrics")
	logger.RegisterSink(lager.NewWriterSink(os.Stderr, logLevels[c.LogLevel]))

	logger.Debug("reading-config", lager.Data{"configPath": c.ConfigPath})
	cfg, err := config.ReadConfig(c.ConfigPath)
	if err != nil {
		logger.Error("reading-config-failed", err)
		return Environment{}, err
	}

	timeout := time.Duration(cfg.Timeout)

	return Environment{
		Logger:    logger,
		Config:    cfg,
		OldClient: jenkins.NewClient(cfg.Old, cfg.InsecureSkipVerify, timeout, logger),
		NewClient: jenkins.NewClient(cfg.New, cfg.InsecureSkipVerify, timeout, logger),
	}, nil
}

func (e Environment) RequireInstances() error {
	err := e.Config.Validate()
	if err != nil {
		e.Logger.Error("invalid-config", err)
	}
	return err
}

// RunCache returns nil when no cache path was given.
func (c *Command) RunCache(logger lager.Logger) (jenkins.RunCache, error) {
	if c.CachePath == "" {
		return nil, nil
	}

	logger.Debug("reading-cache", lager.Data{"cachePath": c.CachePath})
	cacher, err := cache.NewCache(c.CachePath)
	if err != nil {
		logger.Error("reading-cache-failed", err)
		return nil, errors.Wrap(err, "reading-cache-failed")
	}

	return cacher, nil
}

func main() {
	parser := flags.NewParser(&Collector, flags.HelpFlag|flags.PassDoubleDash)

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			fmt.Println(err)
			os.Exit(0)
		}

		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
