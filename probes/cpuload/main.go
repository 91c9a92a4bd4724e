package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/common/promlog"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/criteo/cpuload-probe/pkg/common"
	"github.com/criteo/cpuload-probe/pkg/idleloop"
	"github.com/criteo/cpuload-probe/pkg/simulation"
)

func usage(a *kingpin.Application, err error) {
	fmt.Fprintln(os.Stderr, err)
	a.Usage(os.Args[1:])
	os.Exit(1)
}

func main() {
	// CLI Flags
	commonCfg := common.ProbeConfig{
		LogConfig: promlog.Config{},
	}

	a := kingpin.New(filepath.Base(os.Args[0]), "Idle loop CPU load measurement on a synthetic load").UsageWriter(os.Stdout)
	common.AddFlags(a, &commonCfg)
	useColor := a.Flag("color", "Color the reports by load level.").Default("true").Bool()
	percentArg := a.Arg("percent-load", "Load to simulate, in percent (0-100).").Required().String()
	_, err := a.Parse(os.Args[1:])
	if err != nil {
		usage(a, errors.Wrapf(err, "Error parsing commandline arguments"))
	}
	load, err := parsePercent(*percentArg)
	if err != nil {
		usage(a, err)
	}

	// Init loggger
	logger := commonCfg.GetLogger()

	// Parse config file
	config := defaultProbeConfig()
	err = commonCfg.ParseConfigFile(&config)
	if err != nil {
		level.Error(logger).Log("msg", "Fatal: error during parsing of config file", "err", err)
		os.Exit(2)
	}
	estimatorCfg := config.EstimatorConfig
	if estimatorCfg.Threshold >= estimatorCfg.Interval {
		level.Warn(logger).Log("msg", "Threshold is not shorter than an interval, every span will be idle",
			"threshold", estimatorCfg.Threshold, "interval", estimatorCfg.Interval)
	}
	if !*useColor {
		config.SimulationConfig.Color = false
	}
	if !config.SimulationConfig.Color {
		color.NoColor = true
	}

	// Metrics server
	commonCfg.StartHttpServer(logger)

	env, err := simulation.New(logger, estimatorCfg, config.SimulationConfig, load, os.Stdout)
	if err != nil {
		level.Error(logger).Log("msg", "Fatal: error during init of the simulation", "err", err)
		os.Exit(2)
	}
	env.OnDone(func() { os.Exit(0) })

	driver, err := idleloop.NewDriver(logger, estimatorCfg, env, env.Report)
	if err != nil {
		level.Error(logger).Log("msg", "Fatal: error during init of the idle loop", "err", err)
		os.Exit(2)
	}

	driver.Run()
}
