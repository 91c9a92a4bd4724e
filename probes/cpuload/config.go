package main

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/criteo/cpuload-probe/pkg/cpuload"
	"github.com/criteo/cpuload-probe/pkg/simulation"
)

type CpuLoadProbeConfig struct {
	// Estimator configuration
	EstimatorConfig cpuload.Config `yaml:"estimator,omitempty"`
	// Synthetic load configuration
	SimulationConfig simulation.Config `yaml:"simulation,omitempty"`
}

func defaultProbeConfig() CpuLoadProbeConfig {
	return CpuLoadProbeConfig{
		EstimatorConfig:  cpuload.DefaultConfig(),
		SimulationConfig: simulation.Config{Color: true},
	}
}

// parsePercent accepts a whole number between 0 and 100
func parsePercent(s string) (int, error) {
	load, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid percent-load %q", s)
	}
	if load < 0 || load > 100 {
		return 0, errors.Errorf("percent-load must be between 0 and 100, got %d", load)
	}
	return load, nil
}
