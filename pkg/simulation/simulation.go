package simulation

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/criteo/cpuload-probe/pkg/cpuload"
	"github.com/criteo/cpuload-probe/pkg/utils"
)

// Config of the synthetic load run
type Config struct {
	// Number of closed intervals before the run is over.
	// Zero means 3 windows plus one interval.
	Closures int `yaml:"closures,omitempty"`
	// Print the reports with colors
	Color bool `yaml:"color,omitempty"`
}

// Environment fakes a processor running a given load so that the idle loop
// can be exercised on a development host.
//
// Time only moves when the idle loop asks for a fresh sample: right after
// each barrier the clock jumps by the busy time once per interval, and by
// threshold-1 ticks (a span short enough to be idle) otherwise. Each closed
// interval re-arms the busy jump. In the last window of the run the busy time
// is halved at every closure to show the average ramping down.
type Environment struct {
	logger    log.Logger
	out       io.Writer
	colored   bool
	scale     uint32
	intervals int
	threshold uint64
	busyTime  uint64

	now     uint64
	measure bool
	busy    bool
	limit   int
	onDone  func()
}

// New creates an environment simulating load percent of busy time per interval
func New(logger log.Logger, cfg cpuload.Config, sim Config, load int, out io.Writer) (*Environment, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if load < 0 || load > 100 {
		return nil, errors.Errorf("load must be a percentage between 0 and 100, got %d", load)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "cannot simulate %q", cfg.Name)
	}
	// Idle steps are threshold-1 ticks long, they must still move the clock
	if cfg.Threshold < 2 {
		return nil, errors.Errorf("simulation needs a threshold of at least 2 ticks, got %d", cfg.Threshold)
	}
	limit := sim.Closures
	if limit <= 0 {
		limit = cfg.Intervals*3 + 1
	}

	e := &Environment{
		logger:    log.With(logger, "component", "simulation"),
		out:       out,
		colored:   sim.Color,
		scale:     cfg.Scale,
		intervals: cfg.Intervals,
		threshold: cfg.Threshold,
		busyTime:  cfg.Interval * uint64(load) / 100,
		busy:      true,
		limit:     limit,
	}
	level.Info(e.logger).Log("msg", fmt.Sprintf("Simulating %d%% load", load),
		"busy_ticks", humanize.Comma(int64(e.busyTime)), "interval_ticks", humanize.Comma(int64(cfg.Interval)),
		"closures", limit)
	return e, nil
}

// OnDone registers fn to be called once the last interval has been reported
func (e *Environment) OnDone(fn func()) {
	e.onDone = fn
}

// Done reports whether all the intervals of the run have been reported
func (e *Environment) Done() bool {
	return e.limit <= 0
}

// BusyTime is the busy span injected in the current interval
func (e *Environment) BusyTime() uint64 {
	return e.busyTime
}

func (e *Environment) Disable() {}

func (e *Environment) Enable() {}

// Barrier requests a clock increment on the next ReadTime
func (e *Environment) Barrier() {
	e.measure = true
}

func (e *Environment) ReadTime() uint64 {
	if e.measure {
		e.measure = false
		if e.busy {
			e.now += e.busyTime
			e.busy = false
		} else {
			e.now += e.threshold - 1
		}
	}
	return e.now
}

// Report prints the snapshot and advances the run. It is meant to be used
// as the idle loop ReportFunc.
func (e *Environment) Report(s cpuload.Snapshot) {
	e.print(s)

	e.limit--
	if e.limit <= 0 {
		level.Info(e.logger).Log("msg", "Simulation over", "closures", s.Closed, "peak", s.Peak)
		if e.onDone != nil {
			e.onDone()
		}
		return
	}
	if e.limit < e.intervals {
		e.busyTime = e.busyTime / 2
		if e.busyTime <= e.threshold {
			e.busyTime = e.threshold + 1
		}
		level.Debug(e.logger).Log("msg", "Ramping load down", "busy_ticks", humanize.Comma(int64(e.busyTime)))
	}
	e.busy = true
}

func (e *Environment) print(s cpuload.Snapshot) {
	if !e.colored {
		fmt.Fprintf(e.out, "curr: %d, peak: %d\n", s.Average, s.Peak)
		return
	}
	fmt.Fprintf(e.out, "curr: %s, peak: %s\n", e.levelColor(s.Average).Sprint(s.Average), e.levelColor(s.Peak).Sprint(s.Peak))
}

func (e *Environment) levelColor(value uint32) *color.Color {
	switch percent := utils.Percent(value, e.scale); {
	case percent >= 80:
		return color.New(color.FgRed)
	case percent >= 50:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}
