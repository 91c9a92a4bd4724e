package idleloop

import (
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/criteo/cpuload-probe/pkg/cpuload"
)

// Environment is provided by the platform the idle loop runs on
type Environment interface {
	// ReadTime returns the tick counter. It never goes backward (modulo the
	// configured counter width).
	ReadTime() uint64
	// Disable stops the scheduler from preempting the idle loop
	Disable()
	// Enable lets the rest of the system run again
	Enable()
	// Barrier makes sure the next ReadTime returns a fresh value
	Barrier()
}

// Class of a measured span
type Class int

const (
	Idle Class = iota
	Busy
)

func (c Class) String() string {
	if c == Busy {
		return "busy"
	}
	return "idle"
}

// Classify returns Busy for spans strictly longer than threshold. A span of
// exactly threshold ticks is idle.
func Classify(elapsed, threshold uint64) Class {
	if elapsed > threshold {
		return Busy
	}
	return Idle
}

// Driver is the idle loop. It owns the estimator it feeds.
type Driver struct {
	logger    log.Logger
	env       Environment
	width     cpuload.Width
	threshold uint64
	estimator *cpuload.Estimator
	metrics   *instruments
	report    cpuload.ReportFunc
}

// NewDriver disables preemption, reads the first timestamp and creates the
// estimator from it. report is called after every closed interval and may be
// nil.
func NewDriver(logger log.Logger, cfg cpuload.Config, env Environment, report cpuload.ReportFunc) (*Driver, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if env == nil {
		return nil, errors.New("idle loop needs an environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "idle loop %q not started", cfg.Name)
	}

	d := &Driver{
		logger:    log.With(logger, "name", cfg.Name),
		env:       env,
		width:     cfg.TimestampBits,
		threshold: cfg.Threshold,
		metrics:   newInstruments(cfg),
		report:    report,
	}

	env.Disable()
	t0 := env.ReadTime()

	estimator, err := cpuload.NewEstimator(cfg, t0, d.intervalClosed)
	if err != nil {
		return nil, err
	}
	d.estimator = estimator
	level.Debug(d.logger).Log("msg", "idle loop ready", "t0", t0, "first_boundary", estimator.NextBoundary())
	return d, nil
}

func (d *Driver) intervalClosed(s cpuload.Snapshot) {
	d.metrics.observe(s)
	d.metrics.closed.Inc()
	level.Debug(d.logger).Log("msg", "interval closed", "average", s.Average, "peak", s.Peak, "closed", s.Closed)
	if d.report != nil {
		d.report(s)
	}
}

// Cycle runs one measurement. It is entered and left with preemption disabled.
//
// The time between the end of the previous cycle and t1 is the loop's own
// work and is idle. The time between t1 and t2 is what the rest of the system
// used once the loop let it run: busy if longer than the threshold.
func (d *Driver) Cycle() {
	t1 := d.env.ReadTime()
	d.estimator.Log(t1, 0)

	d.env.Enable()
	d.env.Barrier()
	d.env.Disable()
	t2 := d.env.ReadTime()

	elapsed := d.width.Sub(t2, t1)
	class := Classify(elapsed, d.threshold)
	d.metrics.spans[class].Inc()
	if class == Busy {
		d.estimator.Log(t2, elapsed)
	} else {
		d.estimator.Log(t2, 0)
	}
}

// Run loops forever at the lowest priority. It never returns.
func (d *Driver) Run() {
	level.Info(d.logger).Log("msg", "starting idle loop")
	for {
		d.Cycle()
	}
}
