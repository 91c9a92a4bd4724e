package cpuload

import (
	"github.com/pkg/errors"
)

// Snapshot is the state reported after an interval closes.
// Average and Peak are scaled so that Config.Scale is 100% load.
type Snapshot struct {
	Average uint32
	Peak    uint32
	// Number of intervals closed since the estimator was created
	Closed uint64
}

// ReportFunc is called synchronously once per closed interval, in interval
// order. It runs inside the measurement and must return promptly.
type ReportFunc func(Snapshot)

// Estimator turns busy/idle spans of ticks into a windowed load average.
//
// Time is cut into intervals of a fixed number of ticks anchored on the first
// timestamp the estimator sees. Each closed interval contributes its busy
// ratio to a sliding window of the last N intervals; the window average is the
// reported load and the highest average ever seen is kept as the peak.
//
// An Estimator has a single writer and is not safe for concurrent use. Other
// readers should only rely on the snapshots given to the ReportFunc.
type Estimator struct {
	width    Width
	interval uint64
	scale    uint64

	// absolute timestamp at which the open interval closes
	nextBoundary uint64
	// busy ticks accounted in the open interval
	busy uint64

	window  *Window
	average uint32
	peak    uint32
	closed  uint64

	report ReportFunc
}

// NewEstimator creates an estimator whose first interval opens at t0.
// report may be nil.
func NewEstimator(cfg Config, t0 uint64, report ReportFunc) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid estimator configuration for %q", cfg.Name)
	}
	width := cfg.TimestampBits
	return &Estimator{
		width:        width,
		interval:     cfg.Interval,
		scale:        uint64(cfg.Scale),
		nextBoundary: width.Add(t0, cfg.Interval),
		window:       NewWindow(cfg.Intervals),
		// Nothing measured yet: report full load until the window has data
		average: cfg.Scale,
		report:  report,
	}, nil
}

// Log accounts the span of ticks ending at end, of which the last busy ticks
// were busy. Everything between the previous call and end-busy is idle.
//
// All interval boundaries up to and including end are closed before Log
// returns, each of them reported once. busy must not reach back before the
// end of the previously logged span.
func (e *Estimator) Log(end, busy uint64) {
	start := e.width.Sub(end, busy)

	for e.width.Reached(end, e.nextBoundary) {
		if busy > 0 && !e.width.Reached(start, e.nextBoundary) {
			n := e.width.Sub(e.nextBoundary, start)
			if n > busy {
				n = busy
			}
			e.busy += n
			busy -= n
			start = e.nextBoundary
		}
		e.closeInterval()
		e.nextBoundary = e.width.Add(e.nextBoundary, e.interval)
	}

	e.busy += busy
}

// closeInterval stores the ratio of the open interval in the window, updates
// the average and the peak hold, then reports.
func (e *Estimator) closeInterval() {
	e.window.Push(uint32(e.busy * e.scale / e.interval))
	e.busy = 0

	e.average = e.window.Average()
	if e.peak < e.average {
		e.peak = e.average
	}
	e.closed++

	if e.report != nil {
		e.report(e.Snapshot())
	}
}

// Snapshot returns the current average and peak. Reading it from another
// goroutine than the writer is a race.
func (e *Estimator) Snapshot() Snapshot {
	return Snapshot{Average: e.average, Peak: e.peak, Closed: e.closed}
}

// NextBoundary is the absolute timestamp at which the open interval closes
func (e *Estimator) NextBoundary() uint64 {
	return e.nextBoundary
}

// Busy is the number of busy ticks accounted in the open interval
func (e *Estimator) Busy() uint64 {
	return e.busy
}
