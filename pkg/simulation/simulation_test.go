package simulation

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/criteo/cpuload-probe/pkg/cpuload"
	"github.com/criteo/cpuload-probe/pkg/idleloop"
)

// run drives the idle loop until the simulation is over and returns the
// printed report lines
func run(t *testing.T, name string, load int) []string {
	cfg := cpuload.DefaultConfig()
	cfg.Name = name
	out := &bytes.Buffer{}

	env, err := New(log.NewNopLogger(), cfg, Config{}, load, out)
	require.NoError(t, err)
	doneCalls := 0
	env.OnDone(func() { doneCalls++ })

	d, err := idleloop.NewDriver(log.NewNopLogger(), cfg, env, env.Report)
	require.NoError(t, err)

	for !env.Done() {
		d.Cycle()
	}
	assert.Equal(t, 1, doneCalls)
	return strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
}

func TestHalfLoadRun(t *testing.T) {
	lines := run(t, "sim_half", 50)

	require.Len(t, lines, 31)
	assert.Equal(t, "curr: 50, peak: 50", lines[0])
	assert.Equal(t, "curr: 450, peak: 450", lines[8])
	for _, line := range lines[9:22] {
		assert.Equal(t, "curr: 500, peak: 500", line)
	}
	// The last window ramps the load down, the peak holds
	assert.Equal(t, "curr: 475, peak: 500", lines[22])
	assert.Equal(t, "curr: 99, peak: 500", lines[30])
}

func TestFullLoadRun(t *testing.T) {
	lines := run(t, "sim_full", 100)

	require.Len(t, lines, 31)
	assert.Equal(t, "curr: 100, peak: 100", lines[0])
	assert.Equal(t, "curr: 1000, peak: 1000", lines[9])
	assert.Equal(t, "curr: 1000, peak: 1000", lines[21])
	assert.True(t, strings.HasSuffix(lines[30], "peak: 1000"))
}

func TestNoLoadRun(t *testing.T) {
	lines := run(t, "sim_none", 0)

	require.Len(t, lines, 31)
	for _, line := range lines {
		assert.Equal(t, "curr: 0, peak: 0", line)
	}
}

func TestRampDownFloorsAboveThreshold(t *testing.T) {
	cfg := cpuload.DefaultConfig()
	env, err := New(nil, cfg, Config{Closures: 3}, 0, &bytes.Buffer{})
	require.NoError(t, err)

	env.Report(cpuload.Snapshot{})
	assert.Equal(t, cfg.Threshold+1, env.BusyTime())
	assert.False(t, env.Done())
}

func TestClockOnlyMovesAfterBarrier(t *testing.T) {
	cfg := cpuload.DefaultConfig()
	env, err := New(nil, cfg, Config{}, 10, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, uint64(0), env.ReadTime())
	env.Barrier()
	assert.Equal(t, uint64(1000000), env.ReadTime())
	assert.Equal(t, uint64(1000000), env.ReadTime())
	env.Barrier()
	assert.Equal(t, uint64(1000999), env.ReadTime())
}

func TestColoredOutputKeepsValues(t *testing.T) {
	out := &bytes.Buffer{}
	env, err := New(nil, cpuload.DefaultConfig(), Config{Color: true}, 10, out)
	require.NoError(t, err)

	env.Report(cpuload.Snapshot{Average: 900, Peak: 950})
	assert.Contains(t, out.String(), "900")
	assert.Contains(t, out.String(), "950")
}

func TestNewRejectsInvalidInput(t *testing.T) {
	cfg := cpuload.DefaultConfig()

	_, err := New(nil, cfg, Config{}, 101, &bytes.Buffer{})
	assert.Error(t, err)
	_, err = New(nil, cfg, Config{}, -1, &bytes.Buffer{})
	assert.Error(t, err)

	cfg.Threshold = 1
	_, err = New(nil, cfg, Config{}, 50, &bytes.Buffer{})
	assert.Error(t, err)
}
