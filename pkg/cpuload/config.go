package cpuload

import (
	"math"
	"math/bits"

	"github.com/pkg/errors"
)

// Width is the number of bits of the environment's tick counter.
// All tick arithmetic is done modulo 2^Width.
type Width uint

const (
	Width32 Width = 32
	Width64 Width = 64
)

func (w Width) mask() uint64 {
	if w == Width32 {
		return math.MaxUint32
	}
	return math.MaxUint64
}

// Sub returns a-b modulo 2^w
func (w Width) Sub(a, b uint64) uint64 {
	return (a - b) & w.mask()
}

// Add returns a+b modulo 2^w
func (w Width) Add(a, b uint64) uint64 {
	return (a + b) & w.mask()
}

// Reached reports whether t is at or after mark. The comparison is done on
// the wrapped difference so it stays correct when the counter rolls over, as
// long as both values are less than half the counter range apart.
func (w Width) Reached(t, mark uint64) bool {
	return w.Sub(t, mark) <= w.mask()>>1
}

// Config of a load estimator. It is read once at startup and never changes.
type Config struct {
	// Name of the measured entity, used for metrics and logging
	Name string `yaml:"name,omitempty"`
	// Length of an interval, in ticks
	Interval uint64 `yaml:"interval,omitempty"`
	// Number of intervals in the sliding window
	Intervals int `yaml:"intervals,omitempty"`
	// A span longer than Threshold ticks is busy, otherwise it is idle
	Threshold uint64 `yaml:"threshold,omitempty"`
	// Value reported for 100% load
	Scale uint32 `yaml:"scale,omitempty"`
	// Bits in the tick counter (32 or 64)
	TimestampBits Width `yaml:"timestamp_bits,omitempty"`
}

var (
	defaultConfig = Config{
		Name:          "idle",
		Interval:      10000000,
		Intervals:     10,
		Threshold:     1000,
		Scale:         1000,
		TimestampBits: Width64,
	}
)

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() Config {
	return defaultConfig
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	*c = defaultConfig
	type plain Config
	err := unmarshal((*plain)(c))
	if err != nil {
		return err
	}
	return nil
}

// Validate rejects configurations the estimator cannot run with.
func (c Config) Validate() error {
	if c.Interval == 0 {
		return errors.New("interval must be greater than zero")
	}
	if c.Intervals < 1 {
		return errors.Errorf("window needs at least one interval, got %d", c.Intervals)
	}
	if c.Scale == 0 {
		return errors.New("scale must be greater than zero")
	}
	if c.TimestampBits != Width32 && c.TimestampBits != Width64 {
		return errors.Errorf("timestamp_bits must be 32 or 64, got %d", c.TimestampBits)
	}
	if c.Interval > c.TimestampBits.mask()>>1 {
		return errors.Errorf("interval %d does not fit in a %d bit tick counter", c.Interval, c.TimestampBits)
	}
	if hi, _ := bits.Mul64(c.Interval, uint64(c.Scale)); hi != 0 {
		return errors.Errorf("interval %d times scale %d overflows 64 bits", c.Interval, c.Scale)
	}
	return nil
}
