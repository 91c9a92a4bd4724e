package cpuload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestConfigDefaults(t *testing.T) {
	yamlStr := `interval: 500`

	var config Config
	err := yaml.Unmarshal([]byte(yamlStr), &config)
	require.NoError(t, err)

	assert.Equal(t, uint64(500), config.Interval)
	assert.Equal(t, "idle", config.Name)
	assert.Equal(t, 10, config.Intervals)
	assert.Equal(t, uint64(1000), config.Threshold)
	assert.Equal(t, uint32(1000), config.Scale)
	assert.Equal(t, Width64, config.TimestampBits)
	assert.NoError(t, config.Validate())
}

func TestConfigCustomValues(t *testing.T) {
	yamlStr := `
name: core0
interval: 1000
intervals: 5
threshold: 0
scale: 100
timestamp_bits: 32
`
	var config Config
	err := yaml.Unmarshal([]byte(yamlStr), &config)
	require.NoError(t, err)

	assert.Equal(t, Config{
		Name:          "core0",
		Interval:      1000,
		Intervals:     5,
		Threshold:     0,
		Scale:         100,
		TimestampBits: Width32,
	}, config)
	assert.NoError(t, config.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"zero interval", func(c *Config) { c.Interval = 0 }, false},
		{"zero intervals", func(c *Config) { c.Intervals = 0 }, false},
		{"negative intervals", func(c *Config) { c.Intervals = -1 }, false},
		{"zero scale", func(c *Config) { c.Scale = 0 }, false},
		{"unknown width", func(c *Config) { c.TimestampBits = 16 }, false},
		{"interval too long for 32 bits", func(c *Config) {
			c.TimestampBits = Width32
			c.Interval = 1 << 31
		}, false},
		{"largest 32 bit interval", func(c *Config) {
			c.TimestampBits = Width32
			c.Interval = 1<<31 - 1
		}, true},
		{"ratio overflow", func(c *Config) { c.Interval = 1 << 60 }, false},
		{"threshold above interval", func(c *Config) { c.Threshold = c.Interval * 2 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.modify(&c)
			err := c.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestWidthArithmetic(t *testing.T) {
	assert.Equal(t, uint64(0xffffffff), Width32.Sub(0, 1))
	assert.Equal(t, uint64(4), Width32.Add(0xfffffffe, 6))
	assert.True(t, Width32.Reached(4, 0xfffffffe))
	assert.False(t, Width32.Reached(0xfffffffe, 4))
	assert.True(t, Width64.Reached(7, 7))
	assert.False(t, Width64.Reached(6, 7))
}
