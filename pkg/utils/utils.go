package utils

var (
	MetricSuffix = "cpuload"
)

// Ratio converts a value expressed in scale units into a 0-1 ratio
func Ratio(value, scale uint32) float64 {
	if scale == 0 {
		return 0
	}
	return float64(value) / float64(scale)
}

// Percent converts a value expressed in scale units into a percentage,
// truncated like the rest of the fixed point arithmetic
func Percent(value, scale uint32) uint32 {
	if scale == 0 {
		return 0
	}
	return uint32(uint64(value) * 100 / uint64(scale))
}
