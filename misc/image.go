package misc

import "math"

func LerpFloat64(v1 float64, v2 float64, fraction float64) float64 {
	return v1 + (v2-v1)*fraction
}

func ClampFloat64(v float64, low float64, high float64) float64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

// ClampUint8 rounds v half to even and clamps it into a colour channel.
// NaN becomes 0.
func ClampUint8(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	return uint8(ClampFloat64(math.RoundToEven(v), 0, 255))
}
