package esmutils

import "math"

// toMilli stores a reading in thousandths. Negative values become 0.
func toMilli(v float64) uint32 {
	if v < 0 {
		return 0
	}
	return uint32(math.Round(v * 1000))
}

func KwToW(kw float64) uint32 { return toMilli(kw) }

// KwhToWh converts a register delta.
func KwhToWh(kwh float64) uint32 { return toMilli(kwh) }

// M3ToDM3 converts a gas delta, 1 m³ = 1000 dm³.
func M3ToDM3(m3 float64) uint32 { return toMilli(m3) }
