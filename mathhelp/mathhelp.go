package mathhelp

import "math"

// CeilDiv is a ceiling division on map-unit spans, so a grid sized with it
// always fully covers the divided span, possibly overshooting at the far edge.
func CeilDiv(span, size float64) int {
	return int(-math.Floor(-span / size))
}

func BetweenInc(f, p, q int) bool {
	if p <= q {
		return p <= f && f <= q
	}
	return q <= f && f <= p
}

func Bool2int(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Clamp keeps v within [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
