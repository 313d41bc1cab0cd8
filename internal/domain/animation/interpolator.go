package animation

import "math"

// Ease is the decelerating curve used for region slides: Ease(0) = 0 and the
// curve approaches 1 from below.
func Ease(x float64) float64 {
	return math.Pow(2, -10*x)*math.Sin(((x-4)/4)*(2*math.Pi)/4) + 1
}

// lerp interpolates between start and end by fraction f
func lerp(start, end, f float64) float64 {
	return start*(1-f) + end*f
}
