package systems

import "gonum.org/v1/gonum/spatial/r2"

// Interpolate returns steps evenly spaced points on the segment from -> to,
// excluding from and ending exactly on to.
// Zero-length travel yields the single point from.
func Interpolate(from, to r2.Vec, steps int) []r2.Vec {
	if from == to {
		return []r2.Vec{from}
	}
	if steps < 1 {
		steps = 1
	}

	delta := r2.Sub(to, from)
	points := make([]r2.Vec, steps)
	for i := 1; i < steps; i++ {
		t := float64(i) / float64(steps)
		points[i-1] = r2.Add(from, r2.Scale(t, delta))
	}
	points[steps-1] = to

	return points
}
