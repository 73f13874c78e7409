package systems

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// RNG is the interface for random number generation.
// *rand.Rand satisfies it. All draws come from a single stream so a run
// replays exactly given the same seed and draw order.
type RNG interface {
	Float64() float64
	Intn(n int) int
}

// RandomPoint returns a uniformly random point inside box.
// Draw order: x, then y.
func RandomPoint(rng RNG, box r2.Box) r2.Vec {
	x := box.Min.X + rng.Float64()*(box.Max.X-box.Min.X)
	y := box.Min.Y + rng.Float64()*(box.Max.Y-box.Min.Y)
	return r2.Vec{X: x, Y: y}
}
