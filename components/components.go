// Package components defines ECS components for the colony.
package components

import "gonum.org/v1/gonum/spatial/r2"

// SourceID is a stable handle to a nectar source. Handles are never reused,
// so a handle to a removed source simply fails to resolve.
type SourceID uint64

// NoSource is the zero handle; it never resolves.
const NoSource SourceID = 0

// Bee identifies an agent. IDs are dense and assigned in spawn order.
type Bee struct {
	ID uint32
}

// Position is an agent's current world position.
type Position struct {
	r2.Vec
}

// Forager holds the behavioral state machine data.
type Forager struct {
	State     State
	Load      float64  // nectar carried
	Source    SourceID // non-owning, resolved through the registry
	Target    r2.Vec
	HasTarget bool
}

// Flight holds waypoints queued by the motion interpolator.
type Flight struct {
	Waypoints []r2.Vec
}

// Push appends waypoints to the back of the queue.
func (f *Flight) Push(points ...r2.Vec) {
	f.Waypoints = append(f.Waypoints, points...)
}

// Pop removes and returns the head waypoint.
func (f *Flight) Pop() (r2.Vec, bool) {
	if len(f.Waypoints) == 0 {
		return r2.Vec{}, false
	}
	p := f.Waypoints[0]
	f.Waypoints = f.Waypoints[1:]
	if len(f.Waypoints) == 0 {
		f.Waypoints = nil
	}
	return p, true
}

// Len returns the number of queued waypoints.
func (f *Flight) Len() int {
	return len(f.Waypoints)
}
