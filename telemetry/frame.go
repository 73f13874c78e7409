package telemetry

import "github.com/pthm-cable/forage/components"

// Frame is the externally visible colony state after one scheduler frame.
// Bees are ordered by ascending ID; sources are the live sources in creation order.
type Frame struct {
	Frame   int32         `json:"frame"`
	Tick    int32         `json:"tick"`
	Bees    []BeeState    `json:"bees"`
	Sources []SourceState `json:"sources"`
}

// BeeState is one bee in a frame.
type BeeState struct {
	ID    uint32           `json:"id"`
	X     float64          `json:"x"`
	Y     float64          `json:"y"`
	State components.State `json:"state"`
	Load  float64          `json:"load"`
}

// SourceState is one live nectar source in a frame.
type SourceState struct {
	ID      components.SourceID `json:"id"`
	X       float64             `json:"x"`
	Y       float64             `json:"y"`
	Quality float64             `json:"quality"`
}

// Clone returns a deep copy that shares no slices with f.
func (f Frame) Clone() Frame {
	out := f
	out.Bees = append([]BeeState(nil), f.Bees...)
	out.Sources = append([]SourceState(nil), f.Sources...)
	return out
}

// Equal reports whether two frames are identical, field by field.
func (f Frame) Equal(o Frame) bool {
	if f.Frame != o.Frame || f.Tick != o.Tick {
		return false
	}
	if len(f.Bees) != len(o.Bees) || len(f.Sources) != len(o.Sources) {
		return false
	}
	for i := range f.Bees {
		if f.Bees[i] != o.Bees[i] {
			return false
		}
	}
	for i := range f.Sources {
		if f.Sources[i] != o.Sources[i] {
			return false
		}
	}
	return true
}
