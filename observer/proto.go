package observer

import (
	"math"

	"github.com/pthm-cable/forage/components"
	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/telemetry"
)

// ProtocolVersion must match the version sent in SUBSCRIBE.
const ProtocolVersion = 1

// SubscribeMsg is the first message a client sends after connecting.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion int    `json:"protocol_version"`
}

// Box is a rectangle in world units.
type Box struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

func boxOf(r config.Rect) Box {
	return Box{MinX: r.MinX, MinY: r.MinY, MaxX: r.MaxX, MaxY: r.MaxY}
}

// BootstrapResponse describes the run so a renderer can lay out the world
// before the first frame arrives.
type BootstrapResponse struct {
	ProtocolVersion int    `json:"protocol_version"`
	RunID           string `json:"run_id"`
	Seed            int64  `json:"seed"`
	Frame           int32  `json:"frame"` // latest published frame, -1 before the first

	Agents       int      `json:"agents"`
	TickInterval int      `json:"tick_interval"`
	InterpSteps  int      `json:"interp_steps"`
	Hive         Box      `json:"hive"`
	Spawn        Box      `json:"spawn"`
	MarkerScale  float64  `json:"marker_scale"`
	MarkerFloor  float64  `json:"marker_floor"`
	States       []string `json:"states"`
}

// FrameMsg is broadcast to every subscriber once per frame.
type FrameMsg struct {
	Type    string               `json:"type"` // "FRAME"
	Frame   int32                `json:"frame"`
	Tick    int32                `json:"tick"`
	Bees    []telemetry.BeeState `json:"bees"`
	Sources []SourceMarker       `json:"sources"`
}

// SourceMarker is a live source with its display size.
type SourceMarker struct {
	ID      components.SourceID `json:"id"`
	X       float64             `json:"x"`
	Y       float64             `json:"y"`
	Quality float64             `json:"quality"`
	Size    float64             `json:"size"`
}

// MarkerSize maps a source quality to a marker size.
func MarkerSize(quality, scale, floor float64) float64 {
	return math.Max(quality*scale, floor)
}

func newFrameMsg(f telemetry.Frame, scale, floor float64) FrameMsg {
	msg := FrameMsg{
		Type:    "FRAME",
		Frame:   f.Frame,
		Tick:    f.Tick,
		Bees:    f.Bees,
		Sources: make([]SourceMarker, len(f.Sources)),
	}
	if msg.Bees == nil {
		msg.Bees = []telemetry.BeeState{}
	}
	for i, s := range f.Sources {
		msg.Sources[i] = SourceMarker{
			ID:      s.ID,
			X:       s.X,
			Y:       s.Y,
			Quality: s.Quality,
			Size:    MarkerSize(s.Quality, scale, floor),
		}
	}
	return msg
}

func stateNames() []string {
	names := make([]string, components.NumStates)
	for i := range names {
		names[i] = components.State(i).String()
	}
	return names
}
