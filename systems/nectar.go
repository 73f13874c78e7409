package systems

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/forage/components"
	"github.com/pthm-cable/forage/config"
)

// NectarSource is a depleting patch of nectar at a fixed position.
type NectarSource struct {
	ID       components.SourceID
	Position r2.Vec
	Quality  float64 // remaining extractable nectar, never negative
}

// Live reports whether the source still has nectar.
func (s NectarSource) Live() bool {
	return s.Quality > 0
}

// Registry owns the set of nectar sources.
// Sources are kept in creation order so iteration and random picks are reproducible.
type Registry struct {
	sources []NectarSource
	index   map[components.SourceID]int
	nextID  components.SourceID

	target     int
	spawn      r2.Box
	qualityMin float64
	qualityMax float64

	live []int // scratch for PickRandom
}

// NewRegistry creates an empty registry that replenishes to target live sources
// inside spawn with quality uniform in [qualityMin, qualityMax).
func NewRegistry(target int, spawn r2.Box, qualityMin, qualityMax float64) (*Registry, error) {
	if target < 1 {
		return nil, fmt.Errorf("%w: target source count %d", config.ErrInvalid, target)
	}
	if !finite(spawn.Min.X, spawn.Min.Y, spawn.Max.X, spawn.Max.Y) ||
		!(spawn.Max.X > spawn.Min.X) || !(spawn.Max.Y > spawn.Min.Y) {
		return nil, fmt.Errorf("%w: degenerate spawn box %v", config.ErrInvalid, spawn)
	}
	// A NaN quality is never live, so Replenish could not reach the target
	if !finite(qualityMin, qualityMax) || !(qualityMin > 0) || qualityMax < qualityMin {
		return nil, fmt.Errorf("%w: quality range [%g, %g)", config.ErrInvalid, qualityMin, qualityMax)
	}

	return &Registry{
		index:      make(map[components.SourceID]int),
		nextID:     1,
		target:     target,
		spawn:      spawn,
		qualityMin: qualityMin,
		qualityMax: qualityMax,
	}, nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// NewRegistryFromConfig creates a registry from the nectar section of cfg.
func NewRegistryFromConfig(cfg *config.Config) (*Registry, error) {
	return NewRegistry(cfg.Nectar.TargetCount, cfg.Derived.SpawnBox, cfg.Nectar.QualityMin, cfg.Nectar.QualityMax)
}

// Add inserts a source and returns its handle.
func (r *Registry) Add(pos r2.Vec, quality float64) components.SourceID {
	if quality < 0 {
		quality = 0
	}
	id := r.nextID
	r.nextID++
	r.index[id] = len(r.sources)
	r.sources = append(r.sources, NectarSource{ID: id, Position: pos, Quality: quality})
	return id
}

// Lookup resolves a handle. It fails once the source has been swept.
func (r *Registry) Lookup(id components.SourceID) (NectarSource, bool) {
	i, ok := r.index[id]
	if !ok {
		return NectarSource{}, false
	}
	return r.sources[i], true
}

// Extract removes up to amount of nectar from the source and returns what was
// actually removed. The change is visible to every later caller immediately.
func (r *Registry) Extract(id components.SourceID, amount float64) float64 {
	i, ok := r.index[id]
	if !ok || !(amount > 0) {
		return 0
	}
	s := &r.sources[i]
	taken := min(amount, s.Quality)
	if taken <= 0 {
		return 0
	}
	s.Quality -= taken
	if s.Quality < 0 {
		s.Quality = 0
	}
	return taken
}

// PickRandom returns a uniformly chosen live source. No random draw is made
// when nothing is live.
func (r *Registry) PickRandom(rng RNG) (components.SourceID, bool) {
	r.live = r.live[:0]
	for i := range r.sources {
		if r.sources[i].Live() {
			r.live = append(r.live, i)
		}
	}
	if len(r.live) == 0 {
		return components.NoSource, false
	}
	return r.sources[r.live[rng.Intn(len(r.live))]].ID, true
}

// SweepDepleted removes every source with no nectar left and returns how many were removed.
func (r *Registry) SweepDepleted() int {
	kept := r.sources[:0]
	for _, s := range r.sources {
		if s.Live() {
			kept = append(kept, s)
		}
	}
	removed := len(r.sources) - len(kept)
	if removed == 0 {
		return 0
	}

	// Zero the tail so removed sources don't linger in the backing array
	for i := len(kept); i < len(r.sources); i++ {
		r.sources[i] = NectarSource{}
	}
	r.sources = kept

	clear(r.index)
	for i, s := range r.sources {
		r.index[s.ID] = i
	}
	return removed
}

// Replenish spawns sources until the live count reaches the target and returns
// how many were created. Draw order per source: x, y, quality.
func (r *Registry) Replenish(rng RNG) int {
	spawned := 0
	for r.LiveCount() < r.target {
		pos := RandomPoint(rng, r.spawn)
		quality := r.qualityMin + rng.Float64()*(r.qualityMax-r.qualityMin)
		r.Add(pos, quality)
		spawned++
	}
	return spawned
}

// Len returns the number of sources held, live or not.
func (r *Registry) Len() int {
	return len(r.sources)
}

// LiveCount returns the number of sources with nectar remaining.
func (r *Registry) LiveCount() int {
	n := 0
	for i := range r.sources {
		if r.sources[i].Live() {
			n++
		}
	}
	return n
}

// Target returns the configured live source count.
func (r *Registry) Target() int {
	return r.target
}

// Sources returns a copy of the sources in creation order.
func (r *Registry) Sources() []NectarSource {
	out := make([]NectarSource, len(r.sources))
	copy(out, r.sources)
	return out
}

// Qualities appends the quality of every source to dst.
func (r *Registry) Qualities(dst []float64) []float64 {
	for i := range r.sources {
		dst = append(dst, r.sources[i].Quality)
	}
	return dst
}
