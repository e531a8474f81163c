package world

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/proctiler/tilestream/internal/core/ecs"
)

// StreamOptions are the geometric parameters of the streamer.
type StreamOptions struct {
	Radius         float64 // generation radius
	TileSize       float64 // grid step
	OccupancyRatio float64 // probe half-extent as a fraction of TileSize
}

// Eviction records where a tile was when it left the active set. The tile
// itself may already be back in play at another position by the time the
// tick returns, so the record is a copy.
type Eviction struct {
	ID    ecs.EntityID
	Proto *Prototype
	Pos   Vec3
}

// TickResult reports what one tick changed. The slices are reused by the
// next Tick call; copy them if they must outlive it.
type TickResult struct {
	Tick    uint64
	Evicted []Eviction
	Spawned []*Tile
}

// Streamer keeps a bounded, connected set of active tiles around an
// observer. Each tick runs evict, expand and commit to completion; tiles
// spawned during a tick are only expanded from on the next one.
type Streamer struct {
	opts    StreamOptions
	catalog *Catalog
	pool    *TilePool
	occ     Occupancy
	rng     *rand.Rand
	log     *zap.Logger

	active  []*Tile
	evicted []Eviction
	pending []*Tile
	tick    uint64
	seeded  bool
}

func NewStreamer(opts StreamOptions, cat *Catalog, pool *TilePool, occ Occupancy, rng *rand.Rand, log *zap.Logger) *Streamer {
	return &Streamer{
		opts:    opts,
		catalog: cat,
		pool:    pool,
		occ:     occ,
		rng:     rng,
		log:     log,
		active:  make([]*Tile, 0, 64),
	}
}

// Seed places the first Forward prototype at the origin with identity
// rotation. It must be called once, before the first Tick.
func (s *Streamer) Seed() (*Tile, error) {
	if s.seeded {
		return nil, ErrAlreadySeeded
	}
	t := s.pool.Place(s.catalog.Seed(), Vec3{}, IdentityRotation)
	s.active = append(s.active, t)
	s.seeded = true
	s.log.Debug("seed placed", zap.String("prototype", t.Proto.Name))
	return t, nil
}

// SetCatalog swaps the catalog used for future spawns. Active tiles keep
// the prototypes they were spawned with until they are recycled.
func (s *Streamer) SetCatalog(c *Catalog) { s.catalog = c }

func (s *Streamer) Catalog() *Catalog { return s.catalog }

// Active returns the active set in discovery order. Callers must not modify it.
func (s *Streamer) Active() []*Tile { return s.active }

func (s *Streamer) Len() int { return len(s.active) }

// Tick runs one evict/expand/commit cycle for the given observer position.
func (s *Streamer) Tick(observer Vec3) TickResult {
	s.tick++
	s.evict(observer)
	s.expand(observer)
	s.active = append(s.active, s.pending...)
	return TickResult{Tick: s.tick, Evicted: s.evicted, Spawned: s.pending}
}

// evict drops tiles farther than the radius from the observer, keeping the
// discovery order of the survivors, and hands them back to the pool.
func (s *Streamer) evict(observer Vec3) {
	s.evicted = s.evicted[:0]
	n := len(s.active)
	kept := s.active[:0]
	var out []*Tile
	for _, t := range s.active {
		if t.Pos.Dist(observer) > s.opts.Radius {
			out = append(out, t)
			continue
		}
		kept = append(kept, t)
	}
	for i := len(kept); i < n; i++ {
		s.active[i] = nil
	}
	s.active = kept
	for _, t := range out {
		s.evicted = append(s.evicted, Eviction{ID: t.ID, Proto: t.Proto, Pos: t.Pos})
		s.pool.Release(t)
	}
}

// expand rescans the whole active set every tick. A tile whose exits are
// already filled costs one occupancy probe per exit; in exchange a spawn
// skipped earlier (out of range, say) is retried as soon as it can succeed.
func (s *Streamer) expand(observer Vec3) {
	s.pending = s.pending[:0]
	step := s.opts.TileSize
	probe := Extent{X: step * s.opts.OccupancyRatio, Z: step * s.opts.OccupancyRatio}

	for _, t := range s.active {
		exits := t.Proto.Exits
		if exits == 0 {
			continue
		}
		cell := t.Pos.Cell(step)
		for _, d := range Directions {
			if !exits.Has(d) {
				continue
			}
			pos := cell.Add(d.Delta()).Pos(step)
			pos.Y = t.Pos.Y
			if s.occ.Occupied(pos, probe) {
				continue
			}
			if pos.Dist(observer) > s.opts.Radius {
				continue
			}
			proto := s.catalog.Pick(d, !exits.Only(d), s.rng)
			if proto == nil {
				// a tile older than the catalog opens a direction it no longer fills
				continue
			}
			s.pending = append(s.pending, s.pool.Acquire(proto, pos, IdentityRotation))
		}
	}
}
