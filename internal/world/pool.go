package world

import (
	"go.uber.org/zap"
	"gopkg.in/eapache/queue.v1"

	"github.com/proctiler/tilestream/internal/core/ecs"
)

// Lifecycle is notified when a tile enters or leaves the simulation.
// Occupancy backends implement it to keep footprints in sync with the
// active state of each tile.
type Lifecycle interface {
	OnActivate(t *Tile)
	OnDeactivate(t *Tile)
}

// PoolStats counts pool traffic since startup.
type PoolStats struct {
	Created   int // tiles allocated (Acquire misses plus Place)
	Reused    int // Acquire calls served from a queue
	Released  int // tiles requeued
	Destroyed int // releases with no queue for the prototype
	Idle      int // tiles currently waiting in queues
}

// TilePool recycles tiles per prototype. Tiles are created through the ECS
// world so each gets a generational ID; a tile is either checked out
// (Active) or sits in exactly one queue.
//
// Accessed only from the game loop goroutine. Sharing one pool between
// several streamers on different goroutines would need a lock per
// prototype key.
type TilePool struct {
	world  *ecs.World
	tiles  *ecs.Store[Tile]
	queues map[PrototypeID]*queue.Queue
	hooks  []Lifecycle
	log    *zap.Logger
	stats  PoolStats
}

// NewTilePool creates a pool. Hooks that also implement ecs.Removable are
// registered with the world so destroyed tiles are purged from them.
func NewTilePool(w *ecs.World, log *zap.Logger, hooks ...Lifecycle) *TilePool {
	p := &TilePool{
		world:  w,
		tiles:  ecs.NewStore[Tile](),
		queues: make(map[PrototypeID]*queue.Queue),
		hooks:  hooks,
		log:    log,
	}
	w.Registry().Register(p.tiles)
	for _, h := range hooks {
		if r, ok := h.(ecs.Removable); ok {
			w.Registry().Register(r)
		}
	}
	return p
}

// Acquire returns an active tile of proto at pos. A queued tile is reused
// when one is available; otherwise a new tile is created and a queue is
// registered for proto so the tile can come back later.
func (p *TilePool) Acquire(proto *Prototype, pos Vec3, rot Rotation) *Tile {
	if proto == nil {
		panic("world: Acquire with nil prototype")
	}
	q, ok := p.queues[proto.ID]
	if !ok {
		q = queue.New()
		p.queues[proto.ID] = q
	}
	if q.Length() > 0 {
		t := q.Remove().(*Tile)
		t.Proto = proto
		t.Pos = pos
		t.Rot = rot
		p.stats.Reused++
		p.activate(t)
		return t
	}
	return p.create(proto, pos, rot)
}

// Place creates a tile without registering a queue for its prototype. Used
// for the seed tile, which is placed directly rather than acquired.
func (p *TilePool) Place(proto *Prototype, pos Vec3, rot Rotation) *Tile {
	if proto == nil {
		panic("world: Place with nil prototype")
	}
	return p.create(proto, pos, rot)
}

// Release takes a tile out of the simulation. If a queue exists for its
// prototype the tile is deactivated and queued; otherwise it was never
// acquired through this pool and is destroyed at the end of the tick.
func (p *TilePool) Release(t *Tile) {
	if t == nil {
		return
	}
	if !t.Active {
		p.log.Warn("tile released twice", zap.Uint64("entity", uint64(t.ID)), zap.String("prototype", t.Proto.Name))
		return
	}
	p.deactivate(t)
	q, ok := p.queues[t.Proto.ID]
	if !ok {
		p.log.Warn("pool miss on release, destroying tile",
			zap.Uint64("entity", uint64(t.ID)),
			zap.String("prototype", t.Proto.Name))
		p.world.MarkForDestruction(t.ID)
		p.stats.Destroyed++
		return
	}
	q.Add(t)
	p.stats.Released++
}

// Idle returns the number of queued tiles for proto.
func (p *TilePool) Idle(id PrototypeID) int {
	if q, ok := p.queues[id]; ok {
		return q.Length()
	}
	return 0
}

// HasQueue reports whether proto has been acquired through the pool.
func (p *TilePool) HasQueue(id PrototypeID) bool {
	_, ok := p.queues[id]
	return ok
}

// Tile returns the tile with the given entity ID, active or not.
func (p *TilePool) Tile(id ecs.EntityID) (*Tile, bool) {
	return p.tiles.Get(id)
}

func (p *TilePool) Stats() PoolStats {
	s := p.stats
	for _, q := range p.queues {
		s.Idle += q.Length()
	}
	return s
}

func (p *TilePool) create(proto *Prototype, pos Vec3, rot Rotation) *Tile {
	t := &Tile{
		ID:    p.world.CreateEntity(),
		Proto: proto,
		Pos:   pos,
		Rot:   rot,
	}
	p.tiles.Set(t.ID, t)
	p.stats.Created++
	p.activate(t)
	return t
}

func (p *TilePool) activate(t *Tile) {
	t.Active = true
	for _, h := range p.hooks {
		h.OnActivate(t)
	}
}

func (p *TilePool) deactivate(t *Tile) {
	t.Active = false
	for _, h := range p.hooks {
		h.OnDeactivate(t)
	}
}
