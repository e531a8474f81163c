package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/proctiler/tilestream/internal/core/event"
	coresys "github.com/proctiler/tilestream/internal/core/system"
	"github.com/proctiler/tilestream/internal/world"
)

// Observer is anything that knows where the observer currently is.
type Observer interface {
	Position() world.Vec3
}

// StreamSystem runs one streamer tick per game tick and publishes the
// resulting spawns and evictions on the bus. Phase 2 (Update).
type StreamSystem struct {
	streamer *world.Streamer
	observer Observer
	bus      *event.Bus
	log      *zap.Logger
	last     world.TickResult
}

func NewStreamSystem(s *world.Streamer, obs Observer, bus *event.Bus, log *zap.Logger) *StreamSystem {
	return &StreamSystem{streamer: s, observer: obs, bus: bus, log: log}
}

func (s *StreamSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *StreamSystem) Update(_ time.Duration) {
	res := s.streamer.Tick(s.observer.Position())
	s.last = res

	for _, ev := range res.Evicted {
		event.Emit(s.bus, event.TileEvicted{
			EntityID:  ev.ID,
			Prototype: ev.Proto.Name,
			X:         ev.Pos.X,
			Y:         ev.Pos.Y,
			Z:         ev.Pos.Z,
			Tick:      res.Tick,
		})
	}
	for _, t := range res.Spawned {
		event.Emit(s.bus, event.TileSpawned{
			EntityID:  t.ID,
			Prototype: t.Proto.Name,
			X:         t.Pos.X,
			Y:         t.Pos.Y,
			Z:         t.Pos.Z,
			Tick:      res.Tick,
		})
	}

	if len(res.Evicted) > 0 || len(res.Spawned) > 0 {
		s.log.Debug("stream tick",
			zap.Uint64("tick", res.Tick),
			zap.Int("evicted", len(res.Evicted)),
			zap.Int("spawned", len(res.Spawned)),
			zap.Int("active", s.streamer.Len()),
		)
	}
}

// Last returns the result of the most recent tick. Its slices are only
// valid until the next Update.
func (s *StreamSystem) Last() world.TickResult { return s.last }
