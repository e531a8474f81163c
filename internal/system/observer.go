package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/proctiler/tilestream/internal/core/system"
	"github.com/proctiler/tilestream/internal/world"
)

// PositionSource yields the observer position for a tick. ok=false means
// "no new position"; the last known one is kept.
type PositionSource interface {
	ObserverPosition(tick uint64) (x, y, z float64, ok bool)
}

// ObserverSystem advances the observer once per tick. Phase 0 (Input).
type ObserverSystem struct {
	src    PositionSource
	log    *zap.Logger
	pos    world.Vec3
	tick   uint64
	misses int
}

func NewObserverSystem(src PositionSource, start world.Vec3, log *zap.Logger) *ObserverSystem {
	return &ObserverSystem{src: src, pos: start, log: log}
}

func (s *ObserverSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *ObserverSystem) Update(_ time.Duration) {
	s.tick++
	x, y, z, ok := s.src.ObserverPosition(s.tick)
	if !ok {
		s.misses++
		if s.misses == 1 {
			s.log.Warn("observer source returned no position, holding last",
				zap.Uint64("tick", s.tick),
				zap.Float64("x", s.pos.X),
				zap.Float64("z", s.pos.Z),
			)
		}
		return
	}
	if s.misses > 0 {
		s.log.Info("observer source recovered", zap.Int("missed_ticks", s.misses))
		s.misses = 0
	}
	s.pos = world.Vec3{X: x, Y: y, Z: z}
}

// Position returns the current observer position.
func (s *ObserverSystem) Position() world.Vec3 { return s.pos }
