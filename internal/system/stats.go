package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/proctiler/tilestream/internal/core/ecs"
	coresys "github.com/proctiler/tilestream/internal/core/system"
	"github.com/proctiler/tilestream/internal/world"
)

// Snapshot is a point-in-time view of the streamer and its pool.
type Snapshot struct {
	Tick     uint64
	Active   int
	Entities int
	Pool     world.PoolStats
	Timing   coresys.Timing
}

// StatsSystem logs a stats line every interval ticks. Phase 3 (PostUpdate).
type StatsSystem struct {
	world    *ecs.World
	streamer *world.Streamer
	pool     *world.TilePool
	runner   *coresys.Runner
	log      *zap.Logger
	interval int
	ticks    uint64
}

// NewStatsSystem creates the stats system. runner may be nil, in which case
// tick timing is not reported.
func NewStatsSystem(w *ecs.World, s *world.Streamer, pool *world.TilePool, runner *coresys.Runner, log *zap.Logger, intervalTicks int) *StatsSystem {
	return &StatsSystem{world: w, streamer: s, pool: pool, runner: runner, log: log, interval: intervalTicks}
}

func (s *StatsSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *StatsSystem) Update(_ time.Duration) {
	s.ticks++
	if s.interval <= 0 || s.ticks%uint64(s.interval) != 0 {
		return
	}
	s.Log("stream stats")
}

// Snapshot collects the current counters.
func (s *StatsSystem) Snapshot() Snapshot {
	snap := Snapshot{
		Tick:     s.ticks,
		Active:   s.streamer.Len(),
		Entities: s.world.Pool().Live(),
		Pool:     s.pool.Stats(),
	}
	if s.runner != nil {
		snap.Timing = s.runner.Timing()
	}
	return snap
}

// Log writes the current counters under msg. Also used for the final line
// at shutdown.
func (s *StatsSystem) Log(msg string) {
	snap := s.Snapshot()
	s.log.Info(msg,
		zap.Uint64("tick", snap.Tick),
		zap.Int("active", snap.Active),
		zap.Int("idle", snap.Pool.Idle),
		zap.Int("entities", snap.Entities),
		zap.Int("created", snap.Pool.Created),
		zap.Int("reused", snap.Pool.Reused),
		zap.Int("released", snap.Pool.Released),
		zap.Int("destroyed", snap.Pool.Destroyed),
		zap.Duration("tick_max", snap.Timing.Max),
		zap.Uint64("overruns", snap.Timing.Overruns),
	)
}
