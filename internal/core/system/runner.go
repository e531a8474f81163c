package system

import (
	"sort"
	"time"
)

// Timing summarizes how long ticks take to run.
type Timing struct {
	Last     time.Duration // most recent tick
	Max      time.Duration // slowest tick so far
	Overruns uint64        // ticks that took longer than their dt
}

// Runner executes systems in phase order each tick. Systems sharing a phase
// keep their registration order.
type Runner struct {
	systems []System
	sorted  bool
	ticks   uint64
	timing  Timing
	now     func() time.Time
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 8),
		now:     time.Now,
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Tick runs one full cycle to completion.
func (r *Runner) Tick(dt time.Duration) {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}

	start := r.now()
	for _, s := range r.systems {
		s.Update(dt)
	}
	r.ticks++

	took := r.now().Sub(start)
	r.timing.Last = took
	if took > r.timing.Max {
		r.timing.Max = took
	}
	if dt > 0 && took > dt {
		r.timing.Overruns++
	}
}

// Ticks returns the number of completed ticks.
func (r *Runner) Ticks() uint64 { return r.ticks }

func (r *Runner) Timing() Timing { return r.timing }
