package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/proctiler/tilestream/internal/core/event"
	coresys "github.com/proctiler/tilestream/internal/core/system"
	"github.com/proctiler/tilestream/internal/data"
	"github.com/proctiler/tilestream/internal/world"
)

// CatalogSystem applies catalog file changes between ticks. A change whose
// content hashes the same as the live catalog is ignored; a change that
// fails to load or validate is logged and the live catalog stays.
// Phase 1 (PreUpdate).
type CatalogSystem struct {
	streamer *world.Streamer
	changes  <-chan string
	errs     <-chan error
	bus      *event.Bus
	log      *zap.Logger
}

func NewCatalogSystem(s *world.Streamer, changes <-chan string, errs <-chan error, bus *event.Bus, log *zap.Logger) *CatalogSystem {
	return &CatalogSystem{streamer: s, changes: changes, errs: errs, bus: bus, log: log}
}

func (s *CatalogSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *CatalogSystem) Update(_ time.Duration) {
	for drained := false; !drained; {
		select {
		case err := <-s.errs:
			s.log.Warn("catalog watcher error", zap.Error(err))
		default:
			drained = true
		}
	}

	path := ""
	for drained := false; !drained; {
		select {
		case p := <-s.changes:
			path = p
		default:
			drained = true
		}
	}
	if path != "" {
		s.Reload(path)
	}
}

// Reload loads path and, if it differs from the live catalog, swaps it in.
// It reports whether the catalog changed.
func (s *CatalogSystem) Reload(path string) bool {
	def, repairs, err := data.LoadCatalog(path)
	if err != nil {
		s.log.Error("catalog reload failed", zap.String("path", path), zap.Error(err))
		return false
	}
	for _, r := range repairs {
		s.log.Warn("catalog repaired", zap.String("direction", r.Direction), zap.String("repair", r.Message))
	}

	cur := s.streamer.Catalog()
	fp, err := def.Fingerprint()
	if err != nil {
		s.log.Error("catalog fingerprint failed", zap.Error(err))
		return false
	}
	if fp == cur.Fingerprint() {
		s.log.Debug("catalog unchanged", zap.String("fingerprint", fp))
		return false
	}

	next, err := world.BuildCatalog(def, cur.Step(), cur)
	if err != nil {
		s.log.Error("catalog rejected, keeping previous",
			zap.String("path", path),
			zap.String("fingerprint", cur.Fingerprint()),
			zap.Error(err),
		)
		return false
	}
	s.streamer.SetCatalog(next)
	event.Emit(s.bus, event.CatalogReloaded{Fingerprint: next.Fingerprint(), Prototypes: next.Count()})
	s.log.Info("catalog reloaded",
		zap.String("fingerprint", next.Fingerprint()),
		zap.Int("prototypes", next.Count()),
	)
	return true
}
