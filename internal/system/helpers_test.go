package system

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/proctiler/tilestream/internal/core/ecs"
	"github.com/proctiler/tilestream/internal/data"
	"github.com/proctiler/tilestream/internal/world"
)

const testStep = 5.0

// corridor runs north-south only: every tile has a forward and a back exit.
const corridor = `
prototypes:
  - name: straight_ns
    exits: [forward, back]
directions:
  forward:
    tiles: [straight_ns]
    weights: [1]
  back:
    tiles: [straight_ns]
    weights: [1]
`

type rig struct {
	world    *ecs.World
	pool     *world.TilePool
	streamer *world.Streamer
}

func newRig(t *testing.T, doc string, radius float64) *rig {
	t.Helper()
	def, _, err := data.ParseCatalog([]byte(doc))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	cat, err := world.BuildCatalog(def, testStep, nil)
	if err != nil {
		t.Fatalf("BuildCatalog: %v", err)
	}
	w := ecs.NewWorld()
	occ := world.NewCellIndex(testStep)
	pool := world.NewTilePool(w, zap.NewNop(), occ)
	s := world.NewStreamer(world.StreamOptions{
		Radius:         radius,
		TileSize:       testStep,
		OccupancyRatio: 1.0 / 3.0,
	}, cat, pool, occ, rand.New(rand.NewSource(1)), zap.NewNop())
	if _, err := s.Seed(); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return &rig{world: w, pool: pool, streamer: s}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// scriptedSource replays a fixed list of positions; ticks past the end
// report no position.
type scriptedSource struct {
	positions []world.Vec3
	calls     []uint64
}

func (s *scriptedSource) ObserverPosition(tick uint64) (float64, float64, float64, bool) {
	s.calls = append(s.calls, tick)
	i := int(tick) - 1
	if i < 0 || i >= len(s.positions) {
		return 0, 0, 0, false
	}
	p := s.positions[i]
	return p.X, p.Y, p.Z, true
}

// fixedObserver always reports the same position.
type fixedObserver struct{ pos world.Vec3 }

func (o *fixedObserver) Position() world.Vec3 { return o.pos }
