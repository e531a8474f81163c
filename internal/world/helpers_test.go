package world

import (
	"math/rand"
	"testing"

	"go.uber.org/zap"

	"github.com/proctiler/tilestream/internal/core/ecs"
	"github.com/proctiler/tilestream/internal/data"
)

const testStep = 5.0

// occupancyBackend is what the streamer needs from an occupancy index in tests.
type occupancyBackend interface {
	Occupancy
	Lifecycle
	Len() int
}

type fixture struct {
	world    *ecs.World
	pool     *TilePool
	occ      occupancyBackend
	catalog  *Catalog
	streamer *Streamer
}

var backends = []struct {
	name string
	new  func() occupancyBackend
}{
	{"physics", func() occupancyBackend { return NewPhysicsSpace() }},
	{"grid", func() occupancyBackend { return NewCellIndex(testStep) }},
}

func mustCatalog(t *testing.T, doc string) *Catalog {
	t.Helper()
	def, _, err := data.ParseCatalog([]byte(doc))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	c, err := BuildCatalog(def, testStep, nil)
	if err != nil {
		t.Fatalf("BuildCatalog: %v", err)
	}
	return c
}

func newFixture(t *testing.T, doc string, occ occupancyBackend, radius float64, seed int64) *fixture {
	t.Helper()
	w := ecs.NewWorld()
	pool := NewTilePool(w, zap.NewNop(), occ)
	cat := mustCatalog(t, doc)
	s := NewStreamer(StreamOptions{
		Radius:         radius,
		TileSize:       testStep,
		OccupancyRatio: 1.0 / 3.0,
	}, cat, pool, occ, rand.New(rand.NewSource(seed)), zap.NewNop())
	return &fixture{world: w, pool: pool, occ: occ, catalog: cat, streamer: s}
}

// corridorCatalog is a small but complete catalog: dead ends, straights,
// corners and a cross.
const corridorCatalog = `
prototypes:
  - name: end_n
    exits: [forward]
  - name: end_s
    exits: [back]
  - name: end_w
    exits: [left]
  - name: end_e
    exits: [right]
  - name: straight_ns
    exits: [forward, back]
  - name: straight_we
    exits: [left, right]
  - name: corner_ne
    exits: [forward, right]
  - name: cross
    exits: [forward, back, left, right]
  - name: cap
    exits: []
directions:
  forward:
    tiles: [end_n, straight_ns, cross, cap]
    weights: [4, 3, 1, 1]
    junction: straight_ns
  back:
    tiles: [end_s, straight_ns, cap]
    weights: [2, 2, 1]
    junction: straight_ns
  left:
    tiles: [end_w, straight_we, cap]
    weights: [2, 2, 1]
    junction: straight_we
  right:
    tiles: [end_e, straight_we, cross]
    weights: [2, 2, 1]
    junction: straight_we
`
