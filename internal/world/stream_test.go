package world

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/proctiler/tilestream/internal/data"
)

const seedScenarioCatalog = `
prototypes:
  - name: end_n
    exits: [forward]
directions:
  forward:
    tiles: [end_n]
    weights: [1]
`

func TestSeedAndFirstExpansion(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			f := newFixture(t, seedScenarioCatalog, b.new(), 10, 1)
			seed, err := f.streamer.Seed()
			if err != nil {
				t.Fatalf("Seed: %v", err)
			}
			if seed.Pos != (Vec3{}) || seed.Rot != IdentityRotation {
				t.Fatalf("seed at %+v rot %+v", seed.Pos, seed.Rot)
			}
			if _, err := f.streamer.Seed(); !errors.Is(err, ErrAlreadySeeded) {
				t.Fatalf("second Seed() = %v, want ErrAlreadySeeded", err)
			}

			res := f.streamer.Tick(Vec3{})
			if len(res.Evicted) != 0 {
				t.Fatalf("evicted %d tiles on the first tick", len(res.Evicted))
			}
			if len(res.Spawned) != 1 {
				t.Fatalf("spawned %d tiles, want 1", len(res.Spawned))
			}
			active := f.streamer.Active()
			if len(active) != 2 || active[0] != seed {
				t.Fatalf("active set = %d tiles, want seed plus one", len(active))
			}
			got := active[1]
			if got.Pos != (Vec3{Z: 5}) {
				t.Fatalf("new tile at %+v, want (0,0,5)", got.Pos)
			}
			if got.Proto.Name != "end_n" {
				t.Fatalf("new tile prototype %s not from the forward catalog", got.Proto.Name)
			}
		})
	}
}

func TestEvictionReturnsTilesToPool(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			f := newFixture(t, seedScenarioCatalog, b.new(), 10, 1)
			if _, err := f.streamer.Seed(); err != nil {
				t.Fatal(err)
			}
			f.streamer.Tick(Vec3{})

			res := f.streamer.Tick(Vec3{X: 100, Z: 100})
			if len(res.Evicted) != 2 {
				t.Fatalf("evicted %d tiles, want 2", len(res.Evicted))
			}
			if res.Evicted[0].Pos != (Vec3{}) || res.Evicted[1].Pos != (Vec3{Z: 5}) {
				t.Fatalf("eviction order/positions wrong: %+v", res.Evicted)
			}
			if f.streamer.Len() != 0 {
				t.Fatalf("active set has %d tiles, want 0", f.streamer.Len())
			}
			end := f.catalog.Lookup("end_n")
			if got := f.pool.Idle(end.ID); got != 2 {
				t.Fatalf("pool holds %d idle end_n tiles, want 2", got)
			}
			if f.occ.Len() != 0 {
				t.Fatalf("evicted tiles still occupy space")
			}

			// Coming back reuses pooled tiles instead of creating new ones.
			f.streamer = NewStreamer(f.streamer.opts, f.catalog, f.pool, f.occ, rand.New(rand.NewSource(2)), f.streamer.log)
			if _, err := f.streamer.Seed(); err != nil {
				t.Fatal(err)
			}
			created := f.pool.Stats().Created
			f.streamer.Tick(Vec3{})
			if f.pool.Stats().Created != created {
				t.Fatalf("expansion created a tile while the queue had idle ones")
			}
		})
	}
}

func TestJunctionDeterminism(t *testing.T) {
	doc := `
prototypes:
  - name: probe
    exits: []
  - name: end_n
    exits: [forward]
  - name: end_s
    exits: [back]
  - name: end_w
    exits: [left]
  - name: end_e
    exits: [right]
  - name: j_fwd
    exits: []
  - name: j_back
    exits: []
  - name: j_left
    exits: []
  - name: j_right
    exits: []
directions:
  forward:
    tiles: [probe, end_n]
    weights: [0, 1]
    junction: j_fwd
  back:
    tiles: [end_s]
    weights: [1]
    junction: j_back
  left:
    tiles: [end_w]
    weights: [1]
    junction: j_left
  right:
    tiles: [end_e]
    weights: [1]
    junction: j_right
`
	junctions := map[Direction]string{Forward: "j_fwd", Back: "j_back", Left: "j_left", Right: "j_right"}

	for mask := DirSet(0); mask < 16; mask++ {
		if mask.Len() < 2 {
			continue
		}
		for _, b := range backends {
			t.Run(mask.String()+"/"+b.name, func(t *testing.T) {
				f := newFixture(t, doc, b.new(), 10, int64(mask))
				seed, err := f.streamer.Seed()
				if err != nil {
					t.Fatal(err)
				}
				// Give the seed the exits under test.
				seed.Proto = &Prototype{ID: 99, Name: "junction_seed", Extent: seed.Proto.Extent, Exits: mask}

				res := f.streamer.Tick(Vec3{})
				if len(res.Spawned) != mask.Len() {
					t.Fatalf("spawned %d tiles, want %d", len(res.Spawned), mask.Len())
				}
				for _, tile := range res.Spawned {
					d := directionOf(t, tile.Pos)
					if !mask.Has(d) {
						t.Fatalf("spawned across closed exit %s", d)
					}
					if tile.Proto.Name != junctions[d] {
						t.Fatalf("%s neighbour is %s, want junction %s", d, tile.Proto.Name, junctions[d])
					}
				}
			})
		}
	}
}

func TestSingleExitUsesWeightedCatalog(t *testing.T) {
	f := newFixture(t, corridorCatalog, NewCellIndex(testStep), 10, 5)
	if _, err := f.streamer.Seed(); err != nil {
		t.Fatal(err)
	}
	res := f.streamer.Tick(Vec3{})
	if len(res.Spawned) != 1 {
		t.Fatalf("spawned %d, want 1", len(res.Spawned))
	}
	name := res.Spawned[0].Proto.Name
	found := false
	for _, p := range f.catalog.Direction(Forward).Tiles {
		if p.Name == name {
			found = true
		}
	}
	if !found {
		t.Fatalf("spawned %s, not in the forward catalog", name)
	}
}

func TestStreamingInvariantsUnderRandomWalk(t *testing.T) {
	const radius = 22.0
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			f := newFixture(t, corridorCatalog, b.new(), radius, 11)
			if _, err := f.streamer.Seed(); err != nil {
				t.Fatal(err)
			}
			rng := rand.New(rand.NewSource(99))
			observer := Vec3{}
			for tick := 0; tick < 600; tick++ {
				observer.X += (rng.Float64() - 0.5) * 4
				observer.Z += (rng.Float64() - 0.3) * 4
				f.streamer.Tick(observer)

				seen := make(map[Cell]bool)
				for _, tile := range f.streamer.Active() {
					if !tile.Active {
						t.Fatalf("tick %d: inactive tile in the active set", tick)
					}
					if d := tile.Pos.Dist(observer); d > radius+testStep {
						t.Fatalf("tick %d: tile %.1f away, radius %.1f", tick, d, radius)
					}
					c := tile.Pos.Cell(testStep)
					if c.Pos(testStep) != tile.Pos {
						t.Fatalf("tick %d: tile off grid at %+v", tick, tile.Pos)
					}
					if seen[c] {
						t.Fatalf("tick %d: two active tiles in cell %+v", tick, c)
					}
					seen[c] = true
				}

				st := f.pool.Stats()
				live := st.Created - st.Destroyed
				if live != f.streamer.Len()+st.Idle {
					t.Fatalf("tick %d: %d live tiles but %d active + %d idle", tick, live, f.streamer.Len(), st.Idle)
				}
				f.world.FlushDestroyQueue()
			}
		})
	}
}

func TestSetCatalogAffectsNewSpawnsOnly(t *testing.T) {
	f := newFixture(t, seedScenarioCatalog, NewCellIndex(testStep), 10, 1)
	if _, err := f.streamer.Seed(); err != nil {
		t.Fatal(err)
	}
	f.streamer.Tick(Vec3{})

	next := mustCatalog(t, `
prototypes:
  - name: end_n
    exits: [forward]
  - name: cap
    exits: []
directions:
  forward:
    tiles: [end_n, cap]
    weights: [0, 1]
`)
	f.streamer.SetCatalog(next)
	res := f.streamer.Tick(Vec3{Z: 5})
	if len(res.Spawned) != 1 || res.Spawned[0].Proto.Name != "cap" {
		t.Fatalf("expected a single cap spawn from the new catalog, got %d", len(res.Spawned))
	}
	if f.streamer.Active()[0].Proto.Name != "end_n" {
		t.Fatalf("existing tiles must keep their prototype")
	}
}

func directionOf(t *testing.T, pos Vec3) Direction {
	t.Helper()
	c := pos.Cell(testStep)
	for _, d := range Directions {
		if d.Delta() == c {
			return d
		}
	}
	t.Fatalf("tile at %+v is not adjacent to the origin", pos)
	return 0
}

// crossCatalog seeds a cross, so every neighbour of the seed is a cross too.
const crossCatalog = `
prototypes:
  - name: cross
    exits: [forward, back, left, right]
  - name: end_n
    exits: [forward]
directions:
  forward:
    tiles: [cross, end_n]
    weights: [1, 1]
  back:
    tiles: [cross]
    weights: [1]
  left:
    tiles: [cross]
    weights: [1]
  right:
    tiles: [cross]
    weights: [1]
`

const forwardOnlyCatalog = `
prototypes:
  - name: end_n
    exits: [forward]
directions:
  forward:
    tiles: [end_n]
    weights: [1]
`

func TestReloadMustFillLiveExits(t *testing.T) {
	f := newFixture(t, crossCatalog, NewCellIndex(testStep), 30, 5)
	if _, err := f.streamer.Seed(); err != nil {
		t.Fatal(err)
	}
	f.streamer.Tick(Vec3{})

	def, _, err := data.ParseCatalog([]byte(forwardOnlyCatalog))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := BuildCatalog(def, testStep, f.catalog); !errors.Is(err, ErrNoJunction) {
		t.Fatalf("BuildCatalog over the cross catalog = %v, want ErrNoJunction", err)
	}
	// On its own the same catalog is fine.
	if _, err := BuildCatalog(def, testStep, nil); err != nil {
		t.Fatalf("BuildCatalog without a previous catalog: %v", err)
	}
}

func TestTickSkipsExitsTheCatalogCannotFill(t *testing.T) {
	f := newFixture(t, crossCatalog, NewCellIndex(testStep), 30, 5)
	if _, err := f.streamer.Seed(); err != nil {
		t.Fatal(err)
	}
	f.streamer.Tick(Vec3{})
	before := f.streamer.Len()

	// Installed directly, the way a chain of reloads could leave it: the
	// active crosses open back, left and right, which it cannot fill.
	f.streamer.SetCatalog(mustCatalog(t, forwardOnlyCatalog))
	for i := 0; i < 10; i++ {
		res := f.streamer.Tick(Vec3{})
		for _, tile := range res.Spawned {
			if tile.Proto.Name != "end_n" {
				t.Fatalf("tick %d spawned %s, not in the installed catalog", i, tile.Proto.Name)
			}
		}
	}
	if f.streamer.Len() < before {
		t.Fatalf("active set shrank from %d to %d with a stationary observer", before, f.streamer.Len())
	}
}
