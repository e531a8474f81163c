package world

import (
	"fmt"
	"math/rand"

	"github.com/proctiler/tilestream/internal/data"
)

// weightedTable repeats each prototype weight times, so a uniform index
// draw picks prototypes in proportion to their weight.
type weightedTable []*Prototype

func newWeightedTable(tiles []*Prototype, weights []int) weightedTable {
	total := 0
	for _, w := range weights {
		total += w
	}
	t := make(weightedTable, 0, total)
	for i, p := range tiles {
		for j := 0; j < weights[i]; j++ {
			t = append(t, p)
		}
	}
	return t
}

// pick returns nil for an empty table.
func (t weightedTable) pick(rng *rand.Rand) *Prototype {
	if len(t) == 0 {
		return nil
	}
	return t[rng.Intn(len(t))]
}

// DirectionCatalog holds the spawn choices across one exit direction.
type DirectionCatalog struct {
	Tiles    []*Prototype
	Weights  []int
	Junction *Prototype
	table    weightedTable
}

// Catalog is the immutable, validated form of a data.CatalogDef. Weighted
// tables are built once here; a configuration change means building a new
// Catalog and handing it to Streamer.SetCatalog.
type Catalog struct {
	step        float64
	prototypes  []*Prototype
	byName      map[string]*Prototype
	dirs        [4]DirectionCatalog
	fingerprint string
	ids         map[string]PrototypeID // every name ever assigned an ID
	nextID      PrototypeID
}

// BuildCatalog resolves names, assigns prototype IDs and validates that every
// exit any prototype declares can actually be filled. prev may be nil; when
// given, a name keeps the ID it was first given in any earlier catalog of
// the chain so pooled tiles stay reachable across reloads, and the exits of
// prev's prototypes must be fillable too, since active tiles keep those
// prototypes until they are recycled.
func BuildCatalog(def *data.CatalogDef, step float64, prev *Catalog) (*Catalog, error) {
	c := &Catalog{
		step:   step,
		byName: make(map[string]*Prototype, len(def.Prototypes)),
		ids:    make(map[string]PrototypeID, len(def.Prototypes)),
		nextID: 1,
	}
	if prev != nil {
		c.nextID = prev.nextID
		for name, id := range prev.ids {
			c.ids[name] = id
		}
	}

	for _, pd := range def.Prototypes {
		if _, dup := c.byName[pd.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePrototype, pd.Name)
		}
		var exits DirSet
		for _, e := range pd.Exits {
			d, err := ParseDirection(e)
			if err != nil {
				return nil, fmt.Errorf("prototype %q: %w", pd.Name, err)
			}
			exits |= NewDirSet(d)
		}
		ext := Extent{X: pd.Extent.X, Z: pd.Extent.Z}
		if ext.X <= 0 {
			ext.X = step
		}
		if ext.Z <= 0 {
			ext.Z = step
		}
		p := &Prototype{Name: pd.Name, Extent: ext, Exits: exits}
		if id, ok := c.ids[pd.Name]; ok {
			p.ID = id
		} else {
			p.ID = c.nextID
			c.ids[pd.Name] = p.ID
			c.nextID++
		}
		c.prototypes = append(c.prototypes, p)
		c.byName[p.Name] = p
	}

	for i, d := range Directions {
		dd := def.Direction(i)
		dc := &c.dirs[d]
		for _, name := range dd.Tiles {
			p, ok := c.byName[name]
			if !ok {
				return nil, fmt.Errorf("%s catalog: %w: %q", d, ErrUnknownPrototype, name)
			}
			dc.Tiles = append(dc.Tiles, p)
		}
		dc.Weights = append([]int(nil), dd.Weights...)
		if len(dc.Weights) != len(dc.Tiles) {
			return nil, fmt.Errorf("%s catalog: %d weights for %d tiles (catalog not normalized)", d, len(dc.Weights), len(dc.Tiles))
		}
		switch {
		case dd.Junction != "":
			p, ok := c.byName[dd.Junction]
			if !ok {
				return nil, fmt.Errorf("%s junction: %w: %q", d, ErrUnknownPrototype, dd.Junction)
			}
			dc.Junction = p
		case len(dc.Tiles) > 0:
			dc.Junction = dc.Tiles[0]
		}
		dc.table = newWeightedTable(dc.Tiles, dc.Weights)
	}

	if len(c.dirs[Forward].Tiles) == 0 {
		return nil, ErrNoSeed
	}
	for _, p := range c.prototypes {
		if err := c.canFill(p); err != nil {
			return nil, err
		}
	}
	if prev != nil {
		for _, p := range prev.prototypes {
			if err := c.canFill(p); err != nil {
				return nil, fmt.Errorf("live %w", err)
			}
		}
	}

	fp, err := def.Fingerprint()
	if err != nil {
		return nil, err
	}
	c.fingerprint = fp
	return c, nil
}

// canFill checks that every exit p declares has something to spawn.
func (c *Catalog) canFill(p *Prototype) error {
	for _, d := range Directions {
		if !p.Exits.Has(d) {
			continue
		}
		if p.Exits.Only(d) && len(c.dirs[d].table) == 0 {
			return fmt.Errorf("prototype %q opens %s: %w", p.Name, d, ErrEmptyTable)
		}
		if !p.Exits.Only(d) && c.dirs[d].Junction == nil {
			return fmt.Errorf("prototype %q opens %s: %w", p.Name, d, ErrNoJunction)
		}
	}
	return nil
}

// Lookup returns the prototype with the given name, or nil. Safe on a nil
// Catalog.
func (c *Catalog) Lookup(name string) *Prototype {
	if c == nil {
		return nil
	}
	return c.byName[name]
}

// Seed returns the prototype placed at the origin before the first tick.
func (c *Catalog) Seed() *Prototype { return c.dirs[Forward].Tiles[0] }

// Direction returns the catalog for d.
func (c *Catalog) Direction(d Direction) *DirectionCatalog { return &c.dirs[d] }

// Pick chooses the prototype to spawn across exit d. Tiles with more than
// one exit always get d's junction prototype so junctions compose the same
// way every time. Returns nil when d has nothing to offer.
func (c *Catalog) Pick(d Direction, junction bool, rng *rand.Rand) *Prototype {
	dc := &c.dirs[d]
	if junction {
		return dc.Junction
	}
	return dc.table.pick(rng)
}

func (c *Catalog) Prototypes() []*Prototype { return c.prototypes }
func (c *Catalog) Count() int               { return len(c.prototypes) }
func (c *Catalog) Fingerprint() string      { return c.fingerprint }
func (c *Catalog) Step() float64            { return c.step }
