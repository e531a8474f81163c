package persist

import (
	"context"
	"fmt"

	"github.com/proctiler/tilestream/internal/data"
)

// PrototypeRow represents a row from tile_prototypes.
type PrototypeRow struct {
	ID      int32
	Name    string
	Exits   []string
	ExtentX float64
	ExtentZ float64
}

// DirectionEntryRow represents a row from tile_direction_entries.
type DirectionEntryRow struct {
	Direction string
	Position  int32
	Prototype string
	Weight    int32
}

// JunctionRow represents a row from tile_direction_junctions.
type JunctionRow struct {
	Direction string
	Prototype string
}

// CatalogRepo stores the tile catalog in Postgres. It is an alternative
// source for the same static configuration the YAML file carries.
type CatalogRepo struct {
	db *DB
}

func NewCatalogRepo(db *DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

// Load reads the whole catalog. Called at startup.
func (r *CatalogRepo) Load(ctx context.Context) (*data.CatalogDef, []data.Repair, error) {
	protoRows, err := r.db.Pool.Query(ctx,
		`SELECT prototype_id, name, exits, extent_x, extent_z
		 FROM tile_prototypes ORDER BY prototype_id`)
	if err != nil {
		return nil, nil, fmt.Errorf("query prototypes: %w", err)
	}
	defer protoRows.Close()

	var protos []PrototypeRow
	for protoRows.Next() {
		var p PrototypeRow
		if err := protoRows.Scan(&p.ID, &p.Name, &p.Exits, &p.ExtentX, &p.ExtentZ); err != nil {
			return nil, nil, err
		}
		protos = append(protos, p)
	}
	if err := protoRows.Err(); err != nil {
		return nil, nil, err
	}

	entryRows, err := r.db.Pool.Query(ctx,
		`SELECT direction, position, prototype, weight
		 FROM tile_direction_entries ORDER BY direction, position`)
	if err != nil {
		return nil, nil, fmt.Errorf("query direction entries: %w", err)
	}
	defer entryRows.Close()

	var entries []DirectionEntryRow
	for entryRows.Next() {
		var e DirectionEntryRow
		if err := entryRows.Scan(&e.Direction, &e.Position, &e.Prototype, &e.Weight); err != nil {
			return nil, nil, err
		}
		entries = append(entries, e)
	}
	if err := entryRows.Err(); err != nil {
		return nil, nil, err
	}

	junctionRows, err := r.db.Pool.Query(ctx,
		`SELECT direction, prototype FROM tile_direction_junctions`)
	if err != nil {
		return nil, nil, fmt.Errorf("query junctions: %w", err)
	}
	defer junctionRows.Close()

	var junctions []JunctionRow
	for junctionRows.Next() {
		var j JunctionRow
		if err := junctionRows.Scan(&j.Direction, &j.Prototype); err != nil {
			return nil, nil, err
		}
		junctions = append(junctions, j)
	}
	if err := junctionRows.Err(); err != nil {
		return nil, nil, err
	}

	def, err := CatalogFromRows(protos, entries, junctions)
	if err != nil {
		return nil, nil, err
	}
	return def, def.Normalize(), nil
}

// Replace swaps the stored catalog for def in a single transaction.
func (r *CatalogRepo) Replace(ctx context.Context, def *data.CatalogDef) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM tile_direction_junctions`); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM tile_direction_entries`); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM tile_prototypes`); err != nil {
		return err
	}

	for _, p := range def.Prototypes {
		exits := p.Exits
		if exits == nil {
			exits = []string{}
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO tile_prototypes (name, exits, extent_x, extent_z)
			 VALUES ($1, $2, $3, $4)`,
			p.Name, exits, p.Extent.X, p.Extent.Z); err != nil {
			return fmt.Errorf("insert prototype %s: %w", p.Name, err)
		}
	}

	entries, junctions := RowsFromCatalog(def)
	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO tile_direction_entries (direction, position, prototype, weight)
			 VALUES ($1, $2, $3, $4)`,
			e.Direction, e.Position, e.Prototype, e.Weight); err != nil {
			return fmt.Errorf("insert %s entry %d: %w", e.Direction, e.Position, err)
		}
	}
	for _, j := range junctions {
		if _, err := tx.Exec(ctx,
			`INSERT INTO tile_direction_junctions (direction, prototype) VALUES ($1, $2)`,
			j.Direction, j.Prototype); err != nil {
			return fmt.Errorf("insert %s junction: %w", j.Direction, err)
		}
	}

	return tx.Commit(ctx)
}

// CatalogFromRows assembles a catalog definition from table rows. Entry
// rows must be ordered by position within each direction.
func CatalogFromRows(protos []PrototypeRow, entries []DirectionEntryRow, junctions []JunctionRow) (*data.CatalogDef, error) {
	def := &data.CatalogDef{}
	for _, p := range protos {
		def.Prototypes = append(def.Prototypes, data.PrototypeDef{
			Name:   p.Name,
			Exits:  p.Exits,
			Extent: data.ExtentDef{X: p.ExtentX, Z: p.ExtentZ},
		})
	}
	for _, e := range entries {
		d := directionDef(def, e.Direction)
		if d == nil {
			return nil, fmt.Errorf("direction entry %d: unknown direction %q", e.Position, e.Direction)
		}
		d.Tiles = append(d.Tiles, e.Prototype)
		d.Weights = append(d.Weights, int(e.Weight))
	}
	for _, j := range junctions {
		d := directionDef(def, j.Direction)
		if d == nil {
			return nil, fmt.Errorf("junction: unknown direction %q", j.Direction)
		}
		d.Junction = j.Prototype
	}
	return def, nil
}

// RowsFromCatalog flattens the direction lists of def into table rows.
func RowsFromCatalog(def *data.CatalogDef) ([]DirectionEntryRow, []JunctionRow) {
	var entries []DirectionEntryRow
	var junctions []JunctionRow
	for i, name := range data.DirectionNames {
		d := def.Direction(i)
		for pos, tile := range d.Tiles {
			w := 0
			if pos < len(d.Weights) {
				w = d.Weights[pos]
			}
			entries = append(entries, DirectionEntryRow{
				Direction: name,
				Position:  int32(pos),
				Prototype: tile,
				Weight:    int32(w),
			})
		}
		if d.Junction != "" {
			junctions = append(junctions, JunctionRow{Direction: name, Prototype: d.Junction})
		}
	}
	return entries, junctions
}

func directionDef(def *data.CatalogDef, name string) *data.DirectionDef {
	for i, n := range data.DirectionNames {
		if n == name {
			return def.Direction(i)
		}
	}
	return nil
}
