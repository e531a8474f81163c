// catalogconv validates a tile_catalog.yaml and writes it to the catalog
// tables, replacing whatever was stored before.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/proctiler/tilestream/internal/config"
	"github.com/proctiler/tilestream/internal/data"
	"github.com/proctiler/tilestream/internal/persist"
	"github.com/proctiler/tilestream/internal/world"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: catalogconv <tile_catalog.yaml> [config.toml]")
		os.Exit(1)
	}
	cfgPath := "config/tilestream.toml"
	if len(os.Args) > 2 {
		cfgPath = os.Args[2]
	} else if p := os.Getenv("TILESTREAM_CONFIG"); p != "" {
		cfgPath = p
	}

	if err := run(os.Args[1], cfgPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(catalogPath, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("%s: database.dsn is empty", cfgPath)
	}

	def, repairs, err := data.LoadCatalog(catalogPath)
	if err != nil {
		return err
	}
	for _, r := range repairs {
		fmt.Printf("repaired %s\n", r)
	}
	// Reject anything the streamer would refuse at startup.
	if _, err := world.BuildCatalog(def, cfg.Stream.TileSize, nil); err != nil {
		return fmt.Errorf("%s: %w", catalogPath, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.Open(ctx, cfg.Database, zap.NewNop())
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	if _, err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if err := persist.NewCatalogRepo(db).Replace(ctx, def); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}

	entries, junctions := persist.RowsFromCatalog(def)
	fmt.Printf("Wrote %d prototypes, %d direction entries and %d junctions from %s\n",
		def.Count(), len(entries), len(junctions), catalogPath)
	return nil
}
