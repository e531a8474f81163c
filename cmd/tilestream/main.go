package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/proctiler/tilestream/internal/config"
	"github.com/proctiler/tilestream/internal/core/ecs"
	"github.com/proctiler/tilestream/internal/core/event"
	coresys "github.com/proctiler/tilestream/internal/core/system"
	"github.com/proctiler/tilestream/internal/data"
	"github.com/proctiler/tilestream/internal/persist"
	"github.com/proctiler/tilestream/internal/scripting"
	"github.com/proctiler/tilestream/internal/system"
	"github.com/proctiler/tilestream/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// occupancyIndex is what the pool and streamer need from either backend.
type occupancyIndex interface {
	world.Occupancy
	world.Lifecycle
	Len() int
}

// stillObserver keeps the observer at the origin when no script is set.
type stillObserver struct{}

func (stillObserver) ObserverPosition(uint64) (float64, float64, float64, bool) {
	return 0, 0, 0, true
}

func run() error {
	// 1. Load config
	cfgPath := "config/tilestream.toml"
	if p := os.Getenv("TILESTREAM_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	seed := cfg.Stream.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	printBanner(cfg.Occupancy.Mode, seed)

	// 3. Load the tile catalog
	printSection("catalog")
	def, repairs, err := loadCatalogDef(cfg, log)
	if err != nil {
		return err
	}
	for _, r := range repairs {
		log.Warn("catalog repaired", zap.String("direction", r.Direction), zap.String("repair", r.Message))
	}
	catalog, err := world.BuildCatalog(def, cfg.Stream.TileSize, nil)
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}
	printStat("prototypes", catalog.Count())
	for _, d := range world.Directions {
		printStat(d.String()+" entries", len(catalog.Direction(d).Tiles))
	}
	printOK("fingerprint " + catalog.Fingerprint())
	fmt.Println()

	// 4. World, pool and streamer
	ecsWorld := ecs.NewWorld()
	var occ occupancyIndex
	switch cfg.Occupancy.Mode {
	case config.OccupancyGrid:
		occ = world.NewCellIndex(cfg.Stream.TileSize)
	default:
		occ = world.NewPhysicsSpace()
	}
	pool := world.NewTilePool(ecsWorld, log, occ)
	streamer := world.NewStreamer(world.StreamOptions{
		Radius:         cfg.Stream.Radius,
		TileSize:       cfg.Stream.TileSize,
		OccupancyRatio: cfg.Stream.OccupancyRatio,
	}, catalog, pool, occ, rand.New(rand.NewSource(seed)), log)
	seedTile, err := streamer.Seed()
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	log.Info("seed placed", zap.String("prototype", seedTile.Proto.Name))

	// 5. Observer script
	printSection("observer")
	var src system.PositionSource = stillObserver{}
	if cfg.Observer.Script != "" {
		engine, err := scripting.NewEngine(cfg.Observer.Script, log)
		if err != nil {
			return fmt.Errorf("observer script: %w", err)
		}
		defer engine.Close()
		engine.SetNumber("RADIUS", cfg.Stream.Radius)
		engine.SetNumber("TILE_SIZE", cfg.Stream.TileSize)
		src = engine
		printOK("script " + cfg.Observer.Script)
	} else {
		printOK("stationary at origin")
	}
	fmt.Println()

	// 6. Events
	bus := event.NewBus()
	spawnEvents, evictEvents, reloads := 0, 0, 0
	event.Subscribe(bus, func(event.TileSpawned) { spawnEvents++ })
	event.Subscribe(bus, func(event.TileEvicted) { evictEvents++ })
	event.Subscribe(bus, func(ev event.CatalogReloaded) {
		reloads++
		log.Debug("catalog reload delivered", zap.String("fingerprint", ev.Fingerprint))
	})

	// 7. Create systems and register with runner
	runner := coresys.NewRunner()
	observerSys := system.NewObserverSystem(src, world.Vec3{}, log)
	statsSys := system.NewStatsSystem(ecsWorld, streamer, pool, runner, log, cfg.Stream.StatsInterval)
	runner.Register(observerSys)
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewStreamSystem(streamer, observerSys, bus, log))
	runner.Register(statsSys)
	runner.Register(system.NewCleanupSystem(ecsWorld, log))

	if cfg.Catalog.Watch && cfg.Catalog.Source == config.SourceYAML {
		watcher, err := data.NewWatcher(cfg.Catalog.Path)
		if err != nil {
			return fmt.Errorf("watch catalog: %w", err)
		}
		defer watcher.Close()
		runner.Register(system.NewCatalogSystem(streamer, watcher.Events, watcher.Errors, bus, log))
	}

	// 8. Start the tick loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Stream.TickRate.Duration)
	defer ticker.Stop()

	printSection("ready")
	printReady(fmt.Sprintf("radius %.1f, tile size %.1f", cfg.Stream.Radius, cfg.Stream.TileSize))
	printReady(fmt.Sprintf("tick loop started (tick: %s)", cfg.Stream.TickRate.Duration))
	fmt.Println()

	finish := func() {
		statsSys.Log("final stats")
		printSection("summary")
		printStat("ticks", int(runner.Ticks()))
		printStat("active tiles", streamer.Len())
		printStat("spawn events", spawnEvents)
		printStat("evict events", evictEvents)
		printStat("catalog reloads", reloads)
		printStat("tick overruns", int(runner.Timing().Overruns))
		fmt.Println()
	}

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Stream.TickRate.Duration)
			if cfg.Stream.MaxTicks > 0 && runner.Ticks() >= cfg.Stream.MaxTicks {
				log.Info("tick limit reached", zap.Uint64("ticks", runner.Ticks()))
				finish()
				return nil
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			finish()
			log.Info("stopped")
			return nil
		}
	}
}

// loadCatalogDef reads the catalog from the configured source.
func loadCatalogDef(cfg *config.Config, log *zap.Logger) (*data.CatalogDef, []data.Repair, error) {
	if cfg.Catalog.Source != config.SourceDatabase {
		def, repairs, err := data.LoadCatalog(cfg.Catalog.Path)
		if err != nil {
			return nil, nil, err
		}
		printOK("loaded " + cfg.Catalog.Path)
		return def, repairs, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.Open(ctx, cfg.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("PostgreSQL connected")

	version, err := db.Migrate(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	printOK(fmt.Sprintf("schema version %d", version))
	def, repairs, err := persist.NewCatalogRepo(db).Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}
	printOK("loaded catalog from database")
	return def, repairs, nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
