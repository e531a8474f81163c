package event

import "github.com/proctiler/tilestream/internal/core/ecs"

// TileSpawned is emitted when the streamer commits a new tile.
type TileSpawned struct {
	EntityID  ecs.EntityID
	Prototype string
	X, Y, Z   float64
	Tick      uint64
}

// TileEvicted is emitted when a tile falls out of the generation radius and
// goes back to the pool.
type TileEvicted struct {
	EntityID  ecs.EntityID
	Prototype string
	X, Y, Z   float64
	Tick      uint64
}

// CatalogReloaded is emitted after a new catalog was built and swapped in.
type CatalogReloaded struct {
	Fingerprint string
	Prototypes  int
}
