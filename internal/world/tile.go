package world

import "github.com/proctiler/tilestream/internal/core/ecs"

// PrototypeID is the pool key for a prototype. IDs are assigned when a
// catalog is built and survive catalog reloads for unchanged names.
type PrototypeID uint32

// Prototype is an immutable tile template.
type Prototype struct {
	ID     PrototypeID
	Name   string
	Extent Extent // full footprint on the ground plane
	Exits  DirSet
}

// Tile is a placed instance of a prototype. The pool owns every Tile it has
// created; the streamer only borrows the active ones.
type Tile struct {
	ID     ecs.EntityID
	Proto  *Prototype
	Pos    Vec3
	Rot    Rotation
	Active bool
}
