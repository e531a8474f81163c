package world

import "math"

// Vec3 is a world-space position. Tiles live on the XZ ground plane; Y is
// carried through untouched.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Dist is the Euclidean distance between v and o.
func (v Vec3) Dist(o Vec3) float64 {
	d := v.Sub(o)
	return math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
}

// Cell returns the grid cell containing v for a grid of the given step.
func (v Vec3) Cell(step float64) Cell {
	return Cell{
		X: int32(math.Round(v.X / step)),
		Z: int32(math.Round(v.Z / step)),
	}
}

// Cell is an integer grid coordinate on the ground plane.
type Cell struct {
	X, Z int32
}

func (c Cell) Add(o Cell) Cell { return Cell{c.X + o.X, c.Z + o.Z} }

// Pos returns the world position of the cell centre. Computing positions
// from cells keeps every tile an exact multiple of step from the origin.
func (c Cell) Pos(step float64) Vec3 {
	return Vec3{X: float64(c.X) * step, Z: float64(c.Z) * step}
}

// Extent is a size on the ground plane. Depending on context it is a full
// footprint (prototypes) or a half-extent (occupancy probes).
type Extent struct {
	X, Z float64
}

// Rotation is a unit quaternion.
type Rotation struct {
	W, X, Y, Z float64
}

var IdentityRotation = Rotation{W: 1}
