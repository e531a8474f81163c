package world

import (
	"github.com/jakecoffman/cp"

	"github.com/proctiler/tilestream/internal/core/ecs"
)

// PhysicsSpace backs occupancy with a Chipmunk space: each active tile is a
// static box on the XZ plane (world Z maps to the space's Y axis) and the
// occupancy probe is a bounding-box query. This mirrors a physics-engine
// overlap test, including its tolerance for touching boxes.
type PhysicsSpace struct {
	space  *cp.Space
	shapes map[ecs.EntityID]*cp.Shape
}

func NewPhysicsSpace() *PhysicsSpace {
	return &PhysicsSpace{
		space:  cp.NewSpace(),
		shapes: make(map[ecs.EntityID]*cp.Shape),
	}
}

func bbAround(center Vec3, half Extent) cp.BB {
	return cp.BB{
		L: center.X - half.X,
		B: center.Z - half.Z,
		R: center.X + half.X,
		T: center.Z + half.Z,
	}
}

// Occupied runs a bounding-box query against every registered footprint.
func (ps *PhysicsSpace) Occupied(center Vec3, half Extent) bool {
	hit := false
	ps.space.BBQuery(bbAround(center, half), cp.SHAPE_FILTER_ALL, func(_ *cp.Shape, _ interface{}) {
		hit = true
	}, nil)
	return hit
}

// OnActivate (re)inserts the tile footprint at the tile's current position.
func (ps *PhysicsSpace) OnActivate(t *Tile) {
	ps.Remove(t.ID)
	half := Extent{X: t.Proto.Extent.X / 2, Z: t.Proto.Extent.Z / 2}
	shape := cp.NewBox2(ps.space.StaticBody, bbAround(t.Pos, half), 0)
	shape.SetSensor(true)
	shape.UserData = t.ID
	ps.space.AddShape(shape)
	ps.shapes[t.ID] = shape
}

func (ps *PhysicsSpace) OnDeactivate(t *Tile) { ps.Remove(t.ID) }

// Remove drops the footprint for id, if any.
func (ps *PhysicsSpace) Remove(id ecs.EntityID) {
	shape, ok := ps.shapes[id]
	if !ok {
		return
	}
	ps.space.RemoveShape(shape)
	delete(ps.shapes, id)
}

// Len returns the number of registered footprints.
func (ps *PhysicsSpace) Len() int { return len(ps.shapes) }
