package world

import (
	"fmt"
	"math/bits"
	"strings"
)

// Direction is one of the four cardinal exits a tile can declare.
type Direction uint8

const (
	Forward Direction = iota // +Z
	Back                     // -Z
	Left                     // -X
	Right                    // +X
)

// Directions lists every direction in expansion order.
var Directions = [4]Direction{Forward, Back, Left, Right}

var directionNames = [4]string{"forward", "back", "left", "right"}

var directionDeltas = [4]Cell{
	Forward: {X: 0, Z: 1},
	Back:    {X: 0, Z: -1},
	Left:    {X: -1, Z: 0},
	Right:   {X: 1, Z: 0},
}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("direction(%d)", d)
}

// Delta is the one-cell step in direction d.
func (d Direction) Delta() Cell { return directionDeltas[d] }

// Opposite returns the direction pointing back the way d came.
func (d Direction) Opposite() Direction { return d ^ 1 }

// ParseDirection accepts the catalog spelling, case-insensitively.
func ParseDirection(s string) (Direction, error) {
	for i, n := range directionNames {
		if strings.EqualFold(s, n) {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

// DirSet is a bitset of open exits.
type DirSet uint8

func NewDirSet(ds ...Direction) DirSet {
	var s DirSet
	for _, d := range ds {
		s |= 1 << d
	}
	return s
}

func (s DirSet) Has(d Direction) bool { return s&(1<<d) != 0 }

// Only reports whether d is the single open exit.
func (s DirSet) Only(d Direction) bool { return s == 1<<d }

func (s DirSet) Len() int { return bits.OnesCount8(uint8(s)) }

func (s DirSet) String() string {
	var parts []string
	for _, d := range Directions {
		if s.Has(d) {
			parts = append(parts, d.String())
		}
	}
	return "[" + strings.Join(parts, ",") + "]"
}
