package data

import (
	"encoding/hex"
	"fmt"
	"os"

	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"
)

// Direction names as they appear in catalog files, in canonical order.
var DirectionNames = [4]string{"forward", "back", "left", "right"}

// ExtentDef is a tile footprint on the ground plane. Zero means "one grid
// step" and is resolved when the catalog is built.
type ExtentDef struct {
	X float64 `yaml:"x"`
	Z float64 `yaml:"z"`
}

// PrototypeDef declares one tile template.
type PrototypeDef struct {
	Name   string    `yaml:"name"`
	Exits  []string  `yaml:"exits"`
	Extent ExtentDef `yaml:"extent,omitempty"`
}

// DirectionDef lists the prototypes that may be spawned across an exit in
// one direction. Weights run parallel to Tiles. Junction is the prototype
// placed when the source tile has more than one exit; empty means Tiles[0].
type DirectionDef struct {
	Tiles    []string `yaml:"tiles"`
	Weights  []int    `yaml:"weights"`
	Junction string   `yaml:"junction,omitempty"`
}

type DirectionsDef struct {
	Forward DirectionDef `yaml:"forward"`
	Back    DirectionDef `yaml:"back"`
	Left    DirectionDef `yaml:"left"`
	Right   DirectionDef `yaml:"right"`
}

// CatalogDef is the on-disk tile catalog.
type CatalogDef struct {
	Prototypes []PrototypeDef `yaml:"prototypes"`
	Directions DirectionsDef  `yaml:"directions"`
}

// Direction returns the catalog for the i-th entry of DirectionNames.
func (c *CatalogDef) Direction(i int) *DirectionDef {
	switch i {
	case 0:
		return &c.Directions.Forward
	case 1:
		return &c.Directions.Back
	case 2:
		return &c.Directions.Left
	case 3:
		return &c.Directions.Right
	}
	return nil
}

// Count returns the number of prototypes declared.
func (c *CatalogDef) Count() int {
	return len(c.Prototypes)
}

// Repair describes one automatic fix applied by Normalize.
type Repair struct {
	Direction string
	Message   string
}

func (r Repair) String() string { return r.Direction + ": " + r.Message }

// Normalize makes weight arrays line up with tile arrays: missing weights
// are zero-filled, extra weights are dropped, negative weights become zero.
// Nothing here is an error; callers log the returned repairs.
func (c *CatalogDef) Normalize() []Repair {
	var repairs []Repair
	for i, name := range DirectionNames {
		d := c.Direction(i)
		if len(d.Weights) != len(d.Tiles) {
			repairs = append(repairs, Repair{
				Direction: name,
				Message:   fmt.Sprintf("resized weights from %d to %d", len(d.Weights), len(d.Tiles)),
			})
			w := make([]int, len(d.Tiles))
			copy(w, d.Weights)
			d.Weights = w
		}
		for j, w := range d.Weights {
			if w < 0 {
				repairs = append(repairs, Repair{
					Direction: name,
					Message:   fmt.Sprintf("weight of %s was %d, clamped to 0", d.Tiles[j], w),
				})
				d.Weights[j] = 0
			}
		}
	}
	return repairs
}

// Fingerprint hashes the normalized catalog content. Two files that differ
// only in formatting or comments share a fingerprint.
func (c *CatalogDef) Fingerprint() (string, error) {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal catalog: %w", err)
	}
	sum := blake2b.Sum256(raw)
	return hex.EncodeToString(sum[:8]), nil
}

// ParseCatalog decodes and normalizes a catalog document.
func ParseCatalog(raw []byte) (*CatalogDef, []Repair, error) {
	var def CatalogDef
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, nil, fmt.Errorf("parse tile catalog: %w", err)
	}
	repairs := def.Normalize()
	return &def, repairs, nil
}

// LoadCatalog loads tile_catalog.yaml.
func LoadCatalog(path string) (*CatalogDef, []Repair, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read tile catalog: %w", err)
	}
	return ParseCatalog(raw)
}
