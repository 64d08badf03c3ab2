package course

import (
	"encoding/json"
	"fmt"
	"os"

	"golf-tracker/internal/domain"
)

// Hole is one catalog entry. Tee and Green are optional static reference
// points; when Tee is set it seeds HoleScore.TeeLocation for distance
// tracking on rounds that never got a sensor fix on the tee box.
type Hole struct {
	Number   int                 `json:"number"`
	Par      int                 `json:"par"`
	Distance int                 `json:"distance"` // yards
	Handicap int                 `json:"handicap,omitempty"`
	Tee      *domain.GeoLocation `json:"tee,omitempty"`
	Green    *domain.GeoLocation `json:"green,omitempty"`
}

// Catalog is the fixed, ordered list of holes. Read-only after construction.
type Catalog struct {
	holes []Hole
}

var defaultHoles = []Hole{
	{Number: 1, Par: 4, Distance: 357, Handicap: 13},
	{Number: 2, Par: 4, Distance: 410, Handicap: 3},
	{Number: 3, Par: 3, Distance: 165, Handicap: 15},
	{Number: 4, Par: 5, Distance: 545, Handicap: 1},
	{Number: 5, Par: 4, Distance: 404, Handicap: 5},
	{Number: 6, Par: 3, Distance: 152, Handicap: 17},
	{Number: 7, Par: 5, Distance: 511, Handicap: 9},
	{Number: 8, Par: 4, Distance: 357, Handicap: 11},
	{Number: 9, Par: 4, Distance: 388, Handicap: 7},
	{Number: 10, Par: 4, Distance: 352, Handicap: 14},
	{Number: 11, Par: 4, Distance: 377, Handicap: 10},
	{Number: 12, Par: 3, Distance: 179, Handicap: 12},
	{Number: 13, Par: 4, Distance: 386, Handicap: 4},
	{Number: 14, Par: 5, Distance: 479, Handicap: 6},
	{Number: 15, Par: 4, Distance: 335, Handicap: 16},
	{Number: 16, Par: 3, Distance: 150, Handicap: 18},
	{Number: 17, Par: 5, Distance: 505, Handicap: 2},
	{Number: 18, Par: 5, Distance: 476, Handicap: 8},
}

// Default returns the built-in 18-hole card.
func Default() *Catalog {
	return &Catalog{holes: defaultHoles}
}

// New builds a catalog from an explicit hole list. Intended for course
// override files and tests.
func New(holes []Hole) (*Catalog, error) {
	if len(holes) == 0 {
		return nil, fmt.Errorf("course: catalog must have at least one hole")
	}
	seen := make(map[int]struct{}, len(holes))
	for _, h := range holes {
		if h.Number < 1 {
			return nil, fmt.Errorf("course: invalid hole number %d", h.Number)
		}
		if h.Par < 3 {
			return nil, fmt.Errorf("course: hole %d has par %d, minimum is 3", h.Number, h.Par)
		}
		if h.Distance <= 0 {
			return nil, fmt.Errorf("course: hole %d has non-positive distance", h.Number)
		}
		if _, dup := seen[h.Number]; dup {
			return nil, fmt.Errorf("course: duplicate hole number %d", h.Number)
		}
		seen[h.Number] = struct{}{}
	}
	c := &Catalog{holes: make([]Hole, len(holes))}
	copy(c.holes, holes)
	return c, nil
}

// LoadFile reads a JSON hole list from path. An empty path yields the
// built-in card.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("course: failed to read %s: %w", path, err)
	}
	var holes []Hole
	if err := json.Unmarshal(data, &holes); err != nil {
		return nil, fmt.Errorf("course: failed to parse %s: %w", path, err)
	}
	return New(holes)
}

func (c *Catalog) Len() int {
	return len(c.holes)
}

// Holes returns a copy of the hole list.
func (c *Catalog) Holes() []Hole {
	out := make([]Hole, len(c.holes))
	copy(out, c.holes)
	return out
}

// At returns the hole at a catalog index.
func (c *Catalog) At(index int) (Hole, bool) {
	if index < 0 || index >= len(c.holes) {
		return Hole{}, false
	}
	return c.holes[index], true
}

// ByNumber resolves a hole number to its catalog entry.
func (c *Catalog) ByNumber(number int) (Hole, bool) {
	for _, h := range c.holes {
		if h.Number == number {
			return h, true
		}
	}
	return Hole{}, false
}

// IndexOfHole returns the catalog index of a hole number, -1 if absent.
func (c *Catalog) IndexOfHole(number int) int {
	for i, h := range c.holes {
		if h.Number == number {
			return i
		}
	}
	return -1
}

// TotalPar sums par over the whole card.
func (c *Catalog) TotalPar() int {
	total := 0
	for _, h := range c.holes {
		total += h.Par
	}
	return total
}
