package grid

import (
	"errors"
	"fmt"

	"voxelmatch.ai/internal/sim/zone"
)

var ErrDimensionMismatch = errors.New("grid dimension mismatch")

// Grid is a dense block-type volume indexed (y, x, z). 0 is air.
type Grid struct {
	size zone.Size
	v    []int32
}

func New(size zone.Size) *Grid {
	return &Grid{size: size, v: make([]int32, size.Volume())}
}

// FromValues wraps a (y, x, z) row-major slice. The slice is copied.
func FromValues(size zone.Size, values []int32) (*Grid, error) {
	if len(values) != size.Volume() {
		return nil, fmt.Errorf("%w: %d values for zone %s", ErrDimensionMismatch, len(values), size)
	}
	g := New(size)
	copy(g.v, values)
	return g, nil
}

func (g *Grid) index(y, x, z int) int {
	return (y*g.size.X+x)*g.size.Z + z
}

func (g *Grid) Size() zone.Size { return g.size }

func (g *Grid) At(y, x, z int) int32 { return g.v[g.index(y, x, z)] }

func (g *Grid) Set(y, x, z int, id int32) { g.v[g.index(y, x, z)] = id }

// Values returns a copy of the backing (y, x, z) row-major slice.
func (g *Grid) Values() []int32 {
	out := make([]int32, len(g.v))
	copy(out, g.v)
	return out
}

// NonZero counts the non-air voxels.
func (g *Grid) NonZero() int {
	n := 0
	for _, id := range g.v {
		if id != 0 {
			n++
		}
	}
	return n
}

func (g *Grid) Clone() *Grid {
	out := &Grid{size: g.size, v: make([]int32, len(g.v))}
	copy(out.v, g.v)
	return out
}

func (g *Grid) Equal(o *Grid) bool {
	if g == nil || o == nil {
		return g == o
	}
	if g.size != o.size {
		return false
	}
	for i := range g.v {
		if g.v[i] != o.v[i] {
			return false
		}
	}
	return true
}

// CheckSize returns ErrDimensionMismatch unless g has the given size.
func (g *Grid) CheckSize(size zone.Size) error {
	if g == nil {
		return fmt.Errorf("%w: nil grid for zone %s", ErrDimensionMismatch, size)
	}
	if g.size != size {
		return fmt.Errorf("%w: got %s want %s", ErrDimensionMismatch, g.size, size)
	}
	return nil
}
