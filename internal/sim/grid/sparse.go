package grid

import (
	"errors"
	"fmt"

	"voxelmatch.ai/internal/sim/zone"
)

var ErrOutOfZone = errors.New("block outside build zone")

// Block is one placed block. X and Z are relative to the zone centre, Y is
// the absolute layer.
type Block struct {
	X, Y, Z int
	ID      int32
}

// Representation is either a Dense grid or a Sparse block list.
type Representation interface {
	isRepresentation()
}

type Dense struct{ Grid *Grid }

type Sparse []Block

func (Dense) isRepresentation()  {}
func (Sparse) isRepresentation() {}

// Densify converts rep into a grid of the given size. Sparse blocks are
// shifted by (X/2, Z/2) so that (0, y, 0) lands in the zone centre.
func Densify(size zone.Size, rep Representation) (*Grid, error) {
	switch r := rep.(type) {
	case Dense:
		if err := r.Grid.CheckSize(size); err != nil {
			return nil, err
		}
		return r.Grid.Clone(), nil
	case Sparse:
		g := New(size)
		cx, cz := size.X/2, size.Z/2
		for _, b := range r {
			x, z := b.X+cx, b.Z+cz
			if !size.Contains(b.Y, x, z) {
				return nil, fmt.Errorf("%w: (%d,%d,%d) in zone %s", ErrOutOfZone, b.X, b.Y, b.Z, size)
			}
			g.Set(b.Y, x, z, b.ID)
		}
		return g, nil
	case nil:
		return nil, fmt.Errorf("%w: nil structure", ErrDimensionMismatch)
	default:
		return nil, fmt.Errorf("unsupported representation %T", rep)
	}
}

// Sparsify lists the non-air voxels of g in (y, x, z) order, in the same
// centred coordinates Densify accepts.
func Sparsify(g *Grid) Sparse {
	s := g.size
	cx, cz := s.X/2, s.Z/2
	var out Sparse
	for y := 0; y < s.Y; y++ {
		for x := 0; x < s.X; x++ {
			for z := 0; z < s.Z; z++ {
				if id := g.At(y, x, z); id != 0 {
					out = append(out, Block{X: x - cx, Y: y, Z: z - cz, ID: id})
				}
			}
		}
	}
	return out
}

// FromTuples converts [x, y, z, id] tuples into a block list.
func FromTuples(blocks [][4]int) Sparse {
	out := make(Sparse, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, Block{X: b[0], Y: b[1], Z: b[2], ID: int32(b[3])})
	}
	return out
}

// Tuples converts s into [x, y, z, id] tuples.
func (s Sparse) Tuples() [][4]int {
	out := make([][4]int, 0, len(s))
	for _, b := range s {
		out = append(out, [4]int{b.X, b.Y, b.Z, int(b.ID)})
	}
	return out
}
