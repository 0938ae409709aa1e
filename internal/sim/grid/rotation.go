package grid

import "voxelmatch.ai/internal/sim/zone"

// Rotate returns g turned a quarter around the Y axis:
//
//	out[y, z, X-1-x] = g[y, x, z]
//
// The X and Z extents swap, so four turns always reproduce g.
func (g *Grid) Rotate() *Grid {
	s := g.size
	out := New(zone.Size{Y: s.Y, X: s.Z, Z: s.X})
	for y := 0; y < s.Y; y++ {
		for x := 0; x < s.X; x++ {
			for z := 0; z < s.Z; z++ {
				out.Set(y, z, s.X-1-x, g.At(y, x, z))
			}
		}
	}
	return out
}

// Rotations returns g and its three quarter turns; index i is i*90 degrees.
func (g *Grid) Rotations() [4]*Grid {
	var out [4]*Grid
	out[0] = g
	for i := 1; i < 4; i++ {
		out[i] = out[i-1].Rotate()
	}
	return out
}

// NormalizeRotation converts a rotation value into a quarter-turn count in
// [0,3]. It accepts either quarter-turns or degrees (multiples of 90).
func NormalizeRotation(r int) int {
	if r%90 == 0 && (r > 3 || r < -3) {
		r = r / 90
	}
	r %= 4
	if r < 0 {
		r += 4
	}
	return r
}
