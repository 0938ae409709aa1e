package tasks

import (
	"fmt"

	"voxelmatch.ai/internal/sim/grid"
	"voxelmatch.ai/internal/sim/zone"
)

// Offset translates a rotated target before it is compared with a candidate.
// Y is never translated.
type Offset struct {
	DX int `json:"dx"`
	DZ int `json:"dz"`
}

// Alignment is one (rotation, offset) pair and the overlap it scores.
type Alignment struct {
	Rotation int    `json:"rotation"`
	Offset   Offset `json:"offset"`
	Score    int    `json:"score"`
}

type voxel struct {
	y, x, z int
	id      int32
}

// Task owns a target structure, its four quarter turns and, per turn, the
// offsets that can be applied without cropping the reference structure.
//
// A Task is immutable after New. MaximalIntersection is safe for concurrent
// use; candidates that other goroutines write to must be snapshotted with
// Grid.Clone before the call.
type Task struct {
	size zone.Size

	chat     string
	starting grid.Sparse
	full     *grid.Grid

	targetSize int
	fullSize   int

	targets    [4]*grid.Grid
	voxels     [4][]voxel
	admissible [4][]Offset
}

type options struct {
	full     *grid.Grid
	starting grid.Sparse
	chat     string
}

type Option func(*options)

// WithFull sets the reference structure admissibility is checked against.
// Without it the target is its own reference.
func WithFull(g *grid.Grid) Option { return func(o *options) { o.full = g } }

// WithStarting attaches the blocks present when the task starts.
func WithStarting(b grid.Sparse) Option { return func(o *options) { o.starting = b } }

// WithChat attaches the dialogue that describes the task.
func WithChat(s string) Option { return func(o *options) { o.chat = s } }

func New(size zone.Size, target *grid.Grid, opts ...Option) (*Task, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	if err := size.Validate(); err != nil {
		return nil, err
	}
	if err := target.CheckSize(size); err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	if o.full != nil {
		if err := o.full.CheckSize(size); err != nil {
			return nil, fmt.Errorf("full: %w", err)
		}
	}

	t := &Task{
		size:     size,
		chat:     o.chat,
		starting: append(grid.Sparse(nil), o.starting...),
	}
	t.targets = target.Clone().Rotations()
	t.targetSize = t.targets[0].NonZero()
	t.fullSize = t.targetSize
	refs := t.targets
	if o.full != nil {
		t.full = o.full.Clone()
		t.fullSize = t.full.NonZero()
		refs = t.full.Rotations()
	}

	for i := range t.targets {
		t.voxels[i] = voxelsOf(t.targets[i])
		t.admissible[i] = admissibleOffsets(voxelsOf(refs[i]), t.fullSize, size)
	}
	return t, nil
}

// window is the half-open range kept on an axis of extent n when shifting
// by d.
func window(d, n int) (lo, hi int) {
	return max(d, 0), n + min(d, 0)
}

func voxelsOf(g *grid.Grid) []voxel {
	s := g.Size()
	out := make([]voxel, 0, g.NonZero())
	for y := 0; y < s.Y; y++ {
		for x := 0; x < s.X; x++ {
			for z := 0; z < s.Z; z++ {
				if id := g.At(y, x, z); id != 0 {
					out = append(out, voxel{y: y, x: x, z: z, id: id})
				}
			}
		}
	}
	return out
}

// admissibleOffsets lists every (dx, dz) whose clipping window still holds
// all want voxels of the reference.
func admissibleOffsets(ref []voxel, want int, size zone.Size) []Offset {
	var out []Offset
	for dx := -(size.X - 1); dx <= size.X-1; dx++ {
		xlo, xhi := window(dx, size.X)
		for dz := -(size.Z - 1); dz <= size.Z-1; dz++ {
			zlo, zhi := window(dz, size.Z)
			n := 0
			for _, v := range ref {
				if v.x >= xlo && v.x < xhi && v.z >= zlo && v.z < zhi {
					n++
				}
			}
			if n == want {
				out = append(out, Offset{DX: dx, DZ: dz})
			}
		}
	}
	return out
}

// overlap counts voxels of rotation rot, shifted by off, that match the
// candidate's block type. Target voxel (x, z) is compared with candidate
// (x-dx, z-dz).
func (t *Task) overlap(rot int, off Offset, c *grid.Grid) int {
	xlo, xhi := window(off.DX, t.size.X)
	zlo, zhi := window(off.DZ, t.size.Z)
	n := 0
	for _, v := range t.voxels[rot] {
		if v.x < xlo || v.x >= xhi || v.z < zlo || v.z >= zhi {
			continue
		}
		if c.At(v.y, v.x-off.DX, v.z-off.DZ) == v.id {
			n++
		}
	}
	return n
}

// BestAlignment searches every rotation and admissible offset and returns
// the first alignment, in enumeration order, with the largest overlap.
func (t *Task) BestAlignment(candidate *grid.Grid) (Alignment, error) {
	if err := candidate.CheckSize(t.size); err != nil {
		return Alignment{}, fmt.Errorf("candidate: %w", err)
	}
	var best Alignment
	found := false
	for rot, offs := range t.admissible {
		for _, off := range offs {
			n := t.overlap(rot, off, candidate)
			if !found || n > best.Score {
				best = Alignment{Rotation: rot, Offset: off, Score: n}
				found = true
			}
		}
	}
	return best, nil
}

// MaximalIntersection returns the largest number of matching non-air voxels
// between the candidate and any rotation and admissible shift of the target.
func (t *Task) MaximalIntersection(candidate *grid.Grid) (int, error) {
	a, err := t.BestAlignment(candidate)
	if err != nil {
		return 0, err
	}
	return a.Score, nil
}

func (t *Task) Size() zone.Size { return t.size }

// TargetSize is the non-air voxel count of the unrotated target.
func (t *Task) TargetSize() int { return t.targetSize }

// FullSize is the non-air voxel count of the reference structure.
func (t *Task) FullSize() int { return t.fullSize }

// TargetGrid returns a copy of the target turned by rot (quarter turns or
// degrees).
func (t *Task) TargetGrid(rot int) *grid.Grid {
	return t.targets[grid.NormalizeRotation(rot)].Clone()
}

// Admissible returns a copy of the admissible offsets for rotation rot.
func (t *Task) Admissible(rot int) []Offset {
	return append([]Offset(nil), t.admissible[grid.NormalizeRotation(rot)]...)
}

func (t *Task) Chat() string { return t.chat }

func (t *Task) Starting() grid.Sparse { return append(grid.Sparse(nil), t.starting...) }

// Full returns a copy of the reference structure, or nil when the target is
// its own reference.
func (t *Task) Full() *grid.Grid {
	if t.full == nil {
		return nil
	}
	return t.full.Clone()
}
