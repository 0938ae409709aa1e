package grid

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"voxelmatch.ai/internal/sim/zone"
)

// EncodeRLE encodes the (y, x, z) voxel sequence of g as base64 varint
// pairs (block_id, run_len). Ids are zigzag encoded.
func EncodeRLE(g *Grid) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	ids := g.v
	i := 0
	for i < len(ids) {
		b := ids[i]
		run := 1
		for j := i + 1; j < len(ids) && ids[j] == b; j++ {
			run++
		}

		n := binary.PutVarint(tmp[:], int64(b))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])

		i += run
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// DecodeRLE decodes an EncodeRLE string into a grid of the given size.
func DecodeRLE(size zone.Size, b64 string) (*Grid, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	g := New(size)
	pos := 0
	for i := 0; i < len(raw); {
		b, n := binary.Varint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if b != int64(int32(b)) {
			return nil, fmt.Errorf("block id out of range: %d", b)
		}
		if run > uint64(len(g.v)-pos) {
			return nil, fmt.Errorf("%w: runs exceed zone %s", ErrDimensionMismatch, size)
		}
		for k := uint64(0); k < run; k++ {
			g.v[pos] = int32(b)
			pos++
		}
	}
	if pos != len(g.v) {
		return nil, fmt.Errorf("%w: %d voxels for zone %s", ErrDimensionMismatch, pos, size)
	}
	return g, nil
}
