package grid

import (
	"errors"
	"testing"

	"voxelmatch.ai/internal/sim/zone"
)

func TestRLE_RoundTrip(t *testing.T) {
	for seed := int64(1); seed <= 3; seed++ {
		g := randomGrid(zone.Default, seed)
		g.Set(0, 0, 0, -4)
		out, err := DecodeRLE(zone.Default, EncodeRLE(g))
		if err != nil {
			t.Fatalf("DecodeRLE: %v", err)
		}
		if !out.Equal(g) {
			t.Fatalf("seed %d: RLE round trip changed the grid", seed)
		}
	}
}

func TestRLE_EmptyGridIsOneRun(t *testing.T) {
	enc := EncodeRLE(New(zone.Default))
	// One (0, 1089) pair: 1 byte id + 2 byte run.
	if enc != "AMEI" {
		t.Fatalf("encoded=%q", enc)
	}
}

func TestDecodeRLE_SizeMismatch(t *testing.T) {
	small := zone.Size{Y: 1, X: 3, Z: 3}
	enc := EncodeRLE(New(small))
	if _, err := DecodeRLE(zone.Default, enc); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("short input: expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := DecodeRLE(small, EncodeRLE(New(zone.Default))); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("long input: expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := DecodeRLE(small, "!!"); err == nil {
		t.Fatalf("expected base64 error")
	}
}
