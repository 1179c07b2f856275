package dv

import (
	"bytes"
	"math/rand"
	"testing"
)

func randomMacroblock(r *rand.Rand, x, y int) *Macroblock {
	mb := &Macroblock{X: x, Y: y}
	for b := range mb.Blocks {
		for i := range mb.Blocks[b].Coeffs {
			mb.Blocks[b].Coeffs[i] = int16(r.Intn(400) - 200)
		}
	}

	return mb
}

func TestPackedKernels(t *testing.T) {
	r := rand.New(rand.NewSource(5))

	tests := []struct {
		name     string
		sampling Sampling
		x, y     int
	}{
		{"411", Sampling411, 32, 8},
		{"411 edge", Sampling411, 704, 16},
		{"420", Sampling420, 48, 32},
	}

	for _, tt := range tests {
		mb := randomMacroblock(r, tt.x, tt.y)
		l := layoutFor(tt.sampling, tt.x)

		for _, bpp := range []int{2, 4} {
			pitch := Width * bpp
			want := make([]byte, pitch*64)
			got := make([]byte, pitch*64)

			ref, packed := referenceKernels.yuy2, packedKernels.yuy2
			if bpp == 4 {
				ref, packed = referenceKernels.bgr0, packedKernels.bgr0
			}

			ref(mb, l, want, pitch)
			packed(mb, l, got, pitch)

			if !bytes.Equal(got, want) {
				t.Errorf("%s: packed %d byte kernel differs from reference", tt.name, bpp)
			}
		}
	}
}

func TestLookupY(t *testing.T) {
	tests := []struct {
		v    int
		want uint8
	}{
		{-300, 16},
		{-113, 16},
		{-112, 16},
		{0, 128},
		{107, 235},
		{108, 240},
		{600, 240},
	}

	for _, tt := range tests {
		if got := lookupY(tt.v); got != tt.want {
			t.Errorf("lookupY(%d): got %d, want %d", tt.v, got, tt.want)
		}
	}

	if got := lookupUV(-128); got != 16 {
		t.Errorf("lookupUV(-128): got %d, want 16", got)
	}

	if got := lookupUV(0); got != 128 {
		t.Errorf("lookupUV(0): got %d, want 128", got)
	}
}

func TestBlackRGB(t *testing.T) {
	mb := &Macroblock{}
	for b := 0; b < 4; b++ {
		for i := range mb.Blocks[b].Coeffs {
			mb.Blocks[b].Coeffs[i] = -112
		}
	}

	dst := make([]byte, Width*3*8)
	renderRGB(mb, &layout411, dst, Width*3)

	for i, v := range dst[:32*3] {
		if v != 0 {
			t.Fatalf("byte %d: got %d, want 0", i, v)
		}
	}
}

func TestToRGB(t *testing.T) {
	tests := []struct {
		y, cb, cr int
		r, g, b   uint8
	}{
		{-112, 0, 0, 0, 0, 0},
		{107, 0, 0, 255, 255, 255},
		{0, 0, 0, 130, 130, 130},
		{-300, -300, -300, 0, 135, 0},
	}

	for _, tt := range tests {
		r, g, b := toRGB(tt.y, tt.cb, tt.cr)
		if r != tt.r || g != tt.g || b != tt.b {
			t.Errorf("toRGB(%d, %d, %d): got %d,%d,%d, want %d,%d,%d", tt.y, tt.cb, tt.cr, r, g, b, tt.r, tt.g, tt.b)
		}
	}
}

func TestColorSpace(t *testing.T) {
	tests := []struct {
		cs     ColorSpace
		planes int
		bpp    int
		name   string
	}{
		{YUY2, 1, 2, "YUY2"},
		{YV12, 3, 1, "YV12"},
		{RGB, 1, 3, "RGB"},
		{BGR0, 1, 4, "BGR0"},
	}

	for _, tt := range tests {
		if tt.cs.planes() != tt.planes || tt.cs.bytesPerPixel() != tt.bpp || tt.cs.String() != tt.name {
			t.Errorf("%s: got %d planes, %d bytes per pixel", tt.name, tt.cs.planes(), tt.cs.bytesPerPixel())
		}
	}
}

func BenchmarkRenderBGR0(b *testing.B) {
	mb := randomMacroblock(rand.New(rand.NewSource(1)), 0, 0)
	dst := make([]byte, Width*4*8)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		activeKernels.bgr0(mb, &layout411, dst, Width*4)
	}
}
