package dv

import (
	"math/rand"
	"testing"
)

var dctModes = []DCTMode{DCT88, DCT248}

func randomPixels(r *rand.Rand) (px [64]uint8) {
	for i := range px {
		px[i] = uint8(r.Intn(256))
	}

	return
}

func TestScanOrder(t *testing.T) {
	for _, mode := range dctModes {
		var seen [64]bool
		for _, i := range scanOrder(mode) {
			if seen[i] {
				t.Fatalf("mode %d: raster index %d scanned twice", mode, i)
			}
			seen[i] = true
		}

		if scanOrder(mode)[0] != 0 {
			t.Errorf("mode %d: scan starts at %d, want DC", mode, scanOrder(mode)[0])
		}

		var src, scan, back [64]int16
		for i := range src {
			src[i] = int16(i * 3)
		}

		zigzag(&scan, &src, mode)
		dezigzag(&back, &scan, mode)

		if back != src {
			t.Errorf("mode %d: dezigzag(zigzag(x)) != x", mode)
		}
	}
}

func TestAreas(t *testing.T) {
	want := [4]int{6, 15, 22, 21}

	for _, mode := range dctModes {
		var got [4]int
		for _, a := range blockAreas(mode) {
			got[a]++
		}

		if got != want {
			t.Errorf("mode %d: area sizes got %v, want %v", mode, got, want)
		}

		if blockAreas(mode)[0] != 0 {
			t.Errorf("mode %d: DC in area %d", mode, blockAreas(mode)[0])
		}
	}
}

func TestQuantize(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for qno := uint8(0); qno < 16; qno++ {
		for class := uint8(0); class < 4; class++ {
			shifts := quantTable(qno, class)

			var src, q [64]int16
			for i := range src {
				src[i] = int16(r.Intn(1001) - 500)
			}

			quantize(&q, &src, qno, class, DCT88)
			dequantize(&q, qno, class, DCT88)

			if q[0] != src[0] {
				t.Errorf("qno %d class %d: DC got %d, want %d", qno, class, q[0], src[0])
			}

			for i := 1; i < 64; i++ {
				step := int(1) << shifts[area88[i]]
				d := int(src[i]) - int(q[i])

				if abs(d) >= step || (d != 0 && (d < 0) != (src[i] < 0)) {
					t.Fatalf("qno %d class %d: coefficient %d got %d from %d", qno, class, i, q[i], src[i])
				}
			}
		}
	}
}

func TestQuantizeRange(t *testing.T) {
	var src, q [64]int16
	src[1] = 300

	if quantize(&q, &src, 15, 0, DCT88) {
		t.Error("amplitude 300 reported within range at qno 15")
	}

	if !quantize(&q, &src, 0, 3, DCT88) {
		t.Error("amplitude 300 reported out of range at qno 0 class 3")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		amp    int16
		chroma bool
		want   uint8
	}{
		{0, false, 0},
		{11, false, 0},
		{12, false, 1},
		{24, false, 2},
		{36, false, 3},
		{0, true, 1},
		{30, true, 3},
		{200, true, 3},
	}

	for _, tt := range tests {
		var b [64]int16
		b[0] = 500
		b[9] = -tt.amp

		if got := classify(&b, tt.chroma); got != tt.want {
			t.Errorf("amp %d chroma %v: got class %d, want %d", tt.amp, tt.chroma, got, tt.want)
		}
	}
}

func TestWeight(t *testing.T) {
	r := rand.New(rand.NewSource(3))

	for _, mode := range dctModes {
		for n := 0; n < 200; n++ {
			var b, w [64]int16
			for i := range b {
				b[i] = int16(r.Intn(4001) - 2000)
			}

			// Weighting rounds to an integer and unweighting scales that
			// rounding error by up to 1/w, so a round trip may be off by 2.
			w = b
			weightBlock(&w, mode)
			unweightBlock(&w, mode)

			for i := range b {
				if d := abs(int(b[i]) - int(w[i])); d > 2 {
					t.Fatalf("mode %d: coefficient %d got %d, want %d", mode, i, w[i], b[i])
				}
			}
		}
	}
}

func TestFDCTFlat(t *testing.T) {
	for _, mode := range dctModes {
		for _, v := range []uint8{0, 16, 100, 128, 160, 235, 255} {
			var px [64]uint8
			for i := range px {
				px[i] = v
			}

			var c [64]int16
			fdctBlock(&c, &px, mode)
			weightBlock(&c, mode)

			if want := 2 * (int16(v) - 128); c[0] != want {
				t.Errorf("mode %d flat %d: DC got %d, want %d", mode, v, c[0], want)
			}

			for i := 1; i < 64; i++ {
				if c[i] != 0 {
					t.Fatalf("mode %d flat %d: AC %d got %d", mode, v, i, c[i])
				}
			}
		}
	}
}

func TestDCTRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(11))

	check := func(name string, px *[64]uint8, mode DCTMode, weighted bool, tol int) {
		var c [64]int16
		fdctBlock(&c, px, mode)
		if weighted {
			weightBlock(&c, mode)
			unweightBlock(&c, mode)
		}
		idctBlock(&c, mode)

		for i := range px {
			if d := abs(int(c[i]) - (int(px[i]) - 128)); d > tol {
				t.Fatalf("%s mode %d: pixel %d got %d, want %d", name, mode, i, c[i], int(px[i])-128)
			}
		}
	}

	for _, mode := range dctModes {
		for n := 0; n < 500; n++ {
			px := randomPixels(r)
			check("random", &px, mode, false, 2)
			check("random weighted", &px, mode, true, 6)
		}

		var checker [64]uint8
		for i := range checker {
			if (i/8+i%8)%2 == 1 {
				checker[i] = 255
			}
		}
		check("checkerboard", &checker, mode, true, 3)

		for _, pos := range []int{0, 9, 27, 63} {
			var impulse [64]uint8
			for i := range impulse {
				impulse[i] = 128
			}
			impulse[pos] = 255
			check("impulse", &impulse, mode, true, 4)
		}
	}
}

func TestDCTImpulses(t *testing.T) {
	roundTrip := func(px *[64]uint8, mode DCTMode) int {
		var c [64]int16
		fdctBlock(&c, px, mode)
		idctBlock(&c, mode)

		worst := 0
		for i := range px {
			worst = max(worst, abs(int(c[i])-(int(px[i])-128)))
		}

		return worst
	}

	for _, mode := range dctModes {
		var zero [64]uint8
		for i := range zero {
			zero[i] = 128
		}

		if e := roundTrip(&zero, mode); e != 0 {
			t.Errorf("mode %d zero block: error %d", mode, e)
		}

		for pos := 0; pos < 64; pos++ {
			for _, bg := range []uint8{0, 128} {
				px := zero
				for i := range px {
					px[i] = bg
				}
				px[pos] = 255

				if e := roundTrip(&px, mode); e > 1 {
					t.Errorf("mode %d impulse at %d on %d: error %d", mode, pos, bg, e)
				}
			}
		}

		for phase := 0; phase < 2; phase++ {
			var px [64]uint8
			for i := range px {
				if (i/8+i%8)%2 == phase {
					px[i] = 255
				}
			}

			if e := roundTrip(&px, mode); e > 1 {
				t.Errorf("mode %d checkerboard %d: error %d", mode, phase, e)
			}
		}
	}
}

func TestNeed248(t *testing.T) {
	var still, combed [64]uint8
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			still[y*8+x] = uint8(100 + y*4)
			if y%2 == 1 {
				combed[y*8+x] = 220
			} else {
				combed[y*8+x] = 30
			}
		}
	}

	if need248(&still) {
		t.Error("smooth block chose 2-4-8")
	}

	if !need248(&combed) {
		t.Error("combed block chose 8-8")
	}
}

func BenchmarkFDCT88(b *testing.B) {
	px := randomPixels(rand.New(rand.NewSource(1)))

	var c [64]int16

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		fdct88(&c, &px)
	}
}

func BenchmarkIDCT88(b *testing.B) {
	px := randomPixels(rand.New(rand.NewSource(1)))

	var src, c [64]int16
	fdct88(&src, &px)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		c = src
		idct88(&c)
	}
}
