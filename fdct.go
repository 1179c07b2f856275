package dv

import "math"

// Fixed-point constants of the AAN forward transform, scaled by 2^14.
const (
	fdctC4   = 11585 // cos(4pi/16)
	fdctC6S2 = 6270  // cos(6pi/16)
	fdctC2C6 = 8867  // cos(6pi/16)*sqrt(2)
	fdctC2P6 = 21407 // cos(2pi/16)*sqrt(2)
)

var (
	// aanScale[k] is cos(k*pi/16)*sqrt(2), 1 for k = 0.
	aanScale [8]float64

	// fdctPostScale folds the AAN output scale into a 2^20 multiplier.
	fdctPostScale [64]int64

	// 248 basis matrices scaled by 2^14.
	dct248Vert  [4][4]int64
	dct248Horiz [8][8]int64
)

func init() {
	aanScale[0] = 1
	for k := 1; k < 8; k++ {
		aanScale[k] = math.Cos(float64(k)*math.Pi/16) * math.Sqrt2
	}

	for v := 0; v < 8; v++ {
		for u := 0; u < 8; u++ {
			fdctPostScale[v*8+u] = int64(math.Round((1 << 20) / (aanScale[u] * aanScale[v])))
		}
	}

	norm := func(k int) float64 {
		if k == 0 {
			return 1 / (2 * math.Sqrt2)
		}
		return 0.5
	}

	for v := 0; v < 4; v++ {
		for z := 0; z < 4; z++ {
			c := norm(v) * math.Cos(math.Pi*float64(v*(2*z+1))/8)
			dct248Vert[v][z] = int64(math.Round(c * (1 << 14)))
		}
	}

	for h := 0; h < 8; h++ {
		for x := 0; x < 8; x++ {
			c := norm(h) * math.Cos(math.Pi*float64(h*(2*x+1))/16)
			dct248Horiz[h][x] = int64(math.Round(c * (1 << 14)))
		}
	}
}

func fixMul(x, c int32) int32 {
	return int32((int64(x)*int64(c) + 8192) >> 14)
}

func fdct8(d []int32) {
	t0 := d[0] + d[7]
	t7 := d[0] - d[7]
	t1 := d[1] + d[6]
	t6 := d[1] - d[6]
	t2 := d[2] + d[5]
	t5 := d[2] - d[5]
	t3 := d[3] + d[4]
	t4 := d[3] - d[4]

	// Even part
	t10 := t0 + t3
	t13 := t0 - t3
	t11 := t1 + t2
	t12 := t1 - t2

	d[0] = t10 + t11
	d[4] = t10 - t11

	z1 := fixMul(t12+t13, fdctC4)
	d[2] = t13 + z1
	d[6] = t13 - z1

	// Odd part
	t10 = t4 + t5
	t11 = t5 + t6
	t12 = t6 + t7

	z5 := fixMul(t10-t12, fdctC6S2)
	z2 := fixMul(t10, fdctC2C6) + z5
	z4 := fixMul(t12, fdctC2P6) + z5
	z3 := fixMul(t11, fdctC4)

	z11 := t7 + z3
	z13 := t7 - z3

	d[5] = z13 + z2
	d[3] = z13 - z2
	d[1] = z11 + z4
	d[7] = z11 - z4
}

// fdct88 computes the 8x8 DCT of a block of pixels. The result is in raster
// order with a DC term of eight times the mean of the centered samples.
func fdct88(dst *[64]int16, src *[64]uint8) {
	var b [64]int32
	for i, p := range src {
		b[i] = (int32(p) - 128) << 3
	}

	for r := 0; r < 64; r += 8 {
		fdct8(b[r : r+8])
	}

	var col [8]int32
	for c := 0; c < 8; c++ {
		for r := 0; r < 8; r++ {
			col[r] = b[r*8+c]
		}

		fdct8(col[:])

		for r := 0; r < 8; r++ {
			b[r*8+c] = col[r]
		}
	}

	for i := range b {
		dst[i] = clampInt16(int32((int64(b[i])*fdctPostScale[i] + (1 << 25)) >> 26))
	}
}

// fdct248 computes the 2-4-8 DCT of a block of pixels. Rows 0..3 of the
// result transform the sums of the two fields, rows 4..7 their differences.
func fdct248(dst *[64]int16, src *[64]uint8) {
	var g [2][4][8]int64
	for z := 0; z < 4; z++ {
		for x := 0; x < 8; x++ {
			a := int64(src[(2*z)*8+x]) - 128
			b := int64(src[(2*z+1)*8+x]) - 128
			g[0][z][x] = a + b
			g[1][z][x] = a - b
		}
	}

	for half := 0; half < 2; half++ {
		var tmp [4][8]int64
		for z := 0; z < 4; z++ {
			for h := 0; h < 8; h++ {
				var s int64
				for x := 0; x < 8; x++ {
					s += dct248Horiz[h][x] * g[half][z][x]
				}
				tmp[z][h] = s
			}
		}

		for v := 0; v < 4; v++ {
			for h := 0; h < 8; h++ {
				var s int64
				for z := 0; z < 4; z++ {
					s += dct248Vert[v][z] * tmp[z][h]
				}
				dst[(v+4*half)*8+h] = clampInt16(int32((s + (1 << 27)) >> 28))
			}
		}
	}
}

// need248 reports whether a block shows enough interlace motion to be coded
// with the 2-4-8 transform.
func need248(src *[64]uint8) bool {
	var frame, field int
	for y := 0; y < 7; y++ {
		for x := 0; x < 8; x++ {
			frame += abs(int(src[y*8+x]) - int(src[(y+1)*8+x]))
		}
	}

	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			field += abs(int(src[y*8+x]) - int(src[(y+2)*8+x]))
		}
	}

	frame -= 400

	return frame > 0 && frame > field
}
