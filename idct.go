package dv

import "math"

// idctPremul holds aan[u]*aan[v] scaled by 2^13.
var idctPremul [64]int64

func init() {
	for i := range idctPremul {
		idctPremul[i] = int64(math.Round(aanScale[i>>3] * aanScale[i&7] * (1 << 13)))
	}
}

func idctMul(x, c int64) int64 {
	return (x*c + 8192) >> 14
}

// idct88 transforms a raster-order coefficient block in place into centered
// pixel values.
func idct88(coeffs *[64]int16) {
	var block [64]int64
	for i, c := range coeffs {
		block[i] = int64(c) * idctPremul[i]
	}

	var b1, b3, b4, b6, b7, tmp1, tmp2, m0,
		x0, x1, x2, x3, x4, y3, y4, y5, y6, y7 int64

	// Transform columns
	for i := 0; i < 8; i++ {
		b1 = block[4*8+i]
		b3 = block[2*8+i] + block[6*8+i]
		b4 = block[5*8+i] - block[3*8+i]
		tmp1 = block[1*8+i] + block[7*8+i]
		tmp2 = block[3*8+i] + block[5*8+i]
		b6 = block[1*8+i] - block[7*8+i]
		b7 = tmp1 + tmp2
		m0 = block[0*8+i]
		x4 = (idctMul(b6, 30274) - idctMul(b4, 12540)) - b7
		x0 = x4 - idctMul(tmp1-tmp2, 23170)
		x1 = m0 - b1
		x2 = idctMul(block[2*8+i]-block[6*8+i], 23170) - b3
		x3 = m0 + b1
		y3 = x1 + x2
		y4 = x3 + b3
		y5 = x1 - x2
		y6 = x3 - b3
		y7 = -x0 - (idctMul(b4, 30274) + idctMul(b6, 12540))
		block[0*8+i] = b7 + y4
		block[1*8+i] = x4 + y3
		block[2*8+i] = y5 - x0
		block[3*8+i] = y6 - y7
		block[4*8+i] = y6 + y7
		block[5*8+i] = x0 + y5
		block[6*8+i] = y3 - x4
		block[7*8+i] = y4 - b7
	}

	// Transform rows
	for i := 0; i < 64; i += 8 {
		b1 = block[4+i]
		b3 = block[2+i] + block[6+i]
		b4 = block[5+i] - block[3+i]
		tmp1 = block[1+i] + block[7+i]
		tmp2 = block[3+i] + block[5+i]
		b6 = block[1+i] - block[7+i]
		b7 = tmp1 + tmp2
		m0 = block[0+i]
		x4 = (idctMul(b6, 30274) - idctMul(b4, 12540)) - b7
		x0 = x4 - idctMul(tmp1-tmp2, 23170)
		x1 = m0 - b1
		x2 = idctMul(block[2+i]-block[6+i], 23170) - b3
		x3 = m0 + b1
		y3 = x1 + x2
		y4 = x3 + b3
		y5 = x1 - x2
		y6 = x3 - b3
		y7 = -x0 - (idctMul(b4, 30274) + idctMul(b6, 12540))
		coeffs[0+i] = descale(b7 + y4)
		coeffs[1+i] = descale(x4 + y3)
		coeffs[2+i] = descale(y5 - x0)
		coeffs[3+i] = descale(y6 - y7)
		coeffs[4+i] = descale(y6 + y7)
		coeffs[5+i] = descale(x0 + y5)
		coeffs[6+i] = descale(y3 - x4)
		coeffs[7+i] = descale(y4 - b7)
	}
}

func descale(v int64) int16 {
	return clampInt16(int32((v + (1 << 15)) >> 16))
}

// idct248 reverses fdct248 in place.
func idct248(coeffs *[64]int16) {
	src, dst := *coeffs, coeffs

	var tmp [8][8]int64
	for v := 0; v < 8; v++ {
		for x := 0; x < 8; x++ {
			var s int64
			for h := 0; h < 8; h++ {
				s += dct248Horiz[h][x] * int64(src[v*8+h])
			}
			tmp[v][x] = s
		}
	}

	for z := 0; z < 4; z++ {
		for x := 0; x < 8; x++ {
			var sum, diff int64
			for v := 0; v < 4; v++ {
				sum += dct248Vert[v][z] * tmp[v][x]
				diff += dct248Vert[v][z] * tmp[v+4][x]
			}

			dst[(2*z)*8+x] = clampInt16(int32((sum + diff + (1 << 27)) >> 28))
			dst[(2*z+1)*8+x] = clampInt16(int32((sum - diff + (1 << 27)) >> 28))
		}
	}
}

// idctBlock dispatches on the block's DCT mode.
func idctBlock(coeffs *[64]int16, mode DCTMode) {
	if mode == DCT248 {
		idct248(coeffs)
	} else {
		idct88(coeffs)
	}
}

// fdctBlock dispatches on the DCT mode.
func fdctBlock(dst *[64]int16, src *[64]uint8, mode DCTMode) {
	if mode == DCT248 {
		fdct248(dst, src)
	} else {
		fdct88(dst, src)
	}
}
