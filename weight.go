package dv

import "math"

const weightBits = 14

var (
	weight88     [64]int32
	weight248    [64]int32
	weight88Inv  [64]int32
	weight248Inv [64]int32
)

func init() {
	cs := func(m int) float64 {
		return math.Cos(float64(m) * math.Pi / 16)
	}

	var w [8]float64
	w[0] = 1.0
	w[1] = cs(4) / (4.0 * cs(7) * cs(2))
	w[2] = cs(4) / (2.0 * cs(6))
	w[3] = 1.0 / (2 * cs(5))
	w[4] = 7.0 / 8.0
	w[5] = cs(4) / cs(3)
	w[6] = cs(4) / cs(2)
	w[7] = cs(4) / cs(1)

	fix := func(v float64) int32 {
		return int32(math.Round(v * (1 << weightBits)))
	}

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			v := w[x] * w[y] / 2
			weight88[y*8+x] = fix(v)
			weight88Inv[y*8+x] = fix(1 / v)
		}
	}

	for z := 0; z < 4; z++ {
		for x := 0; x < 8; x++ {
			v := w[x] * w[2*z] / 2
			weight248[z*8+x] = fix(v)
			weight248[(z+4)*8+x] = fix(v)
			weight248Inv[z*8+x] = fix(1 / v)
			weight248Inv[(z+4)*8+x] = fix(1 / v)
		}
	}
}

// weightBlock applies the perceptual weighting to a raster-order block of
// DCT coefficients. The DC term is divided by four.
func weightBlock(block *[64]int16, mode DCTMode) {
	table := &weight88
	if mode == DCT248 {
		table = &weight248
	}

	block[0] = int16(roundShift(int32(block[0]), 2))
	for i := 1; i < 64; i++ {
		block[i] = clampInt16(roundShift(int32(block[i])*table[i], weightBits))
	}
}

// unweightBlock reverses weightBlock.
func unweightBlock(block *[64]int16, mode DCTMode) {
	table := &weight88Inv
	if mode == DCT248 {
		table = &weight248Inv
	}

	block[0] = clampInt16(int32(block[0]) * 4)
	for i := 1; i < 64; i++ {
		if block[i] == 0 {
			continue
		}

		block[i] = clampInt16(roundShift(int32(block[i])*table[i], weightBits))
	}
}

// roundShift divides v by 2^s rounding half away from zero.
func roundShift(v int32, s uint) int32 {
	half := int32(1) << (s - 1)
	if v < 0 {
		return -((-v + half) >> s)
	}

	return (v + half) >> s
}
