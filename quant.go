package dv

// quantShifts holds the left shift applied on dequantization, indexed by
// qno+quantOffset[class] and quantization area.
var quantShifts = [22][4]uint8{
	{3, 3, 4, 4}, {3, 3, 4, 4}, {2, 3, 3, 4}, {2, 3, 3, 4},
	{2, 2, 3, 3}, {2, 2, 3, 3}, {1, 2, 2, 3}, {1, 2, 2, 3},
	{1, 1, 2, 2}, {1, 1, 2, 2}, {0, 1, 1, 2}, {0, 1, 1, 2},
	{0, 0, 1, 1}, {0, 0, 1, 1}, {0, 0, 0, 1}, {0, 0, 0, 0},
	{0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0},
	{0, 0, 0, 0}, {0, 0, 0, 0},
}

var quantOffset = [4]uint8{6, 3, 0, 1}

// Class thresholds on the largest weighted AC amplitude.
var classThresholds = [3]int{11, 23, 35}

// Class chosen for luma and chroma blocks by amplitude band.
var (
	classLuma   = [4]uint8{0, 1, 2, 3}
	classChroma = [4]uint8{1, 2, 3, 3}
)

// quantTable returns the four per-area shifts for qno and class.
func quantTable(qno, class uint8) [4]uint8 {
	row := quantShifts[(qno&0xf)+quantOffset[class&3]]
	if class&3 == 3 {
		for a := range row {
			row[a]++
		}
	}

	return row
}

func blockAreas(mode DCTMode) *[64]uint8 {
	if mode == DCT248 {
		return &area248
	}

	return &area88
}

// dequantize scales the AC coefficients of a raster-order block back up.
func dequantize(block *[64]int16, qno, class uint8, mode DCTMode) {
	shifts := quantTable(qno, class)
	areas := blockAreas(mode)

	for i := 1; i < 64; i++ {
		if block[i] == 0 {
			continue
		}

		v := int32(block[i]) << shifts[areas[i]]
		block[i] = clampInt16(v)
	}
}

// quantize divides the AC coefficients of src, truncating toward zero, and
// stores the result in dst. It reports whether every amplitude fits the VLC
// range.
func quantize(dst, src *[64]int16, qno, class uint8, mode DCTMode) bool {
	shifts := quantTable(qno, class)
	areas := blockAreas(mode)
	fits := true

	dst[0] = src[0]
	for i := 1; i < 64; i++ {
		v := int32(src[i])
		s := shifts[areas[i]]
		if v < 0 {
			v = -(-v >> s)
		} else {
			v >>= s
		}

		if v > vlcMaxAmp || v < -vlcMaxAmp {
			fits = false
		}

		dst[i] = int16(v)
	}

	return fits
}

// classify picks the class number of a weighted block from its largest AC
// amplitude.
func classify(block *[64]int16, chroma bool) uint8 {
	amp := 0
	for i := 1; i < 64; i++ {
		a := abs(int(block[i]))
		if a > amp {
			amp = a
		}
	}

	band := 0
	for band < len(classThresholds) && amp > classThresholds[band] {
		band++
	}

	if chroma {
		return classChroma[band]
	}

	return classLuma[band]
}

func clampInt16(v int32) int16 {
	if v > 32767 {
		return 32767
	} else if v < -32768 {
		return -32768
	}

	return int16(v)
}
