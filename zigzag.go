package dv

// Scan positions (1-based) of each coefficient in natural raster order.
var reorder88 = [64]uint8{
	1, 2, 6, 7, 15, 16, 28, 29,
	3, 5, 8, 14, 17, 27, 30, 43,
	4, 9, 13, 18, 26, 31, 42, 44,
	10, 12, 19, 25, 32, 41, 45, 54,
	11, 20, 24, 33, 40, 46, 53, 55,
	21, 23, 34, 39, 47, 52, 56, 61,
	22, 35, 38, 48, 51, 57, 60, 62,
	36, 37, 49, 50, 58, 59, 63, 64,
}

// The top four rows of a 248 block hold the field sums, the bottom four
// the field differences.
var reorder248 = [64]uint8{
	1, 3, 7, 19, 21, 35, 37, 51,
	5, 9, 17, 23, 33, 39, 49, 53,
	11, 15, 25, 31, 41, 47, 55, 61,
	13, 27, 29, 43, 45, 57, 59, 63,
	2, 4, 8, 20, 22, 36, 38, 52,
	6, 10, 18, 24, 34, 40, 50, 54,
	12, 16, 26, 32, 42, 48, 56, 62,
	14, 28, 30, 44, 46, 58, 60, 64,
}

var (
	// scan88 and scan248 map a scan position to the raster index.
	scan88  [64]uint8
	scan248 [64]uint8

	// area88 and area248 give the quantization area of each raster index.
	area88  [64]uint8
	area248 [64]uint8
)

// Scan positions below each bound belong to the matching area.
var areaBounds = [4]int{6, 21, 43, 64}

func init() {
	for i := 0; i < 64; i++ {
		scan88[reorder88[i]-1] = uint8(i)
		scan248[reorder248[i]-1] = uint8(i)

		area88[i] = scanArea(int(reorder88[i]) - 1)
		area248[i] = scanArea(int(reorder248[i]) - 1)
	}
}

func scanArea(pos int) uint8 {
	for a, b := range areaBounds {
		if pos < b {
			return uint8(a)
		}
	}

	return 3
}

// scanOrder returns the scan table for the DCT mode.
func scanOrder(mode DCTMode) *[64]uint8 {
	if mode == DCT248 {
		return &scan248
	}

	return &scan88
}

// zigzag rewrites a raster-order block into scan order.
func zigzag(dst, src *[64]int16, mode DCTMode) {
	scan := scanOrder(mode)
	for s := 0; s < 64; s++ {
		dst[s] = src[scan[s]]
	}
}

// dezigzag rewrites a scan-order block into raster order.
func dezigzag(dst, src *[64]int16, mode DCTMode) {
	scan := scanOrder(mode)
	for s := 0; s < 64; s++ {
		dst[scan[s]] = src[s]
	}
}
