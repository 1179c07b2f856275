package dv

// Superblock column offsets, in 32 pixel columns for 4:1:1 and in 16 pixel
// columns for 4:2:0.
var (
	superblockCols411 = [5]int{0, 4, 9, 13, 18}
	superblockCols420 = [5]int{0, 9, 18, 27, 36}
)

// Place411 returns the top-left pixel of macroblock k of superblock (i, j)
// in a 4:1:1 picture. Macroblocks are 32x8 pixels except the rightmost
// column at x = 704, which holds 16x16 macroblocks.
func Place411(i, j, k int) (x, y int) {
	mb := k
	if j%2 == 1 {
		mb += 3
	}

	row := mb % 6
	if (mb/6)%2 == 1 {
		row = 5 - row
	}

	col := (mb/6 + superblockCols411[j]) * 4
	if col < 88 {
		row += i * 6
	} else {
		row = row*2 + i*6
	}

	return col * 8, row * 8
}

// Place420 returns the top-left pixel of macroblock k of superblock (i, j)
// in a 4:2:0 picture. All macroblocks are 16x16 pixels.
func Place420(i, j, k int) (x, y int) {
	row := k % 3
	if (k/3)%2 == 1 {
		row = 2 - row
	}

	col := k/3 + superblockCols420[j]
	row += i * 3

	return col * 16, row * 16
}

// edge411 reports whether a 4:1:1 macroblock at x uses the 16x16 layout.
func edge411(x int) bool {
	return x >= 704
}
