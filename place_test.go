package dv

import "testing"

func TestPlacementCoverage(t *testing.T) {
	tests := []struct {
		system   System
		sampling Sampling
	}{
		{System525_60, Sampling411},
		{System625_50, Sampling411},
		{System625_50, Sampling420},
	}

	for _, tt := range tests {
		height := tt.system.Height()
		cover := make([]int, Width*height)

		seg := Segment{System: tt.system, Sampling: tt.sampling}
		for ds := 0; ds < tt.system.Sequences(); ds++ {
			for k := 0; k < segmentsPerSeq; k++ {
				seg.Locate(ds, k)

				for m := range seg.MB {
					mb := &seg.MB[m]
					l := layoutFor(tt.sampling, mb.X)

					if mb.X+l.w > Width || mb.Y+l.h > height {
						t.Fatalf("%v %v: macroblock %d,%d,%d at %d,%d outside the picture",
							tt.system, tt.sampling, mb.I, mb.J, mb.K, mb.X, mb.Y)
					}

					for y := 0; y < l.h; y++ {
						for x := 0; x < l.w; x++ {
							cover[(mb.Y+y)*Width+mb.X+x]++
						}
					}
				}
			}
		}

		for i, n := range cover {
			if n != 1 {
				t.Fatalf("%v %v: pixel %d,%d covered %d times", tt.system, tt.sampling, i%Width, i/Width, n)
			}
		}
	}
}

func TestPlace411(t *testing.T) {
	tests := []struct {
		i, j, k int
		x, y    int
	}{
		{0, 0, 0, 0, 0},
		{0, 0, 5, 0, 40},
		{0, 0, 6, 32, 40},
		{0, 0, 11, 32, 0},
		{1, 0, 0, 0, 48},
		{0, 1, 0, 128, 24},
		{0, 4, 24, 704, 0},
		{0, 4, 26, 704, 32},
		{2, 4, 25, 704, 112},
	}

	for _, tt := range tests {
		x, y := Place411(tt.i, tt.j, tt.k)
		if x != tt.x || y != tt.y {
			t.Errorf("Place411(%d, %d, %d): got %d,%d, want %d,%d", tt.i, tt.j, tt.k, x, y, tt.x, tt.y)
		}
	}
}

func TestPlace420(t *testing.T) {
	tests := []struct {
		i, j, k int
		x, y    int
	}{
		{0, 0, 0, 0, 0},
		{0, 0, 2, 0, 32},
		{0, 0, 3, 16, 32},
		{0, 0, 5, 16, 0},
		{1, 2, 0, 288, 48},
		{11, 4, 26, 704, 560},
	}

	for _, tt := range tests {
		x, y := Place420(tt.i, tt.j, tt.k)
		if x != tt.x || y != tt.y {
			t.Errorf("Place420(%d, %d, %d): got %d,%d, want %d,%d", tt.i, tt.j, tt.k, x, y, tt.x, tt.y)
		}
	}
}

func TestSequenceLayout(t *testing.T) {
	var used [150]int
	for b := 0; b < 6; b++ {
		used[b]++
	}

	for a := 0; a < 9; a++ {
		used[audioOffset(0, a)/difBlockSize]++
	}

	for k := 0; k < segmentsPerSeq; k++ {
		first := segmentOffset(0, k) / difBlockSize
		for b := first; b < first+5; b++ {
			used[b]++
		}
	}

	for b, n := range used {
		if n != 1 {
			t.Errorf("block %d: used %d times", b, n)
		}
	}

	if off := segmentOffset(3, 0); off != 3*difSequenceSize+7*difBlockSize {
		t.Errorf("segment 3,0: got offset %d", off)
	}
}
