package dv

import (
	"fmt"
	"math/rand"
	"testing"
)

// decodeCode runs a code of n bits through vlcDecode and returns the scan
// position reached and the amplitude placed, as parseAC would.
func decodeCode(t *testing.T, code uint64, n int) (next, pos, amp int) {
	t.Helper()

	buf := code << uint(64-n)
	pos = -1

	for off := 0; off < n; {
		bits := uint32((buf << uint(off)) >> 48)

		run, a, k := vlcDecode(bits, n-off)
		if k == 0 {
			t.Fatalf("code %#x/%d: stuck at bit %d", code, n, off)
		}

		p := next + run
		if a != 0 {
			pos, amp = p, a
		}
		next = p + 1
		off += k
	}

	return
}

func TestVLCRoundTrip(t *testing.T) {
	for run := 0; run <= vlcMaxRun; run++ {
		for a := 1; a <= vlcMaxAmp; a++ {
			neg := (run+a)%2 == 1

			code, n := vlcEncode(uint8(run), uint8(a), neg)
			if n != int(vlcNumBits[run][a]) {
				t.Fatalf("run %d amp %d: length %d, memoized %d", run, a, n, vlcNumBits[run][a])
			}

			next, pos, amp := decodeCode(t, code, n)

			want := a
			if neg {
				want = -a
			}

			if pos != run || amp != want || next != run+1 {
				t.Fatalf("run %d amp %d: got pos %d amp %d next %d", run, want, pos, amp, next)
			}
		}
	}
}

func TestVLCZeroRuns(t *testing.T) {
	for run := 0; run <= vlcMaxRun; run++ {
		code, n := vlcEncode(uint8(run), 0, false)

		next, pos, _ := decodeCode(t, code, n)
		if pos != -1 {
			t.Errorf("run %d: unexpected amplitude at %d", run, pos)
		}

		if next != run+1 {
			t.Errorf("run %d: got %d zeros, want %d", run, next, run+1)
		}
	}
}

func TestVLCEscapes(t *testing.T) {
	tests := []struct {
		run, amp uint8
		neg      bool
		want     string
	}{
		{5, 0, false, "111110101111"},
		{6, 0, false, "1111110000110"},
		{61, 0, false, "1111110111101"},
		{62, 0, false, "11111001111" + "1111110111100"},
		{63, 0, false, "11111001111" + "1111110111101"},
		{0, 22, false, "1111011110"},
		{0, 23, true, "1111111000101111"},
		{0, 255, false, "1111111111111110"},
		{30, 2, true, "1111110011101" + "0101"},
	}

	for _, tt := range tests {
		code, n := vlcEncode(tt.run, tt.amp, tt.neg)
		if got := fmt.Sprintf("%0*b", n, code); got != tt.want {
			t.Errorf("run %d amp %d neg %v: got %s, want %s", tt.run, tt.amp, tt.neg, got, tt.want)
		}

		// The bits written by putBits read back as the same pattern.
		buf := make([]byte, 8)
		putBits(buf, 3, n, code)

		br := bitReader{data: buf, pos: 3}
		got := make([]byte, 0, n)
		for i := 0; i < n; i++ {
			got = append(got, '0'+byte(br.read(1)))
		}

		if string(got) != tt.want {
			t.Errorf("run %d amp %d neg %v: wrote %s, want %s", tt.run, tt.amp, tt.neg, got, tt.want)
		}
	}
}

func TestVLCEOB(t *testing.T) {
	bits := uint32(vlcEOBCode) << (16 - vlcEOBLen)

	run, _, n := vlcDecode(bits, 16)
	if run != vlcEOB || n != vlcEOBLen {
		t.Errorf("EOB: got run %d length %d", run, n)
	}

	if _, _, n := vlcDecode(bits, vlcEOBLen-1); n != 0 {
		t.Errorf("EOB: decoded %d bits from %d available", n, vlcEOBLen-1)
	}
}

func TestVLCTruncated(t *testing.T) {
	code, n := vlcEncode(0, 200, false)
	bits := uint32(code << uint(16-n))

	if _, _, k := vlcDecode(bits, n-1); k != 0 {
		t.Errorf("escape: decoded %d bits from %d available", k, n-1)
	}
}

func BenchmarkVLCDecode(b *testing.B) {
	r := rand.New(rand.NewSource(1))

	words := make([]uint32, 1024)
	for i := range words {
		code, n := vlcEncode(uint8(r.Intn(8)), uint8(1+r.Intn(20)), r.Intn(2) == 0)
		words[i] = uint32(code << uint(16-n))
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		vlcDecode(words[i&1023], 16)
	}
}
