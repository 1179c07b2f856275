package dv

// vlcCode is one entry of the canonical AC coefficient code table.
// A run of -1 marks the end-of-block code.
type vlcCode struct {
	run  int8
	amp  int8
	code uint16
	len  uint8
}

// vlcCanonical lists every (run, amplitude) pair with a dedicated code,
// ordered by code length. Codes with a nonzero amplitude are followed by a
// sign bit that is not counted in len.
var vlcCanonical = [...]vlcCode{
	{0, 1, 0x0, 2},
	{0, 2, 0x2, 3},
	{-1, 0, 0x6, 4},
	{1, 1, 0x7, 4},
	{0, 3, 0x8, 4},
	{0, 4, 0x9, 4},
	{2, 1, 0x14, 5},
	{1, 2, 0x15, 5},
	{0, 5, 0x16, 5},
	{0, 6, 0x17, 5},
	{3, 1, 0x30, 6},
	{4, 1, 0x31, 6},
	{0, 7, 0x32, 6},
	{0, 8, 0x33, 6},
	{5, 1, 0x68, 7},
	{6, 1, 0x69, 7},
	{2, 2, 0x6a, 7},
	{1, 3, 0x6b, 7},
	{1, 4, 0x6c, 7},
	{0, 9, 0x6d, 7},
	{0, 10, 0x6e, 7},
	{0, 11, 0x6f, 7},
	{7, 1, 0xe0, 8},
	{8, 1, 0xe1, 8},
	{9, 1, 0xe2, 8},
	{10, 1, 0xe3, 8},
	{3, 2, 0xe4, 8},
	{4, 2, 0xe5, 8},
	{2, 3, 0xe6, 8},
	{1, 5, 0xe7, 8},
	{1, 6, 0xe8, 8},
	{1, 7, 0xe9, 8},
	{0, 12, 0xea, 8},
	{0, 13, 0xeb, 8},
	{0, 14, 0xec, 8},
	{0, 15, 0xed, 8},
	{0, 16, 0xee, 8},
	{0, 17, 0xef, 8},
	{11, 1, 0x1e0, 9},
	{12, 1, 0x1e1, 9},
	{13, 1, 0x1e2, 9},
	{14, 1, 0x1e3, 9},
	{5, 2, 0x1e4, 9},
	{6, 2, 0x1e5, 9},
	{3, 3, 0x1e6, 9},
	{4, 3, 0x1e7, 9},
	{2, 4, 0x1e8, 9},
	{2, 5, 0x1e9, 9},
	{1, 8, 0x1ea, 9},
	{0, 18, 0x1eb, 9},
	{0, 19, 0x1ec, 9},
	{0, 20, 0x1ed, 9},
	{0, 21, 0x1ee, 9},
	{0, 22, 0x1ef, 9},
	{5, 3, 0x3e0, 10},
	{3, 4, 0x3e1, 10},
	{3, 5, 0x3e2, 10},
	{2, 6, 0x3e3, 10},
	{1, 9, 0x3e4, 10},
	{1, 10, 0x3e5, 10},
	{1, 11, 0x3e6, 10},
	{0, 0, 0x7ce, 11},
	{1, 0, 0x7cf, 11},
	{6, 3, 0x7d0, 11},
	{4, 4, 0x7d1, 11},
	{3, 6, 0x7d2, 11},
	{1, 12, 0x7d3, 11},
	{1, 13, 0x7d4, 11},
	{1, 14, 0x7d5, 11},
	{2, 0, 0xfac, 12},
	{3, 0, 0xfad, 12},
	{4, 0, 0xfae, 12},
	{5, 0, 0xfaf, 12},
	{7, 2, 0xfb0, 12},
	{8, 2, 0xfb1, 12},
	{9, 2, 0xfb2, 12},
	{10, 2, 0xfb3, 12},
	{7, 3, 0xfb4, 12},
	{8, 3, 0xfb5, 12},
	{4, 5, 0xfb6, 12},
	{3, 7, 0xfb7, 12},
	{2, 7, 0xfb8, 12},
	{2, 8, 0xfb9, 12},
	{2, 9, 0xfba, 12},
	{2, 10, 0xfbb, 12},
	{2, 11, 0xfbc, 12},
	{1, 15, 0xfbd, 12},
	{1, 16, 0xfbe, 12},
	{1, 17, 0xfbf, 12},
}

const (
	vlcEOB     = -1
	vlcEOBCode = 0x6
	vlcEOBLen  = 4

	vlcRunEscape = 0x7e // 1111110 + 6 bit run
	vlcAmpEscape = 0x7f // 1111111 + 8 bit amplitude + sign

	vlcMaxRun = 63
	vlcMaxAmp = 255
)

// Decode classes, selected by the top 7 bits of the input.
const (
	vlcClassShort = iota // codes of 2..7 bits
	vlcClassMedium       // 8..9 bits
	vlcClassLong         // 10..12 bits
	vlcClassRun          // run escape
	vlcClassAmp          // amplitude escape
)

type vlcEntry struct {
	run int8
	amp uint8
	len uint8
}

type vlcTable struct {
	shift   uint
	entries []vlcEntry
}

var (
	vlcClass  [128]uint8
	vlcTables [3]vlcTable

	// vlcEncodeTable holds the canonical codes by run and amplitude.
	vlcEncodeTable [15][23]struct {
		code uint16
		len  uint8
	}

	// vlcNumBits memoizes the encoded length of every (run, amplitude) pair,
	// sign bit included.
	vlcNumBits [vlcMaxRun + 1][vlcMaxAmp + 1]uint8
)

func init() {
	for i := range vlcClass {
		switch {
		case i < 0x70:
			vlcClass[i] = vlcClassShort
		case i < 0x7c:
			vlcClass[i] = vlcClassMedium
		case i < vlcRunEscape:
			vlcClass[i] = vlcClassLong
		case i == vlcRunEscape:
			vlcClass[i] = vlcClassRun
		default:
			vlcClass[i] = vlcClassAmp
		}
	}

	widths := [3]uint{7, 9, 12}
	for c, w := range widths {
		vlcTables[c] = vlcTable{shift: 16 - w, entries: make([]vlcEntry, 1<<w)}
	}

	for _, v := range vlcCanonical {
		var c int
		switch {
		case v.len <= 7:
			c = vlcClassShort
		case v.len <= 9:
			c = vlcClassMedium
		default:
			c = vlcClassLong
		}

		t := &vlcTables[c]
		w := 16 - t.shift
		spread := uint(w) - uint(v.len)
		base := int(v.code) << spread
		for s := 0; s < 1<<spread; s++ {
			t.entries[base+s] = vlcEntry{run: v.run, amp: uint8(v.amp), len: v.len}
		}

		if v.run >= 0 {
			vlcEncodeTable[v.run][v.amp].code = v.code
			vlcEncodeTable[v.run][v.amp].len = v.len
		}
	}

	for run := 0; run <= vlcMaxRun; run++ {
		for amp := 0; amp <= vlcMaxAmp; amp++ {
			_, n := vlcEncode(uint8(run), uint8(amp), false)
			vlcNumBits[run][amp] = uint8(n)
		}
	}
}

// vlcDecode decodes the symbol at the top of the 16 bits held in bits, of
// which only avail are real stream bits. It returns a length of zero when the
// symbol needs more than avail bits. EOB is reported as run vlcEOB.
func vlcDecode(bits uint32, avail int) (run, amp, n int) {
	switch c := vlcClass[bits>>9]; c {
	case vlcClassRun:
		if avail < 13 {
			return 0, 0, 0
		}

		return int(bits>>3) & 0x3f, 0, 13
	case vlcClassAmp:
		if avail < 16 {
			return 0, 0, 0
		}

		amp = int(bits>>1) & 0xff
		if bits&1 != 0 {
			amp = -amp
		}

		return 0, amp, 16
	default:
		t := &vlcTables[c]
		e := t.entries[bits>>t.shift]

		n = int(e.len)
		amp = int(e.amp)
		if amp != 0 {
			n++
			if (bits>>uint(16-n))&1 != 0 {
				amp = -amp
			}
		}

		if n > avail {
			return 0, 0, 0
		}

		return int(e.run), amp, n
	}
}

// vlcEncode returns the code for run zeros followed by a coefficient of
// magnitude amp, with the sign bit appended when amp is nonzero. A zero amp
// codes run+1 zero coefficients.
func vlcEncode(run, amp uint8, neg bool) (code uint64, n int) {
	run &= vlcMaxRun

	if int(run) < len(vlcEncodeTable) && int(amp) < len(vlcEncodeTable[0]) {
		if e := vlcEncodeTable[run][amp]; e.len != 0 {
			code, n = uint64(e.code), int(e.len)
			if amp != 0 {
				code <<= 1
				if neg {
					code |= 1
				}
				n++
			}

			return code, n
		}
	}

	if amp == 0 {
		if run <= 61 {
			return vlcRunEscape<<6 | uint64(run), 13
		}

		c1, n1 := vlcEncode(1, 0, false)
		c2, n2 := vlcEncode(run-2, 0, false)

		return c1<<uint(n2) | c2, n1 + n2
	}

	if run == 0 {
		code = vlcAmpEscape<<9 | uint64(amp)<<1
		if neg {
			code |= 1
		}

		return code, 16
	}

	c1, n1 := vlcEncode(run-1, 0, false)
	c2, n2 := vlcEncode(0, amp, neg)

	return c1<<uint(n2) | c2, n1 + n2
}
