package dv

// EncodeStats counts the compromises the encoder made to fit the fixed bit
// budget of a segment.
type EncodeStats struct {
	// Truncated is the number of nonzero coefficients dropped.
	Truncated int
	// Spilled is the number of blocks whose codes did not fit their own area.
	Spilled int
}

// Add accumulates o into s.
func (s *EncodeStats) Add(o EncodeStats) {
	s.Truncated += o.Truncated
	s.Spilled += o.Spilled
}

const streamBytes = 256

// segmentEncoder holds the scratch state of one EncodeSegment call.
type segmentEncoder struct {
	scan   [5][6][64]int16
	bits   [5][6]int
	stream [5][6][streamBytes]byte
	length [5][6]int
	done   [5][6]int
}

// acBits returns the VLC length of the AC coefficients of a scan-order block,
// without the EOB code.
func acBits(scan *[64]int16) int {
	n, run := 0, 0
	for i := 1; i < 64; i++ {
		c := scan[i]
		if c == 0 {
			run++
			continue
		}

		a := abs(int(c))
		if a > vlcMaxAmp {
			a = vlcMaxAmp
		}

		n += int(vlcNumBits[run][a])
		run = 0
	}

	return n
}

// blockBits quantizes a block with qno and returns its code length with EOB
// and whether all amplitudes fit the code table.
func blockBits(bl *Block, qno uint8) (int, bool) {
	var q, s [64]int16

	fits := quantize(&q, &bl.Coeffs, qno, bl.Class, bl.Mode)
	zigzag(&s, &q, bl.Mode)

	return acBits(&s) + vlcEOBLen, fits
}

func areaBits(b int) int {
	return blockEnd[b] - blockStart[b] - blockHeader
}

// mbBitsAt returns the code length of a whole macroblock at qno.
func mbBitsAt(mb *Macroblock, qno uint8) (int, bool) {
	total, ok := 0, true
	for b := range mb.Blocks {
		n, fits := blockBits(&mb.Blocks[b], qno)
		total += n
		ok = ok && fits
	}

	return total, ok
}

// chooseQno picks the finest quantization number of a macroblock.
func chooseQno(mb *Macroblock, p Passes) uint8 {
	q1 := uint8(15)

	for b := range mb.Blocks {
		qb := uint8(0)
		for q := 15; q >= 0; q-- {
			n, fits := blockBits(&mb.Blocks[b], uint8(q))
			if fits && n <= areaBits(b) {
				qb = uint8(q)
				break
			}
		}

		if qb < q1 {
			q1 = qb
		}
	}

	if p < Passes2 {
		return q1
	}

	for q := 15; q > int(q1); q-- {
		n, fits := mbBitsAt(mb, uint8(q))
		if fits && n <= mbACBits {
			return uint8(q)
		}
	}

	return q1
}

// raiseQno refines macroblocks while the segment as a whole has room left.
func raiseQno(seg *Segment) {
	var cost [5]int

	total := 0
	for m := range seg.MB {
		cost[m], _ = mbBitsAt(&seg.MB[m], seg.MB[m].Qno)
		total += cost[m]
	}

	for changed := true; changed; {
		changed = false

		for m := range seg.MB {
			mb := &seg.MB[m]
			if mb.Qno >= 15 {
				continue
			}

			n, fits := mbBitsAt(mb, mb.Qno+1)
			if !fits || total-cost[m]+n > segACBits {
				continue
			}

			total += n - cost[m]
			cost[m] = n
			mb.Qno++
			changed = true
		}
	}
}

// dropLast zeroes the last nonzero AC coefficient of a scan-order block.
func dropLast(scan *[64]int16) bool {
	for i := 63; i > 0; i-- {
		if scan[i] != 0 {
			scan[i] = 0
			return true
		}
	}

	return false
}

// fit drops coefficients from the largest block among macroblocks m0..m1
// and blocks b0..b1 until their total code length fits budget.
func (e *segmentEncoder) fit(m0, m1, b0, b1, budget int) int {
	dropped := 0

	for {
		total, lm, lb := 0, -1, -1
		for m := m0; m <= m1; m++ {
			for b := b0; b <= b1; b++ {
				total += e.bits[m][b]
				if lm < 0 || e.bits[m][b] > e.bits[lm][lb] {
					lm, lb = m, b
				}
			}
		}

		if total <= budget || !dropLast(&e.scan[lm][lb]) {
			return dropped
		}

		e.bits[lm][lb] = acBits(&e.scan[lm][lb]) + vlcEOBLen
		dropped++
	}
}

// build writes the code stream of every block into its scratch buffer.
func (e *segmentEncoder) build() {
	for m := range e.scan {
		for b := range e.scan[m] {
			buf := e.stream[m][b][:]
			for i := range buf {
				buf[i] = 0
			}

			off, run := 0, 0
			for i := 1; i < 64; i++ {
				c := e.scan[m][b][i]
				if c == 0 {
					run++
					continue
				}

				a := abs(int(c))
				if a > vlcMaxAmp {
					a = vlcMaxAmp
				}

				code, n := vlcEncode(uint8(run), uint8(a), c < 0)
				off = putBits(buf, off, n, code)
				run = 0
			}

			off = putBits(buf, off, vlcEOBLen, vlcEOBCode)
			e.length[m][b] = off
		}
	}
}

// copyBits copies n bits from src at srcOff into the zeroed dst at dstOff.
func copyBits(dst []byte, dstOff int, src []byte, srcOff, n int) {
	br := bitReader{data: src, pos: srcOff}
	for n > 0 {
		k := n
		if k > 16 {
			k = 16
		}

		dstOff = putBits(dst, dstOff, k, uint64(br.read(k)))
		n -= k
	}
}

// pour writes the unwritten rest of a block's stream into free, consuming
// the spans it fills.
func (e *segmentEncoder) pour(data []byte, m, b int, free *spanList) {
	var rest spanList

	for _, s := range free.list() {
		left := e.length[m][b] - e.done[m][b]
		if left == 0 {
			rest.add(s)
			continue
		}

		n := s.len()
		if n > left {
			n = left
		}

		copyBits(data, s.start, e.stream[m][b][:], e.done[m][b], n)
		e.done[m][b] += n

		rest.add(span{s.start + n, s.end})
	}

	*free = rest
}

// EncodeSegment quantizes and codes the five macroblocks of seg into the
// 400 bytes of data. The blocks hold weighted DCT coefficients in raster
// order with their DCT mode set; class and qno are chosen here. The DIF
// block IDs in data are left untouched.
func EncodeSegment(seg *Segment, data []byte, p Passes) EncodeStats {
	var (
		e     segmentEncoder
		stats EncodeStats
	)

	for m := range seg.MB {
		mb := &seg.MB[m]
		for b := range mb.Blocks {
			mb.Blocks[b].Class = classify(&mb.Blocks[b].Coeffs, b >= 4)
		}

		mb.Qno = chooseQno(mb, p)
	}

	if p >= Passes3 {
		raiseQno(seg)
	}

	for m := range seg.MB {
		mb := &seg.MB[m]
		for b := range mb.Blocks {
			bl := &mb.Blocks[b]

			var q [64]int16
			quantize(&q, &bl.Coeffs, mb.Qno, bl.Class, bl.Mode)
			zigzag(&e.scan[m][b], &q, bl.Mode)
			e.bits[m][b] = acBits(&e.scan[m][b]) + vlcEOBLen
		}
	}

	switch {
	case p <= Passes1:
		for m := 0; m < 5; m++ {
			for b := 0; b < 6; b++ {
				stats.Truncated += e.fit(m, m, b, b, areaBits(b))
			}
		}
	case p == Passes2:
		for m := 0; m < 5; m++ {
			stats.Truncated += e.fit(m, m, 0, 5, mbACBits)
		}
	default:
		stats.Truncated += e.fit(0, 4, 0, 5, segACBits)
	}

	e.build()

	for m := range seg.MB {
		blk := data[m*difBlockSize : (m+1)*difBlockSize]
		for i := 3; i < difBlockSize; i++ {
			blk[i] = 0
		}

		blk[3] = seg.MB[m].Qno & 0x0f
	}

	var mbFree [5]spanList

	// Pass 1: every block's own area.
	for m := range seg.MB {
		mb := &seg.MB[m]
		base := m * mbBits

		for b := range mb.Blocks {
			bl := &mb.Blocks[b]

			dc := int32(bl.Coeffs[0])
			if dc > 255 {
				dc = 255
			} else if dc < -256 {
				dc = -256
			}

			off := base + blockStart[b]
			off = putBits(data, off, 9, uint64(dc)&0x1ff)
			off = putBits(data, off, 1, uint64(bl.Mode&1))
			off = putBits(data, off, 2, uint64(bl.Class&3))

			area := span{off, base + blockEnd[b]}
			n := e.length[m][b]
			if n > area.len() {
				n = area.len()
				stats.Spilled++
			}

			copyBits(data, area.start, e.stream[m][b][:], 0, n)
			e.done[m][b] = n

			if n == e.length[m][b] {
				mbFree[m].add(span{area.start + n, area.end})
			}
		}
	}

	// Pass 2: the free space of the macroblock.
	for m := range seg.MB {
		for b := 0; b < 6; b++ {
			if e.done[m][b] < e.length[m][b] && mbFree[m].n > 0 {
				e.pour(data, m, b, &mbFree[m])
			}
		}
	}

	// Pass 3: the free space of the segment.
	var free spanList
	for m := range mbFree {
		free.addAll(&mbFree[m])
	}

	for m := range seg.MB {
		for b := 0; b < 6; b++ {
			if e.done[m][b] < e.length[m][b] && free.n > 0 {
				e.pour(data, m, b, &free)
			}
		}
	}

	return stats
}
