package dv

const maxSpans = 40

// spanList is a fixed capacity list of bit spans.
type spanList struct {
	spans [maxSpans]span
	n     int
}

func (l *spanList) reset() {
	l.n = 0
}

func (l *spanList) add(s span) {
	if s.len() <= 0 || l.n == maxSpans {
		return
	}

	l.spans[l.n] = s
	l.n++
}

func (l *spanList) addAll(o *spanList) {
	for _, s := range o.list() {
		l.add(s)
	}
}

func (l *spanList) list() []span {
	return l.spans[:l.n]
}

func (l *spanList) bits() int {
	n := 0
	for _, s := range l.list() {
		n += s.len()
	}

	return n
}

// spanReader reads a bit stream that is scattered over a list of spans.
type spanReader struct {
	data  []byte
	spans spanList
	first int
	avail int
}

func (r *spanReader) reset(data []byte, lists ...*spanList) {
	r.data = data
	r.spans.reset()
	r.first = 0

	for _, l := range lists {
		r.spans.addAll(l)
	}

	r.avail = r.spans.bits()
}

// peek16 returns the next 16 bits, zero padded past the end of the stream.
func (r *spanReader) peek16() uint32 {
	var v uint32

	got := 0
	for _, s := range r.spans.list()[r.first:] {
		if got == 16 {
			break
		}

		k := s.len()
		if k > 16-got {
			k = 16 - got
		}

		br := bitReader{data: r.data, pos: s.start}
		v = v<<uint(k) | br.peek(k)
		got += k
	}

	return v << uint(16-got)
}

func (r *spanReader) skip(n int) {
	r.avail -= n

	for n > 0 && r.first < r.spans.n {
		s := &r.spans.spans[r.first]
		k := s.len()
		if k > n {
			s.start += n
			return
		}

		n -= k
		r.first++
	}

	// Drop exhausted spans so remaining never returns empty ones.
	for r.first < r.spans.n && r.spans.spans[r.first].len() == 0 {
		r.first++
	}
}

// remaining stores the unread spans in dst.
func (r *spanReader) remaining(dst *spanList) {
	dst.reset()
	for _, s := range r.spans.list()[r.first:] {
		dst.add(s)
	}
}

// parseResult is the outcome of parsing AC coefficients of one block.
type parseResult int

const (
	parseEOB parseResult = iota
	parseExhausted
	parseError
)

// parseAC decodes AC symbols of a block until EOB, the end of the stream or
// a corrupt symbol.
func parseAC(b *Block, r *spanReader) parseResult {
	scan := scanOrder(b.Mode)

	for {
		run, amp, n := vlcDecode(r.peek16(), r.avail)
		if n == 0 {
			return parseExhausted
		}

		r.skip(n)

		if run == vlcEOB {
			b.eob = true
			return parseEOB
		}

		pos := b.next + run
		if pos > 63 {
			return parseError
		}

		if amp != 0 {
			b.Coeffs[scan[pos]] = int16(amp)
		}

		b.next = pos + 1
	}
}

// DecodeSegment parses the 400 bytes of a video segment into the
// segment's macroblocks. Coefficients are left quantized and weighted, in
// raster order. Parsing never fails; corrupt or truncated data is counted
// in the macroblocks' VLCErrors.
func DecodeSegment(seg *Segment, data []byte, q Quality) {
	var r spanReader

	level := q & qualityLevel

	for m := range seg.MB {
		mb := &seg.MB[m]
		base := m * mbBits

		mb.Qno = data[m*difBlockSize+3] & 0x0f
		mb.VLCErrors = 0
		mb.EOBCount = 0

		for b := range mb.Blocks {
			bl := &mb.Blocks[b]
			bl.Coeffs = [64]int16{}
			bl.next = 1
			bl.eob = false
			bl.pending.reset()

			br := bitReader{data: data, pos: base + blockStart[b]}
			dc := int32(br.read(9))
			if dc&0x100 != 0 {
				dc -= 0x200
			}

			bl.Coeffs[0] = int16(dc)
			bl.Mode = DCTMode(br.read(1))
			bl.Class = uint8(br.read(2))
		}
	}

	if level < QualityAC1 {
		return
	}

	var mbFree [5]spanList

	// Pass 1: every block within its own area.
	for m := range seg.MB {
		mb := &seg.MB[m]
		base := m * mbBits
		mbFree[m].reset()

		for b := range mb.Blocks {
			bl := &mb.Blocks[b]
			area := span{base + blockStart[b] + blockHeader, base + blockEnd[b]}

			var own spanList
			own.add(area)
			r.reset(data, &own)

			switch parseAC(bl, &r) {
			case parseEOB:
				mb.EOBCount++
				r.remaining(&own)
				mbFree[m].addAll(&own)
			case parseExhausted:
				r.remaining(&bl.pending)
			case parseError:
				mb.VLCErrors++
				bl.eob = true
			}
		}
	}

	if level < QualityAC2 {
		return
	}

	// Pass 2: unfinished blocks continue in the free space of their macroblock.
	for m := range seg.MB {
		parseSpill(&seg.MB[m], &mbFree[m], data, &r)
	}

	// Pass 3: and in the free space of the whole segment.
	seg.free.reset()
	for m := range seg.MB {
		seg.free.addAll(&mbFree[m])
	}

	for m := range seg.MB {
		parseSpill(&seg.MB[m], &seg.free, data, &r)
	}

	for m := range seg.MB {
		mb := &seg.MB[m]
		for b := range mb.Blocks {
			if !mb.Blocks[b].eob {
				mb.VLCErrors++
			}
		}
	}
}

// parseSpill resumes the unfinished blocks of a macroblock on free.
func parseSpill(mb *Macroblock, free *spanList, data []byte, r *spanReader) {
	for b := range mb.Blocks {
		bl := &mb.Blocks[b]
		if bl.eob {
			continue
		}

		if free.n == 0 {
			return
		}

		r.reset(data, &bl.pending, free)

		switch parseAC(bl, r) {
		case parseEOB:
			mb.EOBCount++
			r.remaining(free)
		case parseExhausted:
			r.remaining(&bl.pending)
			free.reset()
		case parseError:
			mb.VLCErrors++
			bl.eob = true
			free.reset()
		}
	}
}
