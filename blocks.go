package dv

import "time"

// infoBlocks describes the non-video content of a frame written by the
// encoder.
type infoBlocks struct {
	System System
	Std    Std
	Wide   bool

	// Frame is the index of the frame in the stream.
	Frame int
	// Time is the recording time of the frame.
	Time time.Time
}

// frameTime advances start by one second every full second of frames.
func frameTime(start time.Time, system System, frame int) time.Time {
	return start.Add(time.Duration(frame/framesPerSecond(system)) * time.Second)
}

func framesPerSecond(s System) int {
	if s == System625_50 {
		return 25
	}

	return 30
}

// blockID writes the three byte ID of a DIF block.
func blockID(blk []byte, sct byte, ds, dbn int) {
	blk[0] = sct | 0x1f
	blk[1] = 0x07 | byte(ds<<4)
	blk[2] = byte(dbn)
}

func fill(p []byte, v byte) {
	for i := range p {
		p[i] = v
	}
}

// write fills the header, subcode, VAUX and audio blocks of frame and sets
// the IDs of its video blocks. Video segment payloads are left untouched.
func (ib *infoBlocks) write(frame []byte) {
	seq := byte((ib.Frame + 0xb) % 12)

	for ds := 0; ds < ib.System.Sequences(); ds++ {
		base := frame[ds*difSequenceSize : (ds+1)*difSequenceSize]

		ib.writeHeader(base[:difBlockSize], ds)
		ib.writeSubcode(base[difBlockSize:3*difBlockSize], ds)
		ib.writeVAUX(base[3*difBlockSize:6*difBlockSize], ds)

		n := 0
		for a := 0; a < 9; a++ {
			blk := base[(6+16*a)*difBlockSize:]
			fill(blk[:difBlockSize], 0xff)
			blk[0] = sctAudio | 0x10 | seq
			blk[1] = 0x07 | byte(ds<<4)
			blk[2] = byte(a)

			for v := 1; v < 16; v++ {
				blk := base[(6+16*a+v)*difBlockSize:]
				blk[0] = sctVideo | 0x10 | seq
				blk[1] = 0x07 | byte(ds<<4)
				blk[2] = byte(n)
				n++
			}
		}
	}
}

func (ib *infoBlocks) writeHeader(blk []byte, ds int) {
	fill(blk, 0xff)
	blockID(blk, sctHeader, ds, 0)

	blk[3] = 0x00
	if ib.System == System625_50 {
		blk[3] = 0x80
	}

	apt := byte(0)
	if ib.Std == SMPTE314M {
		apt = 1
	}

	blk[4] = 0x68 | apt
	blk[5] = 0x78 | apt
	blk[6] = 0x78 | apt
	blk[7] = 0x78 | apt
}

func (ib *infoBlocks) writeSubcode(blks []byte, ds int) {
	fill(blks, 0xff)

	count := ((ib.Frame*ib.System.Sequences() + ds) * 0x20) & 0xfff

	for b := 0; b < 2; b++ {
		blk := blks[b*difBlockSize : (b+1)*difBlockSize]
		blockID(blk, sctSubcode, ds, b)

		blk[3] = byte(count >> 8)
		blk[4] = byte(count + 6*b)

		if ds < 6 {
			continue
		}

		blk[3] |= 0x80

		for n := 0; n < 6; n += 3 {
			ib.timecodePack(blk[6+n*8:])
			ib.datePack(blk[6+(n+1)*8:], packRecDate)
			ib.timePack(blk[6+(n+2)*8:], packRecTime)
		}
	}
}

// vauxCamera holds the camera packs of the first VAUX block of a frame.
var vauxCamera = [15]byte{
	0x70, 0xc5, 0x41, 0x20, 0xff,
	0x71, 0xff, 0x7f, 0xff, 0xff,
	0x7f, 0xff, 0xff, 0x38, 0x81,
}

func (ib *infoBlocks) writeVAUX(blks []byte, ds int) {
	fill(blks, 0xff)

	for b := 0; b < 3; b++ {
		blockID(blks[b*difBlockSize:], sctVAUX, ds, b)
	}

	switch {
	case ds == 0:
		copy(blks[3:], vauxCamera[:])
	case ds%2 == 1:
		ib.sourcePacks(blks[3:])
	}

	ib.sourcePacks(blks[2*difBlockSize+48:])
}

// sourcePacks writes the VAUX source, source control, date and time packs.
func (ib *infoBlocks) sourcePacks(p []byte) {
	t := ib.Time

	copy(p[0:5], []byte{packSource, 0xff, 0xff, toBCD(t.Year() / 100), 0xff})

	ctl := byte(0xc8)
	if ib.Wide {
		ctl |= 0x02
	}
	copy(p[5:10], []byte{packSourceControl, 0x33, ctl, 0xfd, 0xff})

	ib.datePack(p[10:], packRecDate)
	ib.timePack(p[15:], packRecTime)
}

func (ib *infoBlocks) timecodePack(p []byte) {
	t := ib.Time

	p[0] = packTimecode
	p[1] = toBCD(ib.Frame % framesPerSecond(ib.System))
	p[2] = toBCD(t.Second())
	p[3] = toBCD(t.Minute())
	p[4] = toBCD(t.Hour())
}

func (ib *infoBlocks) datePack(p []byte, id byte) {
	t := ib.Time

	p[0] = id
	p[1] = 0xff
	p[2] = toBCD(t.Day())
	p[3] = toBCD(int(t.Month()))
	p[4] = toBCD(t.Year() % 100)
}

func (ib *infoBlocks) timePack(p []byte, id byte) {
	t := ib.Time

	p[0] = id
	p[1] = 0xff
	p[2] = toBCD(t.Second())
	p[3] = toBCD(t.Minute())
	p[4] = toBCD(t.Hour())
}
