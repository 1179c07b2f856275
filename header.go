package dv

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Header describes a frame as signalled by its header and auxiliary blocks.
type Header struct {
	System   System
	Std      Std
	Sampling Sampling

	Width     int
	Height    int
	FrameSize int
	Sequences int

	// Wide is set for 16:9 pictures.
	Wide bool

	// Timecode from the subcode, zero when absent.
	Timecode Timecode

	// Recorded is the recording date and time, zero when absent.
	Recorded time.Time

	// Audio is valid when HasAudio is set.
	Audio    AudioInfo
	HasAudio bool
}

// Framerate returns the frame rate in frames per second.
func (h Header) Framerate() float64 {
	return h.System.Framerate()
}

// DisplayWidth returns the picture width on a square pixel display.
func (h Header) DisplayWidth() int {
	if h.Wide {
		return (h.Height*16 + 8) / 9
	}

	return h.Height * 4 / 3
}

// ParseHeader reads the header block of the first DIF sequence and the
// auxiliary packs of a frame.
func ParseHeader(frame []byte) (Header, error) {
	var h Header

	if len(frame) < difSequenceSize {
		return h, errors.Wrapf(ErrFrameSize, "got %d bytes", len(frame))
	}

	if frame[0] != headerID {
		return h, errors.Wrapf(ErrInvalidHeader, "block ID %#x", frame[0])
	}

	h.System = System525_60
	if frame[3]&0x80 != 0 {
		h.System = System625_50
	}

	if frame[4]&0x07 != 0 {
		h.Std = SMPTE314M
	}

	h.Sampling = Sampling411
	if h.System == System625_50 && h.Std == IEC61834 {
		h.Sampling = Sampling420
	}

	h.Width = Width
	h.Height = h.System.Height()
	h.FrameSize = h.System.FrameSize()
	h.Sequences = h.System.Sequences()

	if len(frame) < h.FrameSize {
		return h, errors.Wrapf(ErrFrameSize, "%s frame of %d bytes", h.System, len(frame))
	}

	if p, ok := VAUXPack(frame, packSourceControl); ok {
		h.Wide = isWide(p)
	}

	if p, ok := SubcodePack(frame, packTimecode); ok {
		h.Timecode = parseTimecode(p)
	}

	h.Recorded = recordedAt(frame)
	h.Audio, h.HasAudio = parseAudioInfo(frame)

	return h, nil
}

// Pack is a five byte auxiliary data pack. The first byte is the pack ID.
type Pack [5]byte

// ID returns the pack header.
func (p Pack) ID() byte {
	return p[0]
}

// Pack IDs.
const (
	packTimecode      = 0x13
	packAudioSource   = 0x50
	packAudioControl  = 0x51
	packAudioDate     = 0x52
	packAudioTime     = 0x53
	packSource        = 0x60
	packSourceControl = 0x61
	packRecDate       = 0x62
	packRecTime       = 0x63
)

// VAUXPack returns the first pack with the given ID from the VAUX blocks of
// the first two DIF sequences.
func VAUXPack(frame []byte, id byte) (Pack, bool) {
	for ds := 0; ds < 2; ds++ {
		for b := 0; b < 3; b++ {
			blk := frame[ds*difSequenceSize+(3+b)*difBlockSize:]
			if blk[0]&0xe0 != sctVAUX {
				continue
			}

			for n := 0; n < 15; n++ {
				if p := packAt(blk, 3+n*5); p.ID() == id {
					return p, true
				}
			}
		}
	}

	return Pack{}, false
}

// AAUXPack returns the AAUX pack with the given ID (0x50..0x55) from the
// audio blocks of the first two DIF sequences.
func AAUXPack(frame []byte, id byte) (Pack, bool) {
	n := int(id) - packAudioSource
	if n < 0 || n > 5 {
		return Pack{}, false
	}

	for ds := 0; ds < 2; ds++ {
		a := n
		if ds%2 == 0 {
			a += 3
		}

		blk := frame[audioOffset(ds, a):]
		if blk[0]&0xe0 != sctAudio {
			continue
		}

		if p := packAt(blk, 3); p.ID() == id {
			return p, true
		}
	}

	return Pack{}, false
}

// SubcodePack returns the first pack with the given ID from the subcode
// blocks of the frame.
func SubcodePack(frame []byte, id byte) (Pack, bool) {
	sequences := len(frame) / difSequenceSize
	for ds := 0; ds < sequences; ds++ {
		for b := 0; b < 2; b++ {
			blk := frame[ds*difSequenceSize+(1+b)*difBlockSize:]
			if blk[0]&0xe0 != sctSubcode {
				continue
			}

			for n := 0; n < 6; n++ {
				if p := packAt(blk, 6+n*8); p.ID() == id {
					return p, true
				}
			}
		}
	}

	return Pack{}, false
}

func packAt(blk []byte, off int) Pack {
	var p Pack
	copy(p[:], blk[off:off+5])

	return p
}

// isWide reads the display select mode of a VAUX source control pack.
func isWide(p Pack) bool {
	disp := p[2] & 0x07
	return disp == 0x02 || disp == 0x07
}

func bcd(b byte) int {
	return int(b>>4)*10 + int(b&0x0f)
}

func toBCD(v int) byte {
	return byte((v/10)<<4 | v%10)
}

// Timecode is a SMPTE style time code.
type Timecode struct {
	Hours   int
	Minutes int
	Seconds int
	Frames  int
}

func (t Timecode) String() string {
	return fmt.Sprintf("%02d:%02d:%02d:%02d", t.Hours, t.Minutes, t.Seconds, t.Frames)
}

func parseTimecode(p Pack) Timecode {
	return Timecode{
		Frames:  bcd(p[1] & 0x3f),
		Seconds: bcd(p[2] & 0x7f),
		Minutes: bcd(p[3] & 0x7f),
		Hours:   bcd(p[4] & 0x3f),
	}
}

// recordedAt combines the VAUX recording date and time packs.
func recordedAt(frame []byte) time.Time {
	d, ok := VAUXPack(frame, packRecDate)
	if !ok {
		return time.Time{}
	}

	t, ok := VAUXPack(frame, packRecTime)
	if !ok {
		return time.Time{}
	}

	day, month, year := bcd(d[2]&0x3f), bcd(d[3]&0x1f), bcd(d[4])
	if day == 0 || month == 0 || month > 12 {
		return time.Time{}
	}

	if year < 75 {
		year += 2000
	} else {
		year += 1900
	}

	sec, min, hour := bcd(t[2]&0x7f), bcd(t[3]&0x7f), bcd(t[4]&0x3f)

	return time.Date(year, time.Month(month), day, hour, min, sec, 0, time.Local)
}
