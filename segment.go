package dv

// Frame geometry.
const (
	FrameSizeNTSC = 120000
	FrameSizePAL  = 144000

	difBlockSize    = 80
	difSequenceSize = 150 * difBlockSize
	segmentSize     = 5 * difBlockSize
	segmentsPerSeq  = 27

	// Section type in the top three bits of the DIF block ID.
	sctHeader  = 0x00
	sctSubcode = 0x20
	sctVAUX    = 0x40
	sctAudio   = 0x60
	sctVideo   = 0x80

	// First ID byte of a frame's header block: section type, reserved bit
	// and arbitrary bits all set.
	headerID = sctHeader | 0x1f
)

// System is the DV line system.
type System int

// Line systems.
const (
	System525_60 System = iota // NTSC, 10 DIF sequences
	System625_50               // PAL, 12 DIF sequences
)

func (s System) String() string {
	if s == System625_50 {
		return "625-50"
	}

	return "525-60"
}

// Sequences returns the number of DIF sequences in a frame.
func (s System) Sequences() int {
	if s == System625_50 {
		return 12
	}

	return 10
}

// FrameSize returns the frame size in bytes.
func (s System) FrameSize() int {
	return s.Sequences() * difSequenceSize
}

// Height returns the picture height.
func (s System) Height() int {
	if s == System625_50 {
		return 576
	}

	return 480
}

// Framerate returns the frame rate in frames per second.
func (s System) Framerate() float64 {
	if s == System625_50 {
		return 25
	}

	return 30000.0 / 1001.0
}

// Width of every DV picture.
const Width = 720

// Std is the recording standard signalled in the header block.
type Std int

// Recording standards.
const (
	IEC61834 Std = iota
	SMPTE314M
)

func (s Std) String() string {
	if s == SMPTE314M {
		return "SMPTE 314M"
	}

	return "IEC 61834"
}

// Sampling is the chroma subsampling of the video data.
type Sampling int

// Chroma samplings.
const (
	Sampling411 Sampling = iota
	Sampling420
)

func (s Sampling) String() string {
	if s == Sampling420 {
		return "4:2:0"
	}

	return "4:1:1"
}

// DCTMode selects the transform of one block.
type DCTMode uint8

// DCT modes.
const (
	DCT88 DCTMode = iota
	DCT248
)

// Quality controls how much of a segment the decoder parses.
type Quality int

// Quality levels. One of QualityDC, QualityAC1 and QualityAC2 may be
// combined with QualityColor.
const (
	QualityDC  Quality = 1 // DC coefficients only
	QualityAC1 Quality = 2 // AC coefficients within each block's own area
	QualityAC2 Quality = 3 // AC coefficients spread over the whole segment

	QualityColor Quality = 4

	QualityFastest = QualityDC
	QualityBest    = QualityAC2 | QualityColor

	qualityLevel = 3
)

// Passes is the bit distribution policy of the encoder.
type Passes int

// Encoder distribution policies.
const (
	Passes1 Passes = iota + 1 // every block within its own area
	Passes2                   // spill over into the free space of the macroblock
	Passes3                   // spill over into the free space of the segment
)

// Bit layout of a compressed macroblock within its DIF block.
var (
	blockStart = [6]int{32, 144, 256, 368, 480, 560}
	blockEnd   = [6]int{144, 256, 368, 480, 560, 640}
)

const (
	mbBits      = difBlockSize * 8
	mbACBits    = 4*100 + 2*68
	segACBits   = 5 * mbACBits
	blockHeader = 12
	qnoBit      = 28
)

// span is a half open range of bit offsets within a segment.
type span struct {
	start, end int
}

func (s span) len() int {
	return s.end - s.start
}

// Block is one 8x8 block of a macroblock. Coeffs are kept in raster order;
// after decoding they hold the centered pixel values.
type Block struct {
	Coeffs [64]int16
	Mode   DCTMode
	Class  uint8

	eob     bool
	next    int // scan position of the next coefficient
	pending spanList
}

// Macroblock is four luma blocks followed by Cr and Cb.
type Macroblock struct {
	Blocks [6]Block

	// Superblock row, column and index within the superblock.
	I, J, K int
	// Position of the top-left pixel.
	X, Y int

	Qno uint8

	VLCErrors int
	EOBCount  int
}

// Segment is a video segment of five macroblocks.
type Segment struct {
	MB [5]Macroblock

	System   System
	Sampling Sampling

	free spanList
}

// segment ordering of superblock rows and columns
var (
	segmentRows = [5]int{2, 6, 8, 0, 4}
	segmentCols = [5]int{2, 1, 3, 0, 4}
)

// Locate sets the placement of the segment's macroblocks for video segment
// k of DIF sequence ds.
func (s *Segment) Locate(ds, k int) {
	n := s.System.Sequences()
	for m := range s.MB {
		mb := &s.MB[m]
		mb.I = (ds + segmentRows[m]) % n
		mb.J = segmentCols[m]
		mb.K = k

		if s.Sampling == Sampling420 {
			mb.X, mb.Y = Place420(mb.I, mb.J, mb.K)
		} else {
			mb.X, mb.Y = Place411(mb.I, mb.J, mb.K)
		}
	}
}

// segmentOffset returns the byte offset of video segment k of DIF sequence ds.
func segmentOffset(ds, k int) int {
	// Each DIF sequence starts with 6 info blocks, and one audio block
	// precedes every third video segment.
	block := 6 + k/3 + k*5 + 1
	return ds*difSequenceSize + block*difBlockSize
}

// audioOffset returns the byte offset of audio block a of DIF sequence ds.
func audioOffset(ds, a int) int {
	return ds*difSequenceSize + (6+16*a)*difBlockSize
}
