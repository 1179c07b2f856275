package dv

import (
	"image"
	"time"

	"github.com/pkg/errors"
)

// DCTPolicy selects the transform used by the encoder.
type DCTPolicy int

// DCT policies.
const (
	// DCTAuto uses the 2-4-8 transform for blocks with interlace motion.
	DCTAuto DCTPolicy = iota
	DCTAlways88
	DCTAlways248
)

// Encoder compresses pictures and audio into raw DV frames. An Encoder
// keeps a frame counter for the time codes it writes and must not be shared
// between goroutines.
type Encoder struct {
	// Passes is the bit distribution policy, Passes3 by default.
	Passes Passes
	// DCT selects the transform per block.
	DCT DCTPolicy
	// Std selects the recording standard. SMPTE 314M codes 625/50 frames
	// with 4:1:1 sampling.
	Std Std
	// Wide marks the pictures as 16:9.
	Wide bool
	// Time is the recording time of the first frame.
	Time time.Time

	index int

	seg   Segment
	frame Frame
	stats EncodeStats
}

// NewEncoder creates an encoder with the best bit distribution, recording
// time now.
func NewEncoder() *Encoder {
	return &Encoder{
		Passes: Passes3,
		DCT:    DCTAuto,
		Time:   time.Now(),
	}
}

// Stats returns the compromises made since the encoder was created.
func (e *Encoder) Stats() EncodeStats {
	return e.stats
}

// FrameIndex returns the number of the next frame.
func (e *Encoder) FrameIndex() int {
	return e.index
}

// SetFrameIndex sets the number of the next frame, which determines its
// time code and recording time.
func (e *Encoder) SetFrameIndex(n int) {
	e.index = n
}

// systemFor returns the line system of a picture height.
func systemFor(height int) (System, error) {
	switch height {
	case System525_60.Height():
		return System525_60, nil
	case System625_50.Height():
		return System625_50, nil
	}

	return 0, errors.Wrapf(ErrFrameSize, "picture height %d", height)
}

// samplingFor returns the chroma sampling the encoder uses for system.
func (e *Encoder) samplingFor(system System) Sampling {
	if system == System625_50 && e.Std == IEC61834 {
		return Sampling420
	}

	return Sampling411
}

func (e *Encoder) prepare(width, height int) (System, error) {
	if width != Width {
		return 0, errors.Wrapf(ErrFrameSize, "picture width %d", width)
	}

	system, err := systemFor(height)
	if err != nil {
		return 0, err
	}

	if sampling := e.samplingFor(system); !e.frame.fits(system, sampling) {
		e.frame.init(system, sampling)
	}

	return system, nil
}

// Encode compresses a 720x480 or 720x576 image into dst.
func (e *Encoder) Encode(img image.Image, dst []byte) error {
	b := img.Bounds()

	if _, err := e.prepare(b.Dx(), b.Dy()); err != nil {
		return err
	}

	switch m := img.(type) {
	case *image.YCbCr:
		if copyYCbCr(&e.frame, m) {
			break
		}
		loadImage(&e.frame, rgbOf(img))
	case *image.RGBA:
		loadImage(&e.frame, func(x, y int) (int, int, int) {
			p := m.Pix[m.PixOffset(b.Min.X+x, b.Min.Y+y):]
			return int(p[0]), int(p[1]), int(p[2])
		})
	default:
		loadImage(&e.frame, rgbOf(img))
	}

	return e.EncodeFrame(&e.frame, dst)
}

// EncodeRGB compresses packed 24 bit RGB pixels of a 720 pixel wide picture
// with the given height into dst.
func (e *Encoder) EncodeRGB(rgb []byte, height int, dst []byte) error {
	if len(rgb) < Width*height*3 {
		return errors.Wrapf(ErrBufferSize, "%d bytes of RGB for %d lines", len(rgb), height)
	}

	if _, err := e.prepare(Width, height); err != nil {
		return err
	}

	loadImage(&e.frame, func(x, y int) (int, int, int) {
		p := rgb[(y*Width+x)*3:]
		return int(p[0]), int(p[1]), int(p[2])
	})

	return e.EncodeFrame(&e.frame, dst)
}

// EncodeFrame compresses f into dst. The frame's sampling must match the
// sampling of the encoder's standard for its height.
func (e *Encoder) EncodeFrame(f *Frame, dst []byte) error {
	if f.Width != Width {
		return errors.Wrapf(ErrFrameSize, "picture width %d", f.Width)
	}

	system, err := systemFor(f.Height)
	if err != nil {
		return err
	}

	sampling := e.samplingFor(system)
	if f.Sampling != sampling {
		return errors.Errorf("%s %s frame needs %s sampling, got %s", system, e.Std, sampling, f.Sampling)
	}

	if len(dst) < system.FrameSize() {
		return errors.Wrapf(ErrFrameSize, "%s frame in %d bytes", system, len(dst))
	}

	ib := infoBlocks{
		System: system,
		Std:    e.Std,
		Wide:   e.Wide,
		Frame:  e.index,
		Time:   frameTime(e.Time, system, e.index),
	}
	ib.write(dst)

	seg := &e.seg
	seg.System = system
	seg.Sampling = sampling

	for ds := 0; ds < system.Sequences(); ds++ {
		for k := 0; k < segmentsPerSeq; k++ {
			seg.Locate(ds, k)

			for m := range seg.MB {
				e.extract(&seg.MB[m], f)
			}

			off := segmentOffset(ds, k)
			e.stats.Add(EncodeSegment(seg, dst[off:off+segmentSize], e.Passes))
		}
	}

	e.index++

	return nil
}

// EncodeAudio inserts two channels of 16-bit audio into a frame written by
// the encoder. Each channel must hold AudioSamples samples for the frame.
func (e *Encoder) EncodeAudio(dst []byte, samplerate int, left, right []int16) error {
	h, err := ParseHeader(dst)
	if err != nil {
		return err
	}

	return encodeAudio(dst, h.System, samplerate, left, right)
}

// extract reads the pixels of a macroblock and stores their weighted DCT
// coefficients.
func (e *Encoder) extract(mb *Macroblock, f *Frame) {
	l := layoutFor(f.Sampling, mb.X)

	var px [6][64]uint8

	for y := 0; y < l.h; y++ {
		row := f.Y.Data[(mb.Y+y)*f.Y.Width+mb.X:]
		for x := 0; x < l.w; x++ {
			v := l.luma[y*l.w+x]
			px[v>>6][v&63] = row[x]
		}
	}

	cx, cy, cw, ch := l.chromaRect(mb.X, mb.Y)
	for y := 0; y < ch; y++ {
		off := (cy+y)*f.Cb.Width + cx
		for x := 0; x < cw; x++ {
			c := l.chromaSample(x, y, cw, ch)
			px[4][c] = f.Cr.Data[off+x]
			px[5][c] = f.Cb.Data[off+x]
		}
	}

	for b := range mb.Blocks {
		bl := &mb.Blocks[b]

		switch e.DCT {
		case DCTAlways88:
			bl.Mode = DCT88
		case DCTAlways248:
			bl.Mode = DCT248
		default:
			bl.Mode = DCT88
			if need248(&px[b]) {
				bl.Mode = DCT248
			}
		}

		fdctBlock(&bl.Coeffs, &px[b], bl.Mode)
		weightBlock(&bl.Coeffs, bl.Mode)
	}
}

// rgbToYCbCr converts 8 bit RGB to studio range YCbCr.
func rgbToYCbCr(r, g, b int) (y, cb, cr int) {
	y = ((66*r + 129*g + 25*b + 128) >> 8) + 16
	cb = ((-38*r - 74*g + 112*b + 128) >> 8) + 128
	cr = ((112*r - 94*g - 18*b + 128) >> 8) + 128

	return
}

type rgbFunc func(x, y int) (r, g, b int)

func rgbOf(img image.Image) rgbFunc {
	min := img.Bounds().Min

	return func(x, y int) (int, int, int) {
		r, g, b, _ := img.At(min.X+x, min.Y+y).RGBA()
		return int(r >> 8), int(g >> 8), int(b >> 8)
	}
}

// loadImage fills the planes of f from an RGB source, averaging chroma over
// the pixels each sample covers.
func loadImage(f *Frame, at rgbFunc) {
	sx, sy := 4, 1
	if f.Sampling == Sampling420 {
		sx, sy = 2, 2
	}

	for y := 0; y < f.Height; y++ {
		row := f.Y.Data[y*f.Y.Width:]
		for x := 0; x < f.Width; x++ {
			v, _, _ := rgbToYCbCr(at(x, y))
			row[x] = uint8(v)
		}
	}

	n := sx * sy
	for y := 0; y < f.Cb.Height; y++ {
		for x := 0; x < f.Cb.Width; x++ {
			var sumCb, sumCr int
			for dy := 0; dy < sy; dy++ {
				for dx := 0; dx < sx; dx++ {
					_, cb, cr := rgbToYCbCr(at(x*sx+dx, y*sy+dy))
					sumCb += cb
					sumCr += cr
				}
			}

			f.Cb.Data[y*f.Cb.Width+x] = clamp((sumCb + n/2) / n)
			f.Cr.Data[y*f.Cr.Width+x] = clamp((sumCr + n/2) / n)
		}
	}
}

// copyYCbCr copies the planes of an image with the frame's subsampling.
func copyYCbCr(f *Frame, m *image.YCbCr) bool {
	want := image.YCbCrSubsampleRatio411
	if f.Sampling == Sampling420 {
		want = image.YCbCrSubsampleRatio420
	}

	if m.SubsampleRatio != want || m.Rect.Min != (image.Point{}) {
		return false
	}

	for y := 0; y < f.Height; y++ {
		copy(f.Y.Data[y*f.Y.Width:(y+1)*f.Y.Width], m.Y[y*m.YStride:])
	}

	for y := 0; y < f.Cb.Height; y++ {
		copy(f.Cb.Data[y*f.Cb.Width:(y+1)*f.Cb.Width], m.Cb[y*m.CStride:])
		copy(f.Cr.Data[y*f.Cr.Width:(y+1)*f.Cr.Width], m.Cr[y*m.CStride:])
	}

	return true
}
