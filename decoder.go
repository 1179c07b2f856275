package dv

import (
	"github.com/pkg/errors"
)

// DecodeStats counts what a Decoder could not recover.
type DecodeStats struct {
	Frames int
	// VLCErrors is the number of blocks with corrupt or missing coefficients.
	VLCErrors int
	// AudioErrors is the number of concealed audio samples.
	AudioErrors int
}

// Decoder decodes the video and audio of single DV frames. A Decoder owns
// its scratch state and must not be shared between goroutines.
type Decoder struct {
	// Quality selects how much of each segment is parsed.
	Quality Quality

	seg   Segment
	stats DecodeStats
}

// NewDecoder creates a decoder with the best quality.
func NewDecoder() *Decoder {
	return &Decoder{
		Quality: QualityBest,
	}
}

// Stats returns the counters accumulated since the decoder was created or
// last reset.
func (d *Decoder) Stats() DecodeStats {
	return d.stats
}

// ResetStats clears the counters.
func (d *Decoder) ResetStats() {
	d.stats = DecodeStats{}
}

// reconstruct turns the parsed coefficients of a macroblock into centered
// pixel values. Chroma is flattened to gray without QualityColor.
func (d *Decoder) reconstruct(mb *Macroblock) {
	color := d.Quality&QualityColor != 0

	for b := range mb.Blocks {
		bl := &mb.Blocks[b]
		if b >= 4 && !color {
			bl.Coeffs = [64]int16{}
			continue
		}

		dequantize(&bl.Coeffs, mb.Qno, bl.Class, bl.Mode)
		unweightBlock(&bl.Coeffs, bl.Mode)
		idctBlock(&bl.Coeffs, bl.Mode)
	}
}

// segments calls fn for every decoded macroblock of frame.
func (d *Decoder) segments(frame []byte, h Header, fn func(mb *Macroblock, l *mbLayout)) {
	seg := &d.seg
	seg.System = h.System
	seg.Sampling = h.Sampling

	for ds := 0; ds < h.Sequences; ds++ {
		for k := 0; k < segmentsPerSeq; k++ {
			off := segmentOffset(ds, k)

			seg.Locate(ds, k)
			DecodeSegment(seg, frame[off:off+segmentSize], d.Quality)

			for m := range seg.MB {
				mb := &seg.MB[m]
				d.stats.VLCErrors += mb.VLCErrors

				d.reconstruct(mb)
				fn(mb, layoutFor(h.Sampling, mb.X))
			}
		}
	}

	d.stats.Frames++
}

// checkPixels validates the destination planes of a picture.
func checkPixels(h Header, cs ColorSpace, pixels [][]byte, pitches []int) error {
	planes := cs.planes()
	if len(pixels) < planes || len(pitches) < planes {
		return errors.Wrapf(ErrBufferSize, "%s needs %d planes", cs, planes)
	}

	for p := 0; p < planes; p++ {
		w, rows := h.Width*cs.bytesPerPixel(), h.Height
		if p > 0 {
			w, rows = h.Width/2, h.Height/2
		}

		if pitches[p] < w {
			return errors.Wrapf(ErrBufferSize, "plane %d pitch %d, want at least %d", p, pitches[p], w)
		}

		if need := pitches[p]*(rows-1) + w; len(pixels[p]) < need {
			return errors.Wrapf(ErrBufferSize, "plane %d holds %d bytes, want %d", p, len(pixels[p]), need)
		}
	}

	return nil
}

// Decode decodes the picture of frame into pixels in the given color space.
// Packed formats use pixels[0] and pitches[0]; YV12 takes the Y, Cr and Cb
// planes in that order.
func (d *Decoder) Decode(frame []byte, cs ColorSpace, pixels [][]byte, pitches []int) error {
	h, err := ParseHeader(frame)
	if err != nil {
		return err
	}

	if err := checkPixels(h, cs, pixels, pitches); err != nil {
		return err
	}

	var render func(mb *Macroblock, l *mbLayout)

	switch cs {
	case YUY2:
		render = func(mb *Macroblock, l *mbLayout) {
			activeKernels.yuy2(mb, l, pixels[0], pitches[0])
		}
	case RGB:
		render = func(mb *Macroblock, l *mbLayout) {
			renderRGB(mb, l, pixels[0], pitches[0])
		}
	case BGR0:
		render = func(mb *Macroblock, l *mbLayout) {
			activeKernels.bgr0(mb, l, pixels[0], pitches[0])
		}
	case YV12:
		render = func(mb *Macroblock, l *mbLayout) {
			renderYV12(mb, l, pixels, pitches)
		}
	default:
		return errors.Errorf("unsupported color space %d", cs)
	}

	d.segments(frame, h, render)

	return nil
}

// DecodeFrame decodes the picture of raw into f, reallocating f's planes
// when the system or sampling changes.
func (d *Decoder) DecodeFrame(raw []byte, f *Frame) error {
	h, err := ParseHeader(raw)
	if err != nil {
		return err
	}

	if !f.fits(h.System, h.Sampling) {
		f.init(h.System, h.Sampling)
	}

	d.segments(raw, h, func(mb *Macroblock, l *mbLayout) {
		renderPlanar(mb, l, f)
	})

	return nil
}
