package dv

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"unsafe"
)

// Frame represents decoded video frame.
type Frame struct {
	Time float64

	Width  int
	Height int

	Sampling Sampling

	Y  Plane
	Cb Plane
	Cr Plane

	imYCbCr image.YCbCr
	imRGBA  image.RGBA
}

// NewFrame allocates a frame for the given system and chroma sampling.
func NewFrame(system System, sampling Sampling) *Frame {
	f := &Frame{}
	f.init(system, sampling)

	return f
}

func (f *Frame) init(system System, sampling Sampling) {
	width, height := Width, system.Height()

	chromaWidth, chromaHeight := width/4, height
	ratio := image.YCbCrSubsampleRatio411
	if sampling == Sampling420 {
		chromaWidth, chromaHeight = width/2, height/2
		ratio = image.YCbCrSubsampleRatio420
	}

	lumaSize := width * height
	chromaSize := chromaWidth * chromaHeight
	frameSize := lumaSize + 2*chromaSize

	base := make([]byte, frameSize)

	f.Width = width
	f.Height = height
	f.Sampling = sampling

	f.Y = Plane{width, height, base[0:lumaSize:lumaSize]}
	f.Cb = Plane{chromaWidth, chromaHeight, base[lumaSize : lumaSize+chromaSize : lumaSize+chromaSize]}
	f.Cr = Plane{chromaWidth, chromaHeight, base[lumaSize+chromaSize : frameSize : frameSize]}

	f.imYCbCr = image.YCbCr{
		Y:              f.Y.Data,
		Cb:             f.Cb.Data,
		Cr:             f.Cr.Data,
		SubsampleRatio: ratio,
		YStride:        width,
		CStride:        chromaWidth,
		Rect:           image.Rect(0, 0, width, height),
	}

	f.imRGBA = image.RGBA{
		Pix:    make([]byte, width*height*4),
		Stride: 4 * width,
		Rect:   image.Rect(0, 0, width, height),
	}
}

// fits reports whether the frame was allocated for system and sampling.
func (f *Frame) fits(system System, sampling Sampling) bool {
	return f.Y.Data != nil && f.Height == system.Height() && f.Sampling == sampling
}

// YCbCr returns frame as image.YCbCr.
func (f *Frame) YCbCr() *image.YCbCr {
	return &f.imYCbCr
}

// RGBA returns frame as image.RGBA.
func (f *Frame) RGBA() *image.RGBA {
	b := f.imYCbCr.Bounds()
	draw.Draw(&f.imRGBA, b.Bounds(), &f.imYCbCr, b.Min, draw.Src)
	return &f.imRGBA
}

// Pixels returns frame as slice of color.RGBA.
func (f *Frame) Pixels() []color.RGBA {
	img := f.RGBA()
	return unsafe.Slice((*color.RGBA)(unsafe.Pointer(&img.Pix[0])), len(img.Pix)/4)
}

// Plane represents decoded video plane.
// For 4:1:1 frames the chroma planes are a quarter of the luma width at full
// height, for 4:2:0 frames half the luma width and height.
type Plane struct {
	Width  int
	Height int
	Data   []byte
}

// Video decodes the picture of consecutive raw DV frames.
type Video struct {
	decoder *Decoder
	frame   Frame

	header    Header
	hasHeader bool

	time          float64
	framesDecoded int
}

// NewVideo creates a video decoder.
func NewVideo() *Video {
	return &Video{
		decoder: NewDecoder(),
	}
}

// Decoder returns the underlying frame decoder.
func (v *Video) Decoder() *Decoder {
	return v.decoder
}

// HasHeader checks whether a frame header was seen.
func (v *Video) HasHeader() bool {
	return v.hasHeader
}

// Header returns the header of the last decoded frame.
func (v *Video) Header() Header {
	return v.header
}

// Framerate returns the framerate in frames per second.
func (v *Video) Framerate() float64 {
	if !v.hasHeader {
		return 0
	}

	return v.header.System.Framerate()
}

// Width returns the display width.
func (v *Video) Width() int {
	if !v.hasHeader {
		return 0
	}

	return Width
}

// Height returns the display height.
func (v *Video) Height() int {
	if !v.hasHeader {
		return 0
	}

	return v.header.System.Height()
}

// Time returns the current internal time in seconds.
func (v *Video) Time() float64 {
	return v.time
}

// SetTime sets the current internal time in seconds. This is only useful when you
// manipulate the underlying frame source and know the exact current time.
func (v *Video) SetTime(time float64) {
	v.framesDecoded = int(math.Round(v.Framerate() * time))
	v.time = time
}

// Rewind rewinds the internal frame counter.
func (v *Video) Rewind() {
	v.time = 0
	v.framesDecoded = 0
}

// Decode decodes the picture of one raw frame. The returned frame is valid
// until the next call.
func (v *Video) Decode(raw []byte) (*Frame, error) {
	h, err := ParseHeader(raw)
	if err != nil {
		return nil, err
	}

	v.header = h
	v.hasHeader = true

	if err := v.decoder.DecodeFrame(raw, &v.frame); err != nil {
		return nil, err
	}

	v.frame.Time = v.time

	v.framesDecoded++
	v.time = float64(v.framesDecoded) / h.System.Framerate()

	return &v.frame, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func clamp(n int) byte {
	if n > 255 {
		n = 255
	} else if n < 0 {
		n = 0
	}

	return byte(n)
}
