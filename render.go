package dv

// ColorSpace is the pixel format produced by Decoder.Decode.
type ColorSpace int

// Pixel formats.
const (
	// YUY2 is packed 4:2:2, Y0 Cb Y1 Cr.
	YUY2 ColorSpace = iota
	// YV12 is planar 4:2:0 with the planes in Y, Cr, Cb order.
	YV12
	// RGB is packed 24 bit R G B.
	RGB
	// BGR0 is packed 32 bit B G R 0.
	BGR0
)

func (c ColorSpace) String() string {
	switch c {
	case YUY2:
		return "YUY2"
	case YV12:
		return "YV12"
	case RGB:
		return "RGB"
	case BGR0:
		return "BGR0"
	}

	return "unknown"
}

// planes returns the number of pixel planes of the format.
func (c ColorSpace) planes() int {
	if c == YV12 {
		return 3
	}

	return 1
}

// bytesPerPixel returns the size of one pixel of the first plane.
func (c ColorSpace) bytesPerPixel() int {
	switch c {
	case YUY2:
		return 2
	case RGB:
		return 3
	case BGR0:
		return 4
	}

	return 1
}

// mbLayout maps every pixel of a macroblock to its luma and chroma samples.
type mbLayout struct {
	w, h   int
	luma   [256]uint16 // block<<6 | index
	chroma [256]uint8
}

var (
	layout411     mbLayout
	layout411Edge mbLayout
	layout420     mbLayout
)

// Clamp tables indexed by centered sample value plus offset.
var (
	ylut  [768]uint8 // -256..511
	uvlut [256]uint8 // -128..127
)

func init() {
	layout411 = mbLayout{w: 32, h: 8}
	for py := 0; py < 8; py++ {
		for px := 0; px < 32; px++ {
			layout411.luma[py*32+px] = uint16((px/8)<<6 | (py*8 + px%8))
			layout411.chroma[py*32+px] = uint8(py*8 + px/4)
		}
	}

	layout411Edge = mbLayout{w: 16, h: 16}
	for py := 0; py < 16; py++ {
		for px := 0; px < 16; px++ {
			b := (py/8)*2 + px/8
			layout411Edge.luma[py*16+px] = uint16(b<<6 | ((py%8)*8 + px%8))

			c := (py%8)*8 + px/4
			if py >= 8 {
				c += 4
			}
			layout411Edge.chroma[py*16+px] = uint8(c)
		}
	}

	layout420 = mbLayout{w: 16, h: 16}
	for py := 0; py < 16; py++ {
		for px := 0; px < 16; px++ {
			b := (py/8)*2 + px/8
			layout420.luma[py*16+px] = uint16(b<<6 | ((py%8)*8 + px%8))
			layout420.chroma[py*16+px] = uint8((py/2)*8 + px/2)
		}
	}

	for i := -256; i < 512; i++ {
		v := i + 128
		if i < 16-128 {
			v = 16
		} else if i > 235-128 {
			v = 240
		}
		ylut[i+256] = uint8(v)
	}

	for i := -128; i < 128; i++ {
		v := i + 128
		if i < 16-128 {
			v = 16
		} else if i > 240-128 {
			v = 240
		}
		uvlut[i+128] = uint8(v)
	}
}

// layoutFor returns the macroblock layout of a macroblock at x.
func layoutFor(s Sampling, x int) *mbLayout {
	if s == Sampling420 {
		return &layout420
	}

	if edge411(x) {
		return &layout411Edge
	}

	return &layout411
}

func lumaAt(mb *Macroblock, l *mbLayout, i int) int {
	v := l.luma[i]
	return int(mb.Blocks[v>>6].Coeffs[v&63])
}

func lookupY(v int) uint8 {
	if v < -256 {
		v = -256
	} else if v > 511 {
		v = 511
	}

	return ylut[v+256]
}

func lookupUV(v int) uint8 {
	if v < -128 {
		v = -128
	} else if v > 127 {
		v = 127
	}

	return uvlut[v+128]
}

// toRGB converts centered samples with the studio range matrix.
func toRGB(y, cb, cr int) (r, g, b uint8) {
	y += 128
	if y < 16 {
		y = 16
	} else if y > 235 {
		y = 235
	}

	if cb < -112 {
		cb = -112
	} else if cb > 112 {
		cb = 112
	}

	if cr < -112 {
		cr = -112
	} else if cr > 112 {
		cr = 112
	}

	yy := 298 * (y - 16)
	r = clamp((yy + 409*cr + 128) >> 8)
	g = clamp((yy - 100*cb - 208*cr + 128) >> 8)
	b = clamp((yy + 516*cb + 128) >> 8)

	return
}

// renderRGB writes the macroblock as packed RGB24.
func renderRGB(mb *Macroblock, l *mbLayout, dst []byte, pitch int) {
	cr, cb := &mb.Blocks[4].Coeffs, &mb.Blocks[5].Coeffs

	for py := 0; py < l.h; py++ {
		row := dst[(mb.Y+py)*pitch+mb.X*3:]
		for px := 0; px < l.w; px++ {
			i := py*l.w + px
			c := l.chroma[i]
			r, g, b := toRGB(lumaAt(mb, l, i), int(cb[c]), int(cr[c]))
			row[px*3+0] = r
			row[px*3+1] = g
			row[px*3+2] = b
		}
	}
}

// renderBGR0 writes the macroblock as packed 32 bit BGR.
func renderBGR0(mb *Macroblock, l *mbLayout, dst []byte, pitch int) {
	cr, cb := &mb.Blocks[4].Coeffs, &mb.Blocks[5].Coeffs

	for py := 0; py < l.h; py++ {
		row := dst[(mb.Y+py)*pitch+mb.X*4:]
		for px := 0; px < l.w; px++ {
			i := py*l.w + px
			c := l.chroma[i]
			r, g, b := toRGB(lumaAt(mb, l, i), int(cb[c]), int(cr[c]))
			row[px*4+0] = b
			row[px*4+1] = g
			row[px*4+2] = r
			row[px*4+3] = 0
		}
	}
}

// renderYUY2 writes the macroblock as packed Y0 Cb Y1 Cr.
func renderYUY2(mb *Macroblock, l *mbLayout, dst []byte, pitch int) {
	cr, cb := &mb.Blocks[4].Coeffs, &mb.Blocks[5].Coeffs

	for py := 0; py < l.h; py++ {
		row := dst[(mb.Y+py)*pitch+mb.X*2:]
		for px := 0; px < l.w; px += 2 {
			i := py*l.w + px
			c := l.chroma[i]
			row[px*2+0] = lookupY(lumaAt(mb, l, i))
			row[px*2+1] = lookupUV(int(cb[c]))
			row[px*2+2] = lookupY(lumaAt(mb, l, i+1))
			row[px*2+3] = lookupUV(int(cr[c]))
		}
	}
}

// renderYV12 writes the macroblock into the Y, Cr and Cb planes of a 4:2:0
// picture. 4:1:1 chroma is averaged over row pairs.
func renderYV12(mb *Macroblock, l *mbLayout, pixels [][]byte, pitches []int) {
	for py := 0; py < l.h; py++ {
		row := pixels[0][(mb.Y+py)*pitches[0]+mb.X:]
		for px := 0; px < l.w; px++ {
			row[px] = lookupY(lumaAt(mb, l, py*l.w+px))
		}
	}

	cr, cb := &mb.Blocks[4].Coeffs, &mb.Blocks[5].Coeffs
	cx, cy := mb.X/2, mb.Y/2

	for py := 0; py < l.h/2; py++ {
		v := pixels[1][(cy+py)*pitches[1]+cx:]
		u := pixels[2][(cy+py)*pitches[2]+cx:]

		for px := 0; px < l.w/2; px++ {
			c0 := l.chroma[(2*py)*l.w+2*px]
			c1 := l.chroma[(2*py+1)*l.w+2*px]

			v[px] = lookupUV((int(cr[c0]) + int(cr[c1]) + 1) >> 1)
			u[px] = lookupUV((int(cb[c0]) + int(cb[c1]) + 1) >> 1)
		}
	}
}

// renderPlanar writes the macroblock into a frame of the same sampling.
func renderPlanar(mb *Macroblock, l *mbLayout, f *Frame) {
	for py := 0; py < l.h; py++ {
		row := f.Y.Data[(mb.Y+py)*f.Y.Width+mb.X:]
		for px := 0; px < l.w; px++ {
			row[px] = clamp(lumaAt(mb, l, py*l.w+px) + 128)
		}
	}

	cr, cb := &mb.Blocks[4].Coeffs, &mb.Blocks[5].Coeffs

	cx, cy, cw, ch := l.chromaRect(mb.X, mb.Y)

	stride := f.Cb.Width
	for py := 0; py < ch; py++ {
		for px := 0; px < cw; px++ {
			c := l.chromaSample(px, py, cw, ch)
			f.Cb.Data[(cy+py)*stride+cx+px] = clamp(int(cb[c]) + 128)
			f.Cr.Data[(cy+py)*stride+cx+px] = clamp(int(cr[c]) + 128)
		}
	}
}

// chromaRect returns the chroma plane rectangle covered by a macroblock at
// x, y in a Frame of the layout's sampling.
func (l *mbLayout) chromaRect(x, y int) (cx, cy, cw, ch int) {
	switch l {
	case &layout420:
		return x / 2, y / 2, 8, 8
	case &layout411Edge:
		return x / 4, y, 4, 16
	}

	return x / 4, y, 8, 8
}

// chromaSample returns the chroma coefficient index of sample px, py of a
// chromaRect of size cw x ch.
func (l *mbLayout) chromaSample(px, py, cw, ch int) uint8 {
	return l.chroma[(py*l.h/ch)*l.w+px*l.w/cw]
}
