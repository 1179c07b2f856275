package dv

import "encoding/binary"

// kernels renders macroblocks into the packed pixel formats.
type kernels struct {
	yuy2 func(mb *Macroblock, l *mbLayout, dst []byte, pitch int)
	bgr0 func(mb *Macroblock, l *mbLayout, dst []byte, pitch int)
}

var (
	referenceKernels = kernels{yuy2: renderYUY2, bgr0: renderBGR0}
	packedKernels    = kernels{yuy2: renderYUY2Packed, bgr0: renderBGR0Packed}
)

// activeKernels is chosen once at startup by selectKernels.
var activeKernels = referenceKernels

func init() {
	activeKernels = selectKernels()
}

// renderYUY2Packed is renderYUY2 storing one pixel pair per 32 bit write.
func renderYUY2Packed(mb *Macroblock, l *mbLayout, dst []byte, pitch int) {
	cr, cb := &mb.Blocks[4].Coeffs, &mb.Blocks[5].Coeffs

	for py := 0; py < l.h; py++ {
		row := dst[(mb.Y+py)*pitch+mb.X*2:]
		row = row[:l.w*2]

		i := py * l.w
		for px := 0; px < l.w; px, i = px+2, i+2 {
			c := l.chroma[i]
			w := uint32(lookupY(lumaAt(mb, l, i))) |
				uint32(lookupUV(int(cb[c])))<<8 |
				uint32(lookupY(lumaAt(mb, l, i+1)))<<16 |
				uint32(lookupUV(int(cr[c])))<<24

			binary.LittleEndian.PutUint32(row[px*2:], w)
		}
	}
}

// renderBGR0Packed is renderBGR0 storing one pixel per 32 bit write.
func renderBGR0Packed(mb *Macroblock, l *mbLayout, dst []byte, pitch int) {
	cr, cb := &mb.Blocks[4].Coeffs, &mb.Blocks[5].Coeffs

	for py := 0; py < l.h; py++ {
		row := dst[(mb.Y+py)*pitch+mb.X*4:]
		row = row[:l.w*4]

		i := py * l.w
		for px := 0; px < l.w; px, i = px+1, i+1 {
			c := l.chroma[i]
			r, g, b := toRGB(lumaAt(mb, l, i), int(cb[c]), int(cr[c]))

			binary.LittleEndian.PutUint32(row[px*4:], uint32(b)|uint32(g)<<8|uint32(r)<<16)
		}
	}
}
