package dv

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

var (
	// BufferSize is the default size for buffer, large enough for two PAL frames.
	BufferSize = 2 * FrameSizePAL
)

// LoadFunc callback function.
type LoadFunc func(buffer *Buffer)

// Buffer provides the frame source for the high-level interface.
// It is filled either from an io.Reader or by calling Write.
type Buffer struct {
	reader io.Reader
	bytes  []byte

	index     int
	totalSize int

	hasEnded    bool
	discardRead bool

	available    []byte
	loadCallback LoadFunc
}

// NewBuffer creates a buffer instance.
func NewBuffer(r io.Reader) (*Buffer, error) {
	buf := &Buffer{}

	if r != nil {
		seeker, ok := r.(io.Seeker)
		if ok {
			cur, err := seeker.Seek(0, io.SeekCurrent)
			if err != nil {
				return nil, errors.Wrap(err, "buffer")
			}
			off, err := seeker.Seek(0, io.SeekEnd)
			if err != nil {
				return nil, errors.Wrap(err, "buffer")
			}
			buf.totalSize = int(off)
			_, err = seeker.Seek(cur, io.SeekStart)
			if err != nil {
				return nil, errors.Wrap(err, "buffer")
			}
		}
	}

	buf.reader = r
	buf.bytes = make([]byte, 0, BufferSize)
	buf.available = make([]byte, FrameSizePAL)

	buf.discardRead = true

	return buf, nil
}

// Bytes returns a slice holding the unread portion of the buffer.
func (b *Buffer) Bytes() []byte {
	return b.bytes[b.index:]
}

// Seekable returns true if reader is seekable.
func (b *Buffer) Seekable() bool {
	return b.reader != nil && b.totalSize > 0
}

// Write appends the contents of p to the buffer.
func (b *Buffer) Write(p []byte) int {
	if b.discardRead {
		b.discardReadBytes()
	}

	b.bytes = append(b.bytes, p...)
	b.hasEnded = false

	return len(p)
}

// SignalEnd marks the current byte length as the end of the stream.
func (b *Buffer) SignalEnd() {
	b.totalSize = len(b.bytes)
}

// SetLoadCallback sets a callback that is called whenever the buffer needs more data.
func (b *Buffer) SetLoadCallback(callback LoadFunc) {
	b.loadCallback = callback
}

// Rewind the buffer back to the beginning. When loading from io.ReadSeeker,
// this also seeks to the beginning.
func (b *Buffer) Rewind() {
	b.seek(0)
}

// Size returns the total size. For io.ReadSeeker, this returns the total size. For all other
// types it returns the number of bytes currently in the buffer.
func (b *Buffer) Size() int {
	if b.totalSize > 0 {
		return b.totalSize
	}

	return len(b.bytes)
}

// Remaining returns the number of remaining (yet unread) bytes in the buffer.
func (b *Buffer) Remaining() int {
	return len(b.bytes) - b.index
}

// HasEnded checks whether the read position of the buffer is at the end and no more data is expected.
func (b *Buffer) HasEnded() bool {
	return b.hasEnded
}

// LoadReaderCallback is a callback that is called whenever the buffer needs more data.
func (b *Buffer) LoadReaderCallback(buffer *Buffer) {
	if b.hasEnded {
		return
	}

	p := b.available

	n, err := io.ReadFull(b.reader, p)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			p = p[:n]
		} else if err == io.EOF {
			b.hasEnded = true

			return
		}
	}

	if n == 0 {
		b.hasEnded = true

		return
	}

	b.Write(p)
}

func (b *Buffer) seek(pos int) {
	b.hasEnded = false

	if b.reader != nil && b.totalSize > 0 {
		seeker := b.reader.(io.Seeker)
		_, _ = seeker.Seek(int64(pos), io.SeekStart)
		b.bytes = b.bytes[:0]

		b.index = 0
	} else if b.reader == nil {
		if pos < 0 || pos > len(b.bytes) {
			return
		}

		b.index = pos
	}
}

func (b *Buffer) tell() int {
	if b.reader != nil && b.totalSize > 0 {
		seeker := b.reader.(io.Seeker)
		off, _ := seeker.Seek(0, io.SeekCurrent)

		return int(off) + b.index - len(b.bytes)
	}

	return b.index
}

func (b *Buffer) discardReadBytes() {
	if b.reader == nil {
		// Bytes written by the caller are kept so that Rewind works.
		return
	}

	if b.index == len(b.bytes) {
		b.bytes = b.bytes[:0]

		b.index = 0
	} else if b.index > 0 {
		copy(b.bytes, b.bytes[b.index:])
		b.bytes = b.bytes[:len(b.bytes)-b.index]

		b.index = 0
	}
}

func (b *Buffer) has(count int) bool {
	for len(b.bytes)-b.index < count {
		if b.loadCallback == nil || b.hasEnded {
			break
		}

		before := len(b.bytes) - b.index
		b.loadCallback(b)
		if len(b.bytes)-b.index == before {
			break
		}
	}

	if len(b.bytes)-b.index >= count {
		return true
	}

	if b.reader == nil && b.totalSize != 0 && len(b.bytes) >= b.totalSize {
		b.hasEnded = true
	}

	return false
}

// findFrame advances to the next DIF header block of DIF sequence 0
// that is followed by a subcode block.
func (b *Buffer) findFrame() bool {
	for b.has(2 * difBlockSize) {
		data := b.Bytes()
		for i := 0; i+2*difBlockSize <= len(data); i++ {
			if isFrameStart(data[i:]) {
				b.index += i

				return true
			}
		}

		b.index += len(data) - 2*difBlockSize + 1
	}

	return false
}

// readFrame copies one frame of size bytes into dst.
func (b *Buffer) readFrame(dst []byte, size int) bool {
	if !b.has(size) {
		return false
	}

	copy(dst[:size], b.bytes[b.index:b.index+size])
	b.index += size

	return true
}

// ReadFrame returns the next raw frame, skipping any bytes before its start.
// The slice is only valid until the next read. At the end of the stream
// ReadFrame returns nil.
func (b *Buffer) ReadFrame() []byte {
	if !b.findFrame() {
		return nil
	}

	size := FrameSizeNTSC
	if b.bytes[b.index+3]&0x80 != 0 {
		size = FrameSizePAL
	}

	if !b.has(size) {
		return nil
	}

	frame := b.bytes[b.index : b.index+size]
	b.index += size

	return frame
}

func isFrameStart(p []byte) bool {
	return p[0] == headerID && p[1]&0xf0 == 0 && p[2] == 0 && p[difBlockSize]&0xe0 == sctSubcode
}

// bitReader reads MSB-first bit fields from a byte window. Bits past the
// end of the window read as zero.
type bitReader struct {
	data []byte
	pos  int
}

// peek returns the next n bits (n <= 24) without advancing.
func (r *bitReader) peek(n int) uint32 {
	i := r.pos >> 3

	var w uint32
	if i+4 <= len(r.data) {
		w = binary.BigEndian.Uint32(r.data[i:])
	} else {
		for k := 0; k < 4; k++ {
			w <<= 8
			if i+k < len(r.data) {
				w |= uint32(r.data[i+k])
			}
		}
	}

	return (w << uint(r.pos&7)) >> uint(32-n)
}

func (r *bitReader) skip(n int) {
	r.pos += n
}

func (r *bitReader) read(n int) uint32 {
	v := r.peek(n)
	r.pos += n

	return v
}

func (r *bitReader) seek(pos int) {
	r.pos = pos
}

// putBits ORs the low n bits of value into buf at bit offset off, MSB first,
// and returns the offset following the written field.
func putBits(buf []byte, off, n int, value uint64) int {
	for n > 0 {
		free := 8 - off&7
		k := n
		if k > free {
			k = free
		}

		bits := byte(value>>uint(n-k)) & byte(1<<uint(k)-1)
		buf[off>>3] |= bits << uint(free-k)

		off += k
		n -= k
	}

	return off
}
