package main

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

var errWAV = errors.New("unsupported WAV file")

// writeWAV writes 16-bit PCM with one slice per channel. All channels must
// have the same length.
func writeWAV(w io.Writer, samplerate int, channels [][]int16) error {
	nch := len(channels)
	n := 0
	if nch > 0 {
		n = len(channels[0])
	}

	size := n * nch * 2

	hdr := make([]byte, 44)
	copy(hdr[0:], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:], uint32(36+size))
	copy(hdr[8:], "WAVEfmt ")
	binary.LittleEndian.PutUint32(hdr[16:], 16)
	binary.LittleEndian.PutUint16(hdr[20:], 1)
	binary.LittleEndian.PutUint16(hdr[22:], uint16(nch))
	binary.LittleEndian.PutUint32(hdr[24:], uint32(samplerate))
	binary.LittleEndian.PutUint32(hdr[28:], uint32(samplerate*nch*2))
	binary.LittleEndian.PutUint16(hdr[32:], uint16(nch*2))
	binary.LittleEndian.PutUint16(hdr[34:], 16)
	copy(hdr[36:], "data")
	binary.LittleEndian.PutUint32(hdr[40:], uint32(size))

	if _, err := w.Write(hdr); err != nil {
		return err
	}

	data := make([]byte, size)
	for i := 0; i < n; i++ {
		for ch := range channels {
			binary.LittleEndian.PutUint16(data[(i*nch+ch)*2:], uint16(channels[ch][i]))
		}
	}

	_, err := w.Write(data)

	return err
}

// readWAV reads a mono or stereo 16-bit PCM file. Mono is returned on both
// channels.
func readWAV(r io.Reader) (samplerate int, left, right []int16, err error) {
	var riff [12]byte
	if _, err = io.ReadFull(r, riff[:]); err != nil {
		return 0, nil, nil, errors.Wrap(err, "wav")
	}

	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return 0, nil, nil, errWAV
	}

	var channels, bits int

	for {
		var chunk [8]byte
		if _, err = io.ReadFull(r, chunk[:]); err != nil {
			return 0, nil, nil, errors.Wrap(err, "wav")
		}

		id := string(chunk[0:4])
		size := int(binary.LittleEndian.Uint32(chunk[4:]))

		body := make([]byte, size+size&1)
		if _, err = io.ReadFull(r, body); err != nil {
			return 0, nil, nil, errors.Wrapf(err, "wav %q chunk", id)
		}

		switch id {
		case "fmt ":
			if size < 16 || binary.LittleEndian.Uint16(body[0:]) != 1 {
				return 0, nil, nil, errors.Wrap(errWAV, "not PCM")
			}

			channels = int(binary.LittleEndian.Uint16(body[2:]))
			samplerate = int(binary.LittleEndian.Uint32(body[4:]))
			bits = int(binary.LittleEndian.Uint16(body[14:]))

			if bits != 16 || channels < 1 || channels > 2 {
				return 0, nil, nil, errors.Wrapf(errWAV, "%d channels of %d bits", channels, bits)
			}
		case "data":
			if channels == 0 {
				return 0, nil, nil, errors.Wrap(errWAV, "data before fmt")
			}

			n := size / (2 * channels)
			left = make([]int16, n)
			right = left
			if channels == 2 {
				right = make([]int16, n)
			}

			for i := 0; i < n; i++ {
				left[i] = int16(binary.LittleEndian.Uint16(body[i*2*channels:]))
				if channels == 2 {
					right[i] = int16(binary.LittleEndian.Uint16(body[i*4+2:]))
				}
			}

			return samplerate, left, right, nil
		}
	}
}
