package dv

import (
	"io"
	"unsafe"

	"github.com/pkg/errors"
)

const (
	// MaxSamplesPerFrame is the largest number of samples per channel in a frame.
	MaxSamplesPerFrame = 1944

	// MaxChannels is the largest number of audio channels in a frame.
	MaxChannels = 4
)

// AudioFormat is the sample layout of decoded Samples.
type AudioFormat int

const (
	// AudioF32N - 32-bit floating point samples, normalized
	AudioF32N AudioFormat = iota
	// AudioF32NLR - 32-bit floating point samples, normalized, separate channels
	AudioF32NLR
	// AudioF32 - 32-bit floating point samples
	AudioF32
	// AudioS16 - signed 16-bit samples
	AudioS16
)

// Samples holds the stereo samples of one frame in the format selected with
// SetFormat. The number of samples varies from frame to frame.
type Samples struct {
	Time        float64
	S16         []int16
	F32         []float32
	Left        []float32
	Right       []float32
	Interleaved []float32

	format AudioFormat
	seq    int
}

// Bytes returns interleaved samples as slice of bytes.
func (s *Samples) Bytes() []byte {
	switch s.format {
	case AudioF32N:
		if len(s.Interleaved) == 0 {
			return nil
		}
		return unsafe.Slice((*byte)(unsafe.Pointer(&s.Interleaved[0])), len(s.Interleaved)*4)
	case AudioF32:
		if len(s.F32) == 0 {
			return nil
		}
		return unsafe.Slice((*byte)(unsafe.Pointer(&s.F32[0])), len(s.F32)*4)
	case AudioS16:
		if len(s.S16) == 0 {
			return nil
		}
		return unsafe.Slice((*byte)(unsafe.Pointer(&s.S16[0])), len(s.S16)*2)
	}

	return nil
}

// fill converts one frame of left and right samples into the selected format.
func (s *Samples) fill(left, right []int16) {
	n := len(left)
	s.seq++

	switch s.format {
	case AudioF32N:
		s.Interleaved = s.Interleaved[:2*n]
		for i := 0; i < n; i++ {
			s.Interleaved[2*i] = float32(left[i]) / 32768
			s.Interleaved[2*i+1] = float32(right[i]) / 32768
		}
	case AudioF32NLR:
		s.Left, s.Right = s.Left[:n], s.Right[:n]
		for i := 0; i < n; i++ {
			s.Left[i] = float32(left[i]) / 32768
			s.Right[i] = float32(right[i]) / 32768
		}
	case AudioF32:
		s.F32 = s.F32[:2*n]
		for i := 0; i < n; i++ {
			s.F32[2*i] = float32(left[i]) * 0x10000
			s.F32[2*i+1] = float32(right[i]) * 0x10000
		}
	case AudioS16:
		s.S16 = s.S16[:2*n]
		for i := 0; i < n; i++ {
			s.S16[2*i] = left[i]
			s.S16[2*i+1] = right[i]
		}
	}
}

// SamplesReader reads the bytes of the most recently decoded samples. It
// starts over when the samples are replaced and repeats them otherwise.
type SamplesReader struct {
	samples *Samples
	seq     int
	off     int
}

// Read implements the io.Reader interface. Silence is returned before the
// first samples are decoded.
func (s *SamplesReader) Read(b []byte) (int, error) {
	data := s.samples.Bytes()

	if s.seq != s.samples.seq {
		s.seq = s.samples.seq
		s.off = 0
	}

	if len(data) == 0 {
		clear(b)
		return len(b), nil
	}

	if s.off >= len(data) {
		s.off = 0
	}

	n := copy(b, data[s.off:])
	s.off += n

	return n, nil
}

// Seek implements the io.Seeker interface.
func (s *SamplesReader) Seek(offset int64, whence int) (int64, error) {
	return 0, nil
}

// AudioInfo describes the audio of a frame as signalled in the AAUX source pack.
type AudioInfo struct {
	System     System
	Samplerate int
	// Bits is 16 for linear or 12 for non-linear samples.
	Bits     int
	Channels int
	// Samples is the number of samples per channel in this frame.
	Samples int
	// Locked is set when audio is locked to the video frame rate.
	Locked bool
}

var (
	audioFrequency  = [3]int{48000, 44100, 32000}
	audioMinSamples = [2][3]int{{1580, 1452, 1053}, {1896, 1742, 1264}}
	audioMaxSamples = [2][3]int{{1620, 1489, 1080}, {1944, 1786, 1296}}
)

// Sample index of the first sample in audio block a of DIF sequence ds
// within the channel's half of the frame.
var (
	audioUnshuffle60 = [5][9]int{
		{0, 15, 30, 10, 25, 40, 5, 20, 35},
		{3, 18, 33, 13, 28, 43, 8, 23, 38},
		{6, 21, 36, 1, 16, 31, 11, 26, 41},
		{9, 24, 39, 4, 19, 34, 14, 29, 44},
		{12, 27, 42, 7, 22, 37, 2, 17, 32},
	}

	audioUnshuffle50 = [6][9]int{
		{0, 18, 36, 13, 31, 49, 8, 26, 44},
		{3, 21, 39, 16, 34, 52, 11, 29, 47},
		{6, 24, 42, 1, 19, 37, 14, 32, 50},
		{9, 27, 45, 4, 22, 40, 17, 35, 53},
		{12, 30, 48, 7, 25, 43, 2, 20, 38},
		{15, 33, 51, 10, 28, 46, 5, 23, 41},
	}
)

// audioStride returns the distance between consecutive samples of one audio block.
func audioStride(s System) int {
	if s == System625_50 {
		return 54
	}

	return 45
}

func audioUnshuffle(s System, ds, a int) int {
	if s == System625_50 {
		return audioUnshuffle50[ds][a]
	}

	return audioUnshuffle60[ds][a]
}

// readAudioInfo decodes the AAUX source pack of frame.
func readAudioInfo(frame []byte) (AudioInfo, error) {
	var info AudioInfo

	p, ok := AAUXPack(frame, packAudioSource)
	if !ok {
		return info, ErrNoAudio
	}

	afSize := int(p[1] & 0x3f)
	smp := int(p[4]>>3) & 0x07
	qu := int(p[4] & 0x07)

	if smp > 2 {
		return info, errors.Wrapf(ErrSampleRate, "sampling frequency code %d", smp)
	}

	if qu > 1 {
		return info, errors.Wrapf(ErrSampleRate, "quantization code %d", qu)
	}

	info.System = System525_60
	if p[3]&0x20 != 0 {
		info.System = System625_50
	}

	sys := int(info.System)

	info.Samplerate = audioFrequency[smp]
	info.Bits = 16
	if qu == 1 {
		info.Bits = 12
	}
	info.Channels = (qu + 1) * 2
	info.Samples = afSize + audioMinSamples[sys][smp]
	info.Locked = p[1]&0x80 == 0

	if info.Samples > audioMaxSamples[sys][smp] {
		return info, errors.Wrapf(ErrInvalidHeader, "%d audio samples", info.Samples)
	}

	return info, nil
}

func parseAudioInfo(frame []byte) (AudioInfo, bool) {
	info, err := readAudioInfo(frame)
	return info, err == nil
}

// upsample12 expands a 12-bit non-linear sample to 16 bits.
func upsample12(v uint16) int16 {
	s := int32(v) << 20 >> 20

	shift := (s & 0xf00) >> 8
	switch {
	case shift >= 0x2 && shift <= 0x7:
		shift--
		return int16((s - 256*shift) << shift)
	case shift >= 0x8 && shift <= 0xd:
		shift = 0xe - shift
		return int16(((s + 256*shift + 1) << shift) - 1)
	}

	return int16(s)
}

// audioError marks a sample that could not be recovered.
const audioError = -0x8000

// DecodeAudio decodes the audio of frame into out, one slice per channel,
// and returns the number of samples per channel. Samples flagged as errors
// repeat the previous sample of their channel.
func (d *Decoder) DecodeAudio(frame []byte, out [][]int16) (AudioInfo, error) {
	info, err := readAudioInfo(frame)
	if err != nil {
		return info, err
	}

	if len(frame) < info.System.FrameSize() {
		return info, errors.Wrapf(ErrFrameSize, "%s audio in %d bytes", info.System, len(frame))
	}

	if len(out) < info.Channels {
		return info, errors.Wrapf(ErrBufferSize, "%d channel buffers for %d channels", len(out), info.Channels)
	}

	for ch := 0; ch < info.Channels; ch++ {
		if len(out[ch]) < info.Samples {
			return info, errors.Wrapf(ErrBufferSize, "channel %d holds %d of %d samples", ch, len(out[ch]), info.Samples)
		}
	}

	half := info.System.Sequences() / 2
	stride := audioStride(info.System)

	for ds := 0; ds < info.System.Sequences(); ds++ {
		ch, seq := 0, ds
		if ds >= half {
			ch, seq = 1, ds-half
		}

		for a := 0; a < 9; a++ {
			blk := frame[audioOffset(ds, a) : audioOffset(ds, a)+difBlockSize]
			base := audioUnshuffle(info.System, seq, a)

			if info.Bits == 16 {
				for bp := 8; bp < difBlockSize; bp += 2 {
					i := base + (bp-8)/2*stride
					if i < info.Samples {
						out[ch][i] = int16(uint16(blk[bp])<<8 | uint16(blk[bp+1]))
					}
				}

				continue
			}

			for bp := 8; bp < difBlockSize; bp += 3 {
				i := base + (bp-8)/3*stride
				if i >= info.Samples {
					continue
				}

				y := uint16(blk[bp])<<4 | uint16(blk[bp+2]>>4)
				z := uint16(blk[bp+1])<<4 | uint16(blk[bp+2]&0x0f)

				out[2*ch][i] = audioError
				if y != 0x800 {
					out[2*ch][i] = upsample12(y)
				}

				out[2*ch+1][i] = audioError
				if z != 0x800 {
					out[2*ch+1][i] = upsample12(z)
				}
			}
		}
	}

	for ch := 0; ch < info.Channels; ch++ {
		d.stats.AudioErrors += conceal(out[ch][:info.Samples])
	}

	return info, nil
}

// conceal replaces error samples with the previous good sample.
func conceal(samples []int16) int {
	n := 0

	prev := int16(0)
	for i, s := range samples {
		if s == audioError {
			samples[i] = prev
			n++

			continue
		}

		prev = s
	}

	return n
}

// AudioSamples returns the number of samples per channel carried by frame
// number n of a stream at samplerate.
func AudioSamples(system System, samplerate, n int) int {
	if system == System625_50 {
		return samplerate / 25
	}

	at := func(n int) int64 {
		return int64(n) * int64(samplerate) * 1001 / 30000
	}

	return int(at(n+1) - at(n))
}

func samplerateIndex(samplerate int) (int, bool) {
	for i, f := range audioFrequency {
		if f == samplerate {
			return i, true
		}
	}

	return 0, false
}

// encodeAudio writes two channels of 16-bit audio and the AAUX packs into
// frame. The VAUX blocks must already be written.
func encodeAudio(frame []byte, system System, samplerate int, left, right []int16) error {
	smp, ok := samplerateIndex(samplerate)
	if !ok {
		return errors.Wrapf(ErrSampleRate, "%d Hz", samplerate)
	}

	sys := int(system)
	n := len(left)

	if n != len(right) {
		return errors.Wrapf(ErrBufferSize, "left has %d samples, right %d", len(left), len(right))
	}

	if n < audioMinSamples[sys][smp] || n > audioMaxSamples[sys][smp] {
		return errors.Wrapf(ErrBufferSize, "%d samples per frame at %d Hz", n, samplerate)
	}

	var packs [4]Pack

	packs[0] = Pack{
		packAudioSource,
		byte(n-audioMinSamples[sys][smp]) | 0x40 | 0x80,
		0x00,
		byte(sys)<<5 | 0x40 | 0x80,
		byte(smp) << 3,
	}
	packs[1] = Pack{packAudioControl, 0x33, 0xcf, 0xa0, 0xff}

	vaux := frame[5*difBlockSize+48:]
	packs[2] = Pack{packAudioDate}
	copy(packs[2][1:], vaux[10+1:10+5])
	packs[3] = Pack{packAudioTime}
	copy(packs[3][1:], vaux[15+1:15+5])

	half := system.Sequences() / 2
	stride := audioStride(system)

	for ds := 0; ds < system.Sequences(); ds++ {
		samples, seq := left, ds
		if ds >= half {
			samples, seq = right, ds-half
		}

		first := 0
		if ds%2 == 0 {
			first = 3
		}

		for a := 0; a < 9; a++ {
			blk := frame[audioOffset(ds, a) : audioOffset(ds, a)+difBlockSize]

			fill(blk[3:8], 0xff)
			if k := a - first; k >= 0 && k < len(packs) {
				copy(blk[3:8], packs[k][:])
				if k == 0 && ds >= half {
					blk[5] |= 1
				}
			}

			base := audioUnshuffle(system, seq, a)
			for bp := 8; bp < difBlockSize; bp += 2 {
				i := base + (bp-8)/2*stride

				s := int16(0)
				if i < n {
					s = samples[i]
				}
				if s == audioError {
					s++
				}

				blk[bp] = byte(uint16(s) >> 8)
				blk[bp+1] = byte(s)
			}
		}
	}

	return nil
}

// Audio decodes the audio of consecutive raw DV frames into stereo samples.
type Audio struct {
	decoder *Decoder

	channels [MaxChannels][]int16
	samples  Samples
	format   AudioFormat

	info      AudioInfo
	hasHeader bool

	time           float64
	samplesDecoded int
}

// NewAudio creates an audio decoder.
func NewAudio() *Audio {
	a := &Audio{}

	a.decoder = NewDecoder()

	for i := range a.channels {
		a.channels[i] = make([]int16, MaxSamplesPerFrame)
	}

	a.samples.S16 = make([]int16, 0, MaxSamplesPerFrame*2)
	a.samples.F32 = make([]float32, 0, MaxSamplesPerFrame*2)
	a.samples.Left = make([]float32, 0, MaxSamplesPerFrame)
	a.samples.Right = make([]float32, 0, MaxSamplesPerFrame)
	a.samples.Interleaved = make([]float32, 0, MaxSamplesPerFrame*2)

	return a
}

// Reader returns samples reader.
func (a *Audio) Reader() io.Reader {
	return &SamplesReader{samples: &a.samples}
}

// Format returns the sample format.
func (a *Audio) Format() AudioFormat {
	return a.format
}

// SetFormat sets the sample format.
func (a *Audio) SetFormat(format AudioFormat) {
	a.format = format
	a.samples.format = format
}

// HasHeader checks whether a frame with audio was seen.
func (a *Audio) HasHeader() bool {
	return a.hasHeader
}

// Info returns the audio description of the last decoded frame.
func (a *Audio) Info() AudioInfo {
	return a.info
}

// Samplerate returns the sample rate in samples per second.
func (a *Audio) Samplerate() int {
	if !a.hasHeader {
		return 0
	}

	return a.info.Samplerate
}

// Channels returns the number of channels in the stream. Samples always
// carry the first two.
func (a *Audio) Channels() int {
	return a.info.Channels
}

// Time returns the current internal time in seconds.
func (a *Audio) Time() float64 {
	return a.time
}

// SetTime sets the current internal time in seconds.
func (a *Audio) SetTime(time float64) {
	a.samplesDecoded = int(time * float64(a.Samplerate()))
	a.time = time
}

// Rewind rewinds the internal sample counter.
func (a *Audio) Rewind() {
	a.time = 0
	a.samplesDecoded = 0
}

// Decode decodes the audio of one raw frame and advances the internal time
// by the duration of its samples. The returned Samples is valid until the
// next call.
func (a *Audio) Decode(raw []byte) (*Samples, error) {
	out := a.channels[:]

	info, err := a.decoder.DecodeAudio(raw, out)
	if err != nil {
		return nil, err
	}

	a.info = info
	a.hasHeader = true

	n := info.Samples
	a.samples.fill(a.channels[0][:n], a.channels[1][:n])
	a.samples.Time = a.time

	a.samplesDecoded += n
	a.time = float64(a.samplesDecoded) / float64(info.Samplerate)

	return &a.samples, nil
}
