// Package dv implements a DV (IEC 61834 / SMPTE 314M) video and audio codec.
//
// This library provides several interfaces to decode and encode DV frames.
// A high-level DV API reads a stream of raw frames and decodes its video and audio in an easy-to-use wrapper.
//
// With the high-level interface you have two options to decode video and audio:
//
// 1. Decode() and just hand over the delta time since the last call.
// It will decode everything needed and call your callbacks (specified through
// Set{Video|Audio}Callback()) any number of times.
//
// 2. Use DecodeVideo() and DecodeAudio() to decode exactly one frame of video or audio data at a time.
// How you handle the synchronization of both streams is up to you.
//
// If you only want to decode video *or* audio through these functions, you should
// disable the other stream (Set{Video|Audio}Enabled(false))
//
// Video data is decoded into a struct with all 3 planes (Y, Cb, Cr) stored in separate buffers,
// you can get image.YCbCr via YCbCr() function. NTSC and SMPTE 314M frames use 4:1:1 chroma,
// IEC 61834 PAL frames use 4:2:0. You can either convert to image.RGBA on the CPU (slow)
// via the RGBA() function or do it on the GPU with the following matrix:
//
//	mat4 bt601 = mat4(
//	    1.16438,  0.00000,  1.59603, -0.87079,
//	    1.16438, -0.39176, -0.81297,  0.52959,
//	    1.16438,  2.01723,  0.00000, -1.08139,
//	    0, 0, 0, 1
//	);
//
//	gl_FragColor = vec4(y, cb, cr, 1.0) * bt601;
//
// Audio data is decoded into a struct with separate []float32 slices for left and right channel,
// and with a single []float32 slice with the samples for the left and right channel interleaved.
// You can convert interleaved samples to byte slice via the Bytes() function.
//
// The lower level Decoder renders a single frame straight into packed YUY2, RGB, BGR0 or planar YV12
// pixel buffers, and the Encoder compresses pictures and audio into raw frames. DecodeSegment and
// EncodeSegment expose the codec of a single video segment.
package dv

import (
	"io"
	"time"

	"github.com/pkg/errors"
)

// VideoFunc callback function.
type VideoFunc func(dv *DV, frame *Frame)

// AudioFunc callback function.
type AudioFunc func(dv *DV, samples *Samples)

var (
	// ErrInvalidDV is the error returned when the reader holds no DV frame.
	ErrInvalidDV = errors.New("invalid DV stream")

	// ErrInvalidHeader is the error returned for a frame with a malformed header block.
	ErrInvalidHeader = errors.New("invalid DIF header")

	// ErrFrameSize is the error returned when a frame buffer or picture has the wrong size.
	ErrFrameSize = errors.New("invalid frame size")

	// ErrBufferSize is the error returned when an output buffer is too small.
	ErrBufferSize = errors.New("buffer too small")

	// ErrNoAudio is the error returned for a frame without an AAUX source pack.
	ErrNoAudio = errors.New("no audio in frame")

	// ErrSampleRate is the error returned for unsupported audio parameters.
	ErrSampleRate = errors.New("unsupported audio format")
)

// frameQueue holds raw frames read from the buffer until both the video
// and the audio cursor have passed them.
type frameQueue struct {
	base   int
	frames [][]byte
	free   [][]byte
}

func (q *frameQueue) reset(base int) {
	q.free = append(q.free, q.frames...)
	q.frames = q.frames[:0]
	q.base = base
}

func (q *frameQueue) alloc() []byte {
	if n := len(q.free); n > 0 {
		p := q.free[n-1]
		q.free = q.free[:n-1]

		return p[:cap(p)]
	}

	return make([]byte, FrameSizePAL)
}

// drop releases the frames before n.
func (q *frameQueue) drop(n int) {
	for q.base < n && len(q.frames) > 0 {
		q.free = append(q.free, q.frames[0])
		q.frames = q.frames[1:]
		q.base++
	}
}

// DV is high-level interface implementation.
type DV struct {
	buf    *Buffer
	header Header
	start  int
	queue  frameQueue
	time   float64

	loop     bool
	hasEnded bool

	videoEnabled bool
	videoNext    int
	videoDecoder *Video

	audioEnabled  bool
	audioNext     int
	audioLeadTime float64
	audioDecoder  *Audio

	done chan bool

	videoCallback VideoFunc
	audioCallback AudioFunc
}

// New creates a new DV instance reading consecutive raw frames from r.
func New(r io.Reader) (*DV, error) {
	d := &DV{}

	buf, err := NewBuffer(r)
	if err != nil {
		return nil, err
	}

	buf.SetLoadCallback(buf.LoadReaderCallback)
	d.buf = buf

	if !buf.findFrame() {
		return nil, ErrInvalidDV
	}
	d.start = buf.tell()

	raw := d.frameAt(0)
	if raw == nil {
		return nil, ErrInvalidDV
	}

	d.header, err = ParseHeader(raw)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidDV, err.Error())
	}

	d.done = make(chan bool, 1)

	d.videoEnabled = true
	d.videoDecoder = NewVideo()

	d.audioEnabled = d.header.HasAudio
	if d.header.HasAudio {
		d.audioDecoder = NewAudio()
	}

	return d, nil
}

// Done returns done channel.
func (d *DV) Done() chan bool {
	return d.done
}

// Buffer returns the frame source.
func (d *DV) Buffer() *Buffer {
	return d.buf
}

// Header returns the header of the first frame.
func (d *DV) Header() Header {
	return d.header
}

// Video returns video decoder.
func (d *DV) Video() *Video {
	return d.videoDecoder
}

// SetQuality sets the video decoding quality.
func (d *DV) SetQuality(q Quality) {
	d.videoDecoder.Decoder().Quality = q
}

// SetVideoCallback sets a video callback.
func (d *DV) SetVideoCallback(callback VideoFunc) {
	d.videoCallback = callback
}

// VideoEnabled checks whether video decoding is enabled.
func (d *DV) VideoEnabled() bool {
	return d.videoEnabled
}

// SetVideoEnabled sets whether video decoding is enabled.
func (d *DV) SetVideoEnabled(enabled bool) {
	d.videoEnabled = enabled
	d.videoNext = d.audioNext
}

// Width returns the display width of the video stream.
func (d *DV) Width() int {
	return d.header.Width
}

// Height returns the display height of the video stream.
func (d *DV) Height() int {
	return d.header.Height
}

// Framerate returns the framerate of the video stream in frames per second.
func (d *DV) Framerate() float64 {
	return d.header.Framerate()
}

// Audio returns audio decoder, nil when the stream has no audio.
func (d *DV) Audio() *Audio {
	return d.audioDecoder
}

// AudioFormat returns audio format.
func (d *DV) AudioFormat() AudioFormat {
	if d.audioDecoder == nil {
		return AudioF32N
	}

	return d.audioDecoder.Format()
}

// SetAudioFormat sets audio format.
func (d *DV) SetAudioFormat(format AudioFormat) {
	if d.audioDecoder != nil {
		d.audioDecoder.SetFormat(format)
	}
}

// SetAudioCallback sets a audio callback.
func (d *DV) SetAudioCallback(callback AudioFunc) {
	d.audioCallback = callback
}

// AudioEnabled checks whether audio decoding is enabled.
func (d *DV) AudioEnabled() bool {
	return d.audioEnabled
}

// SetAudioEnabled sets whether audio decoding is enabled.
func (d *DV) SetAudioEnabled(enabled bool) {
	d.audioEnabled = enabled && d.audioDecoder != nil
	d.audioNext = d.videoNext
}

// Samplerate returns the samplerate of the audio stream in samples per second.
func (d *DV) Samplerate() int {
	if !d.header.HasAudio {
		return 0
	}

	return d.header.Audio.Samplerate
}

// Channels returns the number of channels.
func (d *DV) Channels() int {
	if !d.header.HasAudio {
		return 0
	}

	return d.header.Audio.Channels
}

// AudioLeadTime returns the audio lead time - the time in which audio samples
// are decoded in advance (or behind) the video decode time.
func (d *DV) AudioLeadTime() time.Duration {
	return time.Duration(d.audioLeadTime * float64(time.Second))
}

// SetAudioLeadTime sets the audio lead time. Typically, this
// should be set to the duration of the buffer of the audio API that you use
// for output. E.g. for SDL2: (SDL_AudioSpec.samples / samplerate).
func (d *DV) SetAudioLeadTime(leadTime time.Duration) {
	d.audioLeadTime = leadTime.Seconds()
}

// Time returns the current internal time.
func (d *DV) Time() time.Duration {
	return time.Duration(d.time * float64(time.Second))
}

// frameSize returns the size of the frames of the stream.
func (d *DV) frameSize() int {
	return d.header.FrameSize
}

// NumFrames returns the number of frames in the source, or 0 when the source
// is not seekable.
func (d *DV) NumFrames() int {
	if !d.buf.Seekable() {
		return 0
	}

	return (d.buf.Size() - d.start) / d.frameSize()
}

// Duration returns the video duration of the underlying source.
func (d *DV) Duration() time.Duration {
	return time.Duration(float64(d.NumFrames()) / d.Framerate() * float64(time.Second))
}

// Rewind rewinds all buffers back to the beginning.
func (d *DV) Rewind() {
	d.videoDecoder.Rewind()

	if d.audioDecoder != nil {
		d.audioDecoder.Rewind()
	}

	d.buf.seek(d.start)
	d.queue.reset(0)
	d.videoNext, d.audioNext = 0, 0
	d.time = 0
}

// Loop returns looping.
func (d *DV) Loop() bool {
	return d.loop
}

// SetLoop sets looping.
func (d *DV) SetLoop(loop bool) {
	d.loop = loop
}

// HasEnded checks whether the file has ended.
// If looping is enabled, this will always return false.
func (d *DV) HasEnded() bool {
	return d.hasEnded
}

// Decode advances the internal timer by tick and decode video/audio up to this time.
// This will call the video and audio callbacks any number of times.
// A frame-skip is not implemented, i.e. everything up to current time will be decoded.
func (d *DV) Decode(tick time.Duration) {
	decodeVideo := d.videoCallback != nil && d.videoEnabled
	decodeAudio := d.audioCallback != nil && d.audioEnabled

	if !decodeVideo && !decodeAudio {
		// Nothing to do here
		return
	}

	didDecode := false
	decodeVideoFailed := false
	decodeAudioFailed := false

	videoTargetTime := d.time + tick.Seconds()
	audioTargetTime := d.time + tick.Seconds() + d.audioLeadTime

	for {
		didDecode = false

		if decodeVideo && d.videoDecoder.Time() < videoTargetTime {
			frame := d.decodeVideo()
			if frame != nil {
				d.videoCallback(d, frame)
				didDecode = true
			} else {
				decodeVideoFailed = true
			}
		}

		if decodeAudio && d.audioDecoder.Time() < audioTargetTime {
			samples := d.decodeAudio()
			if samples != nil {
				d.audioCallback(d, samples)
				didDecode = true
			} else {
				decodeAudioFailed = true
			}
		}

		if !didDecode {
			break
		}
	}

	if (!decodeVideo || decodeVideoFailed) && (!decodeAudio || decodeAudioFailed) && d.ended() {
		d.handleEnd()

		return
	}

	d.time += tick.Seconds()
}

// DecodeVideo decodes and returns one video frame. Returns nil if no frame could be decoded
// (either because the source ended or data is corrupt). If you only want to decode video, you should
// disable audio via SetAudioEnabled(). The returned Frame is valid until the next call to DecodeVideo().
func (d *DV) DecodeVideo() *Frame {
	if !d.videoEnabled {
		return nil
	}

	frame := d.decodeVideo()
	if frame != nil {
		d.time = frame.Time
	} else if d.ended() {
		d.handleEnd()
	}

	return frame
}

// DecodeAudio decodes and returns the audio of one frame. Returns nil if no samples could be decoded
// (either because the source ended or data is corrupt). If you only want to decode audio, you should
// disable video via SetVideoEnabled(). The returned Samples is valid until the next call to DecodeAudio().
func (d *DV) DecodeAudio() *Samples {
	if !d.audioEnabled {
		return nil
	}

	samples := d.decodeAudio()
	if samples != nil {
		d.time = samples.Time
	} else if d.ended() {
		d.handleEnd()
	}

	return samples
}

// SeekFrame seeks, similar to Seek(), but will not call the VideoFunc callback,
// AudioFunc callback or make any attempts to sync audio.
// Returns the found frame or nil if no frame could be found.
func (d *DV) SeekFrame(tm time.Duration) *Frame {
	if !d.seekTo(tm) {
		return nil
	}

	frame := d.decodeVideo()
	if frame != nil {
		d.time = frame.Time
	}

	d.hasEnded = false

	return frame
}

// Seek seeks to the specified time, clamped between 0 -- duration. This can only be
// used when the underlying Buffer is seekable. Every DV frame is coded on its own,
// so seeking is always exact.
// If seeking succeeds, this function will call the VideoFunc callback
// exactly once with the target frame. If audio is enabled, it will also call
// the AudioFunc callback any number of times, until the audioLeadTime is satisfied.
// Returns true if seeking succeeded or false if no frame could be found.
func (d *DV) Seek(tm time.Duration) bool {
	frame := d.SeekFrame(tm)
	if frame == nil {
		return false
	}

	if d.videoCallback != nil {
		d.videoCallback(d, frame)
	}

	// If audio is not enabled we are done here.
	if !d.audioEnabled {
		return true
	}

	prevVideo := d.videoEnabled
	d.videoEnabled = false
	d.Decode(0)
	d.videoEnabled = prevVideo

	return true
}

// seekTo positions both cursors at the frame shown at tm.
func (d *DV) seekTo(tm time.Duration) bool {
	frames := d.NumFrames()
	if frames == 0 {
		return false
	}

	n := int(tm.Seconds() * d.Framerate())
	if n < 0 {
		n = 0
	} else if n >= frames {
		n = frames - 1
	}

	d.buf.seek(d.start + n*d.frameSize())
	d.queue.reset(n)
	d.videoNext, d.audioNext = n, n

	t := float64(n) / d.Framerate()
	d.videoDecoder.SetTime(t)
	if d.audioDecoder != nil {
		d.audioDecoder.SetTime(t)
	}

	return true
}

func (d *DV) decodeVideo() *Frame {
	if d.videoNext < d.queue.base {
		d.videoNext = d.queue.base
	}

	raw := d.frameAt(d.videoNext)
	if raw == nil {
		return nil
	}

	d.videoNext++
	defer d.release()

	frame, err := d.videoDecoder.Decode(raw)
	if err != nil {
		return nil
	}

	return frame
}

func (d *DV) decodeAudio() *Samples {
	if d.audioNext < d.queue.base {
		d.audioNext = d.queue.base
	}

	raw := d.frameAt(d.audioNext)
	if raw == nil {
		return nil
	}

	d.audioNext++
	defer d.release()

	samples, err := d.audioDecoder.Decode(raw)
	if err != nil {
		// Keep the audio clock in step with the frames it skipped.
		d.audioDecoder.SetTime(float64(d.audioNext) / d.Framerate())
		return nil
	}

	return samples
}

// frameAt returns raw frame n, reading ahead from the buffer as needed.
func (d *DV) frameAt(n int) []byte {
	q := &d.queue
	if n < q.base {
		return nil
	}

	for n >= q.base+len(q.frames) {
		raw := d.readFrame()
		if raw == nil {
			return nil
		}

		q.frames = append(q.frames, raw)
	}

	return q.frames[n-q.base]
}

// readFrame reads the next frame from the buffer.
func (d *DV) readFrame() []byte {
	if !d.buf.findFrame() || !d.buf.has(FrameSizeNTSC) {
		return nil
	}

	size := FrameSizeNTSC
	if d.buf.Bytes()[3]&0x80 != 0 {
		size = FrameSizePAL
	}

	raw := d.queue.alloc()
	if !d.buf.readFrame(raw, size) {
		d.queue.free = append(d.queue.free, raw)
		return nil
	}

	return raw[:size]
}

// maxQueued bounds how far one cursor may run ahead of the other.
const maxQueued = 64

// release drops the frames both enabled cursors have passed.
func (d *DV) release() {
	n, lead := d.videoNext, d.videoNext
	if d.audioEnabled {
		if !d.videoEnabled || d.audioNext < n {
			n = d.audioNext
		}
		if d.audioNext > lead {
			lead = d.audioNext
		}
	}

	if lead-n > maxQueued {
		n = lead - maxQueued
	}

	d.queue.drop(n)
}

func (d *DV) ended() bool {
	return d.buf.HasEnded()
}

func (d *DV) handleEnd() {
	if d.loop {
		d.Rewind()
	} else {
		d.hasEnded = true

		select {
		case d.done <- true:
		default:
		}
	}
}
