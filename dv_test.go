package dv_test

import (
	"bytes"
	"image"
	"image/color"
	"math"
	"testing"
	"time"

	"github.com/gen2brain/dv"
)

var recorded = time.Date(2024, time.May, 17, 10, 30, 0, 0, time.Local)

// testStream encodes frames of a flat picture with a stereo tone.
func testStream(tb testing.TB, height, frames int, c color.RGBA) []byte {
	tb.Helper()

	img := image.NewRGBA(image.Rect(0, 0, dv.Width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = 0xff
	}

	enc := dv.NewEncoder()
	enc.Time = recorded

	system := dv.System525_60
	if height == 576 {
		system = dv.System625_50
	}

	var out bytes.Buffer
	raw := make([]byte, system.FrameSize())

	for f := 0; f < frames; f++ {
		if err := enc.Encode(img, raw); err != nil {
			tb.Fatal(err)
		}

		left, right := tone(dv.AudioSamples(system, 48000, f))
		if err := enc.EncodeAudio(raw, 48000, left, right); err != nil {
			tb.Fatal(err)
		}

		out.Write(raw)
	}

	return out.Bytes()
}

func tone(n int) (left, right []int16) {
	left, right = make([]int16, n), make([]int16, n)
	for i := range left {
		left[i] = int16(8000 * math.Sin(float64(i)/10))
		right[i] = -left[i]
	}

	return left, right
}

var gray = color.RGBA{R: 128, G: 128, B: 128, A: 0xff}

func TestBuffer(t *testing.T) {
	stream := testStream(t, 480, 2, gray)

	buffer, err := dv.NewBuffer(bytes.NewReader(stream))
	if err != nil {
		t.Fatal(err)
	}

	buffer.SetLoadCallback(buffer.LoadReaderCallback)

	if !buffer.Seekable() {
		t.Error("Seekable: not seekable")
	}

	if buffer.Size() != 2*dv.FrameSizeNTSC {
		t.Errorf("Size: got %d, want %d", buffer.Size(), 2*dv.FrameSizeNTSC)
	}
}

func TestHeader(t *testing.T) {
	stream := testStream(t, 480, 1, gray)

	h, err := dv.ParseHeader(stream)
	if err != nil {
		t.Fatal(err)
	}

	if h.System != dv.System525_60 {
		t.Errorf("System: got %s, want %s", h.System, dv.System525_60)
	}

	if h.Sampling != dv.Sampling411 {
		t.Errorf("Sampling: got %s, want %s", h.Sampling, dv.Sampling411)
	}

	if h.Width != 720 || h.Height != 480 {
		t.Errorf("Size: got %dx%d, want %dx%d", h.Width, h.Height, 720, 480)
	}

	if h.Wide {
		t.Error("Wide: got true, want false")
	}

	want := dv.Timecode{Hours: 10, Minutes: 30}
	if h.Timecode != want {
		t.Errorf("Timecode: got %s, want %s", h.Timecode, want)
	}

	if !h.Recorded.Equal(recorded) {
		t.Errorf("Recorded: got %v, want %v", h.Recorded, recorded)
	}

	if !h.HasAudio {
		t.Fatal("HasAudio: no audio")
	}

	if h.Audio.Samplerate != 48000 {
		t.Errorf("Samplerate: got %d, want %d", h.Audio.Samplerate, 48000)
	}

	if h.Audio.Samples != 1601 {
		t.Errorf("Samples: got %d, want %d", h.Audio.Samples, 1601)
	}

	if _, err := dv.ParseHeader(stream[:1000]); err == nil {
		t.Error("ParseHeader: short frame accepted")
	}

	bad := append([]byte(nil), stream...)
	bad[0] = 0xff
	if _, err := dv.ParseHeader(bad); err == nil {
		t.Error("ParseHeader: bad section type accepted")
	}
}

func TestVideo(t *testing.T) {
	stream := testStream(t, 576, 1, gray)

	video := dv.NewVideo()
	frame, err := video.Decode(stream)
	if err != nil {
		t.Fatal(err)
	}

	if !video.HasHeader() {
		t.Error("HasHeader: no header")
	}

	if video.Width() != 720 {
		t.Errorf("Width: got %d, want %d", video.Width(), 720)
	}

	if video.Height() != 576 {
		t.Errorf("Height: got %d, want %d", video.Height(), 576)
	}

	if video.Framerate() != 25.0 {
		t.Errorf("Framerate: got %f, want %f", video.Framerate(), 25.0)
	}

	if frame.Sampling != dv.Sampling420 {
		t.Errorf("Sampling: got %s, want %s", frame.Sampling, dv.Sampling420)
	}

	if len(frame.Y.Data) != 720*576 {
		t.Errorf("Y: got %d, want %d", len(frame.Y.Data), 720*576)
	}

	if len(frame.Cb.Data) != len(frame.Y.Data)/4 {
		t.Errorf("Cb: got %d, want %d", len(frame.Cb.Data), len(frame.Y.Data)/4)
	}

	// 128 gray is Y 126 in studio range.
	for i, y := range frame.Y.Data {
		if y < 124 || y > 128 {
			t.Fatalf("Y[%d]: got %d, want 126", i, y)
		}
	}

	for i, c := range frame.Cb.Data {
		if c < 126 || c > 130 {
			t.Fatalf("Cb[%d]: got %d, want 128", i, c)
		}
	}
}

func TestAudio(t *testing.T) {
	stream := testStream(t, 480, 1, gray)

	audio := dv.NewAudio()
	audio.SetFormat(dv.AudioS16)

	samples, err := audio.Decode(stream)
	if err != nil {
		t.Fatal(err)
	}

	if audio.Samplerate() != 48000 {
		t.Errorf("Samplerate: got %d, want %d", audio.Samplerate(), 48000)
	}

	if audio.Channels() != 2 {
		t.Errorf("Channels: got %d, want %d", audio.Channels(), 2)
	}

	left, right := tone(1601)
	if len(samples.S16) != 2*len(left) {
		t.Fatalf("S16: got %d, want %d", len(samples.S16), 2*len(left))
	}

	for i := range left {
		if samples.S16[2*i] != left[i] || samples.S16[2*i+1] != right[i] {
			t.Fatalf("sample %d: got %d %d, want %d %d", i, samples.S16[2*i], samples.S16[2*i+1], left[i], right[i])
		}
	}

	if audio.Time() <= 0 {
		t.Errorf("Time: got %f, want > 0", audio.Time())
	}
}

func TestDV(t *testing.T) {
	const frames = 40

	junk := bytes.Repeat([]byte{0xff}, 1000)
	stream := append(junk, testStream(t, 480, frames, gray)...)

	d, err := dv.New(bytes.NewReader(stream))
	if err != nil {
		t.Fatal(err)
	}

	if d.Width() != 720 {
		t.Errorf("Width: got %d, want %d", d.Width(), 720)
	}

	if d.Height() != 480 {
		t.Errorf("Height: got %d, want %d", d.Height(), 480)
	}

	if math.Abs(d.Framerate()-29.97) > 0.01 {
		t.Errorf("Framerate: got %f, want %f", d.Framerate(), 29.97)
	}

	if d.Samplerate() != 48000 {
		t.Errorf("Samplerate: got %d, want %d", d.Samplerate(), 48000)
	}

	if d.Channels() != 2 {
		t.Errorf("Channels: got %d, want %d", d.Channels(), 2)
	}

	if d.NumFrames() != frames {
		t.Errorf("NumFrames: got %d, want %d", d.NumFrames(), frames)
	}

	d.SetAudioLeadTime(time.Second)
	if d.AudioLeadTime() != time.Second {
		t.Errorf("AudioLeadTime: got %v, want %v", d.AudioLeadTime(), time.Second)
	}

	if int(d.Duration().Seconds()) != 1 {
		t.Errorf("Duration: got %v, want %v", d.Duration(), 40*time.Second/30)
	}

	d.Rewind()
	d.SetLoop(false)
	if d.Loop() {
		t.Errorf("Loop: got %v, want %v", d.Loop(), false)
	}

	d.SetAudioEnabled(false)
	d.SetVideoEnabled(true)
	frame := d.DecodeVideo()
	if frame == nil {
		t.Fatal("DecodeVideo: frame is nil")
	}

	if frame.Width != d.Width() {
		t.Errorf("Width: got %d, want %d", frame.Width, d.Width())
	}

	if len(frame.Cb.Data) != len(frame.Y.Data)/4 {
		t.Errorf("Cb: got %d, want %d", len(frame.Cb.Data), len(frame.Y.Data)/4)
	}

	d.SetAudioEnabled(true)
	d.SetVideoEnabled(false)
	samples := d.DecodeAudio()
	if samples == nil {
		t.Fatal("DecodeAudio: samples is nil")
	}

	if len(samples.Bytes()) != len(samples.Interleaved)*4 {
		t.Errorf("bytes: got %d, want %d", len(samples.Bytes()), len(samples.Interleaved)*4)
	}

	d.SetAudioEnabled(true)
	d.SetVideoEnabled(true)
	if !d.Seek(time.Second) {
		t.Fatal("Seek: returned false")
	}

	frame = d.SeekFrame(time.Second)
	if frame == nil {
		t.Fatal("SeekFrame: frame is nil")
	}

	if want := 29 / d.Framerate(); math.Abs(frame.Time-want) > 1e-9 {
		t.Errorf("Time: got %f, want %f", frame.Time, want)
	}

	frame = d.SeekFrame(100 * time.Second)
	if frame == nil {
		t.Fatal("SeekFrame: frame is nil")
	}

	if want := (frames - 1) / d.Framerate(); math.Abs(frame.Time-want) > 1e-9 {
		t.Errorf("Time: got %f, want %f", frame.Time, want)
	}

	d.Rewind()

	var videoFrames, audioFrames int
	d.SetVideoCallback(func(d *dv.DV, f *dv.Frame) { videoFrames++ })
	d.SetAudioCallback(func(d *dv.DV, s *dv.Samples) { audioFrames++ })

	for i := 0; i < 1000 && !d.HasEnded(); i++ {
		d.Decode(time.Second / 10)
	}

	if videoFrames != frames {
		t.Errorf("video frames: got %d, want %d", videoFrames, frames)
	}

	if audioFrames != frames {
		t.Errorf("audio frames: got %d, want %d", audioFrames, frames)
	}

	select {
	case <-d.Done():
	default:
		t.Error("Done: not signalled")
	}
}

func TestInvalid(t *testing.T) {
	_, err := dv.New(bytes.NewReader(bytes.Repeat([]byte{0xff}, 200000)))
	if err == nil {
		t.Fatal("New: got nil error for a stream without frames")
	}
}

func BenchmarkDecodeVideo(b *testing.B) {
	d, err := dv.New(bytes.NewReader(testStream(b, 480, 4, gray)))
	if err != nil {
		b.Fatal(err)
	}

	d.SetLoop(true)
	d.SetAudioEnabled(false)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		d.DecodeVideo()
	}
}

func BenchmarkDecodeAudio(b *testing.B) {
	d, err := dv.New(bytes.NewReader(testStream(b, 480, 4, gray)))
	if err != nil {
		b.Fatal(err)
	}

	d.SetLoop(true)
	d.SetVideoEnabled(false)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		d.DecodeAudio()
	}
}

func BenchmarkRGBA(b *testing.B) {
	d, err := dv.New(bytes.NewReader(testStream(b, 480, 1, gray)))
	if err != nil {
		b.Fatal(err)
	}

	frame := d.DecodeVideo()
	if frame == nil {
		b.Fatal("DecodeVideo: frame is nil")
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		frame.RGBA()
	}
}

func BenchmarkEncode(b *testing.B) {
	img := image.NewRGBA(image.Rect(0, 0, dv.Width, 576))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}

	enc := dv.NewEncoder()
	raw := make([]byte, dv.FrameSizePAL)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if err := enc.Encode(img, raw); err != nil {
			b.Fatal(err)
		}
	}
}
