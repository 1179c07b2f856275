package main

import (
	"context"
	"flag"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	"golang.org/x/sync/errgroup"

	"github.com/gen2brain/dv"
)

// encodeOptions configures every encoder of a run.
type encodeOptions struct {
	system dv.System
	passes dv.Passes
	std    dv.Std
	wide   bool
	start  time.Time
}

func (o *encodeOptions) encoder() *dv.Encoder {
	enc := dv.NewEncoder()
	enc.Passes = o.passes
	enc.Std = o.std
	enc.Wide = o.wide
	enc.Time = o.start

	return enc
}

// soundtrack cuts a WAV file into the sample counts of consecutive frames.
type soundtrack struct {
	samplerate  int
	left, right []int16
	offsets     []int
}

func newSoundtrack(path string, system dv.System, frames int) (*soundtrack, error) {
	r, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	rate, left, right, err := readWAV(r)
	if err != nil {
		return nil, err
	}

	s := &soundtrack{samplerate: rate, left: left, right: right}

	s.offsets = make([]int, frames+1)
	for n := 0; n < frames; n++ {
		s.offsets[n+1] = s.offsets[n] + dv.AudioSamples(system, rate, n)
	}

	return s, nil
}

// frame returns the samples of frame n, padded with silence past the end of
// the file.
func (s *soundtrack) frame(n int) (left, right []int16) {
	start, end := s.offsets[n], s.offsets[n+1]

	left = make([]int16, end-start)
	right = make([]int16, end-start)

	if start < len(s.left) {
		copy(left, s.left[start:min(end, len(s.left))])
		copy(right, s.right[start:min(end, len(s.right))])
	}

	return left, right
}

type encodedFrame struct {
	n    int
	data []byte
}

func runEncode(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	output := fs.String("o", "out.dv", `output path ("-" for stdout)`)
	pal := fs.Bool("pal", false, "encode 625/50 (720x576) frames")
	smpte := fs.Bool("smpte", false, "record SMPTE 314M (4:1:1 for 625/50)")
	wide := fs.Bool("wide", false, "mark pictures as 16:9")
	passes := fs.Int("passes", 3, "bit distribution passes 1-3")
	wav := fs.String("wav", "", "16-bit PCM WAV soundtrack (48000, 44100 or 32000 Hz)")
	start := fs.String("time", "", "recording time of the first frame, RFC 3339 (default now)")
	workers := fs.Int("j", runtime.NumCPU(), "parallel encoders")
	verbose := fs.Bool("v", false, "log per-frame encoder statistics")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("encode: missing input images\nUsage: dvconv encode [options] <images...>")
	}
	if *passes < 1 || *passes > 3 {
		return errors.Errorf("encode: passes %d out of range 1-3", *passes)
	}
	setVerbose(*verbose)

	opts := encodeOptions{
		system: dv.System525_60,
		passes: dv.Passes(*passes),
		wide:   *wide,
		start:  time.Now(),
	}
	if *pal {
		opts.system = dv.System625_50
	}
	if *smpte {
		opts.std = dv.SMPTE314M
	}
	if *start != "" {
		t, err := time.Parse(time.RFC3339, *start)
		if err != nil {
			return errors.Wrap(err, "encode: -time")
		}
		opts.start = t
	}

	paths := fs.Args()

	var sound *soundtrack
	if *wav != "" {
		var err error
		sound, err = newSoundtrack(*wav, opts.system, len(paths))
		if err != nil {
			return err
		}
	}

	w, err := createOutput(*output)
	if err != nil {
		return err
	}

	if err := encodeFrames(w, paths, &opts, sound, max(*workers, 1)); err != nil {
		w.Close()
		return err
	}

	return w.Close()
}

// encodeFrames encodes the images in parallel and writes the frames in order.
func encodeFrames(w io.Writer, paths []string, opts *encodeOptions, sound *soundtrack, workers int) error {
	g, ctx := errgroup.WithContext(context.Background())

	jobs := make(chan int)
	out := make(chan encodedFrame, workers)

	g.Go(func() error {
		defer close(jobs)

		for n := range paths {
			select {
			case jobs <- n:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()

			enc := opts.encoder()

			for n := range jobs {
				img, err := loadPicture(paths[n], opts.system)
				if err != nil {
					return err
				}

				data := make([]byte, opts.system.FrameSize())

				enc.SetFrameIndex(n)
				before := enc.Stats()

				if err := enc.Encode(img, data); err != nil {
					return errors.Wrap(err, paths[n])
				}

				if sound != nil {
					left, right := sound.frame(n)
					if err := enc.EncodeAudio(data, sound.samplerate, left, right); err != nil {
						return errors.Wrapf(err, "frame %d audio", n)
					}
				}

				stats := enc.Stats()
				logger.Debug("encoded", "frame", n, "path", paths[n],
					"truncated", stats.Truncated-before.Truncated, "spilled", stats.Spilled-before.Spilled)

				select {
				case out <- encodedFrame{n, data}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}

			return nil
		})
	}

	g.Go(func() error {
		wg.Wait()
		close(out)
		return nil
	})

	g.Go(func() error {
		pending := make(map[int][]byte)
		next := 0

		for f := range out {
			pending[f.n] = f.data

			for data, ok := pending[next]; ok; data, ok = pending[next] {
				if _, err := w.Write(data); err != nil {
					return err
				}
				delete(pending, next)
				next++
			}
		}

		return nil
	})

	return g.Wait()
}

// loadPicture decodes an image file and scales it to the picture size of
// system when needed.
func loadPicture(path string, system dv.System) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}

	b := img.Bounds()
	if b.Dx() == dv.Width && b.Dy() == system.Height() {
		return img, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, dv.Width, system.Height()))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)

	return dst, nil
}
