package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/sync/errgroup"

	"github.com/gen2brain/dv"
)

type rawFrame struct {
	n    int
	data []byte
}

func runDecode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	output := fs.String("o", ".", "output directory")
	format := fs.String("f", "png", "image format: png/jpeg/bmp/tiff")
	quality := fs.Int("q", 90, "JPEG quality 1-100")
	level := fs.String("quality", "best", "decoder quality: best/ac1/dc")
	gray := fs.Bool("gray", false, "decode luma only")
	square := fs.Bool("square", false, "resample to square pixels")
	maxFrames := fs.Int("n", 0, "stop after n frames (0=all)")
	workers := fs.Int("j", runtime.NumCPU(), "parallel decoders")
	verbose := fs.Bool("v", false, "log per-frame decoder statistics")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("decode: missing input file\nUsage: dvconv decode [options] <input.dv>")
	}
	setVerbose(*verbose)

	ext, err := imageExt(*format)
	if err != nil {
		return err
	}

	q, err := parseQuality(*level)
	if err != nil {
		return err
	}
	if !*gray {
		q |= dv.QualityColor
	}

	r, err := openInput(fs.Arg(0))
	if err != nil {
		return err
	}
	defer r.Close()

	if err := os.MkdirAll(*output, 0o755); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(context.Background())
	jobs := make(chan rawFrame)

	g.Go(func() error {
		defer close(jobs)

		err := eachFrame(r, func(n int, frame []byte) error {
			if *maxFrames > 0 && n >= *maxFrames {
				return errStop
			}

			data := make([]byte, len(frame))
			copy(data, frame)

			select {
			case jobs <- rawFrame{n, data}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if errors.Is(err, errStop) {
			return nil
		}

		return err
	})

	for i := 0; i < max(*workers, 1); i++ {
		g.Go(func() error {
			dec := dv.NewDecoder()
			dec.Quality = q

			var f dv.Frame

			for job := range jobs {
				before := dec.Stats()

				if err := dec.DecodeFrame(job.data, &f); err != nil {
					return errors.Wrapf(err, "frame %d", job.n)
				}

				stats := dec.Stats()
				logger.Debug("decoded", "frame", job.n, "vlc_errors", stats.VLCErrors-before.VLCErrors)

				img := image.Image(f.YCbCr())
				if *square {
					h, err := dv.ParseHeader(job.data)
					if err != nil {
						return err
					}
					img = squarePixels(img, h)
				}

				name := filepath.Join(*output, fmt.Sprintf("frame-%05d%s", job.n, ext))
				if err := writeImage(name, img, ext, *quality); err != nil {
					return err
				}
			}

			return nil
		})
	}

	return g.Wait()
}

func parseQuality(s string) (dv.Quality, error) {
	switch s {
	case "best", "ac2":
		return dv.QualityAC2, nil
	case "ac1":
		return dv.QualityAC1, nil
	case "dc", "fastest":
		return dv.QualityDC, nil
	}

	return 0, errors.Errorf("unknown decoder quality %q", s)
}

func imageExt(format string) (string, error) {
	switch strings.ToLower(format) {
	case "png":
		return ".png", nil
	case "jpeg", "jpg":
		return ".jpg", nil
	case "bmp":
		return ".bmp", nil
	case "tiff", "tif":
		return ".tiff", nil
	}

	return "", errors.Errorf("unknown image format %q", format)
}

// squarePixels scales a picture to the width it has on a square pixel
// display.
func squarePixels(img image.Image, h dv.Header) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, h.DisplayWidth(), h.Height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	return dst
}

func writeImage(path string, img image.Image, ext string, quality int) error {
	w, err := createOutput(path)
	if err != nil {
		return err
	}

	if err := encodeImage(w, img, ext, quality); err != nil {
		w.Close()
		return errors.Wrap(err, path)
	}

	return w.Close()
}

func encodeImage(w io.Writer, img image.Image, ext string, quality int) error {
	switch ext {
	case ".jpg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case ".bmp":
		return bmp.Encode(w, img)
	case ".tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}

	return png.Encode(w, img)
}
