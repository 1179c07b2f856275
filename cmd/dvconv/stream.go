package main

import (
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/gen2brain/dv"
)

type zstdReader struct {
	*zstd.Decoder
	file io.Closer
}

func (z *zstdReader) Close() error {
	z.Decoder.Close()
	return z.file.Close()
}

type zstdWriter struct {
	*zstd.Encoder
	file io.Closer
}

func (z *zstdWriter) Close() error {
	if err := z.Encoder.Close(); err != nil {
		z.file.Close()
		return errors.Wrap(err, "zstd")
	}

	return z.file.Close()
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}

// openInput opens path for reading, "-" being stdin. Paths ending in .zst are
// decompressed.
func openInput(path string) (io.ReadCloser, error) {
	var f io.ReadCloser

	if path == "-" {
		f = io.NopCloser(os.Stdin)
	} else {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		f = file
	}

	if !strings.HasSuffix(path, ".zst") {
		return f, nil
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "zstd")
	}

	return &zstdReader{dec, f}, nil
}

// createOutput creates path for writing, "-" being stdout. Paths ending in
// .zst are compressed.
func createOutput(path string) (io.WriteCloser, error) {
	var f io.WriteCloser

	if path == "-" {
		f = nopWriteCloser{os.Stdout}
	} else {
		file, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		f = file
	}

	if !strings.HasSuffix(path, ".zst") {
		return f, nil
	}

	enc, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "zstd")
	}

	return &zstdWriter{enc, f}, nil
}

// eachFrame calls fn for every raw frame read from r. The frame is only valid
// during the call.
func eachFrame(r io.Reader, fn func(n int, frame []byte) error) error {
	buf, err := dv.NewBuffer(r)
	if err != nil {
		return err
	}
	buf.SetLoadCallback(buf.LoadReaderCallback)

	for n := 0; ; n++ {
		frame := buf.ReadFrame()
		if frame == nil {
			if n == 0 {
				return dv.ErrInvalidDV
			}
			return nil
		}

		if err := fn(n, frame); err != nil {
			return errors.Wrapf(err, "frame %d", n)
		}
	}
}
