package main

import (
	"flag"

	"github.com/pkg/errors"

	"github.com/gen2brain/dv"
)

func runAudio(args []string) error {
	fs := flag.NewFlagSet("audio", flag.ContinueOnError)
	output := fs.String("o", "out.wav", `output path ("-" for stdout)`)
	all := fs.Bool("all", false, "keep all four channels of 12-bit streams")
	verbose := fs.Bool("v", false, "log frames without audio and concealed samples")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("audio: missing input file\nUsage: dvconv audio [options] <input.dv>")
	}
	setVerbose(*verbose)

	r, err := openInput(fs.Arg(0))
	if err != nil {
		return err
	}
	defer r.Close()

	dec := dv.NewDecoder()

	buf := make([][]int16, dv.MaxChannels)
	for i := range buf {
		buf[i] = make([]int16, dv.MaxSamplesPerFrame)
	}

	var (
		tracks     [][]int16
		samplerate int
		last       int
	)

	err = eachFrame(r, func(n int, frame []byte) error {
		before := dec.Stats().AudioErrors

		info, err := dec.DecodeAudio(frame, buf)
		if errors.Is(err, dv.ErrNoAudio) {
			logger.Debug("no audio", "frame", n)

			for ch := range tracks {
				tracks[ch] = append(tracks[ch], make([]int16, last)...)
			}
			return nil
		} else if err != nil {
			return err
		}

		if tracks == nil {
			samplerate = info.Samplerate

			nch := min(info.Channels, 2)
			if *all {
				nch = info.Channels
			}
			tracks = make([][]int16, nch)
		}

		if info.Samplerate != samplerate {
			return errors.Errorf("sample rate changed from %d to %d Hz", samplerate, info.Samplerate)
		}

		for ch := range tracks {
			if ch < info.Channels {
				tracks[ch] = append(tracks[ch], buf[ch][:info.Samples]...)
			} else {
				tracks[ch] = append(tracks[ch], make([]int16, info.Samples)...)
			}
		}
		last = info.Samples

		if errs := dec.Stats().AudioErrors - before; errs > 0 {
			logger.Debug("concealed", "frame", n, "samples", errs)
		}

		return nil
	})
	if err != nil {
		return err
	}

	if tracks == nil {
		return dv.ErrNoAudio
	}

	w, err := createOutput(*output)
	if err != nil {
		return err
	}

	if err := writeWAV(w, samplerate, tracks); err != nil {
		w.Close()
		return err
	}

	return w.Close()
}
