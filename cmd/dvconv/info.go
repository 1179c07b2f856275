package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/gen2brain/dv"
)

// errStop ends a frame loop early.
var errStop = errors.New("stop")

var packNames = []struct {
	id   byte
	name string
}{
	{0x13, "timecode"},
	{0x50, "audio source"},
	{0x51, "audio source control"},
	{0x52, "audio rec date"},
	{0x53, "audio rec time"},
	{0x60, "video source"},
	{0x61, "video source control"},
	{0x62, "video rec date"},
	{0x63, "video rec time"},
}

func runInfo(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	packs := fs.Bool("packs", false, "dump the auxiliary packs of the first frame")
	count := fs.Bool("count", false, "read the whole stream and count frames")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("info: missing input file\nUsage: dvconv info [options] <input.dv>")
	}

	r, err := openInput(fs.Arg(0))
	if err != nil {
		return err
	}
	defer r.Close()

	frames := 0
	err = eachFrame(r, func(n int, frame []byte) error {
		if n == 0 {
			if err := printHeader(w, frame, *packs); err != nil {
				return err
			}
			if !*count {
				return errStop
			}
		}
		frames++
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return err
	}

	if *count {
		fmt.Fprintf(w, "Frames:      %d\n", frames)
	}

	return nil
}

func printHeader(w io.Writer, frame []byte, packs bool) error {
	h, err := dv.ParseHeader(frame)
	if err != nil {
		return err
	}

	aspect := "4:3"
	if h.Wide {
		aspect = "16:9"
	}

	fmt.Fprintf(w, "System:      %s\n", h.System)
	fmt.Fprintf(w, "Standard:    %s\n", h.Std)
	fmt.Fprintf(w, "Sampling:    %s\n", h.Sampling)
	fmt.Fprintf(w, "Picture:     %dx%d %s\n", h.Width, h.Height, aspect)
	fmt.Fprintf(w, "Frame rate:  %.2f fps\n", h.Framerate())
	fmt.Fprintf(w, "Frame size:  %d bytes\n", h.FrameSize)
	fmt.Fprintf(w, "Timecode:    %s\n", h.Timecode)

	if !h.Recorded.IsZero() {
		fmt.Fprintf(w, "Recorded:    %s\n", h.Recorded.Format("2006-01-02 15:04:05"))
	}

	if h.HasAudio {
		a := h.Audio
		fmt.Fprintf(w, "Audio:       %d Hz, %d bit, %d channels, %d samples\n", a.Samplerate, a.Bits, a.Channels, a.Samples)
	} else {
		fmt.Fprintf(w, "Audio:       none\n")
	}

	if packs {
		for _, p := range packNames {
			pack, ok := lookupPack(frame, p.id)
			if !ok {
				continue
			}
			fmt.Fprintf(w, "Pack %#02x:   % x (%s)\n", p.id, pack[:], p.name)
		}
	}

	return nil
}

func lookupPack(frame []byte, id byte) (dv.Pack, bool) {
	switch {
	case id < 0x50:
		return dv.SubcodePack(frame, id)
	case id < 0x60:
		return dv.AAUXPack(frame, id)
	}

	return dv.VAUXPack(frame, id)
}
