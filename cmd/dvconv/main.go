// Command dvconv inspects, decodes and encodes raw DV streams.
//
// Usage:
//
//	dvconv info [options] <input.dv>       Display the frame header and packs
//	dvconv decode [options] <input.dv>     DV → PNG/JPEG/BMP/TIFF frames
//	dvconv encode [options] <images...>    PNG/JPEG/BMP/TIFF → DV
//	dvconv audio [options] <input.dv>      DV audio → WAV
//
// Paths ending in .zst are decompressed or compressed on the fly. Use "-"
// to read from stdin or write to stdout.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "info":
		err = runInfo(os.Args[2:], os.Stdout)
	case "decode":
		err = runDecode(os.Args[2:])
	case "encode":
		err = runEncode(os.Args[2:])
	case "audio":
		err = runAudio(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "dvconv: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "dvconv: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  dvconv info [options] <input.dv>       Display the frame header and packs
  dvconv decode [options] <input.dv>     Decode frames to PNG, JPEG, BMP or TIFF
  dvconv encode [options] <images...>    Encode images to a DV stream
  dvconv audio [options] <input.dv>      Extract the audio to WAV

Paths ending in .zst are compressed with zstd.
Run "dvconv <command> -h" for command-specific options.
`)
}

// setVerbose routes debug logging to stderr.
func setVerbose(v bool) {
	if !v {
		return
	}

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
