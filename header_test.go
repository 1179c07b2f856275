package dv

import (
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestInfoBlocks(t *testing.T) {
	start := time.Date(2023, time.December, 31, 23, 59, 58, 0, time.Local)

	ib := infoBlocks{
		System: System625_50,
		Std:    SMPTE314M,
		Wide:   true,
		Frame:  37,
		Time:   frameTime(start, System625_50, 37),
	}

	frame := make([]byte, FrameSizePAL)
	ib.write(frame)

	h, err := ParseHeader(frame)
	if err != nil {
		t.Fatal(err)
	}

	if h.System != System625_50 || h.Std != SMPTE314M || h.Sampling != Sampling411 {
		t.Errorf("format: got %s %s %s", h.System, h.Std, h.Sampling)
	}

	if h.Sequences != 12 || h.FrameSize != FrameSizePAL {
		t.Errorf("geometry: got %d sequences, %d bytes", h.Sequences, h.FrameSize)
	}

	if !h.Wide {
		t.Error("Wide: got false, want true")
	}

	if got := h.Timecode.String(); got != "23:59:59:12" {
		t.Errorf("Timecode: got %s, want 23:59:59:12", got)
	}

	want := time.Date(2023, time.December, 31, 23, 59, 59, 0, time.Local)
	if !h.Recorded.Equal(want) {
		t.Errorf("Recorded: got %v, want %v", h.Recorded, want)
	}

	if h.HasAudio {
		t.Error("HasAudio: got true for a frame without audio")
	}

	if _, ok := VAUXPack(frame, packSource); !ok {
		t.Error("VAUXPack: no source pack")
	}

	if p, ok := SubcodePack(frame, packRecDate); !ok || bcd(p[4]) != 23 {
		t.Errorf("SubcodePack: got %v %v", p, ok)
	}

	if _, ok := AAUXPack(frame, 0x70); ok {
		t.Error("AAUXPack: found a pack outside the AAUX range")
	}
}

func TestSampling(t *testing.T) {
	tests := []struct {
		system System
		std    Std
		want   Sampling
	}{
		{System525_60, IEC61834, Sampling411},
		{System525_60, SMPTE314M, Sampling411},
		{System625_50, IEC61834, Sampling420},
		{System625_50, SMPTE314M, Sampling411},
	}

	for _, tt := range tests {
		frame := make([]byte, tt.system.FrameSize())
		ib := infoBlocks{System: tt.system, Std: tt.std, Time: time.Now()}
		ib.write(frame)

		h, err := ParseHeader(frame)
		if err != nil {
			t.Fatal(err)
		}

		if h.Sampling != tt.want {
			t.Errorf("%s %s: got %s, want %s", tt.system, tt.std, h.Sampling, tt.want)
		}

		if h.Wide {
			t.Errorf("%s %s: got wide", tt.system, tt.std)
		}
	}
}

func TestFrameTime(t *testing.T) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		system System
		frame  int
		want   time.Duration
	}{
		{System525_60, 29, 0},
		{System525_60, 30, time.Second},
		{System625_50, 25, time.Second},
		{System625_50, 1500, time.Minute},
	}

	for _, tt := range tests {
		if got := frameTime(start, tt.system, tt.frame).Sub(start); got != tt.want {
			t.Errorf("%s frame %d: got %v, want %v", tt.system, tt.frame, got, tt.want)
		}
	}
}

func TestRecordedCentury(t *testing.T) {
	for _, year := range []int{1999, 2001, 2074} {
		frame := make([]byte, FrameSizeNTSC)
		ib := infoBlocks{System: System525_60, Time: time.Date(year, time.March, 4, 5, 6, 7, 0, time.Local)}
		ib.write(frame)

		h, err := ParseHeader(frame)
		if err != nil {
			t.Fatal(err)
		}

		if h.Recorded.Year() != year {
			t.Errorf("year %d: got %d", year, h.Recorded.Year())
		}
	}
}

func TestBCD(t *testing.T) {
	for v := 0; v < 100; v++ {
		if got := bcd(toBCD(v)); got != v {
			t.Errorf("bcd(toBCD(%d)): got %d", v, got)
		}
	}
}

func TestDisplayWidth(t *testing.T) {
	tests := []struct {
		height int
		wide   bool
		want   int
	}{
		{480, false, 640},
		{480, true, 854},
		{576, false, 768},
		{576, true, 1024},
	}

	for _, tt := range tests {
		h := Header{Height: tt.height, Wide: tt.wide}
		if got := h.DisplayWidth(); got != tt.want {
			t.Errorf("%d lines wide %v: got %d, want %d", tt.height, tt.wide, got, tt.want)
		}
	}
}

func TestHeaderID(t *testing.T) {
	frame := make([]byte, FrameSizeNTSC)
	ib := infoBlocks{System: System525_60, Time: time.Now()}
	ib.write(frame)

	if _, err := ParseHeader(frame); err != nil {
		t.Fatal(err)
	}

	// Right section type, wrong reserved and arbitrary bits.
	for _, id := range []byte{0x00, 0x10, 0x0f, 0x1e} {
		frame[0] = id
		if _, err := ParseHeader(frame); !errors.Is(err, ErrInvalidHeader) {
			t.Errorf("ID %#x: got %v, want ErrInvalidHeader", id, err)
		}
	}
}
