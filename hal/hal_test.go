package hal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFramebufferClearAndSnapshot(t *testing.T) {
	fb := NewFramebuffer(4, 3)
	if fb.Width() != 4 || fb.Height() != 3 || fb.StrideBytes() != 8 || len(fb.Buffer()) != 24 {
		t.Fatalf("framebuffer %dx%d stride %d len %d, want 4x3 stride 8 len 24",
			fb.Width(), fb.Height(), fb.StrideBytes(), len(fb.Buffer()))
	}
	if fb.Format() != PixelFormatRGB565 {
		t.Fatalf("Format() = %v, want RGB565", fb.Format())
	}

	fb.ClearRGB(0xFF, 0, 0)
	if got := uint16(fb.Buffer()[0]) | uint16(fb.Buffer()[1])<<8; got != 0xF800 {
		t.Fatalf("pixel after ClearRGB = %#04x, want 0xf800", got)
	}
	// Blue at (3, 2).
	fb.Buffer()[2*8+3*2] = 0x1F
	fb.Buffer()[2*8+3*2+1] = 0

	img := Snapshot(fb)
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Fatalf("Snapshot bounds = %v, want 4x3", b)
	}
	if c := img.RGBAAt(0, 0); c.R != 0xFF || c.G != 0 || c.B != 0 || c.A != 0xFF {
		t.Fatalf("Snapshot(0,0) = %v, want opaque red", c)
	}
	if c := img.RGBAAt(3, 2); c.R != 0 || c.B != 0xFF {
		t.Fatalf("Snapshot(3,2) = %v, want blue", c)
	}
}

func TestRGB565RoundTrip(t *testing.T) {
	tests := []struct{ r, g, b uint8 }{
		{0, 0, 0},
		{0xFF, 0xFF, 0xFF},
		{0xF8, 0xFC, 0xF8},
		{0x10, 0x20, 0x30},
	}
	for _, tt := range tests {
		r, g, b := rgb888From565(rgb565(tt.r, tt.g, tt.b))
		if diff(r, tt.r) > 8 || diff(g, tt.g) > 4 || diff(b, tt.b) > 8 {
			t.Fatalf("round trip of %v = (%d,%d,%d)", tt, r, g, b)
		}
	}
}

func diff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func TestHostLogger(t *testing.T) {
	var buf bytes.Buffer
	h := New(HostConfig{Log: &buf})
	h.Logger().WriteLineString("one")
	h.Logger().WriteLineBytes([]byte("two"))
	if got := buf.String(); got != "one\ntwo\n" {
		t.Fatalf("log = %q, want two lines", got)
	}
	fb := h.Display().Framebuffer()
	if fb.Width() != 320 || fb.Height() != 240 {
		t.Fatalf("default framebuffer %dx%d, want 320x240", fb.Width(), fb.Height())
	}
	if h.Input().Keyboard() == nil || h.Time() == nil {
		t.Fatal("host HAL without keyboard or time")
	}
}

func TestRunHeadlessStepsTicks(t *testing.T) {
	var logs bytes.Buffer
	steps := 0
	newApp := func(h HAL) (func() error, error) {
		h.Logger().WriteLineString("started")
		return func() error {
			steps++
			return nil
		}, nil
	}
	err := RunHeadless(context.Background(), newApp, HeadlessConfig{
		Host:  HostConfig{Width: 8, Height: 8, Log: &logs},
		Hz:    1000,
		Ticks: 3,
	})
	if err != nil {
		t.Fatalf("RunHeadless: %v", err)
	}
	if steps != 3 {
		t.Fatalf("steps = %d, want 3", steps)
	}
	if !strings.Contains(logs.String(), "started") {
		t.Fatalf("log = %q, want the app output", logs.String())
	}
}

func TestRunHeadlessErrors(t *testing.T) {
	errBoom := errors.New("boom")
	cfg := HeadlessConfig{Host: HostConfig{Log: &bytes.Buffer{}}, Hz: 1000}

	failNew := func(HAL) (func() error, error) { return nil, errBoom }
	if err := RunHeadless(context.Background(), failNew, cfg); !errors.Is(err, errBoom) {
		t.Fatalf("RunHeadless(failing app) = %v, want boom", err)
	}

	failStep := func(HAL) (func() error, error) {
		return func() error { return errBoom }, nil
	}
	if err := RunHeadless(context.Background(), failStep, cfg); !errors.Is(err, errBoom) {
		t.Fatalf("RunHeadless(failing step) = %v, want boom", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	idle := func(HAL) (func() error, error) { return nil, nil }
	if err := RunHeadless(ctx, idle, cfg); !errors.Is(err, context.Canceled) {
		t.Fatalf("RunHeadless(canceled) = %v, want context.Canceled", err)
	}
}

func TestHostClockCountsElapsedTicks(t *testing.T) {
	c := newHostClock()
	now := time.Unix(100, 0)
	c.now = func() time.Time { return now }

	c.advance() // the first frame is one tick
	now = now.Add(2*TickDuration + TickDuration/2)
	c.advance()
	now = now.Add(TickDuration / 2)
	c.advance() // the carried half tick completes one more
	c.advance() // no time passed

	var got []uint64
	for len(c.Ticks()) > 0 {
		got = append(got, <-c.Ticks())
	}
	want := []uint64{1, 2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("ticks = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ticks = %v, want %v", got, want)
		}
	}
}
