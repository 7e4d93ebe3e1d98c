package main

import (
	"image/color"
	"path/filepath"
	"testing"

	"touchdso/dso/profile"
)

func testProfile() *profile.Profile {
	p := profile.Default()
	p.Scope.TriggerMode = "off"
	p.Signal.Noise = 0
	return p
}

func countColor(img interface {
	At(x, y int) color.Color
}, w, h int, want color.RGBA) int {
	n := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if uint8(r>>8) == want.R && uint8(g>>8) == want.G && uint8(b>>8) == want.B {
				n++
			}
		}
	}
	return n
}

func TestSnapshotChartPage(t *testing.T) {
	p := testProfile()
	img, err := snapshot(p, options{page: "chart", set: map[string]bool{}})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if got := img.Bounds().Dx(); got != p.Display.Width {
		t.Fatalf("width = %d, want %d", got, p.Display.Width)
	}
	// Pure red survives the RGB565 round trip.
	if n := countColor(img, p.Display.Width, p.Display.Height, color.RGBA{R: 0xFF}); n == 0 {
		t.Fatal("no held trace pixels in the snapshot")
	}
}

func TestSnapshotOverrides(t *testing.T) {
	p := testProfile()
	opt := options{page: "fft", xscale: -2, line: false, set: map[string]bool{"xscale": true, "line": true}}
	if _, err := snapshot(p, opt); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if p.Scope.XScale != -2 || !p.Scope.PixelMode {
		t.Fatalf("overrides not applied: xscale=%d pixel=%v", p.Scope.XScale, p.Scope.PixelMode)
	}
}

func TestSnapshotRejectsUnknownPage(t *testing.T) {
	if _, err := snapshot(testProfile(), options{page: "bode", set: map[string]bool{}}); err == nil {
		t.Fatal("expected error for unknown page")
	}
}

func TestUpscaleWritesPNG(t *testing.T) {
	img, err := snapshot(testProfile(), options{set: map[string]bool{}})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	big := upscale(img, 2)
	if got, want := big.Bounds().Dx(), 2*img.Bounds().Dx(); got != want {
		t.Fatalf("upscaled width = %d, want %d", got, want)
	}
	if err := writePNG(filepath.Join(t.TempDir(), "snap.png"), big); err != nil {
		t.Fatalf("writePNG: %v", err)
	}
}
