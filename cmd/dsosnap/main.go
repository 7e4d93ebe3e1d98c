// Command dsosnap runs one simulated single shot acquisition through the scope
// task and writes the resulting screen as a PNG.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	"touchdso/dso/profile"
	"touchdso/dso/tasks/scope"
	"touchdso/hal"
	"touchdso/internal/buildinfo"

	"golang.org/x/image/draw"
)

const maxSteps = 100000

type options struct {
	page   string
	xscale int
	line   bool
	fft    bool

	// set records the flags given on the command line; the others keep the
	// profile values.
	set map[string]bool
}

func main() {
	var (
		profilePath = flag.String("profile", "", "Scope profile (TOML); empty uses the built-in profile.")
		outPath     = flag.String("out", "dsosnap.png", "Output PNG file.")
		scale       = flag.Int("scale", 1, "Output pixels per display pixel.")
		version     = flag.Bool("version", false, "Print the build stamp and exit.")
		opt         options
	)
	flag.IntVar(&opt.xscale, "xscale", 0, "X scale ratio (<-1 compress, >1 expand).")
	flag.BoolVar(&opt.line, "line", true, "Line mode (false draws single pixels).")
	flag.BoolVar(&opt.fft, "fft", false, "Show spectrum bars on the chart page.")
	flag.StringVar(&opt.page, "page", "chart", "chart|fft.")
	flag.Parse()

	if *version {
		fmt.Println(buildinfo.Line("dsosnap"))
		return
	}

	opt.set = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { opt.set[f.Name] = true })

	if *scale < 1 || *scale > 16 {
		fatalf("scale out of range: %d", *scale)
	}

	p := profile.Default()
	if *profilePath != "" {
		var err error
		p, err = profile.Load(*profilePath)
		if err != nil {
			fatalf("%v", err)
		}
	}

	img, err := snapshot(p, opt)
	if err != nil {
		fatalf("snapshot: %v", err)
	}
	if *scale > 1 {
		img = upscale(img, *scale)
	}
	if err := writePNG(*outPath, img); err != nil {
		fatalf("write: %v", err)
	}
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}

type display struct{ fb hal.Framebuffer }

func (d display) Framebuffer() hal.Framebuffer { return d.fb }

type stderrLogger struct{}

func (stderrLogger) WriteLineString(s string) { _, _ = fmt.Fprintln(os.Stderr, s) }
func (stderrLogger) WriteLineBytes(b []byte)  { _, _ = fmt.Fprintln(os.Stderr, string(b)) }

// snapshot renders one single shot acquisition of p with the overrides of opt.
func snapshot(p *profile.Profile, opt options) (*image.RGBA, error) {
	if opt.set["xscale"] {
		p.Scope.XScale = opt.xscale
	}
	if opt.set["line"] {
		p.Scope.PixelMode = !opt.line
	}
	if opt.set["fft"] {
		p.Scope.FFT = opt.fft
	}
	p.Scope.SingleShot = true

	fb := hal.NewFramebuffer(p.Display.Width, p.Display.Height)
	t, err := scope.New(display{fb: fb}, nil, nil, stderrLogger{}, p)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(opt.page) {
	case "chart", "":
	case "fft":
		t.HandleKey(hal.KeyEvent{Press: true, Rune: 'F'})
	default:
		return nil, fmt.Errorf("unknown page %q", opt.page)
	}

	for i := 0; t.Running(); i++ {
		if i >= maxSteps {
			return nil, errors.New("acquisition did not complete; check the trigger settings")
		}
		if err := t.Step(); err != nil {
			return nil, err
		}
	}
	// Draw the held trace.
	if err := t.Step(); err != nil {
		return nil, err
	}
	return hal.Snapshot(fb), nil
}

func upscale(src *image.RGBA, n int) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*n, b.Dy()*n))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
