// Package fbsink draws render primitives into an RGB565 hal.Framebuffer.
package fbsink

import (
	"image/color"

	"touchdso/dso/render"
	"touchdso/hal"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
	"tinygo.org/x/tinyfont/proggy"
)

// Options tune how charts and text come out.
type Options struct {
	// ZeroRow and Clip enable clipping indication: a flat chart segment lying on
	// row 0 or ZeroRow is drawn in Clip instead of the chart color.
	ZeroRow      int
	Clip         color.RGBA
	ShowClipping bool

	SmallFont *tinyfont.Font
	LargeFont *tinyfont.Font
	LargeFrom int // text sizes from here on use LargeFont
}

func DefaultOptions() Options {
	return Options{
		SmallFont: &proggy.TinySZ8pt7b,
		LargeFont: &freemono.Regular12pt7b,
		LargeFrom: 18,
	}
}

// Sink implements render.Sink and drivers.Displayer on a framebuffer.
type Sink struct {
	fb  hal.Framebuffer
	opt Options
}

var (
	_ render.Sink       = (*Sink)(nil)
	_ drivers.Displayer = (*Sink)(nil)
)

func New(fb hal.Framebuffer, opt Options) *Sink {
	def := DefaultOptions()
	if opt.SmallFont == nil {
		opt.SmallFont = def.SmallFont
	}
	if opt.LargeFont == nil {
		opt.LargeFont = def.LargeFont
	}
	if opt.LargeFrom <= 0 {
		opt.LargeFrom = def.LargeFrom
	}
	return &Sink{fb: fb, opt: opt}
}

func (s *Sink) Size() (x, y int16) {
	if s.fb == nil {
		return 0, 0
	}
	return int16(s.fb.Width()), int16(s.fb.Height())
}

func (s *Sink) SetPixel(x, y int16, c color.RGBA) {
	s.set(int(x), int(y), RGB565(c))
}

func (s *Sink) Display() error {
	if s.fb == nil {
		return nil
	}
	return s.fb.Present()
}

func (s *Sink) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	s.fill(int(x), int(y), int(x)+int(width), int(y)+int(height), RGB565(c))
	return nil
}

func (s *Sink) SetRotation(rotation drivers.Rotation) error {
	_ = rotation
	return nil
}

func (s *Sink) ClearDisplay(c color.RGBA) {
	if s.fb == nil {
		return
	}
	s.fb.ClearRGB(c.R, c.G, c.B)
}

func (s *Sink) DrawPixel(x, y int, c color.RGBA) {
	s.set(x, y, RGB565(c))
}

// DrawLineRel draws from (x, y) towards (x+dx, y+dy), end point excluded.
func (s *Sink) DrawLineRel(x, y, dx, dy int, c color.RGBA) {
	p := RGB565(c)
	x1, y1 := x+dx, y+dy
	adx, ady := abs(dx), -abs(dy)
	sx, sy := sign(dx), sign(dy)
	e := adx + ady
	for x != x1 || y != y1 {
		s.set(x, y, p)
		e2 := 2 * e
		if e2 >= ady {
			e += ady
			x += sx
		}
		if e2 <= adx {
			e += adx
			y += sy
		}
	}
}

func (s *Sink) DrawLineFastOneX(x, y0, y1 int, c color.RGBA) {
	s.lineOneX(x, y0, y1, RGB565(c))
}

func (s *Sink) FillRect(x0, y0, x1, y1 int, c color.RGBA) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	s.fill(x0, y0, x1+1, y1+1, RGB565(c))
}

// DrawText writes text with its baseline at y on a bg box.
func (s *Sink) DrawText(x, y int, text string, size int, fg, bg color.RGBA) {
	font := s.opt.SmallFont
	if size >= s.opt.LargeFrom {
		font = s.opt.LargeFont
	}
	h := int(font.YAdvance)
	_, w := tinyfont.LineWidth(font, text)
	ascent := h * 3 / 4
	s.fill(x, y-ascent, x+int(w), y-ascent+h, RGB565(bg))
	tinyfont.WriteLine(s, font, int16(x), int16(y), text, fg)
}

// DrawChartByteBuffer draws buf as a connected line. Erasing the previous chart is
// left to the renderer, so bg and track are not used here.
func (s *Sink) DrawChartByteBuffer(x, y int, fg, _ color.RGBA, _ int, _ bool, buf []uint8) {
	p := RGB565(fg)
	clip := RGB565(s.opt.Clip)
	render.WalkChart(buf,
		func(i int, row uint8) {
			s.set(x+i, y+int(row), p)
		},
		func(i int, r0, r1 uint8) {
			c := p
			if s.opt.ShowClipping && r0 == r1 && (r0 == 0 || int(r0) == s.opt.ZeroRow) {
				c = clip
			}
			s.lineOneX(x+i, y+int(r0), y+int(r1), c)
		})
}

// Pixel returns the RGB565 value at (x, y), or 0 outside the framebuffer.
func (s *Sink) Pixel(x, y int) uint16 {
	off, ok := s.offset(x, y)
	if !ok {
		return 0
	}
	buf := s.fb.Buffer()
	return uint16(buf[off]) | uint16(buf[off+1])<<8
}

func (s *Sink) lineOneX(x, y0, y1 int, p uint16) {
	step := sign(y1 - y0)
	for y := y0; y != y1; y += step {
		s.set(x, y, p)
	}
	if y0 == y1 {
		s.set(x, y0, p)
	}
	s.set(x+1, y1, p)
}

func (s *Sink) offset(x, y int) (int, bool) {
	if s.fb == nil || s.fb.Format() != hal.PixelFormatRGB565 {
		return 0, false
	}
	if x < 0 || x >= s.fb.Width() || y < 0 || y >= s.fb.Height() {
		return 0, false
	}
	off := y*s.fb.StrideBytes() + x*2
	if off < 0 || off+1 >= len(s.fb.Buffer()) {
		return 0, false
	}
	return off, true
}

func (s *Sink) set(x, y int, p uint16) {
	off, ok := s.offset(x, y)
	if !ok {
		return
	}
	buf := s.fb.Buffer()
	buf[off] = byte(p)
	buf[off+1] = byte(p >> 8)
}

// fill paints [x0, x1) x [y0, y1), clipped to the framebuffer.
func (s *Sink) fill(x0, y0, x1, y1 int, p uint16) {
	if s.fb == nil || s.fb.Format() != hal.PixelFormatRGB565 {
		return
	}
	buf := s.fb.Buffer()
	if buf == nil {
		return
	}
	w, h := s.fb.Width(), s.fb.Height()
	x0 = clampInt(x0, 0, w)
	y0 = clampInt(y0, 0, h)
	x1 = clampInt(x1, 0, w)
	y1 = clampInt(y1, 0, h)
	if x0 >= x1 || y0 >= y1 {
		return
	}
	lo, hi := byte(p), byte(p>>8)
	stride := s.fb.StrideBytes()
	for py := y0; py < y1; py++ {
		row := py * stride
		for px := x0; px < x1; px++ {
			off := row + px*2
			if off+1 >= len(buf) {
				continue
			}
			buf[off] = lo
			buf[off+1] = hi
		}
	}
}

// RGB565 packs c the way the framebuffer stores it.
func RGB565(c color.RGBA) uint16 {
	return uint16((uint16(c.R>>3)&0x1F)<<11 | (uint16(c.G>>2)&0x3F)<<5 | (uint16(c.B>>3) & 0x1F))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
