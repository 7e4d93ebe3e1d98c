// Package recsink records the primitives a renderer emits instead of drawing them.
// It stands in for the remote draw command stream in tests and traces.
package recsink

import (
	"fmt"
	"image/color"
	"strings"
)

type Op uint8

const (
	OpClear Op = iota
	OpPixel
	OpLineRel
	OpLineFastOneX
	OpFillRect
	OpText
	OpChart
)

func (o Op) String() string {
	switch o {
	case OpClear:
		return "clear"
	case OpPixel:
		return "pixel"
	case OpLineRel:
		return "line"
	case OpLineFastOneX:
		return "line1x"
	case OpFillRect:
		return "fill"
	case OpText:
		return "text"
	case OpChart:
		return "chart"
	default:
		return "?"
	}
}

// Call is one recorded primitive. Fields not used by Op are zero.
//
// For OpLineRel X1/Y1 hold dx/dy, for OpLineFastOneX Y/Y1 hold y0/y1 and for
// OpFillRect X1/Y1 hold the inclusive corner.
type Call struct {
	Op     Op
	X, Y   int
	X1, Y1 int
	Color  color.RGBA
	BG     color.RGBA
	Text   string
	Size   int
	Track  int
	Render bool
	Buf    []uint8
}

func (c Call) String() string {
	switch c.Op {
	case OpText:
		return fmt.Sprintf("%s(%d,%d %q)", c.Op, c.X, c.Y, c.Text)
	case OpChart:
		return fmt.Sprintf("%s(track=%d render=%v n=%d)", c.Op, c.Track, c.Render, len(c.Buf))
	case OpClear:
		return c.Op.String()
	default:
		return fmt.Sprintf("%s(%d,%d,%d,%d)", c.Op, c.X, c.Y, c.X1, c.Y1)
	}
}

// Sink implements render.Sink by appending to Calls.
type Sink struct {
	Calls []Call
}

func New() *Sink { return &Sink{} }

func (s *Sink) Reset() { s.Calls = s.Calls[:0] }

func (s *Sink) ClearDisplay(c color.RGBA) {
	s.Calls = append(s.Calls, Call{Op: OpClear, Color: c})
}

func (s *Sink) DrawPixel(x, y int, c color.RGBA) {
	s.Calls = append(s.Calls, Call{Op: OpPixel, X: x, Y: y, Color: c})
}

func (s *Sink) DrawLineRel(x, y, dx, dy int, c color.RGBA) {
	s.Calls = append(s.Calls, Call{Op: OpLineRel, X: x, Y: y, X1: dx, Y1: dy, Color: c})
}

func (s *Sink) DrawLineFastOneX(x, y0, y1 int, c color.RGBA) {
	s.Calls = append(s.Calls, Call{Op: OpLineFastOneX, X: x, Y: y0, X1: x + 1, Y1: y1, Color: c})
}

func (s *Sink) FillRect(x0, y0, x1, y1 int, c color.RGBA) {
	s.Calls = append(s.Calls, Call{Op: OpFillRect, X: x0, Y: y0, X1: x1, Y1: y1, Color: c})
}

func (s *Sink) DrawText(x, y int, text string, size int, fg, bg color.RGBA) {
	s.Calls = append(s.Calls, Call{Op: OpText, X: x, Y: y, Text: text, Size: size, Color: fg, BG: bg})
}

func (s *Sink) DrawChartByteBuffer(x, y int, fg, bg color.RGBA, track int, render bool, buf []uint8) {
	cp := append([]uint8(nil), buf...)
	s.Calls = append(s.Calls, Call{Op: OpChart, X: x, Y: y, Color: fg, BG: bg, Track: track, Render: render, Buf: cp})
}

// Count returns how many calls of op were recorded.
func (s *Sink) Count(op Op) int {
	n := 0
	for _, c := range s.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Filter returns the calls of op in order.
func (s *Sink) Filter(op Op) []Call {
	var out []Call
	for _, c := range s.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Texts returns the text of every OpText call in order.
func (s *Sink) Texts() []string {
	var out []string
	for _, c := range s.Calls {
		if c.Op == OpText {
			out = append(out, c.Text)
		}
	}
	return out
}

// Columns returns the leftmost and rightmost column any recorded pixel, line,
// fill or text call starts on. ok is false if there is none.
func (s *Sink) Columns() (lo, hi int, ok bool) {
	for _, c := range s.Calls {
		var a, b int
		switch c.Op {
		case OpPixel:
			a, b = c.X, c.X
		case OpLineRel:
			a, b = c.X, c.X+c.X1
		case OpLineFastOneX, OpFillRect:
			a, b = c.X, c.X1
		case OpText:
			a, b = c.X, c.X
		default:
			continue
		}
		if a > b {
			a, b = b, a
		}
		if !ok || a < lo {
			lo = a
		}
		if !ok || b > hi {
			hi = b
		}
		ok = true
	}
	return lo, hi, ok
}

// Dump formats all calls one per line.
func (s *Sink) Dump() string {
	var b strings.Builder
	for _, c := range s.Calls {
		b.WriteString(c.String())
		b.WriteByte('\n')
	}
	return b.String()
}
