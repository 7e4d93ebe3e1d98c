package app

import (
	"errors"
	"fmt"
	"image/color"
	"runtime/debug"
	"strings"
	"unicode/utf8"

	"touchdso/dso/fbsink"
	"touchdso/hal"

	"tinygo.org/x/tinyfont"
)

var ErrPanic = errors.New("scope panic")

// guard turns a panic inside step into an error after logging it and putting a
// panic screen on the display.
func guard(h hal.HAL, step func() error) func() error {
	return func() (err error) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			showPanic(h, v, debug.Stack())
			err = fmt.Errorf("%w: %v", ErrPanic, v)
		}()
		return step()
	}
}

func showPanic(h hal.HAL, v any, stack []byte) {
	lines := []string{"Scope panic:", fmt.Sprintf("panic: %v", v), "stack:"}
	for _, line := range strings.Split(string(stack), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}

	if l := h.Logger(); l != nil {
		l.WriteLineString(fmt.Sprintf("scope: panic: %v", v))
		for _, line := range lines[3:] {
			l.WriteLineString(line)
		}
	}

	disp := h.Display()
	if disp == nil {
		return
	}
	fb := disp.Framebuffer()
	if fb == nil {
		return
	}

	opt := fbsink.DefaultOptions()
	font := opt.SmallFont
	lineH := int(font.YAdvance)
	_, charW := tinyfont.LineWidth(font, "0")
	if lineH <= 0 || charW == 0 {
		return
	}
	cols := fb.Width() / int(charW)
	if cols <= 0 {
		cols = 1
	}

	white := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	black := color.RGBA{A: 0xFF}
	s := fbsink.New(fb, opt)
	s.ClearDisplay(white)

	y := lineH
	for _, line := range lines {
		for len(line) > 0 {
			if y > fb.Height() {
				_ = s.Display()
				return
			}
			chunk, rest := takeRunes(line, cols)
			s.DrawText(0, y, chunk, 0, black, white)
			y += lineH
			line = strings.TrimLeft(rest, " \t")
		}
	}
	_ = s.Display()
}

// takeRunes splits s after n runes.
func takeRunes(s string, n int) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	if len(s) <= n {
		return s, ""
	}
	i, count := 0, 0
	for i < len(s) && count < n {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		count++
	}
	return s[:i], s[i:]
}
