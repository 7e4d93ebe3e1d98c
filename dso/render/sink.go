package render

import "image/color"

// Sink is the remote or local surface the renderer draws on.
//
// Coordinates are pixels with the origin at the top left. FillRect corners are
// inclusive, DrawLineRel stops before (x+dx, y+dy) and DrawText takes the
// baseline as y.
type Sink interface {
	ClearDisplay(c color.RGBA)
	DrawPixel(x, y int, c color.RGBA)
	DrawLineRel(x, y, dx, dy int, c color.RGBA)
	// DrawLineFastOneX joins (x, y0) to (x+1, y1): a vertical run on column x from
	// y0 towards y1, then the end pixel on column x+1.
	DrawLineFastOneX(x, y0, y1 int, c color.RGBA)
	FillRect(x0, y0, x1, y1 int, c color.RGBA)
	DrawText(x, y int, text string, size int, fg, bg color.RGBA)
	// DrawChartByteBuffer draws buf as a connected line chart starting at (x, y),
	// skipping Invisible entries. bg is the color the previous chart of the same
	// track was cleared with. render is false when another track of the same batch
	// follows.
	DrawChartByteBuffer(x, y int, fg, bg color.RGBA, track int, render bool, buf []uint8)
}

// WalkChart visits buf in the order DrawChartByteBuffer draws it: dot for a
// visible entry that starts a run, step for every pair of visible neighbours.
// step(i, y0, y1) joins column i to column i+1.
func WalkChart(buf []uint8, dot func(i int, y uint8), step func(i int, y0, y1 uint8)) {
	for i, y := range buf {
		if y == Invisible {
			continue
		}
		if i == 0 || buf[i-1] == Invisible {
			dot(i, y)
		}
		if i+1 < len(buf) && buf[i+1] != Invisible {
			step(i, y, buf[i+1])
		}
	}
}
