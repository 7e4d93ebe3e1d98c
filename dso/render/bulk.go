package render

import "image/color"

// DrawMode selects where a bulk pass takes its rows from.
type DrawMode uint8

const (
	// DrawRegular resamples and maps the raw window.
	DrawRegular DrawMode = iota
	// DrawClearOld redraws the remembered max track, normally in the background color.
	DrawClearOld
	// DrawClearOldMin is DrawClearOld for the min track.
	DrawClearOldMin
)

// BulkOptions parameterize DrawBuffer.
type BulkOptions struct {
	Color color.RGBA
	Mode  DrawMode

	// ClearBefore erases the remembered trace with ClearColor column by column
	// just ahead of drawing the new one.
	ClearBefore bool
	ClearColor  color.RGBA

	// AlsoMin runs a second pass over the min track with the min samples.
	AlsoMin bool
}

// DrawBuffer renders a full display width from max (and min) in one pass.
//
// On return every column of the processed tracks holds what is on the surface.
func (r *Renderer) DrawBuffer(max, min []uint16, opts BulkOptions) {
	switch opts.Mode {
	case DrawClearOldMin:
		r.fillTrack(TrackMin, nil, opts)
		r.finishTrack(TrackMin, opts, true)
		return
	case DrawClearOld:
		r.fillTrack(TrackMax, nil, opts)
		r.finishTrack(TrackMax, opts, true)
		return
	}

	r.fillTrack(TrackMax, max, opts)
	alsoMin := opts.AlsoMin && len(min) > 0
	r.finishTrack(TrackMax, opts, !alsoMin)
	if alsoMin {
		r.fillTrack(TrackMin, min, opts)
		r.finishTrack(TrackMin, opts, true)
	}
}

// fillTrack walks all columns of one track: erase old, compute new, store. In
// pixel mode pixels are drawn here; line mode defers drawing to finishTrack.
func (r *Renderer) fillTrack(t Track, src []uint16, opts BulkOptions) {
	width := r.geo.Width
	m := r.Mapper()
	rs := NewResampler(r.ctl.XScale)
	triggerRow := int(r.TriggerRow())
	overlay := r.ctl.ShowTriggerInfoLine && t == TrackMax && opts.Mode == DrawRegular
	clearing := opts.Mode != DrawRegular

	pos := 0
	lastClear := Invisible
	for x := 0; x < width; x++ {
		var row uint8
		if clearing {
			row = r.buf.Read(t, x)
		} else {
			row, pos = rs.Next(src, pos, m)
		}

		if overlay {
			r.fillOverlay(x, row, triggerRow, opts)
		}

		if r.ctl.PixelMode {
			old := r.buf.Read(t, x)
			switch {
			case clearing && r.isGridColumn(x):
				// Restore the grid instead of punching a hole into it.
				if row != Invisible {
					r.sink.DrawPixel(x, int(row), r.pal.Grid)
				}
			case clearing:
				if row != Invisible {
					r.sink.DrawPixel(x, int(row), opts.Color)
				}
			default:
				if opts.ClearBefore && old != Invisible {
					erase := opts.ClearColor
					if r.isGridColumn(x) {
						erase = r.pal.Grid
					}
					r.sink.DrawPixel(x, int(old), erase)
				}
				if row != Invisible {
					r.sink.DrawPixel(x, int(row), opts.Color)
				}
			}
		} else if opts.ClearBefore && !clearing {
			// Erase one segment ahead so the segment drawn next is not clipped.
			if x == 0 {
				lastClear = r.buf.Read(t, 0)
				if lastClear != Invisible {
					r.sink.DrawPixel(0, int(lastClear), opts.ClearColor)
				}
			}
			if x < width-1 {
				next := r.buf.Read(t, x+1)
				if next != Invisible {
					if lastClear != Invisible {
						r.sink.DrawLineFastOneX(x, int(lastClear), int(next), opts.ClearColor)
					} else {
						r.sink.DrawPixel(x+1, int(next), opts.ClearColor)
					}
				}
				lastClear = next
			}
		}

		if !clearing {
			r.buf.Write(t, x, row)
		}
	}
}

func (r *Renderer) fillOverlay(x int, row uint8, triggerRow int, opts BulkOptions) {
	old := r.buf.Read(TrackTrigger, x)
	if opts.ClearBefore && old != Invisible {
		r.sink.DrawPixel(x, int(old), opts.ClearColor)
	}
	mark := Invisible
	if row != Invisible && int(row) > triggerRow {
		y := triggerRow - r.geo.TriggerHighOffset
		if y >= 0 {
			mark = uint8(y)
			r.sink.DrawPixel(x, y, r.pal.TriggerState)
		}
	}
	r.buf.Write(TrackTrigger, x, mark)
}

// finishTrack hands a line mode track to the sink as one chart and resets a
// cleared track so the memory matches the surface.
func (r *Renderer) finishTrack(t Track, opts BulkOptions, render bool) {
	if !r.ctl.PixelMode {
		bg := r.ctl.EraseColor
		if opts.ClearBefore {
			bg = opts.ClearColor
		}
		r.sink.DrawChartByteBuffer(0, 0, opts.Color, bg, int(t), render, r.buf.Track(t))
	}
	if opts.Mode != DrawRegular {
		r.buf.ResetTrack(t)
		if t == TrackMax {
			r.clearOverlay(opts.Color)
		}
	}
}

func (r *Renderer) clearOverlay(c color.RGBA) {
	for x := 0; x < r.geo.Width; x++ {
		if y := r.buf.Read(TrackTrigger, x); y != Invisible {
			r.sink.DrawPixel(x, int(y), c)
		}
	}
	r.buf.ResetTrack(TrackTrigger)
}
