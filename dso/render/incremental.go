package render

import "image/color"

// Window is the raw sample view handed over by acquisition.
type Window struct {
	Max []uint16 // regular samples, or maxima in min/max mode
	Min []uint16 // minima in min/max mode, same indexing as Max

	DisplayStart int // sample shown at column 0 by a bulk pass
	DisplayEnd   int // last sample index an incremental pass may draw
	NextIn       int // index of the first sample not acquired yet
	FFTReady     int // drawing this index first gives a full spectrum window; < 0 disables

	TriggerPhaseJustEnded bool
	PreTriggerWrapAround  bool
}

// Stop tells why DrawRemaining returned.
type Stop uint8

const (
	StopDone Stop = iota
	StopTriggerEnded
	StopWrapAround
)

func (s Stop) String() string {
	switch s {
	case StopDone:
		return "done"
	case StopTriggerEnded:
		return "trigger phase ended"
	case StopWrapAround:
		return "pre-trigger wraparound"
	default:
		return "?"
	}
}

// SyncCursor points the incremental cursor at sample index i, e.g. after a bulk
// pass has drawn everything before it.
func (r *Renderer) SyncCursor(w *Window, i int) {
	r.ctl.NextDraw = i
	x := i - w.DisplayStart
	if x < 0 {
		x = 0
	}
	r.ctl.NextDrawX = x % r.geo.Width
}

// DrawRemaining draws every sample acquired since the last call, one column per
// sample at native rate. It returns early when acquisition signals that a bulk
// pass is required.
func (r *Renderer) DrawRemaining(w *Window, c color.RGBA) (drawn int, stop Stop) {
	m := r.Mapper()
	minMax := r.meas.EffectiveMinMax && len(w.Min) > 0
	width := r.geo.Width

	for r.ctl.NextDraw < w.NextIn && r.ctl.NextDraw <= w.DisplayEnd && r.ctl.NextDraw < len(w.Max) {
		if w.TriggerPhaseJustEnded {
			return drawn, StopTriggerEnded
		}
		if w.PreTriggerWrapAround {
			return drawn, StopWrapAround
		}
		i := r.ctl.NextDraw
		if i == w.FFTReady {
			r.DrawSpectrumBars(w, r.pal.FFT)
		}

		x := r.ctl.NextDrawX
		if x >= width || x < 0 {
			x = 0
		}
		r.ctl.NextDrawX = x + 1
		if r.ctl.NextDrawX >= width {
			r.ctl.NextDrawX = 0
		}

		r.eraseColumn(x, minMax)

		row := m.Row(w.Max[i])
		r.buf.Write(TrackMax, x, row)
		rowMin := Invisible
		if minMax && i < len(w.Min) {
			rowMin = m.Row(w.Min[i])
			r.buf.Write(TrackMin, x, rowMin)
		}

		r.drawColumn(x, row, rowMin, minMax, c)

		r.ctl.NextDraw++
		drawn++
	}
	if w.TriggerPhaseJustEnded {
		return drawn, StopTriggerEnded
	}
	if w.PreTriggerWrapAround {
		return drawn, StopWrapAround
	}
	return drawn, StopDone
}

func (r *Renderer) eraseColumn(x int, minMax bool) {
	old := r.buf.Read(TrackMax, x)
	oldMin := r.buf.Read(TrackMin, x)
	erase := r.ctl.EraseColor

	if r.ctl.PixelMode {
		if r.isGridColumn(x) {
			erase = r.pal.Grid
		}
		if old != Invisible {
			r.sink.DrawPixel(x, int(old), erase)
		}
		if minMax && oldMin != Invisible {
			r.sink.DrawPixel(x, int(oldMin), erase)
		}
		return
	}

	if x == 0 {
		if old != Invisible {
			r.sink.DrawPixel(0, int(old), erase)
		}
		if minMax && oldMin != Invisible {
			r.sink.DrawPixel(0, int(oldMin), erase)
		}
	}
	// Erase the segment towards the next column before it is redrawn from here.
	if x >= r.geo.Width-1 {
		return
	}
	next := r.buf.Read(TrackMax, x+1)
	nextMin := r.buf.Read(TrackMin, x+1)
	if next != Invisible {
		if old != Invisible {
			r.sink.DrawLineFastOneX(x, int(old), int(next), erase)
		} else {
			r.sink.DrawPixel(x+1, int(next), erase)
		}
	}
	if minMax && nextMin != Invisible {
		if oldMin != Invisible {
			r.sink.DrawLineFastOneX(x, int(oldMin), int(nextMin), erase)
		} else {
			r.sink.DrawPixel(x+1, int(nextMin), erase)
		}
	}
}

func (r *Renderer) drawColumn(x int, row, rowMin uint8, minMax bool, c color.RGBA) {
	if r.ctl.PixelMode {
		if row != Invisible {
			r.sink.DrawPixel(x, int(row), c)
		}
		if minMax && rowMin != Invisible {
			r.sink.DrawPixel(x, int(rowMin), c)
		}
		return
	}

	if x == 0 {
		// The segment from column 0 is drawn together with column 1.
		if row != Invisible {
			r.sink.DrawPixel(0, int(row), c)
		}
		if minMax && rowMin != Invisible {
			r.sink.DrawPixel(0, int(rowMin), c)
		}
		return
	}
	if row != Invisible {
		last := r.buf.Read(TrackMax, x-1)
		if last != Invisible {
			r.sink.DrawLineFastOneX(x-1, int(last), int(row), c)
		} else {
			r.sink.DrawPixel(x, int(row), c)
		}
	}
	if minMax && rowMin != Invisible {
		last := r.buf.Read(TrackMin, x-1)
		if last != Invisible {
			r.sink.DrawLineFastOneX(x-1, int(last), int(rowMin), c)
		} else {
			r.sink.DrawPixel(x, int(rowMin), c)
		}
	}
}
