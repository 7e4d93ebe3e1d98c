package render

import (
	"image/color"
	"strconv"
)

// labelChars is the widest grid label the label area is cleared for.
const labelChars = 5

// DrawGrid draws the timing and voltage grid, the voltage labels at the right
// border, and the trigger line on top.
func (r *Renderer) DrawGrid(c color.RGBA) {
	g := r.geo
	for x := g.GridWidth - 1; x < g.Width; x += g.GridWidth {
		r.sink.DrawLineRel(x, 0, 0, g.Height, c)
	}

	rng := r.rangeAt(r.meas.RangeIndexForPrint)
	// The small bias keeps a zero label from printing as -0.00.
	volts := rng.VoltsPerDiv*float32(r.meas.OffsetGridCount) + 0.0001
	changed := false
	if r.ctl.LastRangeIndex != r.meas.RangeIndexForPrint || r.ctl.LastOffsetGridCount != r.meas.OffsetGridCount {
		r.ctl.LastRangeIndex = r.meas.RangeIndexForPrint
		r.ctl.LastOffsetGridCount = r.meas.OffsetGridCount
		changed = true
	}

	caption := 1
	for y := g.ZeroRow; y > 0; y -= g.GridHeight {
		ty := y - caption
		if changed {
			x0 := g.Width - g.LabelRightMargin - labelChars*g.TextWidth
			if x0 < 0 {
				x0 = 0
			}
			x1 := g.Width - g.LabelRightMargin + 1
			if x1 >= g.Width {
				x1 = g.Width - 1
			}
			y0 := ty - g.TextAscend
			r.sink.FillRect(x0, y0, x1, ty+g.TextHeight-g.TextAscend, r.pal.Background)
			for x := g.GridWidth - 1; x < g.Width; x += g.GridWidth {
				if x >= x0 && x <= x1 {
					r.sink.DrawLineRel(x, y0, 0, g.TextHeight, c)
				}
			}
		}
		r.sink.DrawLineRel(0, y, g.Width, 0, c)

		s := strconv.FormatFloat(float64(volts), 'f', rng.Precision, 32)
		fg := r.pal.Label
		if volts < 0 {
			fg = r.pal.LabelNegative
		}
		r.sink.DrawText(g.Width-len(s)*g.TextWidth-g.LabelRightMargin, ty, s, g.TextSize, fg, r.pal.Background)

		caption = -(g.TextAscend / 2)
		volts += rng.VoltsPerDiv
	}

	r.ctl.TriggerLevelRow = r.TriggerRow()
	r.DrawTriggerLine()
}

// DrawTriggerLine draws the trigger level unless it is clipped to the top row or
// triggering is off.
func (r *Renderer) DrawTriggerLine() {
	row := int(r.ctl.TriggerLevelRow)
	if row == 0 || r.meas.TriggerMode == TriggerOff {
		return
	}
	r.sink.DrawLineRel(0, row, r.geo.Width, 0, r.pal.TriggerLine)
}

// ClearTriggerLine removes a trigger line drawn at row and restores the grid under
// it. While stopped, held waveform pixels on that row are redrawn too.
func (r *Renderer) ClearTriggerLine(row uint8) {
	g := r.geo
	y := int(row)
	if row == Invisible || y >= g.Height {
		return
	}
	if (g.ZeroRow-y)%g.GridHeight == 0 && y <= g.ZeroRow {
		r.sink.DrawLineRel(0, y, g.Width, 0, r.pal.Grid)
	} else {
		r.sink.DrawLineRel(0, y, g.Width, 0, r.pal.Background)
		for x := g.GridWidth - 1; x < g.Width; x += g.GridWidth {
			r.sink.DrawPixel(x, y, r.pal.Grid)
		}
	}
	if r.meas.Running {
		return
	}
	for x := 0; x < g.Width; x++ {
		if r.buf.Read(TrackMax, x) == row {
			r.sink.DrawPixel(x, y, r.pal.DataHold)
		}
	}
}

// MoveTriggerLine clears the current trigger line and draws it at row.
func (r *Renderer) MoveTriggerLine(row uint8) {
	if row == r.ctl.TriggerLevelRow {
		return
	}
	r.ClearTriggerLine(r.ctl.TriggerLevelRow)
	r.ctl.TriggerLevelRow = row
	r.DrawTriggerLine()
}

// DrawMinMaxLines marks the rows of the measured minimum and maximum. Lines that
// are clipped to the display border are left out.
func (r *Renderer) DrawMinMaxLines() {
	m := r.Mapper()
	if y := m.Row(clampRaw(r.meas.RawValueMax)); y != 0 && y != Invisible {
		r.sink.DrawLineRel(0, int(y), r.geo.Width, 0, r.pal.MinMaxLine)
	}
	if y := m.Row(clampRaw(r.meas.RawValueMin)); int(y) != r.geo.ZeroRow && y != Invisible {
		r.sink.DrawLineRel(0, int(y), r.geo.Width, 0, r.pal.MinMaxLine)
	}
}
