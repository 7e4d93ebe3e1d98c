package scope

import (
	"touchdso/dso/acquire"
	"touchdso/dso/render"
	"touchdso/hal"
)

// HandleKey applies one key press. Releases are ignored.
func (t *Task) HandleKey(ev hal.KeyEvent) {
	if !ev.Press {
		return
	}
	switch ev.Code {
	case hal.KeyUp:
		t.moveTrigger(-2)
		return
	case hal.KeyDown:
		t.moveTrigger(2)
		return
	case hal.KeyLeft:
		t.scroll(-1)
		return
	case hal.KeyRight:
		t.scroll(1)
		return
	}

	ctl := t.r.Control()
	switch ev.Rune {
	case 'r':
		t.toggleRun()
	case 'p':
		ctl.PixelMode = !ctl.PixelMode
		t.logf("pixel mode %v", ctl.PixelMode)
		t.redrawAll()
	case 'm':
		t.minMax = !t.minMax
		t.acq.SetMinMax(t.minMax)
		t.logf("min/max mode %v", t.minMax)
		if t.meas.Running {
			t.restart()
		}
	case 'f':
		ctl.ShowFFT = !ctl.ShowFFT
		if !ctl.ShowFFT {
			t.r.ClearSpectrumBars()
			t.r.DrawGrid(t.pal.Grid)
		}
		t.dirty = true
	case 'F':
		if ctl.Page == render.PageChart {
			ctl.Page = render.PageFFT
		} else {
			ctl.Page = render.PageChart
		}
		t.logf("page %d", ctl.Page)
		t.redrawAll()
	case '+':
		t.setXScale(expand(ctl.XScale))
	case '-':
		t.setXScale(compress(ctl.XScale))
	case 'i':
		switch ctl.InfoMode {
		case render.InfoLong:
			ctl.InfoMode = render.InfoShort
		case render.InfoShort:
			ctl.InfoMode = render.InfoNone
		default:
			ctl.InfoMode = render.InfoLong
		}
		t.r.ClearInfo()
		t.r.DrawGrid(t.pal.Grid)
		t.r.PrintInfo()
	case 'l':
		ctl.ShowTriggerInfoLine = !ctl.ShowTriggerInfoLine
		t.dirty = true
	case 't':
		t.cycleTriggerMode()
	case 'e':
		t.meas.TriggerSlopeRising = !t.meas.TriggerSlopeRising
		t.r.PrintTriggerInfo()
		if t.meas.Running {
			t.restart()
		}
	case 's':
		t.meas.SingleShot = !t.meas.SingleShot
		t.logf("single shot %v", t.meas.SingleShot)
		if t.meas.SingleShot && !t.meas.Running {
			t.run()
		}
	case 'h':
		t.history = !t.history
		t.applyHistory()
	case 'v':
		t.setRange(t.meas.RangeIndex + 1)
	case 'V':
		t.setRange(t.meas.RangeIndex - 1)
	case 'b':
		t.setTimebase(t.meas.TimebaseIndex + 1)
	case 'B':
		t.setTimebase(t.meas.TimebaseIndex - 1)
	}
}

func (t *Task) toggleRun() {
	if t.meas.Running {
		t.acq.Stop()
		t.logf("stopped after %d acquisitions", t.acquisitions)
		t.dirty = true
		return
	}
	t.run()
}

func (t *Task) run() {
	t.logf("running")
	t.acq.Scroll(-t.acq.Window().DisplayStart, 0)
	t.start()
	t.redrawAll()
}

// restart drops the current acquisition so changed settings apply at once.
func (t *Task) restart() {
	t.start()
	t.redrawAll()
}

// moveTrigger shifts the trigger level by rows display rows, up for negative rows.
func (t *Task) moveTrigger(rows int) {
	if t.meas.TriggerMode == render.TriggerOff {
		return
	}
	m := t.r.Mapper()
	row := int(t.r.TriggerRow()) + rows
	if row < 0 {
		row = 0
	}
	if zero := t.r.Geometry().ZeroRow; row > zero {
		row = zero
	}
	level := m.Raw(uint8(row))
	if level < 0 {
		level = 0
	}
	if level > acquire.RawMax {
		level = acquire.RawMax
	}
	t.meas.RawTriggerLevel = level
	t.r.MoveTriggerLine(t.r.TriggerRow())
	t.r.PrintTriggerInfo()
}

func (t *Task) cycleTriggerMode() {
	old := t.r.Control().TriggerLevelRow
	switch t.meas.TriggerMode {
	case render.TriggerAuto:
		t.meas.TriggerMode = render.TriggerManual
	case render.TriggerManual:
		t.meas.TriggerMode = render.TriggerOff
		t.r.ClearTriggerLine(old)
	default:
		t.meas.TriggerMode = render.TriggerAuto
		t.r.DrawTriggerLine()
	}
	t.logf("trigger mode %v", t.meas.TriggerMode)
	t.r.PrintTriggerInfo()
	if t.meas.Running {
		t.restart()
	}
}

// scroll moves the analysis window by one grid division of samples.
func (t *Task) scroll(dir int) {
	if t.meas.Running {
		return
	}
	ctl := t.r.Control()
	step := render.Consumes(ctl.XScale, t.r.Geometry().GridWidth)
	if step <= 0 {
		step = 1
	}
	t.acq.Scroll(dir*step, ctl.XScale)
	t.dirty = true
}

func (t *Task) setXScale(ratio int) {
	ctl := t.r.Control()
	if ratio == ctl.XScale {
		return
	}
	t.r.SetXScale(ratio)
	t.acq.Scroll(0, ratio)
	t.logf("x scale %s", render.ScaleFactorString(ratio))
	if t.meas.Running {
		if ratio == 0 {
			t.redrawAll()
		}
		return
	}
	t.dirty = true
}

func (t *Task) setRange(i int) {
	if i < 0 || i >= len(t.prof.Ranges) || i == t.meas.RangeIndex {
		return
	}
	t.meas.RangeIndex = i
	t.meas.RangeIndexForPrint = i
	t.meas.RawOffset = t.r.Mapper().RawOffsetFromGridCount(t.meas.OffsetGridCount, t.r.Geometry().GridHeight)
	t.logf("range %d: %v V/div", i, t.prof.Ranges[i].VoltsPerDiv)
	t.redrawAll()
}

func (t *Task) setTimebase(i int) {
	if i < 0 || i >= len(t.prof.Timebases) || i == t.meas.TimebaseIndex {
		return
	}
	if err := t.acq.SetSampleRate(t.prof.SampleRate(i)); err != nil {
		t.logf("timebase %d: %v", i, err)
		return
	}
	t.meas.TimebaseIndex = i
	t.logf("timebase %d: %v us/div", i, t.prof.Timebases[i].DivMicros)
	if t.meas.Running {
		t.restart()
		return
	}
	t.dirty = true
}

// expand steps the x scale towards fewer samples per column.
func expand(ratio int) int {
	if ratio >= maxXScale {
		return maxXScale
	}
	return ratio + 1
}

// compress steps the x scale towards more samples per column.
func compress(ratio int) int {
	if ratio <= minXScale {
		return minXScale
	}
	return ratio - 1
}
