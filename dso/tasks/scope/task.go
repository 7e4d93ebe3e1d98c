// Package scope is the oscilloscope task: it steps the simulated acquisition, feeds
// the renderer incrementally while samples arrive and switches to full redraws on
// trigger, wraparound, mode changes and in analysis mode.
package scope

import (
	"errors"
	"fmt"
	"image/color"

	"touchdso/dso/acquire"
	"touchdso/dso/fbsink"
	"touchdso/dso/profile"
	"touchdso/dso/render"
	"touchdso/hal"
)

var (
	ErrNoDisplay       = errors.New("scope: no framebuffer")
	ErrDisplayTooSmall = errors.New("scope: framebuffer smaller than the profile display")
)

const (
	minXScale = -16
	maxXScale = 16

	defaultSamplesPerTick = 64

	// Limits the redraw loop of one step when several flags are pending.
	maxPassesPerStep = 4
)

// Task owns one display, one acquirer and the renderer between them.
type Task struct {
	fb    hal.Framebuffer
	sink  *fbsink.Sink
	keys  <-chan hal.KeyEvent
	ticks <-chan uint64
	log   hal.Logger
	prof  *profile.Profile

	meas render.Measurement
	r    *render.Renderer
	acq  *acquire.Acquirer
	pal  render.Palette

	samplesPerTick int
	lastTick       uint64
	owed           float64 // fractional samples carried to the next step
	history        bool
	minMax         bool
	dirty          bool
	acquisitions   uint64
}

// New builds the task. With a clock, each step acquires the samples due for the
// host ticks elapsed since the previous step, at most samples_per_tick; without
// one every step acquires samples_per_tick samples.
func New(disp hal.Display, in hal.Input, clock hal.Time, log hal.Logger, p *profile.Profile) (*Task, error) {
	if p == nil {
		p = profile.Default()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if disp == nil {
		return nil, ErrNoDisplay
	}
	fb := disp.Framebuffer()
	if fb == nil {
		return nil, ErrNoDisplay
	}
	geo := p.Geometry()
	if fb.Width() < geo.Width || fb.Height() < geo.Height {
		return nil, fmt.Errorf("%w: %dx%d < %dx%d", ErrDisplayTooSmall, fb.Width(), fb.Height(), geo.Width, geo.Height)
	}
	pal, err := p.Palette()
	if err != nil {
		return nil, err
	}
	mode, _ := p.TriggerMode()
	rising, _ := p.SlopeRising()
	info, _ := p.InfoMode()

	t := &Task{
		fb:             fb,
		log:            log,
		prof:           p,
		pal:            pal,
		samplesPerTick: p.Scope.SamplesPerTick,
		history:        p.Scope.History,
		minMax:         p.Scope.MinMax,
	}
	if t.samplesPerTick <= 0 {
		t.samplesPerTick = defaultSamplesPerTick
	}
	if in != nil {
		if kbd := in.Keyboard(); kbd != nil {
			t.keys = kbd.Events()
		}
	}
	if clock != nil {
		t.ticks = clock.Ticks()
	}
	t.sink = fbsink.New(fb, fbsink.Options{
		ZeroRow:      geo.ZeroRow,
		Clip:         pal.Clipping,
		ShowClipping: true,
	})

	t.meas = render.Measurement{
		RangeIndex:         p.Scope.Range,
		RangeIndexForPrint: p.Scope.Range,
		OffsetGridCount:    p.Scope.OffsetGrids,
		TriggerMode:        mode,
		TriggerSlopeRising: rising,
		RawTriggerLevel:    p.RawTriggerLevel(),
		SingleShot:         p.Scope.SingleShot,
		TimebaseIndex:      p.Scope.Timebase,
		ChannelName:        p.Scope.Channel,
	}
	t.r, err = render.New(geo, t.sink, &t.meas, p.RenderRanges(), p.RenderTimebases(), pal)
	if err != nil {
		return nil, err
	}
	t.meas.RawOffset = t.r.Mapper().RawOffsetFromGridCount(p.Scope.OffsetGrids, geo.GridHeight)

	ctl := t.r.Control()
	ctl.XScale = p.Scope.XScale
	ctl.PixelMode = p.Scope.PixelMode
	ctl.ShowFFT = p.Scope.FFT
	ctl.ShowTriggerInfoLine = p.Scope.TriggerLine
	ctl.InfoMode = info
	t.applyHistory()

	shape, err := acquire.ParseWaveform(p.Signal.Waveform)
	if err != nil {
		return nil, fmt.Errorf("scope: %w", err)
	}
	gen := acquire.NewGenerator(shape, p.Signal.Frequency, p.Signal.Amplitude, p.Signal.Offset, p.Signal.Noise, p.Signal.Seed)
	t.acq, err = acquire.New(acquire.Config{
		Width:      geo.Width,
		BufferLen:  p.Scope.BufferLen,
		PreTrigger: p.Scope.PreTrigger,
		SampleRate: p.SampleRate(p.Scope.Timebase),
		RawPerVolt: p.Signal.RawPerVolt,
		ACMode:     p.Signal.AC,
		FFTSize:    geo.FFTSize,
	}, gen, &t.meas)
	if err != nil {
		return nil, err
	}
	t.acq.SetMinMax(p.Scope.MinMax)

	t.start()
	t.redrawAll()
	return t, nil
}

func (t *Task) Renderer() *render.Renderer       { return t.r }
func (t *Task) Acquirer() *acquire.Acquirer      { return t.acq }
func (t *Task) Measurement() *render.Measurement { return &t.meas }
func (t *Task) Framebuffer() hal.Framebuffer     { return t.fb }
func (t *Task) Running() bool                    { return t.meas.Running }
func (t *Task) Acquisitions() uint64             { return t.acquisitions }

// Step runs one host tick: keys, acquisition, drawing, present.
func (t *Task) Step() error {
	t.drainKeys()
	n := t.samplesDue()
	if t.meas.Running {
		t.acquire(n)
	} else if t.dirty {
		t.redrawAnalysis()
	}
	return t.sink.Display()
}

func (t *Task) drainKeys() {
	if t.keys == nil {
		return
	}
	for {
		select {
		case ev, ok := <-t.keys:
			if !ok {
				t.keys = nil
				return
			}
			t.HandleKey(ev)
		default:
			return
		}
	}
}

// samplesDue converts the ticks received since the last step into samples at
// the current sample rate.
func (t *Task) samplesDue() int {
	if t.ticks == nil {
		return t.samplesPerTick
	}
	latest := t.lastTick
drain:
	for {
		select {
		case seq, ok := <-t.ticks:
			if !ok {
				t.ticks = nil
				break drain
			}
			latest = seq
		default:
			break drain
		}
	}
	if latest <= t.lastTick {
		if t.ticks == nil {
			return t.samplesPerTick
		}
		return 0
	}
	elapsed := latest - t.lastTick
	t.lastTick = latest

	t.owed += float64(elapsed) * hal.TickDuration.Seconds() * t.prof.SampleRate(t.meas.TimebaseIndex)
	n := int(t.owed)
	if n >= t.samplesPerTick {
		t.owed = 0
		return t.samplesPerTick
	}
	t.owed -= float64(n)
	return n
}

func (t *Task) logf(format string, args ...any) {
	if t.log == nil {
		return
	}
	t.log.WriteLineString("scope: " + fmt.Sprintf(format, args...))
}

func (t *Task) start() {
	t.acq.Start()
	t.r.SyncCursor(t.acq.Window(), 0)
}

func (t *Task) acquire(n int) {
	t.acq.Step(n)
	ctl := t.r.Control()
	if ctl.Page == render.PageChart {
		if ctl.XScale == 0 {
			t.drawIncremental()
		} else {
			t.ackFlags()
		}
	} else {
		t.ackFlags()
	}
	if t.acq.Complete() {
		t.finish()
	}
}

// drawIncremental draws new samples at native scale. A bulk pass takes over
// whenever the acquisition moved samples that are already on screen.
func (t *Task) drawIncremental() {
	w := t.acq.Window()
	for i := 0; i < maxPassesPerStep; i++ {
		_, stop := t.r.DrawRemaining(w, t.pal.Data)
		switch stop {
		case render.StopTriggerEnded:
			t.logf("redraw after %v at sample %d", stop, w.NextIn)
			t.drawBuffer(true, t.pal.Data)
			t.syncAfterBulk(w, true)
			t.acq.AckTriggerEnded()
		case render.StopWrapAround:
			t.drawBuffer(true, t.pal.Data)
			t.syncAfterBulk(w, false)
			t.acq.AckWrapAround()
		default:
			return
		}
	}
}

// syncAfterBulk moves the cursor behind the samples a bulk pass has drawn. The
// spectrum bars are drawn here when the cursor jumps over FFTReady, or when the
// trigger has reordered a buffer that already holds a full spectrum window.
func (t *Task) syncAfterBulk(w *render.Window, reordered bool) {
	before := t.r.Control().NextDraw
	t.r.SyncCursor(w, w.NextIn)
	if w.FFTReady < 0 || w.FFTReady >= w.NextIn {
		return
	}
	if reordered || before <= w.FFTReady {
		t.r.DrawSpectrumBars(w, t.pal.FFT)
	}
}

func (t *Task) ackFlags() {
	t.acq.AckTriggerEnded()
	t.acq.AckWrapAround()
}

func (t *Task) finish() {
	t.acquisitions++
	w := t.acq.Window()
	ctl := t.r.Control()
	switch ctl.Page {
	case render.PageFFT:
		t.r.DrawSpectrumPage(w)
	default:
		if ctl.XScale != 0 {
			t.drawBuffer(true, t.pal.Data)
			t.r.DrawSpectrumBars(w, t.pal.FFT)
		}
		t.r.DrawGrid(t.pal.Grid)
		t.r.PrintInfo()
	}
	if t.meas.SingleShot {
		t.acq.Stop()
		t.logf("single shot complete: min %d max %d avg %d, %d Hz",
			t.meas.RawValueMin, t.meas.RawValueMax, t.meas.RawValueAverage, t.meas.FrequencyHertz)
		t.dirty = true
		return
	}
	t.start()
}

// drawBuffer runs a bulk pass over the displayed part of the buffer.
func (t *Task) drawBuffer(clearBefore bool, c color.RGBA) {
	w := t.acq.Window()
	start := w.DisplayStart
	if start >= len(w.Max) {
		return
	}
	var mins []uint16
	if t.meas.EffectiveMinMax && start < len(w.Min) {
		mins = w.Min[start:]
	}
	erase := t.r.Control().EraseColor
	if !t.meas.Running {
		erase = t.pal.Background
	}
	t.r.DrawBuffer(w.Max[start:], mins, render.BulkOptions{
		Color:       c,
		ClearBefore: clearBefore,
		ClearColor:  erase,
		AlsoMin:     mins != nil,
	})
}

func (t *Task) dataColor() color.RGBA {
	if t.meas.Running {
		return t.pal.Data
	}
	return t.pal.DataHold
}

// redrawAll repaints the current page from scratch.
func (t *Task) redrawAll() {
	w := t.acq.Window()
	t.sink.ClearDisplay(t.pal.Background)
	t.r.Reset()
	if t.r.Control().Page == render.PageFFT {
		t.r.DrawSpectrumPage(w)
		t.dirty = false
		return
	}
	t.r.DrawGrid(t.pal.Grid)
	if t.acquisitions > 0 || !t.meas.Running {
		t.drawBuffer(false, t.dataColor())
		t.r.DrawSpectrumBars(w, t.pal.FFT)
		t.r.PrintInfo()
	}
	if t.meas.Running {
		t.r.SyncCursor(w, w.NextIn)
	}
	t.dirty = false
}

// redrawAnalysis re-renders the held buffer after a parameter change.
func (t *Task) redrawAnalysis() {
	w := t.acq.Window()
	if t.r.Control().Page == render.PageFFT {
		t.r.DrawSpectrumPage(w)
		t.dirty = false
		return
	}
	t.drawBuffer(true, t.pal.DataHold)
	t.r.DrawSpectrumBars(w, t.pal.FFT)
	t.r.DrawGrid(t.pal.Grid)
	t.r.PrintInfo()
	t.dirty = false
}

func (t *Task) applyHistory() {
	ctl := t.r.Control()
	if t.history {
		ctl.EraseColor = t.pal.DataHistory
	} else {
		ctl.EraseColor = t.pal.Background
	}
}
