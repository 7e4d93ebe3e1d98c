// Package acquire simulates the sampling front end of the scope: a 12 bit ADC,
// trigger detection with a pre-trigger ring, min/max oversampling and the
// per-acquisition statistics the info line shows.
//
// The acquirer owns the shared render.Measurement and updates it as it goes. It is
// not safe for concurrent use; the scope task calls it from its step loop.
package acquire

import (
	"errors"
	"fmt"
	"math"

	"touchdso/dso/render"
)

const (
	// RawMax is the largest reading of the 12 bit converter.
	RawMax = 4095
	// ACZero is the reading for 0 V in AC mode.
	ACZero = 2048
)

var (
	ErrInvalidConfig = errors.New("acquire: invalid config")
	ErrNilSource     = errors.New("acquire: nil source")
)

type Config struct {
	Width      int // display width; the incremental view spans Width samples
	BufferLen  int // samples per acquisition, at least Width
	PreTrigger int // samples kept before the trigger point, less than Width

	SampleRate float64 // samples per second
	RawPerVolt float64
	ACMode     bool

	MinMaxFactor       int // raw readings per stored sample in min/max mode
	AutoTriggerTimeout int // samples to wait before an auto trigger fires
	Hysteresis         int // raw distance from the level that arms the trigger
	FFTSize            int
}

func (c Config) withDefaults() Config {
	if c.BufferLen <= 0 {
		c.BufferLen = 3 * c.Width
	}
	if c.PreTrigger <= 0 {
		c.PreTrigger = c.Width / 4
	}
	if c.MinMaxFactor <= 1 {
		c.MinMaxFactor = 4
	}
	if c.AutoTriggerTimeout <= 0 {
		c.AutoTriggerTimeout = 2 * c.BufferLen
	}
	if c.Hysteresis <= 0 {
		c.Hysteresis = 8
	}
	if c.RawPerVolt <= 0 {
		c.RawPerVolt = RawMax / 3.3
	}
	return c
}

func (c Config) validate() error {
	switch {
	case c.Width <= 0:
		return fmt.Errorf("%w: width %d", ErrInvalidConfig, c.Width)
	case c.BufferLen < c.Width:
		return fmt.Errorf("%w: buffer %d shorter than width %d", ErrInvalidConfig, c.BufferLen, c.Width)
	case c.PreTrigger >= c.Width:
		return fmt.Errorf("%w: pre-trigger %d not below width %d", ErrInvalidConfig, c.PreTrigger, c.Width)
	case c.SampleRate <= 0 || math.IsNaN(c.SampleRate) || math.IsInf(c.SampleRate, 0):
		return fmt.Errorf("%w: sample rate %v", ErrInvalidConfig, c.SampleRate)
	}
	return nil
}

type phase uint8

const (
	phaseIdle phase = iota
	phaseWaiting
	phaseTriggered
	phaseComplete
)

// Acquirer fills one data buffer per acquisition.
type Acquirer struct {
	cfg  Config
	src  Source
	meas *render.Measurement

	max []uint16
	min []uint16
	win render.Window

	phase   phase
	minMax  bool
	nextMM  bool
	t0      float64 // time of reading n0 in seconds
	n       uint64  // readings since t0
	wr      int     // next write index
	waited  int     // samples seen while waiting for the trigger
	lapped  bool    // the pre-trigger ring was filled at least once
	trigIdx int     // buffer index of the trigger sample
}

func New(cfg Config, src Source, meas *render.Measurement) (*Acquirer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, ErrNilSource
	}
	if meas == nil {
		meas = &render.Measurement{}
	}
	a := &Acquirer{
		cfg:  cfg,
		src:  src,
		meas: meas,
		max:  make([]uint16, cfg.BufferLen),
		min:  make([]uint16, cfg.BufferLen),
	}
	a.meas.ACMode = cfg.ACMode
	if cfg.ACMode {
		a.meas.ACZero = ACZero
	}
	a.meas.RawToVolt = float32(1 / cfg.RawPerVolt)
	a.reset()
	return a, nil
}

func (a *Acquirer) Config() Config                   { return a.cfg }
func (a *Acquirer) Measurement() *render.Measurement { return a.meas }
func (a *Acquirer) Len() int                         { return a.cfg.BufferLen }
func (a *Acquirer) Complete() bool                   { return a.phase == phaseComplete }
func (a *Acquirer) Waiting() bool                    { return a.phase == phaseWaiting }
func (a *Acquirer) TriggerIndex() int                { return a.trigIdx }

// Window returns the live view of the current buffer. It stays valid until the
// next Start.
func (a *Acquirer) Window() *render.Window { return &a.win }

// SetSampleRate changes the sample rate, e.g. for a new timebase.
func (a *Acquirer) SetSampleRate(hz float64) error {
	if hz <= 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
		return fmt.Errorf("%w: sample rate %v", ErrInvalidConfig, hz)
	}
	a.t0 = a.now()
	a.n = 0
	a.cfg.SampleRate = hz
	return nil
}

// SetMinMax selects min/max oversampling from the next Start on.
func (a *Acquirer) SetMinMax(on bool) { a.nextMM = on }

// Start begins a new acquisition.
func (a *Acquirer) Start() {
	a.minMax = a.nextMM
	a.meas.EffectiveMinMax = a.minMax
	a.meas.Running = true
	a.reset()
	if a.meas.TriggerMode == render.TriggerOff {
		a.phase = phaseTriggered
		a.meas.TriggerStatus = render.TriggerFound
		a.trigIdx = 0
	} else {
		a.phase = phaseWaiting
		a.meas.TriggerStatus = render.TriggerWaitSlope
	}
}

// Stop freezes the current buffer for analysis.
func (a *Acquirer) Stop() {
	a.meas.Running = false
	if a.phase != phaseComplete {
		a.phase = phaseIdle
	}
}

func (a *Acquirer) reset() {
	fillRaw(a.max, render.RawNoData)
	fillRaw(a.min, render.RawNoData)
	a.wr = 0
	a.waited = 0
	a.lapped = false
	a.trigIdx = a.cfg.PreTrigger - 1
	a.phase = phaseIdle

	a.win = render.Window{
		Max:          a.max,
		DisplayStart: 0,
		DisplayEnd:   a.cfg.Width - 1,
		FFTReady:     -1,
	}
	if a.minMax {
		a.win.Min = a.min
	}
	if a.cfg.FFTSize > 0 && a.cfg.FFTSize <= a.cfg.BufferLen {
		a.win.FFTReady = a.cfg.FFTSize - 1
	}
}

// AckTriggerEnded clears the trigger phase flag once the view has been redrawn.
func (a *Acquirer) AckTriggerEnded() { a.win.TriggerPhaseJustEnded = false }

// AckWrapAround clears the wraparound flag once the view has been redrawn.
func (a *Acquirer) AckWrapAround() { a.win.PreTriggerWrapAround = false }

// Scroll moves the first displayed sample by delta, keeping a full width of
// samples at ratio in the buffer. It returns the new start.
func (a *Acquirer) Scroll(delta, ratio int) int {
	start := a.win.DisplayStart + delta
	limit := a.cfg.BufferLen - render.Consumes(ratio, a.cfg.Width)
	if start > limit {
		start = limit
	}
	if start < 0 {
		start = 0
	}
	a.win.DisplayStart = start
	a.win.DisplayEnd = start + a.cfg.Width - 1
	return start
}

// Step acquires up to n samples and returns how many were stored.
func (a *Acquirer) Step(n int) int {
	stored := 0
	for ; stored < n; stored++ {
		if a.phase != phaseWaiting && a.phase != phaseTriggered {
			break
		}
		hi, lo := a.read()
		if a.phase == phaseWaiting {
			a.storeWaiting(hi, lo)
		} else {
			a.storeTriggered(hi, lo)
		}
	}
	return stored
}

func (a *Acquirer) now() float64 {
	return a.t0 + float64(a.n)/a.cfg.SampleRate
}

// read takes one stored sample worth of readings.
func (a *Acquirer) read() (hi, lo uint16) {
	t := a.now()
	a.n++
	if !a.minMax {
		v := a.toRaw(a.src.Sample(t))
		return v, v
	}
	hi, lo = 0, RawMax
	sub := 1 / (a.cfg.SampleRate * float64(a.cfg.MinMaxFactor))
	for i := 0; i < a.cfg.MinMaxFactor; i++ {
		v := a.toRaw(a.src.Sample(t + float64(i)*sub))
		if v > hi {
			hi = v
		}
		if v < lo {
			lo = v
		}
	}
	return hi, lo
}

func (a *Acquirer) toRaw(volts float64) uint16 {
	v := math.Round(volts * a.cfg.RawPerVolt)
	if a.cfg.ACMode {
		v += ACZero
	}
	if v < 0 {
		return 0
	}
	if v > RawMax {
		return RawMax
	}
	return uint16(v)
}

func (a *Acquirer) storeWaiting(hi, lo uint16) {
	a.meas.RawValueBeforeTrigger = int(hi)
	a.waited++

	if a.cfg.PreTrigger > 0 {
		a.max[a.wr] = hi
		a.min[a.wr] = lo
		a.wr++
		if a.wr >= a.cfg.PreTrigger {
			a.wr = 0
			a.lapped = true
			a.win.PreTriggerWrapAround = true
		}
		a.win.NextIn = a.wr
	}

	fired := a.checkTrigger(hi, lo)
	if !fired && a.meas.TriggerMode == render.TriggerAuto && a.waited > a.cfg.AutoTriggerTimeout {
		fired = true
	}
	if !fired {
		return
	}
	a.meas.TriggerStatus = render.TriggerFound
	a.linearizePreTrigger()
	a.phase = phaseTriggered
	a.win.PreTriggerWrapAround = false
	a.win.TriggerPhaseJustEnded = true
	a.trigIdx = a.cfg.PreTrigger - 1
	a.wr = a.cfg.PreTrigger
	a.win.NextIn = a.wr
}

// checkTrigger advances the slope/level state machine by one sample.
func (a *Acquirer) checkTrigger(hi, lo uint16) bool {
	level := a.meas.RawTriggerLevel
	rising := a.meas.TriggerSlopeRising
	v := int(lo)
	if rising {
		v = int(hi)
	}
	switch a.meas.TriggerStatus {
	case render.TriggerWaitSlope:
		if (rising && v < level-a.cfg.Hysteresis) || (!rising && v > level+a.cfg.Hysteresis) {
			a.meas.TriggerStatus = render.TriggerWaitLevel
		}
	case render.TriggerWaitLevel:
		if (rising && v >= level) || (!rising && v <= level) {
			return true
		}
	}
	return false
}

// linearizePreTrigger puts the ring contents in time order so that the newest
// sample, the trigger sample, sits right before PreTrigger. Missing history stays no-data.
func (a *Acquirer) linearizePreTrigger() {
	n := a.cfg.PreTrigger
	if n == 0 {
		return
	}
	hist := make([]uint16, n)
	histMin := make([]uint16, n)
	fillRaw(hist, render.RawNoData)
	fillRaw(histMin, render.RawNoData)
	if a.lapped {
		// Oldest sample is at the write index.
		k := copy(hist, a.max[a.wr:n])
		copy(hist[k:], a.max[:a.wr])
		k = copy(histMin, a.min[a.wr:n])
		copy(histMin[k:], a.min[:a.wr])
	} else {
		copy(hist[n-a.wr:], a.max[:a.wr])
		copy(histMin[n-a.wr:], a.min[:a.wr])
	}
	copy(a.max, hist)
	copy(a.min, histMin)
}

func (a *Acquirer) storeTriggered(hi, lo uint16) {
	a.max[a.wr] = hi
	a.min[a.wr] = lo
	a.wr++
	a.win.NextIn = a.wr
	if a.wr >= a.cfg.BufferLen {
		a.phase = phaseComplete
		a.computeStats()
	}
}

func (a *Acquirer) computeStats() {
	s := Analyze(a.max, a.min, a.minMax, a.meas.RawTriggerLevel, a.cfg.Hysteresis)
	a.meas.RawValueMin = s.Min
	a.meas.RawValueMax = s.Max
	a.meas.RawValueAverage = s.Average
	a.meas.FrequencyHertz = 0
	a.meas.PeriodMicros = 0
	if s.PeriodSamples > 0 {
		period := s.PeriodSamples / a.cfg.SampleRate
		a.meas.PeriodMicros = float32(period * 1e6)
		a.meas.FrequencyHertz = int(math.Round(1 / period))
	}
}

func fillRaw(s []uint16, v uint16) {
	for i := range s {
		s[i] = v
	}
}
