package acquire

import (
	"errors"
	"math"
	"testing"

	"touchdso/dso/render"
)

// indexSource returns f(i) for the i-th reading at rate readings per second.
type indexSource struct {
	rate float64
	f    func(i int) float64
}

func (s indexSource) Sample(t float64) float64 {
	return s.f(int(math.Round(t * s.rate)))
}

// squareVolts is high for 20 readings, then low for 20.
func squareVolts(i int) float64 {
	if i%40 < 20 {
		return 2.5
	}
	return 0.5
}

func newTestAcquirer(t *testing.T, meas *render.Measurement, src Source) *Acquirer {
	t.Helper()
	a, err := New(Config{
		Width:      80,
		BufferLen:  240,
		SampleRate: 1000,
		RawPerVolt: 1000,
		FFTSize:    64,
	}, src, meas)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestNewRejectsBadConfig(t *testing.T) {
	src := NewGenerator(DC, 0, 0, 1, 0, 1)
	cases := []Config{
		{Width: 0, SampleRate: 1000},
		{Width: 80, BufferLen: 40, SampleRate: 1000},
		{Width: 80, PreTrigger: 80, SampleRate: 1000},
		{Width: 80, SampleRate: 0},
	}
	for i, cfg := range cases {
		if _, err := New(cfg, src, nil); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("case %d: New() err = %v, want ErrInvalidConfig", i, err)
		}
	}
	if _, err := New(Config{Width: 80, SampleRate: 1000}, nil, nil); !errors.Is(err, ErrNilSource) {
		t.Fatalf("New(nil source) err = %v, want ErrNilSource", err)
	}
}

func TestTriggerOffFillsWholeBuffer(t *testing.T) {
	meas := &render.Measurement{TriggerMode: render.TriggerOff}
	a := newTestAcquirer(t, meas, NewGenerator(DC, 0, 0, 1.2, 0, 1))
	a.Start()

	if got := a.Step(1000); got != 240 {
		t.Fatalf("Step() = %d, want 240", got)
	}
	if !a.Complete() {
		t.Fatal("expected complete acquisition")
	}
	w := a.Window()
	if w.NextIn != 240 {
		t.Fatalf("NextIn = %d, want 240", w.NextIn)
	}
	if meas.RawValueMin != 1200 || meas.RawValueMax != 1200 || meas.RawValueAverage != 1200 {
		t.Fatalf("stats min=%d max=%d avg=%d, want 1200", meas.RawValueMin, meas.RawValueMax, meas.RawValueAverage)
	}
	if meas.FrequencyHertz != 0 {
		t.Fatalf("FrequencyHertz = %d, want 0 for DC", meas.FrequencyHertz)
	}
	if got := a.Step(10); got != 0 {
		t.Fatalf("Step() after completion = %d, want 0", got)
	}
}

func TestRisingTriggerAndFrequency(t *testing.T) {
	meas := &render.Measurement{
		TriggerMode:        render.TriggerManual,
		TriggerSlopeRising: true,
		RawTriggerLevel:    1500,
	}
	a := newTestAcquirer(t, meas, indexSource{rate: 1000, f: squareVolts})
	a.Start()

	// Readings 0..19 high, 20..39 low, 40 is the first rising edge.
	if got := a.Step(40); got != 40 {
		t.Fatalf("Step() = %d, want 40", got)
	}
	if !a.Waiting() {
		t.Fatal("trigger fired before the rising edge")
	}
	if meas.TriggerStatus != render.TriggerWaitLevel {
		t.Fatalf("TriggerStatus = %v, want level", meas.TriggerStatus)
	}

	a.Step(1)
	w := a.Window()
	if a.Waiting() || !w.TriggerPhaseJustEnded {
		t.Fatal("expected trigger on reading 40")
	}
	pre := a.Config().PreTrigger
	if a.TriggerIndex() != pre-1 {
		t.Fatalf("TriggerIndex() = %d, want %d", a.TriggerIndex(), pre-1)
	}
	if w.Max[pre-1] != 2500 || w.Max[pre-2] != 500 {
		t.Fatalf("pre-trigger tail = %d,%d, want 500,2500", w.Max[pre-2], w.Max[pre-1])
	}
	if w.NextIn != pre {
		t.Fatalf("NextIn = %d, want %d", w.NextIn, pre)
	}
	a.AckTriggerEnded()
	if w.TriggerPhaseJustEnded {
		t.Fatal("AckTriggerEnded did not clear the flag")
	}

	a.Step(1000)
	if !a.Complete() {
		t.Fatal("expected complete acquisition")
	}
	if meas.RawValueMin != 500 || meas.RawValueMax != 2500 {
		t.Fatalf("min=%d max=%d, want 500 2500", meas.RawValueMin, meas.RawValueMax)
	}
	if meas.FrequencyHertz != 25 {
		t.Fatalf("FrequencyHertz = %d, want 25", meas.FrequencyHertz)
	}
	if math.Abs(float64(meas.PeriodMicros)-40000) > 1 {
		t.Fatalf("PeriodMicros = %v, want 40000", meas.PeriodMicros)
	}
}

func TestPreTriggerWrapAround(t *testing.T) {
	meas := &render.Measurement{TriggerMode: render.TriggerManual, RawTriggerLevel: 4000, TriggerSlopeRising: true}
	a := newTestAcquirer(t, meas, NewGenerator(DC, 0, 0, 1, 0, 1))
	a.Start()

	pre := a.Config().PreTrigger
	a.Step(pre - 1)
	w := a.Window()
	if w.PreTriggerWrapAround || w.NextIn != pre-1 {
		t.Fatalf("before wrap: flag=%v NextIn=%d", w.PreTriggerWrapAround, w.NextIn)
	}
	a.Step(1)
	if !w.PreTriggerWrapAround || w.NextIn != 0 {
		t.Fatalf("after wrap: flag=%v NextIn=%d, want true 0", w.PreTriggerWrapAround, w.NextIn)
	}
	a.AckWrapAround()
	if w.PreTriggerWrapAround {
		t.Fatal("AckWrapAround did not clear the flag")
	}
	if meas.RawValueBeforeTrigger != 1000 {
		t.Fatalf("RawValueBeforeTrigger = %d, want 1000", meas.RawValueBeforeTrigger)
	}
}

func TestAutoTriggerTimeout(t *testing.T) {
	meas := &render.Measurement{TriggerMode: render.TriggerAuto, RawTriggerLevel: 4000, TriggerSlopeRising: true}
	a := newTestAcquirer(t, meas, NewGenerator(DC, 0, 0, 1, 0, 1))
	a.Start()

	timeout := a.Config().AutoTriggerTimeout
	a.Step(timeout)
	if !a.Waiting() {
		t.Fatal("auto trigger fired before the timeout")
	}
	a.Step(1)
	if a.Waiting() {
		t.Fatal("auto trigger did not fire after the timeout")
	}
	// Only the last PreTrigger readings survive, all of them valid.
	w := a.Window()
	for i := 0; i < a.Config().PreTrigger; i++ {
		if w.Max[i] == render.RawNoData {
			t.Fatalf("Max[%d] is no-data after a full ring", i)
		}
	}
}

func TestShortHistoryStaysNoData(t *testing.T) {
	meas := &render.Measurement{TriggerMode: render.TriggerManual, TriggerSlopeRising: true, RawTriggerLevel: 1500}
	a := newTestAcquirer(t, meas, indexSource{rate: 1000, f: func(i int) float64 {
		if i < 5 {
			return 0.5
		}
		return 2.5
	}})
	a.Start()
	a.Step(6)
	if a.Waiting() {
		t.Fatal("expected trigger on reading 5")
	}
	w := a.Window()
	pre := a.Config().PreTrigger
	for i := 0; i < pre-6; i++ {
		if w.Max[i] != render.RawNoData {
			t.Fatalf("Max[%d] = %d, want no-data", i, w.Max[i])
		}
	}
	if w.Max[pre-6] != 500 || w.Max[pre-1] != 2500 {
		t.Fatalf("history = %d..%d, want 500..2500", w.Max[pre-6], w.Max[pre-1])
	}
}

func TestMinMaxMode(t *testing.T) {
	meas := &render.Measurement{TriggerMode: render.TriggerOff}
	src := indexSource{rate: 4000, f: func(i int) float64 { return float64(i%4) * 0.5 }}
	a := newTestAcquirer(t, meas, src)
	a.SetMinMax(true)
	a.Start()
	a.Step(10)

	if !meas.EffectiveMinMax {
		t.Fatal("EffectiveMinMax not set")
	}
	w := a.Window()
	if w.Min == nil {
		t.Fatal("window has no min track")
	}
	for i := 0; i < 10; i++ {
		if w.Max[i] != 1500 || w.Min[i] != 0 {
			t.Fatalf("sample %d max=%d min=%d, want 1500 0", i, w.Max[i], w.Min[i])
		}
	}
}

func TestScrollClamps(t *testing.T) {
	a := newTestAcquirer(t, &render.Measurement{}, NewGenerator(DC, 0, 0, 1, 0, 1))
	if got := a.Scroll(50, 0); got != 50 {
		t.Fatalf("Scroll(50) = %d, want 50", got)
	}
	if got := a.Scroll(1000, 0); got != 160 {
		t.Fatalf("Scroll(+1000) = %d, want 160", got)
	}
	if got := a.Window().DisplayEnd; got != 239 {
		t.Fatalf("DisplayEnd = %d, want 239", got)
	}
	if got := a.Scroll(-1000, -2); got != 0 {
		t.Fatalf("Scroll(-1000) = %d, want 0", got)
	}
}

func TestGeneratorShapes(t *testing.T) {
	tests := []struct {
		shape Waveform
		t     float64
		want  float64
	}{
		{Sine, 0.25, 2},
		{Square, 0.1, 2},
		{Square, 0.6, 0},
		{Triangle, 0, 2},
		{Triangle, 0.5, 0},
		{Sawtooth, 0.75, 1.5},
		{DC, 0.3, 1},
	}
	for _, tt := range tests {
		g := NewGenerator(tt.shape, 1, 1, 1, 0, 1)
		if got := g.Sample(tt.t); math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("%v.Sample(%v) = %v, want %v", tt.shape, tt.t, got, tt.want)
		}
	}
}

func TestGeneratorNoiseIsDeterministic(t *testing.T) {
	a := NewGenerator(Sine, 10, 1, 0, 0.1, 42)
	b := NewGenerator(Sine, 10, 1, 0, 0.1, 42)
	for i := 0; i < 16; i++ {
		ti := float64(i) / 100
		if x, y := a.Sample(ti), b.Sample(ti); x != y {
			t.Fatalf("sample %d differs: %v vs %v", i, x, y)
		}
	}
}

func TestParseWaveform(t *testing.T) {
	for _, s := range []string{"sine", "square", "triangle", "sawtooth", "dc"} {
		w, err := ParseWaveform(s)
		if err != nil {
			t.Fatalf("ParseWaveform(%q): %v", s, err)
		}
		if w.String() != s {
			t.Fatalf("ParseWaveform(%q).String() = %q", s, w.String())
		}
	}
	if _, err := ParseWaveform("noise"); err == nil {
		t.Fatal("expected error for unknown waveform")
	}
}
