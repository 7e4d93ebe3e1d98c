package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// ClearInfo removes the info lines at the top of the chart.
func (r *Renderer) ClearInfo() {
	r.sink.FillRect(0, 0, r.geo.Width-1, 3*r.geo.TextHeight, r.pal.Background)
}

// PrintInfo draws the measurement summary: three lines in long mode, one line in
// short mode, nothing on the spectrum page.
func (r *Renderer) PrintInfo() {
	if r.ctl.Page != PageChart || r.ctl.InfoMode == InfoNone {
		return
	}
	lines := r.InfoLines()
	g := r.geo
	for i, s := range lines {
		r.sink.DrawText(0, g.TextAscend+i*g.TextHeight, s, g.TextSize, r.pal.InfoText, r.pal.InfoBackground)
	}
}

// InfoLines formats the lines PrintInfo draws.
func (r *Renderer) InfoLines() []string {
	meas := r.meas
	prec := r.infoPrecision()

	diff := meas.RawValueMax - meas.RawValueMin
	if meas.ACMode {
		// Volts removes the AC zero, a difference must keep it.
		diff += meas.ACZero
	}
	tbValue, tbUnit := timebaseText(r.timebase())

	if r.ctl.InfoMode == InfoShort {
		return []string{fmt.Sprintf("%6.*fV %6.*fV  %6sHz %4d%ss",
			prec, Volts(meas, meas.RawValueAverage),
			prec, Volts(meas, diff),
			humanize.Comma(int64(meas.FrequencyHertz)),
			tbValue, tbUnit)}
	}

	var first string
	if meas.SingleShot {
		first = fmt.Sprintf("Current=%4.3fV waiting for %s",
			Volts(meas, meas.RawValueBeforeTrigger), meas.TriggerStatus)
	} else {
		first = fmt.Sprintf("Av%6.*fV Min%6.*f Max%6.*f P2P%6.*fV",
			prec, Volts(meas, meas.RawValueAverage),
			prec, Volts(meas, meas.RawValueMin),
			prec, Volts(meas, meas.RawValueMax),
			prec, Volts(meas, diff))
	}

	second := fmt.Sprintf("%s %4d%ss %s %s",
		ScaleFactorString(r.ctl.XScale), tbValue, tbUnit, r.frequencyAndPeriod(), meas.ChannelName)

	fft := strings.Repeat(" ", 9)
	if r.ctl.ShowFFT {
		fft = fmt.Sprintf(" %6sHz %4.1f", commaFixed(float64(r.ctl.FreqAtMaxBin), 0), r.ctl.MaxFFTValue)
	}
	third := fmt.Sprintf("Trigg: %c %c %5.*fV %s",
		slopeChar(meas.TriggerSlopeRising), triggerModeChar(meas.TriggerMode),
		prec-1, Volts(meas, meas.RawTriggerLevel), fft)

	return []string{first, second, third}
}

// PrintTriggerInfo redraws only the trigger level of the info text.
func (r *Renderer) PrintTriggerInfo() {
	if r.ctl.Page != PageChart || r.ctl.InfoMode == InfoNone {
		return
	}
	prec := r.infoPrecision() - 1
	s := fmt.Sprintf("%5.*fV", prec, Volts(r.meas, r.meas.RawTriggerLevel))

	g := r.geo
	x, y := g.Width-len(s)*g.TextWidth-g.LabelRightMargin, g.TextAscend+g.TextHeight
	if r.ctl.InfoMode == InfoLong {
		// Overwrites the level field of the third line.
		x, y = len("Trigg: / A ")*g.TextWidth, g.TextAscend+2*g.TextHeight
	}
	r.sink.DrawText(x, y, s, g.TextSize, r.pal.InfoText, r.pal.InfoBackground)
}

// infoPrecision is one digit more than the grid labels of the range, at most 3.
func (r *Renderer) infoPrecision() int {
	p := r.rangeAt(r.meas.RangeIndexForPrint).Precision + 1
	if p > 3 {
		p = 3
	}
	if p < 1 {
		p = 1
	}
	return p
}

// frequencyAndPeriod formats "  1,000Hz 1,000.0us" with the period precision
// shrinking as the period grows.
func (r *Renderer) frequencyAndPeriod() string {
	period := float64(r.meas.PeriodMicros)
	unit := "u"
	if period >= 50000 {
		period /= 1000
		unit = "m"
	}
	prec := 0
	switch {
	case period < 100:
		prec = 2
	case period < 10000:
		prec = 1
	}
	return fmt.Sprintf("%7sHz %9s%ss", humanize.Comma(int64(r.meas.FrequencyHertz)), commaFixed(period, prec), unit)
}

// timebaseText splits a division duration into an integer and a unit prefix.
func timebaseText(tb Timebase) (int, string) {
	d := tb.DivMicros
	switch {
	case d >= 1000:
		return int(d/1000 + 0.5), "m"
	case d >= 1:
		return int(d + 0.5), "u"
	default:
		return int(d*1000 + 0.5), "n"
	}
}

// commaFixed formats v with prec decimals and thousands separators.
func commaFixed(v float64, prec int) string {
	s := strconv.FormatFloat(v, 'f', prec, 64)
	whole, frac, hasFrac := strings.Cut(s, ".")
	neg := strings.HasPrefix(whole, "-")
	n, err := strconv.ParseInt(strings.TrimPrefix(whole, "-"), 10, 64)
	if err != nil {
		return s
	}
	out := humanize.Comma(n)
	if neg {
		out = "-" + out
	}
	if hasFrac {
		out += "." + frac
	}
	return out
}

func slopeChar(rising bool) byte {
	if rising {
		return '/'
	}
	return '\\'
}

func triggerModeChar(m TriggerMode) byte {
	switch m {
	case TriggerAuto:
		return 'A'
	case TriggerManual:
		return 'M'
	default:
		return 'O'
	}
}
