package render

import (
	"fmt"
	"image/color"
	"strconv"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	fftChartGridX  = 64 // pixels between vertical grid lines of the spectrum page
	fftChartGridY  = 32
	fftChartRows   = 5
	fftChartLabelW = 4 // label width in characters left of the y axis
)

// Spectrum computes the magnitude spectrum of a raw window.
type Spectrum struct {
	n     int
	fft   *fourier.FFT
	seq   []float64
	coeff []complex128
	mag   []float32

	MaxValue float32
	MaxIndex int
}

func NewSpectrum(n int) (*Spectrum, error) {
	if n < 4 || n&(n-1) != 0 {
		return nil, fmt.Errorf("spectrum size %d is not a power of two", n)
	}
	return &Spectrum{
		n:     n,
		fft:   fourier.NewFFT(n),
		seq:   make([]float64, n),
		coeff: make([]complex128, n/2+1),
		mag:   make([]float32, n/2),
	}, nil
}

// Size is the number of raw samples one transform reads.
func (s *Spectrum) Size() int { return s.n }

// Values returns the magnitudes of the last Compute.
func (s *Spectrum) Values() []float32 { return s.mag }

// Compute transforms the first Size samples and returns Size/2 magnitudes. The
// mean is removed first; no-data samples count as the mean. It returns nil when
// samples is too short.
func (s *Spectrum) Compute(samples []uint16) []float32 {
	if len(samples) < s.n {
		return nil
	}
	sum, valid := 0.0, 0
	for _, v := range samples[:s.n] {
		if v == RawNoData {
			continue
		}
		sum += float64(v)
		valid++
	}
	mean := 0.0
	if valid > 0 {
		mean = sum / float64(valid)
	}
	for i, v := range samples[:s.n] {
		if v == RawNoData {
			s.seq[i] = 0
			continue
		}
		s.seq[i] = float64(v) - mean
	}

	s.coeff = s.fft.Coefficients(s.coeff, s.seq)
	norm := 2 / float32(s.n)
	s.MaxValue = 0
	s.MaxIndex = 0
	for k := range s.mag {
		s.mag[k] = math32.Hypot(float32(real(s.coeff[k])), float32(imag(s.coeff[k]))) * norm
		if k > 0 && s.mag[k] > s.MaxValue {
			s.MaxValue = s.mag[k]
			s.MaxIndex = k
		}
	}
	return s.mag
}

// BinHertz returns the center frequency of bin k for the current timebase.
func (r *Renderer) BinHertz(k int) float32 {
	div := r.timebase().DivMicros
	if div <= 0 {
		return 0
	}
	return float32(k) * 1e6 * float32(r.geo.SamplesPerDiv) / (float32(r.geo.FFTSize) * div)
}

func (r *Renderer) spectrumWindow(w *Window) []float32 {
	start := w.DisplayStart
	if start < 0 || start+r.geo.FFTSize > len(w.Max) {
		return nil
	}
	vals := r.spec.Compute(w.Max[start : start+r.geo.FFTSize])
	if vals == nil {
		return nil
	}
	r.ctl.MaxFFTValue = r.spec.MaxValue
	r.ctl.FreqAtMaxBin = r.BinHertz(r.spec.MaxIndex)
	return vals
}

// DrawSpectrumBars updates the bar chart at the bottom of the trace. Only the part
// of a bar between its old and new top is filled, and never outside its columns.
func (r *Renderer) DrawSpectrumBars(w *Window, c color.RGBA) {
	if !r.ctl.ShowFFT {
		return
	}
	vals := r.spectrumWindow(w)
	if vals == nil {
		return
	}

	var scale float32
	if r.spec.MaxValue > 0 {
		scale = float32(r.geo.GridHeight) / r.spec.MaxValue
	}
	barW := r.geo.FFTBarWidth
	for bar, x := 0, 0; x < r.geo.Width; bar, x = bar+1, x+barW {
		var v float32
		if bar < len(vals) {
			v = vals[bar]
		}
		h := int(scale * v)
		if h > r.geo.GridHeight {
			h = r.geo.GridHeight
		}
		if h < 0 {
			h = 0
		}
		top := r.geo.Height - h
		old := int(r.buf.BarTop(bar))
		x1 := x + barW - 1
		if x1 >= r.geo.Width {
			x1 = r.geo.Width - 1
		}
		switch {
		case top < old:
			r.sink.FillRect(x, top, x1, old-1, c)
		case top > old:
			r.sink.FillRect(x, old, x1, top-1, r.pal.Background)
		}
		r.buf.setBarTop(bar, uint8(top))
	}
}

// ClearSpectrumBars removes the bar chart area and forgets all bar heights.
func (r *Renderer) ClearSpectrumBars() {
	r.sink.FillRect(0, r.geo.Height-r.geo.GridHeight, r.geo.Width-1, r.geo.Height-1, r.pal.Background)
	r.buf.ResetBars()
}

// DrawSpectrumPage clears the display and draws the full spectrum of the window as
// an area chart with frequency axis and the dominant frequency.
func (r *Renderer) DrawSpectrumPage(w *Window) {
	r.sink.ClearDisplay(r.pal.Background)
	vals := r.spectrumWindow(w)
	if vals == nil {
		return
	}

	g := r.geo
	x0 := fftChartLabelW * g.TextWidth
	y0 := g.Height - 2*g.TextHeight
	chartH := fftChartRows * fftChartGridY
	if chartH > y0 {
		chartH = y0
	}
	pxPerBin := 2
	if x0+len(vals)*pxPerBin > g.Width {
		pxPerBin = 1
	}
	chartW := len(vals) * pxPerBin
	if x0+chartW > g.Width {
		chartW = g.Width - x0
	}

	// Grid.
	for gx := fftChartGridX; gx < chartW; gx += fftChartGridX {
		r.sink.DrawLineRel(x0+gx, y0-chartH, 0, chartH, r.pal.FFTGrid)
	}
	for gy := fftChartGridY; gy <= chartH; gy += fftChartGridY {
		r.sink.DrawLineRel(x0, y0-gy, chartW, 0, r.pal.FFTGrid)
	}

	// Area.
	var scale float32
	if r.spec.MaxValue > 0 {
		scale = float32(chartH) / r.spec.MaxValue
	}
	for k, v := range vals {
		h := int(scale * v)
		if h > chartH {
			h = chartH
		}
		if h <= 0 {
			continue
		}
		for p := 0; p < pxPerBin; p++ {
			x := x0 + k*pxPerBin + p
			if x >= x0+chartW {
				break
			}
			r.sink.DrawLineRel(x, y0-h, 0, h, r.pal.FFT)
		}
	}

	// Axes, two pixels wide, outside the chart area.
	r.sink.FillRect(x0-2, y0-chartH, x0-1, y0+1, r.pal.FFTAxes)
	r.sink.FillRect(x0-2, y0, x0+chartW-1, y0+1, r.pal.FFTAxes)

	// X labels at every vertical grid line; unit follows the first labeled bin.
	binsPerGrid := fftChartGridX / pxPerBin
	unit, div := "Hz", float32(1)
	if r.BinHertz(binsPerGrid) >= 1000 {
		unit, div = "kHz", 1000
	}
	labelY := y0 + 2 + g.TextAscend
	for gx := 0; gx < chartW; gx += fftChartGridX {
		f := r.BinHertz(gx/pxPerBin) / div
		s := strconv.Itoa(int(f + 0.5))
		lx := x0 + gx - len(s)*g.TextWidth/2
		if lx < 0 {
			lx = 0
		}
		r.sink.DrawText(lx, labelY, s, g.TextSize, r.pal.FFTAxes, r.pal.Background)
	}
	r.sink.DrawText(g.Width-len(unit)*g.TextWidth-1, labelY+g.TextHeight, unit, g.TextSize, r.pal.FFTAxes, r.pal.Background)

	// Y labels, normalized to the maximum bin.
	for row := 0; row*fftChartGridY <= chartH; row++ {
		s := strconv.FormatFloat(float64(row)*0.2, 'f', 1, 32)
		y := y0 - row*fftChartGridY + g.TextAscend/2
		r.sink.DrawText(x0-2-len(s)*g.TextWidth-1, y, s, g.TextSize, r.pal.FFTAxes, r.pal.Background)
	}

	text, halfText := r.dominantFrequencyText()
	tx := g.Width * 7 / 16
	r.sink.DrawText(tx, 4*g.TextHeight+2*g.TextAscend, text, 2*g.TextSize, r.pal.FFTMarker, r.pal.Background)
	r.sink.DrawText(tx, 6*g.TextHeight+g.TextAscend, halfText, g.TextSize, r.pal.FFTMarker, r.pal.Background)
}

// dominantFrequencyText formats the frequency of the maximum bin and its half bin
// width, in kHz from 10 kHz on.
func (r *Renderer) dominantFrequencyText() (freq, half string) {
	f := r.BinHertz(r.spec.MaxIndex)
	h := r.BinHertz(1) / 2
	unit := "Hz"
	if f >= 10000 {
		f /= 1000
		h /= 1000
		unit = "kHz"
	}
	freq = strconv.FormatFloat(float64(f), 'f', 2, 32) + unit
	half = "[+/-" + strconv.FormatFloat(float64(h), 'f', 2, 32) + unit + "]"
	return freq, half
}
