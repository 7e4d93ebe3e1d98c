package render

import "fmt"

// Renderer is the render context: geometry, sink, display control, column memory
// and spectrum state. One Renderer exists per display for the process lifetime.
type Renderer struct {
	geo  Geometry
	sink Sink
	pal  Palette

	meas      *Measurement
	ranges    []Range
	timebases []Timebase

	ctl  Control
	buf  *Buffers
	spec *Spectrum
}

func New(geo Geometry, sink Sink, meas *Measurement, ranges []Range, timebases []Timebase, pal Palette) (*Renderer, error) {
	if err := geo.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, ErrNilSink
	}
	if len(ranges) == 0 {
		return nil, ErrNoRanges
	}
	for i, rng := range ranges {
		if rng.Factor < 0 {
			return nil, fmt.Errorf("%w: range %d factor %d", ErrInvalidRange, i, rng.Factor)
		}
	}
	if len(timebases) == 0 {
		return nil, ErrNoTimebases
	}
	if meas == nil {
		meas = &Measurement{}
	}
	spec, err := NewSpectrum(geo.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	r := &Renderer{
		geo:       geo,
		sink:      sink,
		pal:       pal,
		meas:      meas,
		ranges:    ranges,
		timebases: timebases,
		buf:       NewBuffers(geo.Width, geo.Height, geo.Bars()),
		spec:      spec,
	}
	r.ctl = Control{
		EraseColor:          pal.Background,
		InfoMode:            InfoLong,
		LastRangeIndex:      -1,
		LastOffsetGridCount: -1,
	}
	return r, nil
}

func (r *Renderer) Geometry() Geometry        { return r.geo }
func (r *Renderer) Palette() Palette          { return r.pal }
func (r *Renderer) Control() *Control         { return &r.ctl }
func (r *Renderer) Buffers() *Buffers         { return r.buf }
func (r *Renderer) Spectrum() *Spectrum       { return r.spec }
func (r *Renderer) Measurement() *Measurement { return r.meas }

// Reset forgets the screen contents after a mode change. The caller clears or
// redraws the surface itself.
func (r *Renderer) Reset() {
	r.buf.Reset()
	r.ctl.NextDraw = 0
	r.ctl.NextDrawX = 0
	r.ctl.LastRangeIndex = -1
	r.ctl.LastOffsetGridCount = -1
}

// Mapper returns the raw → row conversion for the current range.
func (r *Renderer) Mapper() Mapper {
	return Mapper{
		ZeroRow: r.geo.ZeroRow,
		Factor:  r.rangeAt(r.meas.RangeIndex).Factor,
		Offset:  r.meas.RawOffset,
		ACMode:  r.meas.ACMode,
		ACZero:  r.meas.ACZero,
	}
}

func (r *Renderer) rangeAt(i int) Range {
	if i < 0 {
		i = 0
	}
	if i >= len(r.ranges) {
		i = len(r.ranges) - 1
	}
	return r.ranges[i]
}

func (r *Renderer) timebase() Timebase {
	i := r.meas.TimebaseIndex
	if i < 0 {
		i = 0
	}
	if i >= len(r.timebases) {
		i = len(r.timebases) - 1
	}
	return r.timebases[i]
}

// SetXScale changes the resampling ratio. The screen memory is kept so the next
// bulk pass can erase the old trace.
func (r *Renderer) SetXScale(ratio int) {
	r.ctl.XScale = ratio
}

// TriggerRow maps the current trigger level.
func (r *Renderer) TriggerRow() uint8 {
	return r.Mapper().Row(clampRaw(r.meas.RawTriggerLevel))
}

func (r *Renderer) isGridColumn(x int) bool {
	return x%r.geo.GridWidth == r.geo.GridWidth-1
}

func clampRaw(v int) uint16 {
	if v < 0 {
		return 0
	}
	if v >= int(RawNoData) {
		return RawNoData - 1
	}
	return uint16(v)
}
