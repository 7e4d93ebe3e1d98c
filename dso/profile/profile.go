// Package profile loads the scope profile: display geometry, range and timebase
// tables, the simulated input signal, initial scope settings and colors.
package profile

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"touchdso/dso/render"

	"github.com/pelletier/go-toml/v2"
)

var (
	ErrInvalidDisplay = errors.New("profile: invalid display")
	ErrNoRanges       = errors.New("profile: no ranges")
	ErrNoTimebases    = errors.New("profile: no timebases")
	ErrBadColor       = errors.New("profile: bad color")
	ErrBadScope       = errors.New("profile: bad scope setting")
)

type Profile struct {
	Display   Display    `toml:"display"`
	Ranges    []Range    `toml:"range"`
	Timebases []Timebase `toml:"timebase"`
	Signal    Signal     `toml:"signal"`
	Scope     Scope      `toml:"scope"`
	Colors    Colors     `toml:"colors"`
}

type Display struct {
	Width             int `toml:"width"`
	Height            int `toml:"height"`
	ZeroRow           int `toml:"zero_row"`
	GridWidth         int `toml:"grid_width"`
	GridHeight        int `toml:"grid_height"`
	TriggerHighOffset int `toml:"trigger_high_offset"`
	FFTSize           int `toml:"fft_size"`
	FFTBarWidth       int `toml:"fft_bar_width"`
	SamplesPerDiv     int `toml:"samples_per_div"`
	TextSize          int `toml:"text_size"`
	TextWidth         int `toml:"text_width"`
	TextHeight        int `toml:"text_height"`
	TextAscend        int `toml:"text_ascend"`
	LabelRightMargin  int `toml:"label_right_margin"`
}

// Range is one vertical range. Factor overrides the value derived from
// VoltsPerDiv when non-zero.
type Range struct {
	VoltsPerDiv float64 `toml:"volts_per_div"`
	Precision   int     `toml:"precision"`
	Factor      int32   `toml:"factor,omitempty"`
}

type Timebase struct {
	DivMicros float64 `toml:"div_micros"`
}

type Signal struct {
	Waveform   string  `toml:"waveform"`
	Frequency  float64 `toml:"frequency"`
	Amplitude  float64 `toml:"amplitude"`
	Offset     float64 `toml:"offset"`
	Noise      float64 `toml:"noise"`
	Seed       uint64  `toml:"seed"`
	RawPerVolt float64 `toml:"raw_per_volt"`
	AC         bool    `toml:"ac"`
}

type Scope struct {
	Channel        string  `toml:"channel"`
	Range          int     `toml:"range"`
	Timebase       int     `toml:"timebase"`
	OffsetGrids    int     `toml:"offset_grids"`
	XScale         int     `toml:"x_scale"`
	PixelMode      bool    `toml:"pixel_mode"`
	MinMax         bool    `toml:"min_max"`
	FFT            bool    `toml:"fft"`
	TriggerLine    bool    `toml:"trigger_info_line"`
	TriggerLevel   float64 `toml:"trigger_level"` // volts
	TriggerMode    string  `toml:"trigger_mode"`  // auto, manual, off
	Slope          string  `toml:"slope"`         // rising, falling
	Info           string  `toml:"info"`          // none, short, long
	SingleShot     bool    `toml:"single_shot"`
	History        bool    `toml:"history"`
	BufferLen      int     `toml:"buffer_len"`
	PreTrigger     int     `toml:"pre_trigger"`
	SamplesPerTick int     `toml:"samples_per_tick"` // per step cap when paced by the host clock
}

// Colors are "#rrggbb" strings.
type Colors struct {
	Background     string `toml:"background"`
	Grid           string `toml:"grid"`
	Data           string `toml:"data"`
	DataHold       string `toml:"data_hold"`
	DataHistory    string `toml:"data_history"`
	Clipping       string `toml:"clipping"`
	TriggerLine    string `toml:"trigger_line"`
	TriggerState   string `toml:"trigger_state"`
	MinMaxLine     string `toml:"min_max_line"`
	Label          string `toml:"label"`
	LabelNegative  string `toml:"label_negative"`
	FFT            string `toml:"fft"`
	FFTAxes        string `toml:"fft_axes"`
	FFTGrid        string `toml:"fft_grid"`
	FFTMarker      string `toml:"fft_marker"`
	InfoText       string `toml:"info_text"`
	InfoBackground string `toml:"info_background"`
}

// Default returns the built-in 320x240 profile.
func Default() *Profile {
	g := render.DefaultGeometry()
	return &Profile{
		Display: Display{
			Width:             g.Width,
			Height:            g.Height,
			ZeroRow:           g.ZeroRow,
			GridWidth:         g.GridWidth,
			GridHeight:        g.GridHeight,
			TriggerHighOffset: g.TriggerHighOffset,
			FFTSize:           g.FFTSize,
			FFTBarWidth:       g.FFTBarWidth,
			SamplesPerDiv:     g.SamplesPerDiv,
			TextSize:          g.TextSize,
			TextWidth:         g.TextWidth,
			TextHeight:        g.TextHeight,
			TextAscend:        g.TextAscend,
			LabelRightMargin:  g.LabelRightMargin,
		},
		Ranges: []Range{
			{VoltsPerDiv: 0.01, Precision: 2},
			{VoltsPerDiv: 0.02, Precision: 2},
			{VoltsPerDiv: 0.05, Precision: 2},
			{VoltsPerDiv: 0.1, Precision: 1},
			{VoltsPerDiv: 0.2, Precision: 1},
			{VoltsPerDiv: 0.5, Precision: 1},
			{VoltsPerDiv: 1, Precision: 0},
			{VoltsPerDiv: 2, Precision: 0},
			{VoltsPerDiv: 5, Precision: 0},
		},
		Timebases: []Timebase{
			{DivMicros: 10}, {DivMicros: 20}, {DivMicros: 50},
			{DivMicros: 100}, {DivMicros: 200}, {DivMicros: 500},
			{DivMicros: 1000}, {DivMicros: 2000}, {DivMicros: 5000},
			{DivMicros: 10000}, {DivMicros: 20000}, {DivMicros: 50000},
		},
		Signal: Signal{
			Waveform:   "sine",
			Frequency:  1000,
			Amplitude:  1,
			Offset:     1.5,
			Noise:      0.01,
			Seed:       1,
			RawPerVolt: 4095 / 3.3,
		},
		Scope: Scope{
			Channel:        "CH1",
			Range:          5,
			Timebase:       5,
			TriggerLevel:   1.5,
			TriggerMode:    "auto",
			Slope:          "rising",
			Info:           "long",
			SamplesPerTick: 64,
		},
		Colors: Colors{
			Background:     "#ffffff",
			Grid:           "#009800",
			Data:           "#0000ff",
			DataHold:       "#ff0000",
			DataHistory:    "#20ff20",
			Clipping:       "#ff0000",
			TriggerLine:    "#ff00ff",
			TriggerState:   "#000000",
			MinMaxLine:     "#00ff00",
			Label:          "#0000ff",
			LabelNegative:  "#ff0000",
			FFT:            "#0000ff",
			FFTAxes:        "#ff0000",
			FFTGrid:        "#c0c0c0",
			FFTMarker:      "#ff0000",
			InfoText:       "#000000",
			InfoBackground: "#c8c800",
		},
	}
}

// Load reads a TOML profile from path on top of the defaults.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a TOML profile on top of the defaults and validates it. A range or
// timebase table in data replaces the default table as a whole.
func Parse(data []byte) (*Profile, error) {
	p := Default()
	ranges, timebases := p.Ranges, p.Timebases
	p.Ranges, p.Timebases = nil, nil

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(p); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("profile: line %d column %d: %w", row, col, err)
		}
		return nil, fmt.Errorf("profile: %w", err)
	}
	if len(p.Ranges) == 0 {
		p.Ranges = ranges
	}
	if len(p.Timebases) == 0 {
		p.Timebases = timebases
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Write encodes p as TOML.
func (p *Profile) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(p)
}

// Validate reports the first problem of p.
func (p *Profile) Validate() error {
	if err := p.Geometry().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDisplay, err)
	}
	if len(p.Ranges) == 0 {
		return ErrNoRanges
	}
	for i, r := range p.Ranges {
		if r.Factor < 0 || (r.Factor == 0 && r.VoltsPerDiv <= 0) {
			return fmt.Errorf("%w: range %d has no scale", ErrNoRanges, i)
		}
	}
	if len(p.Timebases) == 0 {
		return ErrNoTimebases
	}
	for i, tb := range p.Timebases {
		if tb.DivMicros <= 0 {
			return fmt.Errorf("%w: timebase %d is %v us", ErrNoTimebases, i, tb.DivMicros)
		}
	}
	if _, err := p.Palette(); err != nil {
		return err
	}
	s := p.Scope
	switch {
	case s.Range < 0 || s.Range >= len(p.Ranges):
		return fmt.Errorf("%w: range %d of %d", ErrBadScope, s.Range, len(p.Ranges))
	case s.Timebase < 0 || s.Timebase >= len(p.Timebases):
		return fmt.Errorf("%w: timebase %d of %d", ErrBadScope, s.Timebase, len(p.Timebases))
	case s.XScale < -16 || s.XScale > 16:
		return fmt.Errorf("%w: x scale %d", ErrBadScope, s.XScale)
	case p.Signal.RawPerVolt <= 0:
		return fmt.Errorf("%w: raw per volt %v", ErrBadScope, p.Signal.RawPerVolt)
	}
	if _, err := p.TriggerMode(); err != nil {
		return err
	}
	if _, err := p.SlopeRising(); err != nil {
		return err
	}
	if _, err := p.InfoMode(); err != nil {
		return err
	}
	return nil
}

func (p *Profile) Geometry() render.Geometry {
	d := p.Display
	return render.Geometry{
		Width:             d.Width,
		Height:            d.Height,
		ZeroRow:           d.ZeroRow,
		GridWidth:         d.GridWidth,
		GridHeight:        d.GridHeight,
		TriggerHighOffset: d.TriggerHighOffset,
		FFTSize:           d.FFTSize,
		FFTBarWidth:       d.FFTBarWidth,
		SamplesPerDiv:     d.SamplesPerDiv,
		TextSize:          d.TextSize,
		TextWidth:         d.TextWidth,
		TextHeight:        d.TextHeight,
		TextAscend:        d.TextAscend,
		LabelRightMargin:  d.LabelRightMargin,
	}
}

// RenderRanges converts the range table. A derived factor maps one division of
// VoltsPerDiv onto GridHeight rows.
func (p *Profile) RenderRanges() []render.Range {
	out := make([]render.Range, len(p.Ranges))
	for i, r := range p.Ranges {
		f := r.Factor
		if f == 0 {
			rowsPerRaw := float64(p.Display.GridHeight) / (r.VoltsPerDiv * p.Signal.RawPerVolt)
			f = int32(math.Round(rowsPerRaw * (1 << render.ScaleShift)))
		}
		out[i] = render.Range{Factor: f, VoltsPerDiv: float32(r.VoltsPerDiv), Precision: r.Precision}
	}
	return out
}

func (p *Profile) RenderTimebases() []render.Timebase {
	out := make([]render.Timebase, len(p.Timebases))
	for i, tb := range p.Timebases {
		out[i] = render.Timebase{DivMicros: float32(tb.DivMicros)}
	}
	return out
}

// SampleRate returns the samples per second of timebase i.
func (p *Profile) SampleRate(i int) float64 {
	if i < 0 || i >= len(p.Timebases) {
		return 0
	}
	return float64(p.Display.SamplesPerDiv) * 1e6 / p.Timebases[i].DivMicros
}

// RawTriggerLevel converts the configured trigger level to a raw reading.
func (p *Profile) RawTriggerLevel() int {
	v := p.Scope.TriggerLevel * p.Signal.RawPerVolt
	if p.Signal.AC {
		v += 2048
	}
	return int(math.Round(v))
}

func (p *Profile) TriggerMode() (render.TriggerMode, error) {
	switch strings.ToLower(p.Scope.TriggerMode) {
	case "auto", "":
		return render.TriggerAuto, nil
	case "manual":
		return render.TriggerManual, nil
	case "off":
		return render.TriggerOff, nil
	}
	return render.TriggerAuto, fmt.Errorf("%w: trigger mode %q", ErrBadScope, p.Scope.TriggerMode)
}

func (p *Profile) SlopeRising() (bool, error) {
	switch strings.ToLower(p.Scope.Slope) {
	case "rising", "":
		return true, nil
	case "falling":
		return false, nil
	}
	return true, fmt.Errorf("%w: slope %q", ErrBadScope, p.Scope.Slope)
}

func (p *Profile) InfoMode() (render.InfoMode, error) {
	switch strings.ToLower(p.Scope.Info) {
	case "long", "":
		return render.InfoLong, nil
	case "short":
		return render.InfoShort, nil
	case "none":
		return render.InfoNone, nil
	}
	return render.InfoLong, fmt.Errorf("%w: info mode %q", ErrBadScope, p.Scope.Info)
}

// Palette parses the color table.
func (p *Profile) Palette() (render.Palette, error) {
	var pal render.Palette
	c := p.Colors
	for _, e := range []struct {
		name string
		s    string
		dst  *color.RGBA
	}{
		{"background", c.Background, &pal.Background},
		{"grid", c.Grid, &pal.Grid},
		{"data", c.Data, &pal.Data},
		{"data_hold", c.DataHold, &pal.DataHold},
		{"data_history", c.DataHistory, &pal.DataHistory},
		{"clipping", c.Clipping, &pal.Clipping},
		{"trigger_line", c.TriggerLine, &pal.TriggerLine},
		{"trigger_state", c.TriggerState, &pal.TriggerState},
		{"min_max_line", c.MinMaxLine, &pal.MinMaxLine},
		{"label", c.Label, &pal.Label},
		{"label_negative", c.LabelNegative, &pal.LabelNegative},
		{"fft", c.FFT, &pal.FFT},
		{"fft_axes", c.FFTAxes, &pal.FFTAxes},
		{"fft_grid", c.FFTGrid, &pal.FFTGrid},
		{"fft_marker", c.FFTMarker, &pal.FFTMarker},
		{"info_text", c.InfoText, &pal.InfoText},
		{"info_background", c.InfoBackground, &pal.InfoBackground},
	} {
		v, err := ParseColor(e.s)
		if err != nil {
			return pal, fmt.Errorf("%w: %s: %v", ErrBadColor, e.name, err)
		}
		*e.dst = v
	}
	return pal, nil
}

// ParseColor parses "#rrggbb" or "rrggbb".
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("%q is not #rrggbb", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%q is not #rrggbb", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, nil
}
