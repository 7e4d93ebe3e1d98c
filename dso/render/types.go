package render

import (
	"errors"
	"fmt"
	"image/color"
)

const (
	// Invisible marks a column that has nothing drawn on it.
	Invisible uint8 = 0xFF

	// RawNoData is the acquisition marker for "no sample here", e.g. the part of the
	// pre-trigger area that has not been filled yet.
	RawNoData uint16 = 0xFFFF

	// ScaleShift is the fixed-point shift of Range.Factor.
	ScaleShift = 18
)

var (
	ErrInvalidGeometry = errors.New("render: invalid geometry")
	ErrNoRanges        = errors.New("render: empty range table")
	ErrInvalidRange    = errors.New("render: invalid range")
	ErrNoTimebases     = errors.New("render: empty timebase table")
	ErrNilSink         = errors.New("render: nil sink")
)

// Geometry describes the drawing surface and the fixed grid layout on it.
type Geometry struct {
	Width   int
	Height  int
	ZeroRow int // row of raw offset; rows grow downward from the top at 0

	GridWidth         int // pitch of the vertical timing lines
	GridHeight        int // pitch of the horizontal voltage lines
	TriggerHighOffset int // distance of the trigger state overlay above the trigger line

	FFTSize       int
	FFTBarWidth   int
	SamplesPerDiv int

	TextSize         int
	TextWidth        int
	TextHeight       int
	TextAscend       int
	LabelRightMargin int
}

// DefaultGeometry is the 320x240 layout of the touch DSO.
func DefaultGeometry() Geometry {
	return Geometry{
		Width:             320,
		Height:            240,
		ZeroRow:           239,
		GridWidth:         31,
		GridHeight:        30,
		TriggerHighOffset: 7,
		FFTSize:           256,
		FFTBarWidth:       3,
		SamplesPerDiv:     32,
		TextSize:          11,
		TextWidth:         7,
		TextHeight:        12,
		TextAscend:        9,
		LabelRightMargin:  2,
	}
}

// Validate reports whether g can be rendered.
func (g Geometry) Validate() error {
	switch {
	case g.Width <= 0 || g.Height <= 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalidGeometry, g.Width, g.Height)
	case g.ZeroRow <= 0 || g.ZeroRow >= g.Height:
		return fmt.Errorf("%w: zero row %d outside 1..%d", ErrInvalidGeometry, g.ZeroRow, g.Height-1)
	case g.ZeroRow >= int(Invisible):
		return fmt.Errorf("%w: zero row %d collides with the invisible marker", ErrInvalidGeometry, g.ZeroRow)
	case g.Height > int(Invisible):
		return fmt.Errorf("%w: height %d does not fit a row byte", ErrInvalidGeometry, g.Height)
	case g.GridWidth <= 0 || g.GridHeight <= 0:
		return fmt.Errorf("%w: grid %dx%d", ErrInvalidGeometry, g.GridWidth, g.GridHeight)
	case g.FFTSize < 4 || g.FFTSize&(g.FFTSize-1) != 0:
		return fmt.Errorf("%w: fft size %d is not a power of two", ErrInvalidGeometry, g.FFTSize)
	case g.FFTBarWidth <= 0:
		return fmt.Errorf("%w: fft bar width %d", ErrInvalidGeometry, g.FFTBarWidth)
	case g.SamplesPerDiv <= 0:
		return fmt.Errorf("%w: samples per div %d", ErrInvalidGeometry, g.SamplesPerDiv)
	}
	return nil
}

// Bars returns the number of spectrum bars across the width.
func (g Geometry) Bars() int {
	return (g.Width + g.FFTBarWidth - 1) / g.FFTBarWidth
}

// Palette holds every color the renderer draws with.
type Palette struct {
	Background     color.RGBA
	Grid           color.RGBA
	Data           color.RGBA
	DataHold       color.RGBA
	DataHistory    color.RGBA
	Clipping       color.RGBA
	TriggerLine    color.RGBA
	TriggerState   color.RGBA
	MinMaxLine     color.RGBA
	Label          color.RGBA
	LabelNegative  color.RGBA
	FFT            color.RGBA
	FFTAxes        color.RGBA
	FFTGrid        color.RGBA
	FFTMarker      color.RGBA
	InfoText       color.RGBA
	InfoBackground color.RGBA
}

func rgb(r, g, b uint8) color.RGBA { return color.RGBA{R: r, G: g, B: b, A: 0xFF} }

// DefaultPalette returns the stock instrument colors.
func DefaultPalette() Palette {
	return Palette{
		Background:     rgb(0xFF, 0xFF, 0xFF),
		Grid:           rgb(0x00, 0x98, 0x00),
		Data:           rgb(0x00, 0x00, 0xFF),
		DataHold:       rgb(0xFF, 0x00, 0x00),
		DataHistory:    rgb(0x20, 0xFF, 0x20),
		Clipping:       rgb(0xFF, 0x00, 0x00),
		TriggerLine:    rgb(0xFF, 0x00, 0xFF),
		TriggerState:   rgb(0x00, 0x00, 0x00),
		MinMaxLine:     rgb(0x00, 0xFF, 0x00),
		Label:          rgb(0x00, 0x00, 0xFF),
		LabelNegative:  rgb(0xFF, 0x00, 0x00),
		FFT:            rgb(0x00, 0x00, 0xFF),
		FFTAxes:        rgb(0xFF, 0x00, 0x00),
		FFTGrid:        rgb(0xC0, 0xC0, 0xC0),
		FFTMarker:      rgb(0xFF, 0x00, 0x00),
		InfoText:       rgb(0x00, 0x00, 0x00),
		InfoBackground: rgb(0xC8, 0xC8, 0x00),
	}
}

// Range is one entry of the vertical range table.
type Range struct {
	Factor      int32   // raw → rows, shifted left by ScaleShift
	VoltsPerDiv float32 // label step per horizontal grid line
	Precision   int     // digits after the decimal point in labels
}

// Timebase is one entry of the horizontal timebase table.
type Timebase struct {
	DivMicros float32 // exact duration of one grid division in microseconds
}

type TriggerMode uint8

const (
	TriggerAuto TriggerMode = iota
	TriggerManual
	TriggerOff
)

func (m TriggerMode) String() string {
	switch m {
	case TriggerAuto:
		return "auto"
	case TriggerManual:
		return "manual"
	case TriggerOff:
		return "off"
	default:
		return "?"
	}
}

type TriggerStatus uint8

const (
	TriggerWaitSlope TriggerStatus = iota
	TriggerWaitLevel
	TriggerFound
)

func (s TriggerStatus) String() string {
	switch s {
	case TriggerWaitSlope:
		return "slope"
	case TriggerWaitLevel:
		return "level"
	default:
		return "nothing"
	}
}

// Measurement is the acquisition state the renderer reads. The renderer never writes it.
type Measurement struct {
	ACMode    bool
	ACZero    int
	RawOffset int

	RangeIndex         int
	RangeIndexForPrint int
	OffsetGridCount    int

	TriggerMode        TriggerMode
	TriggerSlopeRising bool
	TriggerStatus      TriggerStatus
	RawTriggerLevel    int

	Running         bool
	SingleShot      bool
	EffectiveMinMax bool
	TimebaseIndex   int

	RawToVolt float32

	RawValueMin           int
	RawValueMax           int
	RawValueAverage       int
	RawValueBeforeTrigger int
	FrequencyHertz        int
	PeriodMicros          float32

	ChannelName string
}

type InfoMode uint8

const (
	InfoNone InfoMode = iota
	InfoShort
	InfoLong
)

type Page uint8

const (
	PageChart Page = iota
	PageFFT
)

// Control is the per-session display state owned by the renderer.
type Control struct {
	XScale              int
	PixelMode           bool
	ShowTriggerInfoLine bool
	ShowFFT             bool
	EraseColor          color.RGBA
	InfoMode            InfoMode
	Page                Page

	LastRangeIndex      int
	LastOffsetGridCount int
	TriggerLevelRow     uint8

	NextDraw  int // sample index of the next incremental column
	NextDrawX int // column of the next incremental draw, always in [0, Width)

	MaxFFTValue  float32
	FreqAtMaxBin float32
}
