package render

import "strconv"

// Resampler maps raw sample progression onto column progression.
//
// ratio 0 is 1:1. ratio < -1 averages |ratio| samples per column. ratio -1
// compresses 3:2 and ratio 1 expands 2:3. ratio > 1 repeats every sample for
// ratio columns.
type Resampler struct {
	ratio   int
	counter int
	hold    uint8
	held    bool
}

func NewResampler(ratio int) *Resampler {
	rs := &Resampler{ratio: ratio}
	rs.Reset()
	return rs
}

func (rs *Resampler) Ratio() int { return rs.ratio }

// Reset rewinds the column phase so the next call starts a fresh pass.
func (rs *Resampler) Reset() {
	rs.counter = 0
	if rs.ratio == -1 || rs.ratio == 1 {
		rs.counter = 1
	}
	rs.held = false
}

// Next produces the row for the next column, reading src from pos, and returns the
// position of the first sample not consumed. Reads never go past len(src); a column
// without samples left is Invisible.
func (rs *Resampler) Next(src []uint16, pos int, m Mapper) (row uint8, next int) {
	if pos < 0 || pos >= len(src) {
		return Invisible, pos
	}
	switch {
	case rs.ratio == 0:
		return m.Row(src[pos]), pos + 1

	case rs.ratio < -1:
		end := pos - rs.ratio
		if end > len(src) {
			end = len(src)
		}
		return m.RowAverage(src[pos:end]), end

	case rs.ratio == -1:
		// One plain column, then one column averaging the next two samples.
		rs.counter--
		if rs.counter >= 0 {
			return m.Row(src[pos]), pos + 1
		}
		rs.counter = 1
		end := pos + 2
		if end > len(src) {
			end = len(src)
		}
		return m.RowAverage(src[pos:end]), end

	case rs.ratio == 1:
		// Every second sample is shown on two columns.
		rs.counter--
		if rs.counter < 0 {
			rs.counter = 2
			return m.Row(src[pos]), pos
		}
		return m.Row(src[pos]), pos + 1

	default:
		if !rs.held {
			rs.hold = m.Row(src[pos])
			rs.held = true
			rs.counter = rs.ratio
		}
		row = rs.hold
		rs.counter--
		if rs.counter == 0 {
			rs.held = false
			return row, pos + 1
		}
		return row, pos
	}
}

// Consumes returns how many samples a full pass of width columns reads at ratio.
func Consumes(ratio, width int) int {
	switch {
	case ratio == 0:
		return width
	case ratio < -1:
		return width * -ratio
	case ratio == -1:
		return width * 3 / 2
	case ratio == 1:
		return width * 2 / 3
	default:
		return width / ratio
	}
}

// ScaleFactorString formats ratio as a compression/expansion label.
func ScaleFactorString(ratio int) string {
	switch {
	case ratio == 0:
		return "1:1"
	case ratio == -1:
		return "3:2"
	case ratio == 1:
		return "2:3"
	case ratio < -1:
		return strconv.Itoa(-ratio) + ":1"
	default:
		return "1:" + strconv.Itoa(ratio)
	}
}
