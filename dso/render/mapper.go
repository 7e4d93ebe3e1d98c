package render

// Mapper converts raw samples to display rows for one range setting.
//
// It is a value: building one per pass keeps Row free of hidden state.
type Mapper struct {
	ZeroRow int
	Factor  int32
	Offset  int
	ACMode  bool
	ACZero  int
}

// Row maps one raw sample to a row in [0, ZeroRow] or Invisible.
func (m Mapper) Row(raw uint16) uint8 {
	if raw == RawNoData {
		return Invisible
	}
	v := int64(raw)
	if m.ACMode {
		v -= int64(m.ACZero)
	}
	v -= int64(m.Offset)
	if v < 0 {
		return uint8(m.ZeroRow)
	}
	v = (v * int64(m.Factor)) >> ScaleShift
	if v > int64(m.ZeroRow) {
		return 0
	}
	return uint8(int64(m.ZeroRow) - v)
}

// RowAverage averages the raw samples and maps the result once. No-data samples
// do not take part; if all are no-data the column is invisible.
func (m Mapper) RowAverage(raws []uint16) uint8 {
	sum, n := 0, 0
	for _, r := range raws {
		if r == RawNoData {
			continue
		}
		sum += int(r)
		n++
	}
	if n == 0 {
		return Invisible
	}
	return m.Row(uint16(sum / n))
}

// Raw returns the raw value drawn at row. It inverts Row for unclipped rows.
func (m Mapper) Raw(row uint8) int {
	if m.Factor == 0 {
		return m.Offset
	}
	v := int64(m.ZeroRow - int(row))
	v = (v << ScaleShift) / int64(m.Factor)
	v += int64(m.Offset)
	if m.ACMode {
		v += int64(m.ACZero)
	}
	return int(v)
}

// RawOffsetFromGridCount returns the raw span of n grid divisions.
func (m Mapper) RawOffsetFromGridCount(n, gridHeight int) int {
	if m.Factor == 0 {
		return 0
	}
	return int((int64(n*gridHeight) << ScaleShift) / int64(m.Factor))
}

// Volts converts a raw reading to volts with the AC zero removed.
func Volts(meas *Measurement, raw int) float32 {
	if meas.ACMode {
		raw -= meas.ACZero
	}
	return meas.RawToVolt * float32(raw)
}
