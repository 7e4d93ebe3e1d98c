package acquire

import "touchdso/dso/render"

// Stats summarizes one acquisition in raw units.
type Stats struct {
	Min, Max, Average int
	Valid             int

	// PeriodSamples is the mean distance between rising level crossings, or 0 if
	// fewer than two were found.
	PeriodSamples float64
}

// Analyze computes the statistics over max (and min in min/max mode). No-data
// samples are skipped. Crossings of level are counted with hysteresis so noise
// around the level does not add periods.
func Analyze(max, min []uint16, minMax bool, level, hysteresis int) Stats {
	var s Stats
	sum := 0
	for i, v := range max {
		if v == render.RawNoData {
			continue
		}
		lo := int(v)
		if minMax && i < len(min) && min[i] != render.RawNoData {
			lo = int(min[i])
		}
		if s.Valid == 0 || lo < s.Min {
			s.Min = lo
		}
		if s.Valid == 0 || int(v) > s.Max {
			s.Max = int(v)
		}
		sum += (int(v) + lo) / 2
		s.Valid++
	}
	if s.Valid == 0 {
		return s
	}
	s.Average = sum / s.Valid

	first, last, n := -1, -1, 0
	armed := false
	for i, v := range max {
		if v == render.RawNoData {
			continue
		}
		x := int(v)
		if !armed {
			if x < level-hysteresis {
				armed = true
			}
			continue
		}
		if x >= level {
			armed = false
			if first < 0 {
				first = i
			} else {
				n++
			}
			last = i
		}
	}
	if n > 0 {
		s.PeriodSamples = float64(last-first) / float64(n)
	}
	return s
}
