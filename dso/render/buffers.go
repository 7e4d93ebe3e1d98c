package render

// Track selects one of the remembered series.
type Track uint8

const (
	TrackMax Track = iota
	TrackMin
	TrackTrigger
	numTracks
)

func (t Track) String() string {
	switch t {
	case TrackMax:
		return "max"
	case TrackMin:
		return "min"
	case TrackTrigger:
		return "trigger"
	default:
		return "?"
	}
}

// Buffers remembers the last drawn row of every column, per track, and the last
// drawn top row of every spectrum bar. It is allocated once and never resized.
type Buffers struct {
	width  int
	height int
	tracks [numTracks][]uint8
	bars   []uint8
}

func NewBuffers(width, height, bars int) *Buffers {
	b := &Buffers{width: width, height: height}
	for i := range b.tracks {
		b.tracks[i] = make([]uint8, width)
	}
	b.bars = make([]uint8, bars)
	b.Reset()
	return b
}

func (b *Buffers) Width() int { return b.width }

// Read returns the stored row, or Invisible for a column outside the display.
func (b *Buffers) Read(t Track, x int) uint8 {
	if t >= numTracks || x < 0 || x >= b.width {
		return Invisible
	}
	return b.tracks[t][x]
}

func (b *Buffers) Write(t Track, x int, row uint8) {
	if t >= numTracks || x < 0 || x >= b.width {
		return
	}
	b.tracks[t][x] = row
}

// Track exposes the whole series for batched chart drawing. Callers must not
// keep it across render passes.
func (b *Buffers) Track(t Track) []uint8 {
	if t >= numTracks {
		return nil
	}
	return b.tracks[t]
}

func (b *Buffers) ResetTrack(t Track) {
	if t >= numTracks {
		return
	}
	fill(b.tracks[t], Invisible)
}

// Reset forgets everything drawn: all columns invisible, all bars empty.
func (b *Buffers) Reset() {
	for t := range b.tracks {
		fill(b.tracks[t], Invisible)
	}
	b.ResetBars()
}

func (b *Buffers) ResetBars() {
	fill(b.bars, uint8(b.height))
}

func (b *Buffers) Bars() int { return len(b.bars) }

func (b *Buffers) BarTop(i int) uint8 {
	if i < 0 || i >= len(b.bars) {
		return uint8(b.height)
	}
	return b.bars[i]
}

func (b *Buffers) setBarTop(i int, y uint8) {
	if i < 0 || i >= len(b.bars) {
		return
	}
	b.bars[i] = y
}

func fill(s []uint8, v uint8) {
	for i := range s {
		s[i] = v
	}
}
