package render

import (
	"testing"

	"touchdso/dso/recsink"
)

func TestDrawRemainingCursorWraps(t *testing.T) {
	r, _ := newTestRenderer(t, nil)
	width := r.Geometry().Width
	w := &Window{Max: constant(4*width, 30), DisplayEnd: 4*width - 1, FFTReady: -1}
	r.SyncCursor(w, 0)

	wraps, last := 0, 0
	for n := 1; n <= 2*width+5; n++ {
		w.NextIn = n
		drawn, stop := r.DrawRemaining(w, r.Palette().Data)
		if drawn != 1 || stop != StopDone {
			t.Fatalf("sample %d: DrawRemaining() = (%d, %v), want (1, done)", n, drawn, stop)
		}
		x := r.Control().NextDrawX
		if x < 0 || x >= width {
			t.Fatalf("sample %d: NextDrawX = %d, outside [0, %d)", n, x, width)
		}
		if x != n%width {
			t.Fatalf("sample %d: NextDrawX = %d, want %d", n, x, n%width)
		}
		if x < last {
			wraps++
		}
		last = x
	}
	if wraps != 2 {
		t.Fatalf("cursor wrapped %d times, want 2", wraps)
	}
}

func TestDrawRemainingSkipsNoData(t *testing.T) {
	r, rec := newTestRenderer(t, nil)
	w := &Window{Max: constant(64, 30), FFTReady: -1}
	for i := 0; i < len(w.Max); i += 3 {
		w.Max[i] = RawNoData
	}
	w.DisplayEnd, w.NextIn = 63, 64
	r.DrawRemaining(w, r.Palette().Data)

	for _, c := range rec.Calls {
		switch c.Op {
		case recsink.OpPixel, recsink.OpLineFastOneX:
			if c.Y == int(Invisible) || c.Y1 == int(Invisible) {
				t.Fatalf("%v draws on the invisible marker row", c)
			}
		}
	}
	if got := r.Buffers().Read(TrackMax, 3); got != Invisible {
		t.Fatalf("Read(max, 3) = %d, want invisible for a no-data sample", got)
	}
}

func TestDrawRemainingStopsForBulkPass(t *testing.T) {
	r, _ := newTestRenderer(t, nil)
	w := &Window{Max: constant(64, 30), DisplayEnd: 63, NextIn: 10, FFTReady: -1}
	r.SyncCursor(w, 0)

	w.TriggerPhaseJustEnded = true
	if drawn, stop := r.DrawRemaining(w, r.Palette().Data); drawn != 0 || stop != StopTriggerEnded {
		t.Fatalf("DrawRemaining() = (%d, %v), want (0, trigger phase ended)", drawn, stop)
	}
	w.TriggerPhaseJustEnded = false
	w.PreTriggerWrapAround = true
	if drawn, stop := r.DrawRemaining(w, r.Palette().Data); drawn != 0 || stop != StopWrapAround {
		t.Fatalf("DrawRemaining() = (%d, %v), want (0, wraparound)", drawn, stop)
	}
	if got := r.Control().NextDraw; got != 0 {
		t.Fatalf("NextDraw = %d after interrupted passes, want 0", got)
	}
}

func TestDrawRemainingStopsAtDisplayEnd(t *testing.T) {
	r, _ := newTestRenderer(t, nil)
	w := &Window{Max: constant(64, 30), DisplayEnd: 5, NextIn: 10, FFTReady: -1}
	r.SyncCursor(w, 0)
	if drawn, _ := r.DrawRemaining(w, r.Palette().Data); drawn != 6 {
		t.Fatalf("DrawRemaining() drew %d samples, want 6", drawn)
	}
	if got := r.Control().NextDraw; got != 6 {
		t.Fatalf("NextDraw = %d, want 6", got)
	}
}

func TestDrawRemainingLineMode(t *testing.T) {
	r, rec := newTestRenderer(t, nil)
	data := r.Palette().Data
	w := &Window{Max: make([]uint16, 64), DisplayEnd: 63, NextIn: 10, FFTReady: -1}
	for i := range w.Max {
		w.Max[i] = uint16(20 + i) // row 40-i
	}
	r.SyncCursor(w, 0)
	r.DrawRemaining(w, data)

	first := rec.Calls[0]
	if first.Op != recsink.OpPixel || first.X != 0 || first.Y != 40 {
		t.Fatalf("first call = %v, want pixel at column 0 row 40", first)
	}
	found := false
	for _, c := range rec.Filter(recsink.OpLineFastOneX) {
		if c.X == 4 && c.Y == 36 && c.Y1 == 35 && c.Color == data {
			found = true
		}
	}
	if !found {
		t.Fatalf("calls %v lack the segment from column 4 to 5", rec.Calls)
	}
}

func TestDrawRemainingPixelModeErasesOldColumn(t *testing.T) {
	r, rec := newTestRenderer(t, nil)
	r.Control().PixelMode = true
	pal := r.Palette()
	width := r.Geometry().Width

	w := &Window{Max: append(constant(width, 20), constant(width, 30)...), FFTReady: -1}
	w.DisplayEnd = len(w.Max) - 1
	w.NextIn = width
	r.SyncCursor(w, 0)
	r.DrawRemaining(w, pal.Data)
	if got := r.Control().NextDrawX; got != 0 {
		t.Fatalf("NextDrawX = %d after one screen, want 0", got)
	}

	rec.Reset()
	w.NextIn = 2 * width
	r.DrawRemaining(w, pal.Data)

	var col1, col7 []recsink.Call
	for _, c := range rec.Filter(recsink.OpPixel) {
		switch c.X {
		case 1:
			col1 = append(col1, c)
		case 7:
			col7 = append(col7, c)
		}
	}
	if len(col1) != 2 || col1[0].Y != 40 || col1[0].Color != pal.Background || col1[1].Y != 30 || col1[1].Color != pal.Data {
		t.Fatalf("column 1 calls = %v, want erase at 40 then draw at 30", col1)
	}
	if len(col7) != 2 || col7[0].Y != 40 || col7[0].Color != pal.Grid {
		t.Fatalf("grid column calls = %v, want the grid restored at 40", col7)
	}
}

func TestDrawRemainingDrawsBarsWhenWindowFull(t *testing.T) {
	r, rec := newTestRenderer(t, nil)
	r.Control().ShowFFT = true
	n := r.Geometry().FFTSize
	w := &Window{Max: make([]uint16, 2*n), DisplayEnd: 2*n - 1, NextIn: n - 1, FFTReady: n - 1}
	for i := range w.Max {
		w.Max[i] = []uint16{20, 30, 20, 10}[i%4]
	}
	r.SyncCursor(w, 0)
	r.DrawRemaining(w, r.Palette().Data)
	if got := rec.Count(recsink.OpFillRect); got != 0 {
		t.Fatalf("%d bar fills before the window is complete, want 0", got)
	}
	w.NextIn = n
	r.DrawRemaining(w, r.Palette().Data)
	if got := rec.Count(recsink.OpFillRect); got == 0 {
		t.Fatal("no bar fills once the window is complete")
	}
}
