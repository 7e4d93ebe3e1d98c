package render

import (
	"image/color"
	"testing"

	"touchdso/dso/recsink"
)

func TestDrawGridLabels(t *testing.T) {
	meas := &Measurement{Running: true, TriggerMode: TriggerOff}
	r, rec := newTestRenderer(t, meas)
	pal := r.Palette()
	r.DrawGrid(pal.Grid)

	want := []string{"0.0", "1.0", "2.0", "3.0", "4.0", "5.0"}
	got := rec.Texts()
	if len(got) != len(want) {
		t.Fatalf("labels = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("labels = %q, want %q", got, want)
		}
	}
	if n := rec.Count(recsink.OpFillRect); n != len(want) {
		t.Fatalf("%d label area fills, want %d", n, len(want))
	}
	vertical := 0
	for _, c := range rec.Filter(recsink.OpLineRel) {
		if c.X1 == 0 && c.Y == 0 && c.Y1 == 64 {
			if c.X%8 != 7 {
				t.Fatalf("vertical line %v off the grid pitch", c)
			}
			vertical++
		}
	}
	if vertical != 8 {
		t.Fatalf("%d vertical grid lines, want 8", vertical)
	}

	rec.Reset()
	r.DrawGrid(pal.Grid)
	if n := rec.Count(recsink.OpFillRect); n != 0 {
		t.Fatalf("%d label fills for unchanged labels, want 0", n)
	}

	meas.OffsetGridCount = -1
	rec.Reset()
	r.DrawGrid(pal.Grid)
	texts := rec.Filter(recsink.OpText)
	if texts[0].Text != "-1.0" || texts[0].Color != pal.LabelNegative {
		t.Fatalf("first label = %v, want -1.0 in the negative color", texts[0])
	}
	if texts[1].Text != "0.0" || texts[1].Color != pal.Label {
		t.Fatalf("second label = %v, want 0.0 in the label color", texts[1])
	}
}

func TestTriggerLine(t *testing.T) {
	meas := &Measurement{Running: true, TriggerMode: TriggerAuto, RawTriggerLevel: 25}
	r, rec := newTestRenderer(t, meas)
	pal := r.Palette()
	r.DrawGrid(pal.Grid)

	if got := r.Control().TriggerLevelRow; got != 35 {
		t.Fatalf("TriggerLevelRow = %d, want 35", got)
	}
	if !hasLine(rec, 35, pal.TriggerLine) {
		t.Fatal("grid drawn without the trigger line")
	}

	rec.Reset()
	r.MoveTriggerLine(35)
	if len(rec.Calls) != 0 {
		t.Fatalf("calls = %v moving to the same row, want none", rec.Calls)
	}

	r.MoveTriggerLine(20)
	if !hasLine(rec, 35, pal.Background) || !hasLine(rec, 20, pal.TriggerLine) {
		t.Fatalf("calls = %v, want row 35 cleared and row 20 drawn", rec.Calls)
	}
	pixels := rec.Filter(recsink.OpPixel)
	if len(pixels) != 8 {
		t.Fatalf("%d grid pixels restored, want 8", len(pixels))
	}
	// The grid column on the right edge is restored as well.
	if last := pixels[len(pixels)-1]; last.X != 63 || last.Y != 35 || last.Color != pal.Grid {
		t.Fatalf("last restored pixel = %v, want grid at (63,35)", last)
	}
	if got := r.Control().TriggerLevelRow; got != 20 {
		t.Fatalf("TriggerLevelRow = %d, want 20", got)
	}

	// A cleared line on a grid row becomes grid again.
	rec.Reset()
	r.ClearTriggerLine(30)
	if !hasLine(rec, 30, pal.Grid) {
		t.Fatalf("calls = %v, want the grid row restored", rec.Calls)
	}

	meas.TriggerMode = TriggerOff
	rec.Reset()
	r.DrawTriggerLine()
	if len(rec.Calls) != 0 {
		t.Fatalf("calls = %v with triggering off, want none", rec.Calls)
	}
}

func TestClearTriggerLineRestoresHeldTrace(t *testing.T) {
	meas := &Measurement{TriggerMode: TriggerAuto}
	r, rec := newTestRenderer(t, meas)
	r.Buffers().Write(TrackMax, 5, 35)
	r.ClearTriggerLine(35)
	found := false
	for _, c := range rec.Filter(recsink.OpPixel) {
		if c.X == 5 && c.Y == 35 && c.Color == r.Palette().DataHold {
			found = true
		}
	}
	if !found {
		t.Fatalf("calls = %v, want the held sample at column 5 redrawn", rec.Calls)
	}
}

func TestDrawMinMaxLines(t *testing.T) {
	meas := &Measurement{RawValueMin: 10, RawValueMax: 50}
	r, rec := newTestRenderer(t, meas)
	r.DrawMinMaxLines()
	if !hasLine(rec, 10, r.Palette().MinMaxLine) || !hasLine(rec, 50, r.Palette().MinMaxLine) {
		t.Fatalf("calls = %v, want lines at rows 10 and 50", rec.Calls)
	}

	meas.RawValueMin, meas.RawValueMax = 0, 100
	rec.Reset()
	r.DrawMinMaxLines()
	if len(rec.Calls) != 0 {
		t.Fatalf("calls = %v for clipped values, want none", rec.Calls)
	}
}

func hasLine(rec *recsink.Sink, row int, c color.RGBA) bool {
	for _, call := range rec.Filter(recsink.OpLineRel) {
		if call.Y == row && call.Y1 == 0 && call.Color == c {
			return true
		}
	}
	return false
}
