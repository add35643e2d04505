package canvas

import (
	"bytes"
	"testing"
)

func newTestRecorder() *Recorder {
	return NewRecorder(NewRaster(60, 60, 6))
}

func drawStroke(rec *Recorder, pts ...Point) {
	rec.BeginStroke(pts[0])
	for _, p := range pts[1:] {
		rec.ExtendStroke(p)
	}
	rec.EndStroke()
}

func TestRecorder_CommitsStrokeWithTwoOrMorePoints(t *testing.T) {
	rec := newTestRecorder()
	drawStroke(rec, Point{X: 5, Y: 5}, Point{X: 30, Y: 30})

	if rec.StrokeCount() != 1 {
		t.Errorf("stroke count = %d, want 1", rec.StrokeCount())
	}
}

func TestRecorder_DiscardsSinglePointStroke(t *testing.T) {
	rec := newTestRecorder()
	rec.BeginStroke(Point{X: 10, Y: 10})
	rec.EndStroke()

	if rec.StrokeCount() != 0 {
		t.Errorf("single-point stroke should be discarded, count = %d", rec.StrokeCount())
	}
}

func TestRecorder_IgnoresDuplicateSamples(t *testing.T) {
	rec := newTestRecorder()
	rec.BeginStroke(Point{X: 10, Y: 10})
	rec.ExtendStroke(Point{X: 10, Y: 10})
	rec.ExtendStroke(Point{X: 10, Y: 10})
	rec.EndStroke()

	// 悬停采样不构成第二个点
	if rec.StrokeCount() != 0 {
		t.Errorf("hover samples should not commit a stroke, count = %d", rec.StrokeCount())
	}
}

func TestRecorder_ExtendWithoutBeginIsNoop(t *testing.T) {
	rec := newTestRecorder()
	rec.ExtendStroke(Point{X: 10, Y: 10})
	rec.EndStroke()

	if rec.StrokeCount() != 0 {
		t.Errorf("extend without begin should be a no-op, count = %d", rec.StrokeCount())
	}
	for _, v := range rec.Raster().Pix() {
		if v != Background {
			t.Fatal("raster should stay blank")
		}
	}
}

func TestRecorder_DrawingFlag(t *testing.T) {
	rec := newTestRecorder()
	if rec.Drawing() {
		t.Error("should not be drawing initially")
	}
	rec.BeginStroke(Point{X: 1, Y: 1})
	if !rec.Drawing() {
		t.Error("should be drawing after BeginStroke")
	}
	rec.EndStroke()
	if rec.Drawing() {
		t.Error("should not be drawing after EndStroke")
	}
}

func TestRecorder_UndoMatchesNeverCommitted(t *testing.T) {
	first := []Point{{X: 5, Y: 5}, {X: 30, Y: 10}, {X: 40, Y: 20}}
	second := []Point{{X: 10, Y: 40}, {X: 50, Y: 45}}

	// 只画第一条
	only := newTestRecorder()
	drawStroke(only, first...)

	// 画两条再撤销第二条
	both := newTestRecorder()
	drawStroke(both, first...)
	drawStroke(both, second...)
	both.Undo()

	if !bytes.Equal(only.Raster().Pix(), both.Raster().Pix()) {
		t.Error("undo followed by replay must match the raster without the undone stroke")
	}
}

func TestRecorder_UndoOnEmptyHistoryIsNoop(t *testing.T) {
	rec := newTestRecorder()
	rec.Undo() // 不应 panic 或产生副作用
	if rec.StrokeCount() != 0 {
		t.Errorf("stroke count = %d, want 0", rec.StrokeCount())
	}
}

func TestRecorder_ClearAlwaysYieldsBlankRaster(t *testing.T) {
	rec := newTestRecorder()
	drawStroke(rec, Point{X: 5, Y: 5}, Point{X: 30, Y: 30})
	drawStroke(rec, Point{X: 10, Y: 40}, Point{X: 50, Y: 45})

	rec.Clear()

	if rec.StrokeCount() != 0 {
		t.Errorf("stroke count after clear = %d, want 0", rec.StrokeCount())
	}
	for i, v := range rec.Raster().Pix() {
		if v != Background {
			t.Fatalf("pixel %d should be background after clear, got %d", i, v)
		}
	}
}

func TestRecorder_RefreshCallbackFires(t *testing.T) {
	rec := newTestRecorder()
	refreshes := 0
	rec.SetOnRefresh(func() { refreshes++ })

	drawStroke(rec, Point{X: 5, Y: 5}, Point{X: 30, Y: 30}) // end → 1
	rec.Undo()                                              // → 2
	rec.Clear()                                             // → 3

	// 单点笔画同样触发刷新
	rec.BeginStroke(Point{X: 1, Y: 1})
	rec.EndStroke() // → 4

	if refreshes != 4 {
		t.Errorf("refresh fired %d times, want 4", refreshes)
	}
}

func TestHistory_PushPopClear(t *testing.T) {
	var h History
	h.Push(Stroke{{X: 1, Y: 1}, {X: 2, Y: 2}})
	h.Push(Stroke{{X: 3, Y: 3}, {X: 4, Y: 4}})

	if h.Len() != 2 {
		t.Fatalf("len = %d, want 2", h.Len())
	}

	s, ok := h.Pop()
	if !ok || s[0].X != 3 {
		t.Error("pop should return the most recent stroke")
	}

	h.Clear()
	if h.Len() != 0 {
		t.Errorf("len after clear = %d, want 0", h.Len())
	}
	if _, ok := h.Pop(); ok {
		t.Error("pop on empty history should report false")
	}
}
