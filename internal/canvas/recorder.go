package canvas

// Recorder 把指针输入累积为笔画，并驱动栅格更新。
// 每个 Recorder 拥有独立的历史与栅格，多个画板实例互不影响。
type Recorder struct {
	hist    History
	raster  *Raster
	current Stroke // 进行中的笔画，提交前可变
	drawing bool

	// onRefresh 在笔画结束、撤销、清空后触发，用于刷新归一化预览。
	onRefresh func()
}

// NewRecorder 创建绑定到指定栅格的 Recorder。
func NewRecorder(r *Raster) *Recorder {
	return &Recorder{raster: r}
}

// SetOnRefresh 注册预览刷新回调。
func (rec *Recorder) SetOnRefresh(fn func()) {
	rec.onRefresh = fn
}

// BeginStroke 以点 p 开始一条新笔画。
func (rec *Recorder) BeginStroke(p Point) {
	rec.drawing = true
	rec.current = Stroke{p}
}

// ExtendStroke 把点 p 追加到进行中的笔画，并立即把新线段画到栅格上。
// 未处于绘制状态时为空操作。
func (rec *Recorder) ExtendStroke(p Point) {
	if !rec.drawing {
		return
	}
	prev := rec.current[len(rec.current)-1]
	// 指针悬停会以同一坐标反复采样，原样丢弃
	if p == prev {
		return
	}
	rec.current = append(rec.current, p)
	rec.raster.DrawSegment(prev, p)
}

// EndStroke 结束进行中的笔画。至少两个点的笔画才会提交；
// 单点笔画直接丢弃。无论是否提交都会触发预览刷新。
func (rec *Recorder) EndStroke() {
	if !rec.drawing {
		return
	}
	rec.drawing = false
	if len(rec.current) >= 2 {
		rec.hist.Push(rec.current.Clone())
	}
	rec.current = nil
	rec.refresh()
}

// Undo 撤销最后一条已提交笔画并重放栅格。历史为空时为空操作。
func (rec *Recorder) Undo() {
	if _, ok := rec.hist.Pop(); !ok {
		return
	}
	rec.raster.Replay(&rec.hist, rec.current)
	rec.refresh()
}

// Clear 清空历史并重置栅格。
func (rec *Recorder) Clear() {
	rec.hist.Clear()
	rec.current = nil
	rec.drawing = false
	rec.raster.Reset()
	rec.refresh()
}

// Drawing 返回当前是否处于绘制状态。
func (rec *Recorder) Drawing() bool {
	return rec.drawing
}

// Raster 返回绑定的栅格。
func (rec *Recorder) Raster() *Raster {
	return rec.raster
}

// StrokeCount 返回已提交的笔画数量。
func (rec *Recorder) StrokeCount() int {
	return rec.hist.Len()
}

func (rec *Recorder) refresh() {
	if rec.onRefresh != nil {
		rec.onRefresh()
	}
}
