package canvas

// Point 画板坐标系中的一个点，原点在左上角。
type Point struct {
	X, Y float64
}

// Stroke 一次连续落笔-抬笔手势采集到的点序列。
// 提交到 History 后不再修改；进行中的笔画由 Recorder 单独持有。
type Stroke []Point

// Clone 返回笔画的独立副本。
func (s Stroke) Clone() Stroke {
	out := make(Stroke, len(s))
	copy(out, s)
	return out
}

// History 按提交顺序保存的已完成笔画序列。
type History struct {
	strokes []Stroke
}

// Push 追加一条已完成的笔画。
func (h *History) Push(s Stroke) {
	h.strokes = append(h.strokes, s)
}

// Pop 移除并返回最后一条笔画；历史为空时返回 false。
func (h *History) Pop() (Stroke, bool) {
	if len(h.strokes) == 0 {
		return nil, false
	}
	last := h.strokes[len(h.strokes)-1]
	h.strokes = h.strokes[:len(h.strokes)-1]
	return last, true
}

// Clear 清空全部笔画。
func (h *History) Clear() {
	h.strokes = h.strokes[:0]
}

// Len 返回已提交的笔画数量。
func (h *History) Len() int {
	return len(h.strokes)
}

// Strokes 按提交顺序返回笔画切片。调用方不得修改返回值。
func (h *History) Strokes() []Stroke {
	return h.strokes
}
