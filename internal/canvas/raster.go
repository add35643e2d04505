package canvas

import (
	"image"
	"math"
)

// 栅格像素值：背景为零，墨迹为最大强度。
const (
	Background uint8 = 0
	Ink        uint8 = 255
)

// Raster 画板背后的全分辨率单通道栅格。
// 只通过 Reset / 笔画重放两条路径修改，保证内容完全由笔画历史推导。
type Raster struct {
	w, h  int
	brush float64 // 画笔宽度（直径，像素）
	pix   []uint8 // 行优先
}

// NewRaster 创建 w×h 的空白栅格，brush 为画笔宽度。
func NewRaster(w, h int, brush float64) *Raster {
	return &Raster{
		w:     w,
		h:     h,
		brush: brush,
		pix:   make([]uint8, w*h),
	}
}

// Width 返回栅格宽度。
func (r *Raster) Width() int { return r.w }

// Height 返回栅格高度。
func (r *Raster) Height() int { return r.h }

// At 返回 (x, y) 处的强度；越界返回背景值。
func (r *Raster) At(x, y int) uint8 {
	if x < 0 || y < 0 || x >= r.w || y >= r.h {
		return Background
	}
	return r.pix[y*r.w+x]
}

// Pix 返回底层像素缓冲。调用方只读。
func (r *Raster) Pix() []uint8 {
	return r.pix
}

// Reset 将整个栅格恢复为背景。
func (r *Raster) Reset() {
	for i := range r.pix {
		r.pix[i] = Background
	}
}

// DrawSegment 以圆头粗线绘制 a→b 线段。
// 对线段膨胀 brush/2 的距离场逐像素填充，天然得到圆帽和圆角衔接。
func (r *Raster) DrawSegment(a, b Point) {
	rad := r.brush / 2
	minX := int(math.Floor(math.Min(a.X, b.X) - rad))
	maxX := int(math.Ceil(math.Max(a.X, b.X) + rad))
	minY := int(math.Floor(math.Min(a.Y, b.Y) - rad))
	maxY := int(math.Ceil(math.Max(a.Y, b.Y) + rad))

	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX >= r.w {
		maxX = r.w - 1
	}
	if maxY >= r.h {
		maxY = r.h - 1
	}

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			p := Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}
			if distToSegment(p, a, b) <= rad {
				r.pix[y*r.w+x] = Ink
			}
		}
	}
}

// DrawStroke 绘制一条完整笔画（相邻点依次连线）。
func (r *Raster) DrawStroke(s Stroke) {
	for i := 1; i < len(s); i++ {
		r.DrawSegment(s[i-1], s[i])
	}
}

// Replay 清空栅格后按提交顺序重绘全部历史笔画，再叠加进行中的笔画。
// 对同一历史重放的结果是确定的，后绘笔画覆盖先绘笔画。
func (r *Raster) Replay(h *History, live Stroke) {
	r.Reset()
	for _, s := range h.Strokes() {
		r.DrawStroke(s)
	}
	r.DrawStroke(live)
}

// Gray 以 image.Gray 形式返回栅格快照，供归一化使用。
func (r *Raster) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, r.w, r.h))
	copy(img.Pix, r.pix)
	return img
}

// distToSegment 返回点 p 到线段 ab 的最短距离。
func distToSegment(p, a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		// 退化为点
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	cx := a.X + t*dx
	cy := a.Y + t*dy
	return math.Hypot(p.X-cx, p.Y-cy)
}
