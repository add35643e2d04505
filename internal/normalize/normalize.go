// Package normalize 把画板栅格转换为分类模型期望的固定尺寸单通道网格。
//
// 流程：墨迹检测 → 包围盒 → 20% 方形留白 → 越界补零裁剪 → 最近邻重采样。
// 对固定输入输出完全确定，无随机与时间依赖。
package normalize

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

const (
	// Edge 归一化网格的边长。
	Edge = 28
	// inkThreshold 墨迹判定阈值（0–255 刻度，严格大于才算墨迹）。
	inkThreshold = 10
	// padRatio 方形裁剪时在较长边上追加的留白比例。
	// 与目标模型训练分布的视觉约定一致：数字居中、四周留边。
	padRatio = 0.20
)

// Normalize 把任意尺寸的单通道栅格归一化为 Edge×Edge 网格。
// 无墨迹时返回全零网格，这不是错误。
func Normalize(src *image.Gray) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, Edge, Edge))

	box, ok := inkBounds(src)
	if !ok {
		return dst
	}

	origin, boxSize := cropBox(box)

	// 以 origin 为原点构造 boxSize×boxSize 方形，
	// 超出栅格范围的部分隐式补零。
	square := image.NewGray(image.Rect(0, 0, boxSize, boxSize))
	originX := origin.X
	originY := origin.Y
	b := src.Bounds()
	for y := 0; y < boxSize; y++ {
		sy := originY + y
		if sy < b.Min.Y || sy >= b.Max.Y {
			continue
		}
		for x := 0; x < boxSize; x++ {
			sx := originX + x
			if sx < b.Min.X || sx >= b.Max.X {
				continue
			}
			square.Pix[y*square.Stride+x] = src.GrayAt(sx, sy).Y
		}
	}

	// 最近邻缩放：保留硬边缘，不做平滑。笔画类近二值墨迹用
	// 插值缩放会糊成灰雾，这里刻意不用。
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), square, square.Bounds(), draw.Src, nil)
	return dst
}

// cropBox 由墨迹包围盒推导方形裁剪区域：
// 边长取较长边再加两侧各 round(size*padRatio) 的留白，
// 原点为 (minX-pad, minY-pad)，可以为负。
func cropBox(box image.Rectangle) (origin image.Point, side int) {
	size := box.Dx()
	if box.Dy() > size {
		size = box.Dy()
	}
	pad := int(math.Round(float64(size) * padRatio))
	return image.Pt(box.Min.X-pad, box.Min.Y-pad), size + 2*pad
}

// InkCount 返回栅格中超过墨迹阈值的像素数量。
func InkCount(src *image.Gray) int {
	n := 0
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if src.GrayAt(x, y).Y > inkThreshold {
				n++
			}
		}
	}
	return n
}

// inkBounds 扫描全部像素，返回墨迹像素的轴对齐包围盒。
// 没有墨迹时 ok 为 false。
func inkBounds(src *image.Gray) (box image.Rectangle, ok bool) {
	b := src.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := src.Pix[(y-b.Min.Y)*src.Stride:]
		for x := b.Min.X; x < b.Max.X; x++ {
			if row[x-b.Min.X] > inkThreshold {
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}
	if maxX < minX {
		return image.Rectangle{}, false
	}
	// Max 按 image.Rectangle 约定为开区间
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}
