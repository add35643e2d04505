package ui

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/iabetor/inkdigit/internal/normalize"
)

var (
	colBackdrop = color.RGBA{R: 0x20, G: 0x22, B: 0x26, A: 0xff}
	colBorder   = color.RGBA{R: 0x60, G: 0x64, B: 0x6a, A: 0xff}
	colButton   = color.RGBA{R: 0x34, G: 0x38, B: 0x40, A: 0xff}
	colBar      = color.RGBA{R: 0x4a, G: 0x9e, B: 0xd4, A: 0xff}
	colTopBar   = color.RGBA{R: 0x6e, G: 0xd4, B: 0x6e, A: 0xff}
)

// Draw 渲染画板、归一化预览、概率条与状态栏。
func (a *App) Draw(screen *ebiten.Image) {
	screen.Fill(colBackdrop)
	a.drawCanvas(screen)
	a.drawButtons(screen)
	a.drawPanel(screen)
	ebitenutil.DebugPrintAt(screen, a.statusText(), margin, a.winH-statusH)
}

// Layout 固定逻辑分辨率，窗口缩放不影响坐标换算。
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return a.winW, a.winH
}

// drawCanvas 把 CPU 栅格快照成 RGBA 后整幅上传。
func (a *App) drawCanvas(screen *ebiten.Image) {
	w := a.cfg.Canvas.Width
	h := a.cfg.Canvas.Height
	if a.canvasImg == nil {
		a.canvasImg = ebiten.NewImage(w, h)
		a.canvasPix = make([]byte, w*h*4)
	}

	pix := a.rec.Raster().Pix()
	for i, v := range pix {
		j := i * 4
		a.canvasPix[j+0] = v
		a.canvasPix[j+1] = v
		a.canvasPix[j+2] = v
		a.canvasPix[j+3] = 0xff
	}
	a.canvasImg.WritePixels(a.canvasPix)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(a.canvasX), float64(a.canvasY))
	screen.DrawImage(a.canvasImg, op)

	vector.StrokeRect(screen,
		float32(a.canvasX)-1, float32(a.canvasY)-1,
		float32(w)+2, float32(h)+2, 1, colBorder, false)
}

func (a *App) drawButtons(screen *ebiten.Image) {
	buttons := []struct {
		rect  [4]int
		label string
	}{
		{[4]int{a.btnPredict.Min.X, a.btnPredict.Min.Y, a.btnPredict.Dx(), a.btnPredict.Dy()}, "Predict"},
		{[4]int{a.btnUndo.Min.X, a.btnUndo.Min.Y, a.btnUndo.Dx(), a.btnUndo.Dy()}, "Undo (Z)"},
		{[4]int{a.btnClear.Min.X, a.btnClear.Min.Y, a.btnClear.Dx(), a.btnClear.Dy()}, "Clear (C)"},
	}
	for _, b := range buttons {
		x, y, w, h := b.rect[0], b.rect[1], b.rect[2], b.rect[3]
		vector.DrawFilledRect(screen, float32(x), float32(y), float32(w), float32(h), colButton, false)
		vector.StrokeRect(screen, float32(x), float32(y), float32(w), float32(h), 1, colBorder, false)
		ebitenutil.DebugPrintAt(screen, b.label, x+8, y+4)
	}
}

// drawPanel 右侧面板：预览图、Top-1 放大显示、降序概率条。
func (a *App) drawPanel(screen *ebiten.Image) {
	panelX := margin + a.cfg.Canvas.Width + margin
	a.drawPreview(screen, panelX, margin)
	a.drawTopLabel(screen, panelX+normalize.Edge*3+12, margin)
	a.drawBars(screen, panelX, margin+normalize.Edge*3+12)
}

func (a *App) drawPreview(screen *ebiten.Image, x, y int) {
	if a.previewImg == nil {
		a.previewImg = ebiten.NewImage(normalize.Edge, normalize.Edge)
		a.previewPix = make([]byte, normalize.Edge*normalize.Edge*4)
	}
	if a.preview != nil {
		for i, v := range a.preview.Pix {
			j := i * 4
			a.previewPix[j+0] = v
			a.previewPix[j+1] = v
			a.previewPix[j+2] = v
			a.previewPix[j+3] = 0xff
		}
		a.previewImg.WritePixels(a.previewPix)
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(3, 3)
	op.GeoM.Translate(float64(x), float64(y))
	screen.DrawImage(a.previewImg, op)

	side := float32(normalize.Edge * 3)
	vector.StrokeRect(screen, float32(x)-1, float32(y)-1, side+2, side+2, 1, colBorder, false)
}

// drawTopLabel 放大显示 Top-1 标签与其百分比。
func (a *App) drawTopLabel(screen *ebiten.Image, x, y int) {
	if len(a.result) == 0 {
		return
	}
	if a.labelImg == nil {
		a.labelImg = ebiten.NewImage(16, 20)
	}
	top := a.result.Top()

	a.labelImg.Clear()
	ebitenutil.DebugPrint(a.labelImg, fmt.Sprintf("%d", top.Label))

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(5, 5)
	op.GeoM.Translate(float64(x), float64(y))
	screen.DrawImage(a.labelImg, op)

	ebitenutil.DebugPrintAt(screen, formatPercent(top.Prob), x+4, y+88)
}

// drawBars 每个类别一条与概率成正比的横条，按概率降序排列。
func (a *App) drawBars(screen *ebiten.Image, x, y int) {
	const (
		rowH     = 17
		labelW   = 72
		maxBarW  = panelW - labelW - 8
		barH     = 11
		barInset = 2
	)
	for i, cp := range a.result {
		rowY := y + i*rowH
		ebitenutil.DebugPrintAt(screen,
			fmt.Sprintf("%d %6s", cp.Label, formatPercent(cp.Prob)), x, rowY)

		w := float32(cp.Prob * maxBarW)
		col := colBar
		if i == 0 {
			col = colTopBar
		}
		vector.DrawFilledRect(screen,
			float32(x+labelW), float32(rowY+barInset), w, barH, col, false)
	}
}
