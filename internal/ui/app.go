// Package ui 是 inkdigit 的 ebiten 前端：
// 采集鼠标/触摸笔迹、驱动归一化预览、触发推理并呈现结果。
package ui

import (
	"fmt"
	"image"
	"strconv"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/iabetor/inkdigit/internal/audio"
	"github.com/iabetor/inkdigit/internal/canvas"
	"github.com/iabetor/inkdigit/internal/config"
	"github.com/iabetor/inkdigit/internal/history"
	"github.com/iabetor/inkdigit/internal/infer"
	"github.com/iabetor/inkdigit/internal/logger"
	"github.com/iabetor/inkdigit/internal/normalize"
	"github.com/iabetor/inkdigit/internal/speech"
	"github.com/iabetor/inkdigit/internal/tts"
)

const (
	margin    = 8
	panelW    = 248
	buttonW   = 84
	buttonH   = 24
	statusH   = 20
	noTouchID = ebiten.TouchID(-1)
)

// predictOutcome 一次后台推理的结果。
type predictOutcome struct {
	res infer.Result
	err error
	ink int
}

// App 把所有组件接成一个 ebiten.Game。
// 笔画与栅格只在 Update 所在的游戏协程里被访问。
type App struct {
	cfg *config.Config

	rec       *canvas.Recorder
	engine    *infer.Engine
	announcer *speech.Announcer
	player    *audio.Player
	store     *history.Store

	preview *image.Gray  // 最新归一化预览
	result  infer.Result // 最近一次成功的预测，保持显示
	notice  string       // 一次性提示（如模型未就绪）

	results chan predictOutcome

	activeTouch ebiten.TouchID
	lastMouse   bool

	winW, winH       int
	canvasX, canvasY int

	btnPredict image.Rectangle
	btnUndo    image.Rectangle
	btnClear   image.Rectangle

	// 渲染缓冲，在 Draw 里按需创建
	canvasImg  *ebiten.Image
	canvasPix  []byte
	previewImg *ebiten.Image
	previewPix []byte
	labelImg   *ebiten.Image
}

// New 根据配置装配完整应用。模型加载在后台进行，
// 失败只影响识别功能，不阻塞画板。
func New(cfg *config.Config) (*App, error) {
	raster := canvas.NewRaster(cfg.Canvas.Width, cfg.Canvas.Height, cfg.Canvas.BrushWidth)

	a := &App{
		cfg:         cfg,
		rec:         canvas.NewRecorder(raster),
		engine:      infer.NewEngine(),
		results:     make(chan predictOutcome, 4),
		activeTouch: noTouchID,
		canvasX:     margin,
		canvasY:     margin,
	}
	a.rec.SetOnRefresh(a.refreshPreview)
	a.refreshPreview()

	a.winW = margin + cfg.Canvas.Width + margin + panelW + margin
	h := margin + cfg.Canvas.Height + margin + buttonH + margin + statusH
	if h < 300 {
		h = 300
	}
	a.winH = h

	btnY := margin + cfg.Canvas.Height + margin
	a.btnPredict = image.Rect(margin, btnY, margin+buttonW, btnY+buttonH)
	a.btnUndo = image.Rect(margin+buttonW+margin, btnY, margin+2*buttonW+margin, btnY+buttonH)
	a.btnClear = image.Rect(margin+2*(buttonW+margin), btnY, margin+3*buttonW+2*margin, btnY+buttonH)

	a.engine.LoadAsync(cfg.Model.Path, cfg.Model.Name)
	a.setupSpeech()
	a.setupHistory()
	return a, nil
}

// setupSpeech 按配置选择 TTS 后端。任何失败都降级为静音。
func (a *App) setupSpeech() {
	var engine tts.Engine
	switch a.cfg.TTS.Engine {
	case "edge":
		engine = tts.NewEdgeEngine(a.cfg.TTS.Edge.Voice)
	case "say":
		engine = tts.NewSayEngine(a.cfg.TTS.Say.Voice)
	case "off":
		return
	default:
		logger.Warnf("[ui] 未知 TTS 后端 %q，语音播报关闭", a.cfg.TTS.Engine)
		return
	}

	player, err := audio.NewPlayer()
	if err != nil {
		logger.Warnf("[ui] 音频设备不可用，语音播报关闭: %v", err)
		return
	}
	a.player = player
	a.announcer = speech.NewAnnouncer(engine, player)
}

func (a *App) setupHistory() {
	if !a.cfg.History.Enabled {
		return
	}
	store, err := history.Open(a.cfg.History.DBPath)
	if err != nil {
		logger.Warnf("[ui] 历史记录不可用: %v", err)
		return
	}
	a.store = store
}

// Run 打开窗口并运行事件循环，窗口关闭后返回。
func (a *App) Run() error {
	ebiten.SetWindowTitle("inkdigit")
	ebiten.SetWindowSize(a.winW*2, a.winH*2)
	ebiten.SetTPS(60)
	defer a.Close()
	return ebiten.RunGame(a)
}

// Close 释放语音与历史资源。
func (a *App) Close() {
	if a.announcer != nil {
		a.announcer.Close()
	}
	if a.player != nil {
		a.player.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}

// Update 处理输入并消费后台推理结果。ebiten 保证单协程调用。
func (a *App) Update() error {
	a.drainResults()
	a.handleMouse()
	a.handleTouch()
	a.handleKeys()
	return nil
}

func (a *App) drainResults() {
	for {
		select {
		case out := <-a.results:
			a.applyOutcome(out)
		default:
			return
		}
	}
}

func (a *App) applyOutcome(out predictOutcome) {
	if out.err != nil {
		logger.Warnf("[ui] 推理失败: %v", out.err)
		a.notice = "prediction failed"
		return
	}
	a.result = out.res
	a.notice = ""

	top := out.res.Top()
	logger.Infof("[ui] 识别结果 %d（%.1f%%）", top.Label, top.Prob*100)

	if a.announcer != nil {
		a.announcer.Say(spokenText(top.Label))
	}
	if a.store != nil {
		if err := a.store.Record(top.Label, top.Prob, out.ink); err != nil {
			logger.Warnf("[ui] 历史写入失败: %v", err)
		}
	}
}

func (a *App) handleMouse() {
	mx, my := ebiten.CursorPosition()
	p, inCanvas := a.canvasPoint(mx, my)

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		switch {
		case inCanvas:
			a.rec.BeginStroke(p)
		default:
			a.handleButton(mx, my)
		}
		a.lastMouse = true
		return
	}
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) && a.lastMouse && a.rec.Drawing() {
		a.extend(p)
		return
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		a.rec.EndStroke()
		a.lastMouse = false
	}
}

func (a *App) handleTouch() {
	for _, id := range inpututil.AppendJustPressedTouchIDs(nil) {
		if a.activeTouch != noTouchID {
			continue
		}
		tx, ty := ebiten.TouchPosition(id)
		if p, ok := a.canvasPoint(tx, ty); ok {
			a.activeTouch = id
			a.rec.BeginStroke(p)
		} else {
			a.handleButton(tx, ty)
		}
	}

	if a.activeTouch == noTouchID {
		return
	}
	if inpututil.IsTouchJustReleased(a.activeTouch) {
		a.rec.EndStroke()
		a.activeTouch = noTouchID
		return
	}
	tx, ty := ebiten.TouchPosition(a.activeTouch)
	if p, ok := a.canvasPoint(tx, ty); ok {
		a.extend(p)
	}
}

func (a *App) handleKeys() {
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		a.predict()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyZ) {
		a.rec.Undo()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		a.rec.Clear()
	}
}

func (a *App) handleButton(x, y int) {
	pt := image.Pt(x, y)
	switch {
	case pt.In(a.btnPredict):
		a.predict()
	case pt.In(a.btnUndo):
		a.rec.Undo()
	case pt.In(a.btnClear):
		a.rec.Clear()
	}
}

// extend 追加采样点；与上一点重合的点由 Recorder 内部丢弃，
// 这里只负责把坐标换算进画板坐标系。
func (a *App) extend(p canvas.Point) {
	a.rec.ExtendStroke(p)
}

// canvasPoint 把窗口坐标换算为画板坐标，并报告是否落在画板内。
func (a *App) canvasPoint(x, y int) (canvas.Point, bool) {
	px := float64(x - a.canvasX)
	py := float64(y - a.canvasY)
	in := px >= 0 && py >= 0 &&
		px < float64(a.cfg.Canvas.Width) && py < float64(a.cfg.Canvas.Height)
	return canvas.Point{X: px, Y: py}, in
}

// predict 在请求发出的瞬间同步截取归一化网格，
// 推理本身在后台进行，不阻塞输入。
func (a *App) predict() {
	grid := normalize.Normalize(a.rec.Raster().Gray())
	a.preview = grid

	if !a.engine.Ready() {
		a.notice = a.unavailableNotice()
		logger.Infof("[ui] 模型未就绪（%s），忽略识别请求", a.engine.State())
		return
	}

	ink := normalize.InkCount(a.rec.Raster().Gray())
	go func() {
		res, err := a.engine.Predict(grid)
		a.results <- predictOutcome{res: res, err: err, ink: ink}
	}()
}

func (a *App) unavailableNotice() string {
	switch a.engine.State() {
	case infer.StateLoading, infer.StateUnloaded:
		return "model still loading"
	case infer.StateLoadFailed:
		return "model failed to load"
	}
	return "model not loaded"
}

// refreshPreview 在笔画结束/撤销/清空后重新生成归一化预览。
func (a *App) refreshPreview() {
	a.preview = normalize.Normalize(a.rec.Raster().Gray())
}

// statusText 状态栏文案：优先显示一次性提示，否则显示模型状态。
func (a *App) statusText() string {
	if a.notice != "" {
		return a.notice
	}
	switch a.engine.State() {
	case infer.StateReady:
		return "model: " + a.engine.ModelName()
	case infer.StateLoading, infer.StateUnloaded:
		return "loading model..."
	case infer.StateLoadFailed:
		return "model load failed (predictions disabled)"
	}
	return ""
}

// spokenText 返回播报用的文本形式。
func spokenText(label int) string {
	return strconv.Itoa(label)
}

// formatPercent 按一位小数格式化百分比。
func formatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}
