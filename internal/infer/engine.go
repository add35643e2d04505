package infer

import (
	"errors"
	"image"
	"image/color"
	"sort"
	"sync"

	"gorgonia.org/tensor"

	"github.com/iabetor/inkdigit/internal/logger"
	"github.com/iabetor/inkdigit/internal/normalize"
)

// ErrUnavailable 表示模型未就绪（未加载、加载中或加载失败）。
var ErrUnavailable = errors.New("模型未就绪")

// ClassProb 单个类别的预测概率。
type ClassProb struct {
	Label int
	Prob  float64
}

// Result 按概率降序排列的完整预测分布，每次推理重新生成。
type Result []ClassProb

// Top 返回概率最高的类别；空结果返回零值。
func (r Result) Top() ClassProb {
	if len(r) == 0 {
		return ClassProb{}
	}
	return r[0]
}

// Engine 包装分类模型：负责一次性异步加载、通道转换、
// 张量组装与调用后的缓冲释放。
type Engine struct {
	mu      sync.RWMutex
	state   State
	model   Model
	loadErr error
	name    string // 展示名称，可由配置覆盖
}

// NewEngine 创建处于 Unloaded 状态的引擎。
func NewEngine() *Engine {
	return &Engine{state: StateUnloaded}
}

// LoadAsync 启动一次性后台加载。name 为空时使用权重文件名。
// 重复调用（非 Unloaded 状态）为空操作。
func (e *Engine) LoadAsync(path, name string) {
	if !e.transition(StateLoading) {
		return
	}
	go e.load(path, name)
}

func (e *Engine) load(path, name string) {
	m, err := LoadMLP(path)
	if err != nil {
		logger.Warnf("[infer] 模型加载失败: %v", err)
		e.mu.Lock()
		e.loadErr = err
		e.mu.Unlock()
		e.transition(StateLoadFailed)
		return
	}
	if name == "" {
		name = m.Name()
	}
	e.mu.Lock()
	e.model = m
	e.name = name
	e.mu.Unlock()
	e.transition(StateReady)
	logger.Infof("[infer] 模型 %s 已就绪，%d 个类别", name, m.Classes())
}

// UseModel 直接装入一个已构造的模型（跳过文件加载）。
func (e *Engine) UseModel(m Model) {
	e.transition(StateLoading)
	e.mu.Lock()
	e.model = m
	e.name = m.Name()
	e.mu.Unlock()
	e.transition(StateReady)
}

// State 返回当前加载状态。
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Ready 返回模型是否可用。
func (e *Engine) Ready() bool {
	return e.State() == StateReady
}

// LoadErr 返回加载失败的原因，未失败时为 nil。
func (e *Engine) LoadErr() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loadErr
}

// ModelName 返回展示用的模型名称，未就绪时为空串。
func (e *Engine) ModelName() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.name
}

// Predict 对归一化网格做一次推理，返回降序排列的概率分布。
// 模型未就绪时返回 ErrUnavailable。
func (e *Engine) Predict(grid image.Image) (Result, error) {
	e.mu.RLock()
	model := e.model
	ready := e.state == StateReady
	e.mu.RUnlock()

	if !ready || model == nil {
		return nil, ErrUnavailable
	}

	// 本次调用的张量缓冲在函数返回后即不可达；
	// 概率先拷贝为普通值，调用方拿不到任何中间缓冲。
	in := tensor.New(
		tensor.WithShape(1, normalize.Edge, normalize.Edge, 1),
		tensor.WithBacking(Intensities(grid)),
	)
	probs, err := model.Predict(in)
	if err != nil {
		return nil, err
	}

	res := make(Result, len(probs))
	for i, p := range probs {
		res[i] = ClassProb{Label: i, Prob: float64(p)}
	}
	// 概率相同时保持标签升序，保证结果可复现
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Prob > res[j].Prob
	})
	return res, nil
}

// Intensities 把网格图像逐像素转换为 [0,1] 强度（行优先）。
// 多通道像素按感知亮度 0.299R+0.587G+0.114B 折算，再乘以
// 归一化的透明度；单通道灰度图退化为直接取值。
func Intensities(img image.Image) []float32 {
	out := make([]float32, normalize.Edge*normalize.Edge)
	b := img.Bounds()
	for y := 0; y < normalize.Edge; y++ {
		for x := 0; x < normalize.Edge; x++ {
			if x >= b.Dx() || y >= b.Dy() {
				continue
			}
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			lum := 0.299*float32(c.R) + 0.587*float32(c.G) + 0.114*float32(c.B)
			out[y*normalize.Edge+x] = lum / 255 * float32(c.A) / 255
		}
	}
	return out
}

// transition 尝试切换状态，非法转换记录日志并返回 false。
func (e *Engine) transition(to State) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !validTransition(e.state, to) {
		logger.Warnf("[infer] 非法状态转换 %s -> %s", e.state, to)
		return false
	}
	from := e.state
	e.state = to
	logger.Debugf("[infer] 状态 %s -> %s", from, to)
	return true
}
