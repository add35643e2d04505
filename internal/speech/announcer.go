// Package speech 负责把预测结果播报出来。
// 同一时刻最多一条语音在播：新请求到来时取消正在播放和排队中的旧请求。
// 合成或播放失败只记日志，绝不影响界面结果。
package speech

import (
	"context"
	"sync"

	"github.com/iabetor/inkdigit/internal/logger"
	"github.com/iabetor/inkdigit/internal/tts"
)

// Sink 是播放端约定，由 audio.Player 实现。
type Sink interface {
	Play(ctx context.Context, samples []float32, sampleRate int) error
}

// Announcer 串行播报文本，最新请求获胜。
type Announcer struct {
	engine tts.Engine
	sink   Sink

	mu      sync.Mutex
	cancel  context.CancelFunc // 当前播报的取消函数
	pending chan string

	closeOnce sync.Once
	done      chan struct{}
}

// NewAnnouncer 创建播报器并启动后台协程。
func NewAnnouncer(engine tts.Engine, sink Sink) *Announcer {
	a := &Announcer{
		engine:  engine,
		sink:    sink,
		pending: make(chan string, 1),
		done:    make(chan struct{}),
	}
	go a.loop()
	return a
}

// Say 请求播报文本。已排队未播的请求被替换，正在播的被取消。
func (a *Announcer) Say(text string) {
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	a.mu.Unlock()

	// 腾空队列后放入最新请求
	select {
	case <-a.pending:
	default:
	}
	select {
	case a.pending <- text:
	case <-a.done:
	}
}

// Close 停止播报协程并取消进行中的播报。
func (a *Announcer) Close() {
	a.closeOnce.Do(func() {
		close(a.done)
		a.mu.Lock()
		if a.cancel != nil {
			a.cancel()
		}
		a.mu.Unlock()
	})
}

func (a *Announcer) loop() {
	for {
		select {
		case <-a.done:
			return
		case text := <-a.pending:
			a.speak(text)
		}
	}
}

func (a *Announcer) speak(text string) {
	ctx, cancel := context.WithCancel(context.Background())
	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()
	defer func() {
		cancel()
		a.mu.Lock()
		a.cancel = nil
		a.mu.Unlock()
	}()

	samples, rate, err := a.engine.Synthesize(ctx, text)
	if err != nil {
		if ctx.Err() == nil {
			// 语音能力缺失不是致命问题
			logger.Warnf("[speech] 合成失败: %v", err)
		}
		return
	}
	// 合成期间被更新的请求取代时不再播放
	if ctx.Err() != nil {
		return
	}
	if err := a.sink.Play(ctx, samples, rate); err != nil && ctx.Err() == nil {
		logger.Warnf("[speech] 播放失败: %v", err)
	}
}
