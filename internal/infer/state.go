package infer

// State 表示模型加载的生命周期状态。
type State int

const (
	// StateUnloaded — 尚未开始加载。
	StateUnloaded State = iota
	// StateLoading — 启动时触发的一次性加载进行中。
	StateLoading
	// StateReady — 模型可用。
	StateReady
	// StateLoadFailed — 加载失败，本次会话内为终态，不自动重试。
	StateLoadFailed
)

var stateNames = [...]string{
	"Unloaded",
	"Loading",
	"Ready",
	"LoadFailed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// validTransition 检查状态转换是否合法：
//
//	Unloaded → Loading            （启动时触发加载）
//	Loading  → Ready | LoadFailed （加载结束）
//
// LoadFailed 与 Ready 均无出边。
func validTransition(from, to State) bool {
	switch from {
	case StateUnloaded:
		return to == StateLoading
	case StateLoading:
		return to == StateReady || to == StateLoadFailed
	}
	return false
}
