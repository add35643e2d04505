package infer

import "gorgonia.org/tensor"

// Model 是外部分类模型的调用约定。实现被视作黑盒：
// 接收 1×28×28×1 的浮点张量，返回已经 softmax 归一化的概率向量。
type Model interface {
	// Predict 对单幅归一化网格做一次推理。
	Predict(in *tensor.Dense) ([]float32, error)
	// Name 返回展示用的模型标识。
	Name() string
	// Classes 返回类别数量。
	Classes() int
}
