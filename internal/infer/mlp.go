package infer

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gorgonia.org/tensor"
)

// MNET 权重文件格式（小端）：
//
//	magic   [4]byte  "MNET"
//	version uint32   当前为 1
//	layers  uint32   层数
//	每层:   rows uint32, cols uint32,
//	        weights rows×cols float32（行优先）,
//	        biases  rows float32
//
// 隐藏层使用 ReLU，最后一层使用 softmax，因此模型输出即概率分布。
const (
	mnetMagic   = "MNET"
	mnetVersion = 1

	// maxLayerDim 防御损坏文件里的离谱维度。
	maxLayerDim = 1 << 16
)

type layer struct {
	w    *tensor.Dense // 形状 (rows, cols)
	bias []float32     // 长度 rows
	rows int
	cols int
}

// MLP 是从 MNET 权重文件加载的全连接分类网络。
type MLP struct {
	name   string
	layers []layer
}

var _ Model = (*MLP)(nil)

// LoadMLP 从权重文件加载模型。文件缺失或损坏返回错误。
func LoadMLP(path string) (*MLP, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取模型文件失败: %w", err)
	}

	r := &byteReader{buf: data}

	magic := r.bytes(4)
	if string(magic) != mnetMagic {
		return nil, fmt.Errorf("不是 MNET 权重文件: %s", path)
	}
	if v := r.uint32(); v != mnetVersion {
		return nil, fmt.Errorf("不支持的 MNET 版本: %d", v)
	}

	layerCount := int(r.uint32())
	if layerCount <= 0 || layerCount > 64 {
		return nil, fmt.Errorf("非法层数: %d", layerCount)
	}

	m := &MLP{
		name:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		layers: make([]layer, 0, layerCount),
	}

	prevRows := 0
	for i := 0; i < layerCount; i++ {
		rows := int(r.uint32())
		cols := int(r.uint32())
		if rows <= 0 || cols <= 0 || rows > maxLayerDim || cols > maxLayerDim {
			return nil, fmt.Errorf("第 %d 层维度非法: %d×%d", i, rows, cols)
		}
		if i > 0 && cols != prevRows {
			return nil, fmt.Errorf("第 %d 层输入维度 %d 与上一层输出 %d 不匹配", i, cols, prevRows)
		}
		weights := r.float32s(rows * cols)
		biases := r.float32s(rows)
		if r.failed {
			return nil, fmt.Errorf("模型文件在第 %d 层处截断", i)
		}
		m.layers = append(m.layers, layer{
			w:    tensor.New(tensor.WithShape(rows, cols), tensor.WithBacking(weights)),
			bias: biases,
			rows: rows,
			cols: cols,
		})
		prevRows = rows
	}

	return m, nil
}

// Name 返回权重文件名（不含扩展名）。
func (m *MLP) Name() string { return m.name }

// Classes 返回最后一层的输出维度。
func (m *MLP) Classes() int {
	return m.layers[len(m.layers)-1].rows
}

// InputSize 返回第一层期望的输入维度。
func (m *MLP) InputSize() int {
	return m.layers[0].cols
}

// Predict 运行前向传播。输入张量的元素总数必须等于 InputSize。
func (m *MLP) Predict(in *tensor.Dense) ([]float32, error) {
	data, ok := in.Data().([]float32)
	if !ok {
		return nil, fmt.Errorf("模型输入必须为 float32 张量")
	}
	if len(data) != m.InputSize() {
		return nil, fmt.Errorf("模型输入尺寸 %d 与期望 %d 不符", len(data), m.InputSize())
	}

	// 复制输入，前向过程中的中间缓冲均为本次调用私有
	cur := make([]float32, len(data))
	copy(cur, data)

	for i, l := range m.layers {
		vec := tensor.New(tensor.WithShape(l.cols, 1), tensor.WithBacking(cur))
		prod, err := tensor.MatMul(l.w, vec)
		if err != nil {
			return nil, fmt.Errorf("第 %d 层矩阵乘失败: %w", i, err)
		}
		out, ok := prod.(*tensor.Dense).Data().([]float32)
		if !ok {
			return nil, fmt.Errorf("第 %d 层输出类型异常", i)
		}
		for j := range out {
			out[j] += l.bias[j]
		}
		if i < len(m.layers)-1 {
			relu(out)
		} else {
			softmax(out)
		}
		cur = out
	}

	return cur, nil
}

func relu(v []float32) {
	for i, x := range v {
		if x < 0 {
			v[i] = 0
		}
	}
}

// softmax 数值稳定版：先减去最大值再做指数归一化。
func softmax(v []float32) {
	maxV := v[0]
	for _, x := range v[1:] {
		if x > maxV {
			maxV = x
		}
	}
	var sum float64
	for i, x := range v {
		e := math.Exp(float64(x - maxV))
		v[i] = float32(e)
		sum += e
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / sum)
	}
}

// byteReader 顺序读取小端二进制；越界时置 failed 而不是 panic。
type byteReader struct {
	buf    []byte
	off    int
	failed bool
}

func (r *byteReader) bytes(n int) []byte {
	if r.off+n > len(r.buf) {
		r.failed = true
		return make([]byte, n)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *byteReader) uint32() uint32 {
	return binary.LittleEndian.Uint32(r.bytes(4))
}

func (r *byteReader) float32s(n int) []float32 {
	raw := r.bytes(n * 4)
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out
}
