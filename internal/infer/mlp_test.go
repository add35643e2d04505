package infer

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gorgonia.org/tensor"

	"github.com/iabetor/inkdigit/internal/normalize"
)

// mnetLayer 测试用层定义。
type mnetLayer struct {
	rows, cols int
	weights    []float32 // 为 nil 时写全零
	biases     []float32 // 为 nil 时写全零
}

func writeMNET(t *testing.T, layers []mnetLayer) string {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString("MNET")
	le := binary.LittleEndian

	writeU32 := func(v uint32) {
		var b [4]byte
		le.PutUint32(b[:], v)
		buf.Write(b[:])
	}
	writeF32s := func(vals []float32, n int) {
		var b [4]byte
		for i := 0; i < n; i++ {
			var v float32
			if vals != nil {
				v = vals[i]
			}
			le.PutUint32(b[:], math.Float32bits(v))
			buf.Write(b[:])
		}
	}

	writeU32(1) // version
	writeU32(uint32(len(layers)))
	for _, l := range layers {
		writeU32(uint32(l.rows))
		writeU32(uint32(l.cols))
		writeF32s(l.weights, l.rows*l.cols)
		writeF32s(l.biases, l.rows)
	}

	path := filepath.Join(t.TempDir(), "model.mnet")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("failed to write model file: %v", err)
	}
	return path
}

func inputTensor(vals []float32) *tensor.Dense {
	if vals == nil {
		vals = make([]float32, normalize.Edge*normalize.Edge)
	}
	return tensor.New(
		tensor.WithShape(1, normalize.Edge, normalize.Edge, 1),
		tensor.WithBacking(vals),
	)
}

func TestLoadMLP_SingleLayer(t *testing.T) {
	biases := make([]float32, 10)
	biases[3] = 2.0
	path := writeMNET(t, []mnetLayer{{rows: 10, cols: 784, biases: biases}})

	m, err := LoadMLP(path)
	if err != nil {
		t.Fatalf("LoadMLP failed: %v", err)
	}
	if m.Classes() != 10 {
		t.Errorf("Classes = %d, want 10", m.Classes())
	}
	if m.InputSize() != 784 {
		t.Errorf("InputSize = %d, want 784", m.InputSize())
	}
	if m.Name() != "model" {
		t.Errorf("Name = %q, want %q", m.Name(), "model")
	}

	probs, err := m.Predict(inputTensor(nil))
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if len(probs) != 10 {
		t.Fatalf("got %d probabilities, want 10", len(probs))
	}

	var sum float64
	argmax := 0
	for i, p := range probs {
		sum += float64(p)
		if p > probs[argmax] {
			argmax = i
		}
	}
	if math.Abs(sum-1.0) > 1e-5 {
		t.Errorf("probabilities sum to %f, want 1.0", sum)
	}
	if argmax != 3 {
		t.Errorf("argmax = %d, want 3 (largest bias)", argmax)
	}
}

func TestMLP_TwoLayerForward(t *testing.T) {
	// 第一层全零权重，偏置经 ReLU 后为 [1,0,0,2]；
	// 第二层第 7 行权重 [1,0,0,1]，其 logit=3，其余为 0
	l2weights := make([]float32, 10*4)
	l2weights[7*4+0] = 1
	l2weights[7*4+3] = 1

	path := writeMNET(t, []mnetLayer{
		{rows: 4, cols: 784, biases: []float32{1, -1, 0, 2}},
		{rows: 10, cols: 4, weights: l2weights},
	})

	m, err := LoadMLP(path)
	if err != nil {
		t.Fatalf("LoadMLP failed: %v", err)
	}

	probs, err := m.Predict(inputTensor(nil))
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	argmax := 0
	for i, p := range probs {
		if p > probs[argmax] {
			argmax = i
		}
	}
	if argmax != 7 {
		t.Errorf("argmax = %d, want 7", argmax)
	}
}

func TestMLP_PredictIsDeterministic(t *testing.T) {
	biases := []float32{0.5, -0.2, 1.1, 0, 0, 0.3, 0, 0, -1, 0.9}
	path := writeMNET(t, []mnetLayer{{rows: 10, cols: 784, biases: biases}})

	m, err := LoadMLP(path)
	if err != nil {
		t.Fatalf("LoadMLP failed: %v", err)
	}

	in := make([]float32, 784)
	in[100] = 0.7
	a, err := m.Predict(inputTensor(in))
	if err != nil {
		t.Fatalf("first Predict failed: %v", err)
	}
	b, err := m.Predict(inputTensor(in))
	if err != nil {
		t.Fatalf("second Predict failed: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("probability %d differs across calls: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestMLP_InputSizeMismatch(t *testing.T) {
	path := writeMNET(t, []mnetLayer{{rows: 10, cols: 100}})
	m, err := LoadMLP(path)
	if err != nil {
		t.Fatalf("LoadMLP failed: %v", err)
	}
	if _, err := m.Predict(inputTensor(nil)); err == nil {
		t.Error("expected error for mismatched input size")
	}
}

func TestLoadMLP_Errors(t *testing.T) {
	dir := t.TempDir()

	badMagic := filepath.Join(dir, "bad.mnet")
	if err := os.WriteFile(badMagic, []byte("NOPE\x01\x00\x00\x00"), 0644); err != nil {
		t.Fatal(err)
	}

	truncated := filepath.Join(dir, "trunc.mnet")
	if err := os.WriteFile(truncated, []byte("MNET\x01\x00\x00\x00\x01\x00\x00\x00\x0a\x00\x00\x00\x10\x03\x00\x00"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "nonexistent.mnet")},
		{"bad magic", badMagic},
		{"truncated", truncated},
	}
	for _, tt := range tests {
		if _, err := LoadMLP(tt.path); err == nil {
			t.Errorf("%s: expected load error", tt.name)
		}
	}
}

func TestLoadMLP_LayerDimensionMismatch(t *testing.T) {
	path := writeMNET(t, []mnetLayer{
		{rows: 4, cols: 784},
		{rows: 10, cols: 5}, // 与上一层输出 4 不匹配
	})
	if _, err := LoadMLP(path); err == nil {
		t.Error("expected error for mismatched layer dimensions")
	}
}
