package ml

import (
	"errors"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	defaultONNXInput  = "float_input"
	defaultONNXOutput = "output_label"
)

var (
	onnxMu   sync.Mutex
	onnxInit bool
)

// InitONNX 初始化ONNX Runtime环境，每个进程只执行一次
// libPath非空时覆盖ONNXRUNTIME_SHARED_LIBRARY_PATH
func InitONNX(libPath string) error {
	onnxMu.Lock()
	defer onnxMu.Unlock()
	if onnxInit {
		return nil
	}
	if libPath == "" {
		libPath = os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")
	}
	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	onnxInit = true
	return nil
}

// ShutdownONNX 释放运行时环境
func ShutdownONNX() {
	onnxMu.Lock()
	defer onnxMu.Unlock()
	if onnxInit {
		ort.DestroyEnvironment()
		onnxInit = false
	}
}

// ONNXModel ONNX分类模型，每次Predict创建新的会话
type ONNXModel struct {
	data       []byte
	inputName  string
	outputName string
	nFeatures  int
}

func NewONNXModel(data []byte, nFeatures int) (*ONNXModel, error) {
	if len(data) == 0 {
		return nil, ErrEmptyModel
	}
	if err := InitONNX(""); err != nil {
		return nil, err
	}
	return &ONNXModel{
		data:       data,
		inputName:  defaultONNXInput,
		outputName: defaultONNXOutput,
		nFeatures:  nFeatures,
	}, nil
}

func (m *ONNXModel) Predict(rows [][]float64) ([]float64, error) {
	if len(rows) == 0 {
		return nil, errors.New("no rows to predict")
	}
	width := m.nFeatures
	if width == 0 {
		width = len(rows[0])
	}
	flat := make([]float32, 0, len(rows)*width)
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d features, model expects %d", ErrFeatureMismatch, i, len(row), width)
		}
		for _, v := range row {
			flat = append(flat, float32(v))
		}
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(int64(len(rows)), int64(width)), flat)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[int64](ort.NewShape(int64(len(rows))))
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	session, err := ort.NewAdvancedSessionWithONNXData(m.data,
		[]string{m.inputName}, []string{m.outputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	defer session.Destroy()

	if err := session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	out := outputTensor.GetData()
	labels := make([]float64, len(out))
	for i, v := range out {
		labels[i] = float64(v)
	}
	return labels, nil
}
