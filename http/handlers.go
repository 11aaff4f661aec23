package http

import (
	"context"
	"net/http"

	"cloudclassify/ml"
	"cloudclassify/telemetry"
	"go.uber.org/zap"
)

// PredictionRecorder 预测记录器
type PredictionRecorder interface {
	RecordPrediction(ctx context.Context, function string, label int, requestID string) error
}

// PredictionStream 既记录预测又对外提供推送连接
type PredictionStream interface {
	PredictionRecorder
	http.Handler
}

type Handlers struct {
	wine      ml.ModelProvider
	iris      ml.ModelProvider
	recorders []PredictionRecorder
	stream    http.Handler
	logger    *zap.Logger
}

type HandlersOption func(*Handlers)

func WithRecorder(recorder PredictionRecorder) HandlersOption {
	return func(h *Handlers) {
		h.recorders = append(h.recorders, recorder)
	}
}

// WithPredictionStream 注册 GET /api/ws/predictions
func WithPredictionStream(stream PredictionStream) HandlersOption {
	return func(h *Handlers) {
		h.recorders = append(h.recorders, stream)
		h.stream = stream
	}
}

func WithLogger(logger *zap.Logger) HandlersOption {
	return func(h *Handlers) {
		h.logger = logger
	}
}

func NewHandlers(wine, iris ml.ModelProvider, opts ...HandlersOption) *Handlers {
	h := &Handlers{wine: wine, iris: iris, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handlers) Register(mux *http.ServeMux) {
	mux.Handle("/"+WineFunction, telemetry.WrapHandler(WineFunction, http.HandlerFunc(h.PredictWine)))
	mux.Handle("/"+IrisFunction, telemetry.WrapHandler(IrisFunction, http.HandlerFunc(h.PredictIris)))
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.Handle("GET /metrics", telemetry.MetricsHandler())
	if h.stream != nil {
		mux.Handle("GET /api/ws/predictions", h.stream)
	}
}

// Function 按函数名返回单个处理器，供无服务器运行时调用
func (h *Handlers) Function(name string) (http.Handler, bool) {
	switch name {
	case WineFunction:
		return telemetry.WrapHandler(WineFunction, http.HandlerFunc(h.PredictWine)), true
	case IrisFunction:
		return telemetry.WrapHandler(IrisFunction, http.HandlerFunc(h.PredictIris)), true
	default:
		return nil, false
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}
