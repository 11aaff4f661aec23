package http

import (
	"encoding/json"
	"net/http"

	"cloudclassify/ml"
	"cloudclassify/telemetry"
	"go.uber.org/zap"
)

const (
	WineFunction = "predict_wine"
	IrisFunction = "predict"
)

// PredictWine 葡萄酒分类，缺少任一特征时返回空响应体的400
func (h *Handlers) PredictWine(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r, wineRequestSchema)
	if err != nil {
		h.logger.Debug("rejected wine request", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	vector, err := ml.FeatureVector(fields, ml.WineFeatureNames())
	if err != nil {
		h.internalError(w, r, WineFunction, err)
		return
	}
	h.predict(w, r, WineFunction, h.wine, vector, "prediction")
}

// PredictIris 鸢尾花分类
// 请求体无法绑定到四个参数时返回500
func (h *Handlers) PredictIris(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r, irisRequestSchema)
	if err != nil {
		h.internalError(w, r, IrisFunction, err)
		return
	}
	vector, err := ml.FeatureVector(fields, ml.IrisFeatureNames())
	if err != nil {
		h.internalError(w, r, IrisFunction, err)
		return
	}
	h.predict(w, r, IrisFunction, h.iris, vector, "predicted_class")
}

func (h *Handlers) predict(w http.ResponseWriter, r *http.Request, function string, provider ml.ModelProvider, vector []float64, key string) {
	label, err := provider.Predict(r.Context(), vector)
	if err != nil {
		h.internalError(w, r, function, err)
		return
	}
	telemetry.ObservePrediction(function, label)

	respondJSON(w, map[string]int{key: label})

	requestID := GetRequestID(r.Context())
	for _, recorder := range h.recorders {
		if err := recorder.RecordPrediction(r.Context(), function, label, requestID); err != nil {
			h.logger.Warn("failed to record prediction", zap.String("function", function), zap.String("request_id", requestID), zap.Error(err))
		}
	}
}

func (h *Handlers) internalError(w http.ResponseWriter, r *http.Request, function string, err error) {
	h.logger.Error("prediction failed",
		zap.String("function", function),
		zap.String("request_id", GetRequestID(r.Context())),
		zap.Error(err))
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func respondJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
