package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cloudclassify/blob"
	"cloudclassify/ml"
	"cloudclassify/monitoring"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type fakeModel struct {
	label int
	err   error
	calls int
	last  []float64
}

func (f *fakeModel) Predict(ctx context.Context, vector []float64) (int, error) {
	f.calls++
	f.last = vector
	return f.label, f.err
}

type fakeRecorder struct {
	functions []string
	err       error
}

func (f *fakeRecorder) RecordPrediction(ctx context.Context, function string, label int, requestID string) error {
	f.functions = append(f.functions, function)
	return f.err
}

func zapNop() *zap.Logger {
	return zap.NewNop()
}

const irisBody = `{"sepal_length":5.1,"sepal_width":3.5,"petal_length":1.4,"petal_width":0.2}`

func wineFields() map[string]interface{} {
	return map[string]interface{}{
		"Alcohol":                      14.23,
		"Malic acid":                   1.71,
		"Ash":                          2.43,
		"Alcalinity of ash":            15.6,
		"Magnesium":                    127,
		"Total phenols":                2.8,
		"Flavanoids":                   3.06,
		"Nonflavanoid phenols":         0.28,
		"Proanthocyanins":              2.29,
		"Color intensity":              5.64,
		"Hue":                          1.04,
		"OD280/OD315 of diluted wines": 3.92,
		"Proline":                      1065,
	}
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(raw)
}

func serve(mux *http.ServeMux, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func newMux(wine, iris ml.ModelProvider, opts ...HandlersOption) *http.ServeMux {
	mux := http.NewServeMux()
	NewHandlers(wine, iris, opts...).Register(mux)
	return mux
}

func TestHandlePredictWine(t *testing.T) {
	wine := &fakeModel{label: 2}
	mux := newMux(wine, &fakeModel{})

	w := serve(mux, "/predict_wine", "application/json", mustJSON(t, wineFields()))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(payload) != 1 || payload["prediction"].(float64) != 2 {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if wine.last[0] != 14.23 || wine.last[12] != 1065 {
		t.Fatalf("feature order not preserved: %v", wine.last)
	}
}

func TestHandlePredictWineMissingField(t *testing.T) {
	for _, name := range ml.WineFeatureNames() {
		wine := &fakeModel{label: 1}
		mux := newMux(wine, &fakeModel{})
		fields := wineFields()
		delete(fields, name)

		w := serve(mux, "/predict_wine", "application/json", mustJSON(t, fields))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("missing %q: expected 400, got %d", name, w.Code)
		}
		if w.Body.Len() != 0 {
			t.Fatalf("missing %q: expected empty body, got %q", name, w.Body.String())
		}
		if wine.calls != 0 {
			t.Fatalf("missing %q: model should not be called", name)
		}
	}
}

func TestHandlePredictWineAbsentBody(t *testing.T) {
	mux := newMux(&fakeModel{}, &fakeModel{})
	cases := []struct {
		name        string
		contentType string
		body        string
	}{
		{"empty", "application/json", ""},
		{"malformed", "application/json", `{"Alcohol":`},
		{"array", "application/json", `[1,2,3]`},
		{"string", "application/json", `"wine"`},
		{"null", "application/json", `null`},
		{"not json content type", "text/plain", mustJSON(t, wineFields())},
		{"no content type", "", mustJSON(t, wineFields())},
	}
	for _, tc := range cases {
		w := serve(mux, "/predict_wine", tc.contentType, tc.body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, w.Code)
		}
	}
}

func TestHandlePredictWineExtraFieldsIgnored(t *testing.T) {
	mux := newMux(&fakeModel{label: 0}, &fakeModel{})
	fields := wineFields()
	fields["Vintage"] = 1999
	if w := serve(mux, "/predict_wine", "application/json; charset=utf-8", mustJSON(t, fields)); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestHandlePredictWineNonNumericValue(t *testing.T) {
	mux := newMux(&fakeModel{}, &fakeModel{})
	fields := wineFields()
	fields["Hue"] = "pale"
	if w := serve(mux, "/predict_wine", "application/json", mustJSON(t, fields)); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestHandlePredictIris(t *testing.T) {
	iris := &fakeModel{label: 1}
	mux := newMux(&fakeModel{}, iris)

	w := serve(mux, "/predict", "application/json", irisBody)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != `{"predicted_class":1}` {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
	if iris.last[0] != 5.1 || iris.last[3] != 0.2 {
		t.Fatalf("unexpected vector %v", iris.last)
	}
}

func TestHandlePredictIrisBindingFailures(t *testing.T) {
	cases := map[string]string{
		"missing key": `{"sepal_length":5.1,"sepal_width":3.5,"petal_length":1.4}`,
		"extra key":   `{"sepal_length":5.1,"sepal_width":3.5,"petal_length":1.4,"petal_width":0.2,"color":1}`,
		"not object":  `[5.1,3.5,1.4,0.2]`,
		"malformed":   `{"sepal_length":`,
		"string":      `{"sepal_length":"5.1","sepal_width":3.5,"petal_length":1.4,"petal_width":0.2}`,
	}
	for name, body := range cases {
		iris := &fakeModel{}
		mux := newMux(&fakeModel{}, iris)
		if w := serve(mux, "/predict", "application/json", body); w.Code != http.StatusInternalServerError {
			t.Fatalf("%s: expected 500, got %d", name, w.Code)
		}
		if iris.calls != 0 {
			t.Fatalf("%s: model should not be called", name)
		}
	}
}

func TestHandlePredictModelError(t *testing.T) {
	mux := newMux(&fakeModel{err: errors.New("corrupt artifact")}, &fakeModel{err: blob.ErrNotFound})
	if w := serve(mux, "/predict_wine", "application/json", mustJSON(t, wineFields())); w.Code != http.StatusInternalServerError {
		t.Fatalf("wine: expected 500, got %d", w.Code)
	}
	if w := serve(mux, "/predict", "application/json", irisBody); w.Code != http.StatusInternalServerError {
		t.Fatalf("iris: expected 500, got %d", w.Code)
	}
}

func TestHandlePredictRecordsAudit(t *testing.T) {
	recorder := &fakeRecorder{err: errors.New("disk full")}
	mux := newMux(&fakeModel{label: 1}, &fakeModel{label: 0}, WithRecorder(recorder))

	if w := serve(mux, "/predict", "application/json", irisBody); w.Code != http.StatusOK {
		t.Fatalf("audit failure must not change the response, got %d", w.Code)
	}
	if w := serve(mux, "/predict_wine", "application/json", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if len(recorder.functions) != 1 || recorder.functions[0] != IrisFunction {
		t.Fatalf("unexpected audit rows: %v", recorder.functions)
	}
}

func TestHandlePredictBundledModels(t *testing.T) {
	store, err := blob.NewFilesystemStore(filepath.Join("..", "models"))
	if err != nil {
		t.Fatal(err)
	}
	loader := ml.NewLoader(store)
	mux := newMux(
		ml.NewPredictor(loader, "wine_classifier.json"),
		ml.NewPredictor(loader, "iris_model.json"),
	)

	var first string
	for i := 0; i < 3; i++ {
		w := serve(mux, "/predict", "application/json", irisBody)
		if w.Code != http.StatusOK {
			t.Fatalf("iris: expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if i == 0 {
			first = w.Body.String()
		} else if w.Body.String() != first {
			t.Fatalf("iris prediction drifted: %q vs %q", w.Body.String(), first)
		}
	}
	if strings.TrimSpace(first) != `{"predicted_class":0}` {
		t.Fatalf("unexpected iris prediction %q", first)
	}

	w := serve(mux, "/predict_wine", "application/json", mustJSON(t, wineFields()))
	if w.Code != http.StatusOK {
		t.Fatalf("wine: expected 200, got %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != `{"prediction":0}` {
		t.Fatalf("unexpected wine prediction %q", w.Body.String())
	}
}

func TestPredictionStreamThroughMiddleware(t *testing.T) {
	hub := monitoring.NewHub(nil)
	go hub.Run()
	defer hub.Close()

	mux := newMux(&fakeModel{}, &fakeModel{label: 1}, WithPredictionStream(hub))
	server := httptest.NewServer(Wrap(DefaultServerConfig(), zapNop(), mux))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/api/ws/predictions", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("stream client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Post(server.URL+"/predict", "application/json", strings.NewReader(irisBody))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event monitoring.PredictionEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read: %v", err)
	}
	if event.Function != IrisFunction || event.Label != 1 || event.RequestID == "" {
		t.Fatalf("unexpected event %+v", event)
	}
}
