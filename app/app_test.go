package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"cloudclassify/config"
	"cloudclassify/db"
	qhttp "cloudclassify/http"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.ML.Dir = filepath.Join("..", "models")
	return cfg
}

func TestNewServesBundledModels(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Close()

	handler, ok := a.Handlers.Function(qhttp.IrisFunction)
	if !ok {
		t.Fatal("iris function not registered")
	}
	req := httptest.NewRequest(http.MethodPost, "/predict",
		strings.NewReader(`{"sepal_length":6.7,"sepal_width":3.0,"petal_length":5.2,"petal_width":2.3}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"predicted_class":2}` {
		t.Fatalf("unexpected response %d %q", w.Code, w.Body.String())
	}
}

func TestNewWithCacheAndAudit(t *testing.T) {
	cfg := testConfig(t)
	cfg.ML.CacheSize = 4
	cfg.Audit.Path = filepath.Join(t.TempDir(), "audit.db")

	a, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	mux := http.NewServeMux()
	a.Handlers.Register(mux)
	req := httptest.NewRequest(http.MethodPost, "/predict",
		strings.NewReader(`{"sepal_length":5.1,"sepal_width":3.5,"petal_length":1.4,"petal_width":0.2}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	audit, err := db.Open(cfg.Audit.Path)
	if err != nil {
		t.Fatal(err)
	}
	defer audit.Close()
	rows, err := audit.RecentPredictions(context.Background(), qhttp.IrisFunction, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Label != 0 {
		t.Fatalf("unexpected audit rows %+v", rows)
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Blob.Driver = "ftp"
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for unknown blob driver")
	}
}
