package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	config, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Http.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", config.Http.Port)
	}
	if config.ML.CacheSize != 0 {
		t.Fatalf("expected caching disabled by default, got %d", config.ML.CacheSize)
	}
}

func TestLoadYAMLAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("http:\n  port: 9000\n  timeout: 5s\nml:\n  dir: /srv/models\n  cache_size: 4\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("IRIS_MODEL_PATH", "iris_v2.json")

	config, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Http.Port != 9000 || config.Http.Timeout != 5*time.Second {
		t.Fatalf("yaml not applied: %+v", config.Http)
	}
	if config.ML.Dir != "/srv/models" || config.ML.CacheSize != 4 {
		t.Fatalf("yaml ml section not applied: %+v", config.ML)
	}
	if config.ML.IrisPath != "iris_v2.json" {
		t.Fatalf("env override not applied: %s", config.ML.IrisPath)
	}
	if config.ML.WinePath != "wine_classifier.json" {
		t.Fatalf("default lost: %s", config.ML.WinePath)
	}
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("PORT", "eighty")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for invalid PORT")
	}
}

func TestLoadPredictionStreamEnv(t *testing.T) {
	t.Setenv("PREDICTION_STREAM", "true")
	config, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !config.Http.PredictionStream {
		t.Fatal("expected prediction stream enabled")
	}

	t.Setenv("PREDICTION_STREAM", "sometimes")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for invalid PREDICTION_STREAM")
	}
}
