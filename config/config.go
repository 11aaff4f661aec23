// Package config 从YAML、.env和环境变量加载配置
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Http struct {
		Port             int           `yaml:"port"`
		Timeout          time.Duration `yaml:"timeout"`
		MaxBodyBytes     int64         `yaml:"max_body_bytes"`
		AllowedOrigins   []string      `yaml:"allowed_origins"`
		PredictionStream bool          `yaml:"prediction_stream"`
	} `yaml:"http"`
	Log struct {
		Level      string `yaml:"level"`
		Encoding   string `yaml:"encoding"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
	ML struct {
		Dir       string `yaml:"dir"`
		WinePath  string `yaml:"wine_path"`
		IrisPath  string `yaml:"iris_path"`
		CacheSize int    `yaml:"cache_size"`
	} `yaml:"ml"`
	Blob struct {
		Driver string `yaml:"driver"`
		Bucket string `yaml:"bucket"`
		Region string `yaml:"region"`
		Prefix string `yaml:"prefix"`
	} `yaml:"blob"`
	Tracing struct {
		Exporter    string `yaml:"exporter"`
		Endpoint    string `yaml:"endpoint"`
		ServiceName string `yaml:"service_name"`
	} `yaml:"tracing"`
	Audit struct {
		Path string `yaml:"path"`
	} `yaml:"audit"`
	// FunctionTarget 无服务器运行时提供的函数名
	FunctionTarget string `yaml:"function_target"`
}

// Default 默认配置
func Default() *Config {
	var c Config
	c.Http.Port = 8080
	c.Http.Timeout = 30 * time.Second
	c.Http.MaxBodyBytes = 1 << 20
	c.Http.AllowedOrigins = []string{"*"}
	c.Log.Level = "info"
	c.Log.Encoding = "json"
	c.Log.MaxSizeMB = 100
	c.Log.MaxBackups = 3
	c.Log.MaxAgeDays = 28
	c.ML.Dir = "models"
	c.ML.WinePath = "wine_classifier.json"
	c.ML.IrisPath = "iris_model.json"
	c.Blob.Driver = "filesystem"
	c.Tracing.ServiceName = "cloudclassify"
	c.FunctionTarget = "predict"
	return &c
}

// Load 在默认配置上叠加配置文件和环境变量
// 配置文件不存在时不报错
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	config := Default()
	if path != "" {
		file, err := os.Open(path)
		switch {
		case err == nil:
			defer file.Close()
			if err := yaml.NewDecoder(file).Decode(config); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, err
		}
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Http.Port = port
	}
	setString(&c.ML.Dir, "MODEL_DIR")
	setString(&c.ML.WinePath, "WINE_MODEL_PATH")
	setString(&c.ML.IrisPath, "IRIS_MODEL_PATH")
	setString(&c.Blob.Driver, "BLOB_DRIVER")
	setString(&c.Blob.Bucket, "S3_BUCKET")
	setString(&c.Blob.Region, "S3_REGION")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.FunctionTarget, "FUNCTION_TARGET")
	setString(&c.Audit.Path, "AUDIT_DB_PATH")
	if v := os.Getenv("PREDICTION_STREAM"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid PREDICTION_STREAM %q: %w", v, err)
		}
		c.Http.PredictionStream = enabled
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
