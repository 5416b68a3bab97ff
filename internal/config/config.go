package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPPort         int
	UploadDir        string
	ConvertedDir     string
	StaticDir        string
	MaxFileSize      int64
	MaxFilesPerBatch int
	CleanupAge       time.Duration
	SweepInterval    time.Duration
	RenderDPI        int
	MaxWorkers       int
	JPEGQuality      int
	WebPQuality      int
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTPPort = getEnvInt("FW_HTTP_PORT", 8080)
	cfg.UploadDir = getEnv("FW_UPLOAD_DIR", "./uploads")
	cfg.ConvertedDir = getEnv("FW_CONVERTED_DIR", "./converted")
	cfg.StaticDir = getEnv("FW_STATIC_DIR", "./static")
	cfg.MaxFileSize = getEnvInt64("FW_MAX_FILE_SIZE", 50*1024*1024)
	cfg.MaxFilesPerBatch = getEnvInt("FW_MAX_FILES_PER_BATCH", 20)
	cfg.CleanupAge = time.Duration(getEnvInt("FW_CLEANUP_AGE", 3600)) * time.Second
	cfg.SweepInterval = time.Duration(getEnvInt("FW_SWEEP_INTERVAL", 600)) * time.Second
	cfg.RenderDPI = getEnvInt("FW_RENDER_DPI", 200)
	cfg.MaxWorkers = getEnvInt("FW_MAX_WORKERS", 4)
	cfg.JPEGQuality = getEnvInt("FW_JPEG_QUALITY", 95)
	cfg.WebPQuality = getEnvInt("FW_WEBP_QUALITY", 90)
	return cfg
}

func (c *Config) HTTPAddr() string { return fmt.Sprintf(":%d", c.HTTPPort) }

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return i
}
