package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-driven settings for the grain-loss API.
type Config struct {
	DatabaseURL         string // empty means in-memory store
	InferenceURL        string // empty pins the fallback detection mode
	Port                int
	BearerToken         string
	ProbeTimeout        time.Duration
	DetectTimeout       time.Duration
	ConfidenceThreshold float64
	IoUThreshold        float64
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		Port:                8080,
		ProbeTimeout:        3 * time.Second,
		DetectTimeout:       30 * time.Second,
		ConfidenceThreshold: 0.25,
		IoUThreshold:        0.45,
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.InferenceURL = os.Getenv("ML_BASE_URL")
	cfg.BearerToken = os.Getenv("API_BEARER_TOKEN")

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
	}

	if timeoutStr := os.Getenv("ML_PROBE_TIMEOUT_SEC"); timeoutStr != "" {
		if sec, err := strconv.Atoi(timeoutStr); err == nil && sec > 0 {
			cfg.ProbeTimeout = time.Duration(sec) * time.Second
		} else {
			return cfg, fmt.Errorf("invalid ML_PROBE_TIMEOUT_SEC: %s", timeoutStr)
		}
	}

	if timeoutStr := os.Getenv("ML_DETECT_TIMEOUT_SEC"); timeoutStr != "" {
		if sec, err := strconv.Atoi(timeoutStr); err == nil && sec > 0 {
			cfg.DetectTimeout = time.Duration(sec) * time.Second
		} else {
			return cfg, fmt.Errorf("invalid ML_DETECT_TIMEOUT_SEC: %s", timeoutStr)
		}
	}

	if confStr := os.Getenv("ML_CONFIDENCE_THRESHOLD"); confStr != "" {
		if conf, err := strconv.ParseFloat(confStr, 64); err == nil && conf >= 0 && conf <= 1 {
			cfg.ConfidenceThreshold = conf
		} else {
			return cfg, fmt.Errorf("invalid ML_CONFIDENCE_THRESHOLD: %s", confStr)
		}
	}

	if iouStr := os.Getenv("ML_IOU_THRESHOLD"); iouStr != "" {
		if iou, err := strconv.ParseFloat(iouStr, 64); err == nil && iou >= 0 && iou <= 1 {
			cfg.IoUThreshold = iou
		} else {
			return cfg, fmt.Errorf("invalid ML_IOU_THRESHOLD: %s", iouStr)
		}
	}

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
