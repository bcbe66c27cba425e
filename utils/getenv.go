package utils

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

func GetEnvDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvInt は整数の環境変数を読みます。パースできなければ警告してデフォルト値を返します。
func GetEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid integer env, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return n
}

func GetEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || !IsFinite(f) {
		slog.Warn("invalid float env, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return f
}

func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration env, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return d
}
