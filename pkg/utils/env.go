package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

func GetEnvTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func GetEnvTrimmedOrDefault(key, defaultValue string) string {
	v := strings.TrimSpace(os.Getenv(key))

	if v == "" {
		return defaultValue
	}

	return v
}

// GetEnvDuration accepts Go durations ("5s") or bare milliseconds ("5000").
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := GetEnvTrimmed(key)
	if v == "" {
		return defaultValue
	}

	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}

	return defaultValue
}

func GetEnvInt(key string, defaultValue int) int {
	v := GetEnvTrimmed(key)
	if v == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func GetEnvFloat(key string, defaultValue float64) float64 {
	v := GetEnvTrimmed(key)
	if v == "" {
		return defaultValue
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return defaultValue
	}
	return f
}

func GetEnvBool(key string, defaultValue bool) bool {
	v := GetEnvTrimmed(key)
	if v == "" {
		return defaultValue
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}
