package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Getenv retrieves the value of the environment variable named by the key.
// If the variable is not present or its value is empty, Getenv returns the fallback string.
func Getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if len(value) == 0 {
		return fallback
	}
	return value
}

// GetenvInt is Getenv for integer settings. A malformed value is returned as an error
// so that configuration problems surface at startup.
func GetenvInt(key string, fallback int) (int, error) {
	raw := Getenv(key, "")
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

// GetenvBool accepts the forms understood by strconv.ParseBool.
func GetenvBool(key string, fallback bool) (bool, error) {
	raw := Getenv(key, "")
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseBool(raw)
}

// GetenvDuration accepts time.ParseDuration strings such as "30m" or "12h".
func GetenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := Getenv(key, "")
	if raw == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}
