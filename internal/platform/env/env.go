// Package env reads typed configuration values from the process
// environment. A set-but-empty variable counts as unset, so a stray
// `export FOO=` in a shell profile falls back to the default instead of
// zeroing a setting.
package env

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

func String(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func Int(key string, fallback int) (int, error) {
	return read(key, fallback, strconv.Atoi)
}

func Bool(key string, fallback bool) (bool, error) {
	return read(key, fallback, strconv.ParseBool)
}

func Duration(key string, fallback time.Duration) (time.Duration, error) {
	return read(key, fallback, time.ParseDuration)
}

func read[T any](key string, fallback T, parse func(string) (T, error)) (T, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := parse(raw)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s=%q: %w", key, raw, err)
	}
	return v, nil
}
