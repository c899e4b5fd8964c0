package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// envReader reads typed values from the environment. Malformed values fall
// back to the default and are reported together by Err.
type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func newEnvReader() *envReader {
	return &envReader{lookup: os.LookupEnv}
}

func (e *envReader) String(key, def string) string {
	if value, ok := e.lookup(key); ok {
		return value
	}
	return def
}

func (e *envReader) Int(key string, def int) int {
	return parseEnv(e, key, def, strconv.Atoi)
}

func (e *envReader) Bool(key string, def bool) bool {
	return parseEnv(e, key, def, strconv.ParseBool)
}

func (e *envReader) Duration(key string, def time.Duration) time.Duration {
	return parseEnv(e, key, def, time.ParseDuration)
}

func (e *envReader) Float(key string, def float64) float64 {
	return parseEnv(e, key, def, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// List splits a comma separated value, dropping blanks. A value with no
// items yields def.
func (e *envReader) List(key string, def []string) []string {
	value, ok := e.lookup(key)
	if !ok {
		return def
	}
	var items []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			items = append(items, p)
		}
	}
	if len(items) == 0 {
		return def
	}
	return items
}

func (e *envReader) Err() error {
	return errors.Join(e.errs...)
}

func parseEnv[T any](e *envReader, key string, def T, parse func(string) (T, error)) T {
	value, ok := e.lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return def
	}
	v, err := parse(strings.TrimSpace(value))
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid %s %q: %w", key, value, err))
		return def
	}
	return v
}
