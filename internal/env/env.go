package env

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

var ErrConversionFailed = errors.New("failed to convert environment variable with key to value")

func errConversionFailed(key string, typeName string, err error) error {
	return fmt.Errorf("key: %s type: %s: %w: %w", key, typeName, ErrConversionFailed, err)
}

func GetStringOrDefault(key string, defaultVal string) string {
	if val, found := os.LookupEnv(key); found && val != "" {
		return val
	}

	return defaultVal
}

func GetIntOrDefault(key string, defaultVal int) (int, error) {
	val, found := os.LookupEnv(key)
	if !found || val == "" {
		return defaultVal, nil
	}

	i, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return defaultVal, errConversionFailed(key, "int", err)
	}

	return i, nil
}

func GetInt64OrDefault(key string, defaultVal int64) (int64, error) {
	val, found := os.LookupEnv(key)
	if !found || val == "" {
		return defaultVal, nil
	}

	i, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
	if err != nil {
		return defaultVal, errConversionFailed(key, "int64", err)
	}

	return i, nil
}

func GetBoolOrDefault(key string, defaultVal bool) (bool, error) {
	val, found := os.LookupEnv(key)
	if !found || val == "" {
		return defaultVal, nil
	}

	b, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		return defaultVal, errConversionFailed(key, "bool", err)
	}

	return b, nil
}

// GetListOrDefault splits a comma separated value, dropping blank entries.
func GetListOrDefault(key string, defaultVal []string) []string {
	val, found := os.LookupEnv(key)
	if !found || strings.TrimSpace(val) == "" {
		return defaultVal
	}

	var list []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}

	return list
}
