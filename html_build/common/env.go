package common

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnvFiles loads .env variants in priority order and returns defines for
// variables matching the prefix.
// Priority: .env < .env.local < .env.[mode] < .env.[mode].local
func LoadEnvFiles(basePath, mode, prefix string) (map[string]string, error) {
	variants := []string{
		basePath,
		basePath + ".local",
		basePath + "." + mode,
		basePath + "." + mode + ".local",
	}

	result := make(map[string]string)
	for _, path := range variants {
		vars, err := godotenv.Read(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		for k, v := range vars {
			if !strings.HasPrefix(k, prefix) {
				continue
			}
			result["import.meta.env."+k] = quote(v)
		}
	}
	return result, nil
}

// ParseDefines turns "key=value" pairs into esbuild defines. Values are used
// verbatim, so strings must carry their own quotes.
func ParseDefines(pairs []string) (map[string]string, error) {
	defines := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid define %q, expected key=value", pair)
		}
		defines[strings.TrimSpace(key)] = value
	}
	return defines, nil
}

// ModeDefines returns the defines every build gets for the given mode.
func ModeDefines(mode string) map[string]string {
	return map[string]string{
		"process.env.NODE_ENV": quote(mode),
		"import.meta.env.MODE": quote(mode),
		"import.meta.env.PROD": fmt.Sprint(mode == "production"),
		"import.meta.env.DEV":  fmt.Sprint(mode != "production"),
	}
}

// quote JSON-encodes s for use as a define value.
func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
