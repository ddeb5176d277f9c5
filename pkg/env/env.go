package env

import (
	"os"
	"strings"
)

// FirstOf returns the first non-blank variable among keys, or the fallback.
// Platforms such as Heroku inject PORT while local runs use the prefixed name.
func FirstOf(fallback string, keys ...string) string {
	for _, key := range keys {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			return val
		}
	}
	return fallback
}
