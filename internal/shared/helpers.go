// Package shared provides small helpers used by more than one package.
package shared

import (
	"fmt"
	"strings"
)

const versionTokenKey = "Version"

// FoldName trims and lowercases a module or directory name so that names
// can be compared case-insensitively and used as map keys.
func FoldName(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// SplitModuleName splits a fully qualified module name such as
// "Acme.Json, Version=13.0.1.0, Culture=neutral" into the name without its
// Version token and the raw version value. Remaining tokens keep their
// order; a missing Version token yields "".
func SplitModuleName(fullName string) (string, string) {
	parts := strings.Split(fullName, ",")
	kept := make([]string, 0, len(parts))
	version := ""
	for idx, part := range parts {
		token := strings.TrimSpace(part)
		if token == "" {
			continue
		}
		if idx > 0 {
			key, value, ok := strings.Cut(token, "=")
			if ok && strings.EqualFold(strings.TrimSpace(key), versionTokenKey) {
				version = strings.TrimSpace(value)
				continue
			}
		}
		kept = append(kept, token)
	}
	return strings.Join(kept, ", "), version
}

// HTTPStatusError creates a formatted error for non-2xx HTTP responses.
func HTTPStatusError(status int, url string) error {
	return fmt.Errorf("status=%d url=%s", status, url)
}
