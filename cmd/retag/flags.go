package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// validateTargets checks that every target is an existing regular file and
// drops duplicates, keeping first-seen order.
func validateTargets(paths []string) ([]string, error) {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("file path is empty")
		}

		abs, err := filepath.Abs(expandHome(path))
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", path, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("file does not exist: %w", err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("path %s is a directory", abs)
		}

		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, path)
	}
	return out, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
