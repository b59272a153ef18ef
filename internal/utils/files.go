package utils

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// FindDescriptorFiles recursively finds all .yaml and .yml files in the
// specified directory, sorted by path.
func FindDescriptorFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip directories
		if d.IsDir() {
			return nil
		}

		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// ExpandPaths replaces every directory in paths with the descriptor files it
// contains. Files are kept in the given order and listed once.
func ExpandPaths(paths []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		if !info.IsDir() {
			add(filepath.Clean(p))
			continue
		}
		files, err := FindDescriptorFiles(p)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", p, err)
		}
		for _, f := range files {
			add(f)
		}
	}
	return out, nil
}
