package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ruspass-tech/ruspass/internal/utils"
)

// discoverInputFiles finds all processable files under the given args.
func discoverInputFiles(args []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			found, err := discoverInDirectory(arg, recursive, includePatterns, excludePatterns)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
		} else if shouldIncludeFile(arg, includePatterns, excludePatterns) {
			files = append(files, arg)
		}
	}

	sort.Strings(files)
	return files, nil
}

// discoverInDirectory walks a directory for processable files.
func discoverInDirectory(dir string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var files []string

	walkFn := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		if shouldIncludeFile(path, includePatterns, excludePatterns) {
			files = append(files, path)
		}

		return nil
	}

	return files, filepath.Walk(dir, walkFn)
}

// shouldIncludeFile applies the format check and include/exclude patterns.
func shouldIncludeFile(path string, includePatterns, excludePatterns []string) bool {
	if !isProcessable(path) {
		return false
	}
	if matchesAnyPattern(path, excludePatterns) {
		return false
	}
	if len(includePatterns) == 0 {
		return true
	}
	return matchesAnyPattern(path, includePatterns)
}

func isProcessable(path string) bool {
	return utils.IsSupportedImage(path) || strings.EqualFold(filepath.Ext(path), ".pdf")
}

// matchesAnyPattern checks the base name against glob patterns.
func matchesAnyPattern(path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// groupFiles splits the file list into document groups. With byDir set,
// files sharing a parent directory are pages of one document; otherwise
// every file is its own group.
func groupFiles(files []string, byDir bool) [][]string {
	if !byDir {
		groups := make([][]string, len(files))
		for i, f := range files {
			groups[i] = []string{f}
		}
		return groups
	}

	byParent := make(map[string][]string)
	var order []string
	for _, f := range files {
		parent := filepath.Dir(f)
		if _, seen := byParent[parent]; !seen {
			order = append(order, parent)
		}
		byParent[parent] = append(byParent[parent], f)
	}

	groups := make([][]string, 0, len(order))
	for _, parent := range order {
		groups = append(groups, byParent[parent])
	}
	return groups
}
