package batch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileDetector turns the -in arguments of the batch command into a list of
// workbook paths.
type FileDetector struct {
	logger *slog.Logger
}

// NewFileDetector creates a detector. logger may be nil.
func NewFileDetector(logger *slog.Logger) *FileDetector {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileDetector{logger: logger.With(slog.String("component", "file_detector"))}
}

// Expand resolves each argument as a file, a directory (every workbook in
// it) or a glob pattern. Excel lock files (~$name.xlsx) and non-workbooks
// are dropped. The result is sorted and free of duplicates.
func (fd *FileDetector) Expand(args []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(path string) {
		if !IsWorkbook(path) {
			fd.logger.Debug("skipping non-workbook", slog.String("path", path))
			return
		}
		clean := filepath.Clean(path)
		if _, ok := seen[clean]; ok {
			return
		}
		seen[clean] = struct{}{}
		out = append(out, clean)
	}

	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}

			if info, err := os.Stat(part); err == nil {
				if !info.IsDir() {
					add(part)
					continue
				}
				entries, err := os.ReadDir(part)
				if err != nil {
					return nil, fmt.Errorf("failed to read directory %s: %w", part, err)
				}
				for _, e := range entries {
					if !e.IsDir() {
						add(filepath.Join(part, e.Name()))
					}
				}
				continue
			}

			matches, err := filepath.Glob(part)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", part, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no such file or pattern match: %s", part)
			}
			for _, m := range matches {
				add(m)
			}
		}
	}

	sort.Strings(out)
	fd.logger.Info("input files detected", slog.Int("count", len(out)))
	return out, nil
}

// IsWorkbook reports whether path names an xlsx or xlsm file that is not
// an Excel lock file.
func IsWorkbook(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}
