// Package discovery finds the videos to search in a batch directory.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	cerrors "github.com/five82/crfboost/internal/errors"
	"github.com/five82/crfboost/internal/util"
)

// Logger is the subset of the run log used by discovery.
type Logger interface {
	Info(format string, args ...any)
	Debug(format string, args ...any)
}

// Result contains the discovered files with metadata.
type Result struct {
	Files        []string
	SkippedCount int
}

// FindVideoFiles lists the video files directly inside inputDir, sorted
// case-insensitively by name. Hidden files and crfboost working files are
// ignored. A nil logger is allowed.
func FindVideoFiles(inputDir string, logger Logger) (*Result, error) {
	info, err := os.Stat(inputDir)
	if err != nil {
		return nil, cerrors.NewPathError(fmt.Sprintf("directory does not exist: %s", inputDir))
	}
	if !info.IsDir() {
		return nil, cerrors.NewPathError(fmt.Sprintf("%s is not a directory", inputDir))
	}

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, cerrors.NewIOError(fmt.Sprintf("cannot read directory %s", inputDir), err)
	}

	result := &Result{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasPrefix(name, ".") ||
			strings.HasPrefix(name, util.OutputPrefix) ||
			strings.HasPrefix(name, util.TempPrefix) {
			continue
		}

		fullPath := filepath.Join(inputDir, name)
		if util.IsVideoFile(fullPath) {
			result.Files = append(result.Files, fullPath)
		} else {
			result.SkippedCount++
		}
	}

	if len(result.Files) == 0 {
		return nil, cerrors.NewNoFilesFoundError(inputDir)
	}

	slices.SortFunc(result.Files, func(a, b string) int {
		return strings.Compare(strings.ToLower(filepath.Base(a)), strings.ToLower(filepath.Base(b)))
	})

	if logger != nil {
		logDiscoveredFiles(result, logger)
	}
	return result, nil
}

// logDiscoveredFiles logs the first 5 discovered files plus a count.
func logDiscoveredFiles(result *Result, logger Logger) {
	files := result.Files
	logger.Info("Found %d video file(s), skipped %d", len(files), result.SkippedCount)

	for _, f := range files[:min(5, len(files))] {
		logger.Debug("  %s", filepath.Base(f))
	}
	if len(files) > 5 {
		logger.Debug("  ... and %d more", len(files)-5)
	}
}
