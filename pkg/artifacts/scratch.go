package artifacts

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// DefaultScratchPatterns are the locations where the automation agent is
// known to deposit screenshots outside the run directory. The macOS temp
// layout is tried first, then the generic one.
var DefaultScratchPatterns = []string{
	"/var/folders/*/T/browser_use_agent_*/screenshots",
	"/tmp/browser_use_agent_*/screenshots",
}

// scratch files worth importing; the agent only ever writes these two
var scratchExts = map[string]bool{".png": true, ".jpg": true}

// FindNewestScratch globs the given patterns (DefaultScratchPatterns when
// none are passed) and returns the most recently modified match. The
// selection is a best-effort heuristic: nothing ties the directory to the
// current run, and a concurrent agent process can win the mtime race.
func FindNewestScratch(patterns ...string) (string, bool) {
	if len(patterns) == 0 {
		patterns = DefaultScratchPatterns
	}

	var newest string
	var newestTime time.Time
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || !info.IsDir() {
				continue
			}
			if newest == "" || info.ModTime().After(newestTime) {
				newest = m
				newestTime = info.ModTime()
			}
		}
	}
	return newest, newest != ""
}

// ImportScratch copies recognized image files from the newest scratch
// directory into destDir, preserving names and modification times and
// overwriting on collision. Files already in destDir are never removed,
// and the scratch location is never deleted from. Returns the names of
// the files copied; none with a nil error means no scratch directory
// matched.
func ImportScratch(destDir string, patterns ...string) ([]string, error) {
	src, ok := FindNewestScratch(patterns...)
	if !ok {
		return nil, nil
	}
	return CopyImages(src, destDir)
}

// CopyImages copies every recognized image file from src into destDir
// and returns the copied names in scan order. A file that fails to copy
// is recorded in the joined error and the scan moves on: the scratch
// directory belongs to another process and entries can vanish mid-copy,
// which must not cost the files after them.
func CopyImages(src, destDir string) ([]string, error) {
	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read scratch directory %s: %w", src, err)
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", destDir, err)
	}

	var copied []string
	var errs []error
	for _, e := range entries {
		if e.IsDir() || !scratchExts[filepath.Ext(e.Name())] {
			continue
		}
		srcPath := filepath.Join(src, e.Name())
		dstPath := filepath.Join(destDir, e.Name())
		if err := copyFile(srcPath, dstPath); err != nil {
			errs = append(errs, fmt.Errorf("failed to copy %s: %w", e.Name(), err))
			continue
		}
		copied = append(copied, e.Name())
	}
	return copied, errors.Join(errs...)
}

// copyFile copies src to dst, carrying over the modification time so the
// manifest's capture times reflect when the screenshot was taken
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if info, err := os.Stat(src); err == nil {
		os.Chtimes(dst, info.ModTime(), info.ModTime())
	}
	return nil
}
