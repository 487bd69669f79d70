// Package artifacts scans run directories for captured screenshots and
// builds the ordered manifest embedded in reports and sidecar files.
package artifacts

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kunnath/RobotBrowser/pkg/models"
)

// DirName is the artifact subdirectory inside every run directory
const DirName = "screenshots"

// AuthenticThreshold is the size in bytes above which a capture is
// considered real rather than a placeholder image
const AuthenticThreshold = 1024

// extPriority fixes both which files are recognized and the group order
// of the manifest. Within each group entries are sorted by file name.
var extPriority = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp"}

// Collect scans dir (non-recursively) for recognized image files and
// returns the manifest. A missing or empty directory yields an empty
// manifest, never an error; unreadable files are skipped. No state is
// cached between calls.
func Collect(dir string) []models.ArtifactEntry {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	byExt := make(map[string][]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		byExt[ext] = append(byExt[ext], e.Name())
	}

	var manifest []models.ArtifactEntry
	for _, ext := range extPriority {
		names := byExt[ext]
		sort.Strings(names)
		for _, name := range names {
			full := filepath.Join(dir, name)
			info, err := os.Stat(full)
			if err != nil {
				continue
			}
			abs, err := filepath.Abs(full)
			if err != nil {
				abs = full
			}
			manifest = append(manifest, models.ArtifactEntry{
				Name:       name,
				Path:       abs,
				RelPath:    DirName + "/" + name,
				CapturedAt: info.ModTime(),
				SizeBytes:  info.Size(),
				Authentic:  info.Size() > AuthenticThreshold,
			})
		}
	}
	return manifest
}
