// Package cleanup sweeps the download tree after a batch: leftover
// downloader temp files, undersized partial downloads, empty directories.
package cleanup

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/crobles/tunegrab/internal/constants"
	"github.com/crobles/tunegrab/internal/logger"
)

// tempSuffixes are the droppings of an interrupted external fetch.
var tempSuffixes = []string{".part", ".ytdl", ".temp", ".tmp", ".partial"}

// Stats summarizes one sweep.
type Stats struct {
	TempFilesRemoved    int `json:"temp_files_removed"`
	PartialFilesRemoved int `json:"partial_files_removed"`
	EmptyDirsRemoved    int `json:"empty_dirs_removed"`
}

func (s Stats) Total() int {
	return s.TempFilesRemoved + s.PartialFilesRemoved + s.EmptyDirsRemoved
}

type Sweeper struct {
	exts map[string]bool
	log  *logger.Logger
}

func NewSweeper(log *logger.Logger) *Sweeper {
	if log == nil {
		log = logger.Default()
	}

	exts := make(map[string]bool, len(constants.AudioExtensions))
	for _, e := range constants.AudioExtensions {
		exts[e] = true
	}

	return &Sweeper{
		exts: exts,
		log:  log.WithComponent("cleanup"),
	}
}

// Run sweeps root. A missing root yields zero stats; per-item failures are
// logged and skipped, never fatal.
func (s *Sweeper) Run(root string) Stats {
	var stats Stats
	if _, err := os.Stat(root); err != nil {
		return stats
	}

	var dirs []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.log.Warn("Skipping unreadable entry", "path", path, "error", err)
			return nil
		}

		if d.IsDir() {
			if path != root {
				dirs = append(dirs, path)
			}
			return nil
		}

		if s.isTempFile(path) {
			if rmErr := os.Remove(path); rmErr != nil {
				s.log.Warn("Could not remove temp file", "path", path, "error", rmErr)
			} else {
				stats.TempFilesRemoved++
			}
			return nil
		}

		if s.isPartialAudio(path, d) {
			if rmErr := os.Remove(path); rmErr != nil {
				s.log.Warn("Could not remove partial file", "path", path, "error", rmErr)
			} else {
				stats.PartialFilesRemoved++
			}
		}
		return nil
	})
	if err != nil {
		s.log.Warn("Cleanup walk failed", "root", root, "error", err)
	}

	// Deepest directories first, so nested empty chains collapse.
	for i := len(dirs) - 1; i >= 0; i-- {
		entries, readErr := os.ReadDir(dirs[i])
		if readErr != nil || len(entries) > 0 {
			continue
		}
		if rmErr := os.Remove(dirs[i]); rmErr != nil {
			s.log.Warn("Could not remove empty directory", "path", dirs[i], "error", rmErr)
		} else {
			stats.EmptyDirsRemoved++
		}
	}

	if stats.Total() > 0 {
		s.log.Info("Cleanup complete", "removed", stats.Total())
	}
	return stats
}

func (s *Sweeper) isTempFile(path string) bool {
	lower := strings.ToLower(path)
	for _, suffix := range tempSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

func (s *Sweeper) isPartialAudio(path string, d fs.DirEntry) bool {
	if !s.exts[strings.ToLower(filepath.Ext(path))] {
		return false
	}
	info, err := d.Info()
	if err != nil {
		return false
	}
	return info.Size() < constants.MinValidAudioSize
}
