package library

import (
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/crobles/tunegrab/internal/constants"
	"github.com/crobles/tunegrab/internal/logger"
	"github.com/crobles/tunegrab/internal/storage"
)

// DuplicatePair reports a file whose bytes match an earlier file.
type DuplicatePair struct {
	Duplicate string `json:"duplicate"`
	Original  string `json:"original"`
}

// Reconciler runs post-hoc maintenance over the downloaded corpus.
type Reconciler struct {
	index       *Index
	log         *logger.Logger
	hashWorkers int
}

func NewReconciler(log *logger.Logger) *Reconciler {
	if log == nil {
		log = logger.Default()
	}
	return &Reconciler{
		index:       NewIndex(log),
		log:         log.WithComponent("reconciler"),
		hashWorkers: constants.DefaultConcurrency,
	}
}

// FindDuplicates walks root recursively and groups files by content hash.
// The first file in walk order owning a hash is the original; every later
// file with the same hash is reported as its duplicate. Matching is purely
// content-based, so re-downloads saved under different names are caught.
func (r *Reconciler) FindDuplicates(root string) ([]DuplicatePair, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			r.log.Warn("Skipping unreadable entry", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Hash in parallel; grouping below stays in walk order so the
	// original/duplicate assignment is deterministic.
	hashes := make([]string, len(paths))
	var g errgroup.Group
	g.SetLimit(r.hashWorkers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			h, err := storage.HashFile(path)
			if err != nil {
				r.log.Warn("Failed to hash file", "path", path, "error", err)
				return nil
			}
			hashes[i] = h
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]string, len(paths))
	var dups []DuplicatePair
	for i, path := range paths {
		h := hashes[i]
		if h == "" {
			continue
		}
		if original, ok := seen[h]; ok {
			dups = append(dups, DuplicatePair{Duplicate: path, Original: original})
			continue
		}
		seen[h] = path
	}

	r.log.Info("Duplicate scan complete", "files", len(paths), "duplicates", len(dups))
	return dups, nil
}

// OrganizeByArtist moves every parseable audio file directly under root
// into root/<Artist>/. Running it again is a no-op: organized files are no
// longer directly under root. Unparsable files are left where they are.
func (r *Reconciler) OrganizeByArtist(root string) (moved int, err error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return 0, err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		id, ok := r.index.ParseTrackFilename(entry.Name())
		if !ok {
			continue
		}

		artistDir := filepath.Join(root, storage.Sanitize(id.Artist))
		if mkErr := storage.EnsureDir(artistDir); mkErr != nil {
			r.log.Warn("Failed to create artist directory", "dir", artistDir, "error", mkErr)
			continue
		}

		src := filepath.Join(root, entry.Name())
		dst := filepath.Join(artistDir, entry.Name())
		if mvErr := storage.MoveFile(src, dst); mvErr != nil {
			r.log.Warn("Failed to move file", "src", src, "error", mvErr)
			continue
		}
		moved++
	}

	r.log.Info("Organize complete", "root", root, "moved", moved)
	return moved, nil
}
