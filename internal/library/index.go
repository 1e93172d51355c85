// Package library scans the download destination: it classifies requested
// tracks as already-present or pending, and reconciles the finished corpus
// (duplicate detection, by-artist layout).
package library

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/crobles/tunegrab/internal/constants"
	"github.com/crobles/tunegrab/internal/domain"
	"github.com/crobles/tunegrab/internal/logger"
)

// Index classifies requested tracks against the files already on disk.
type Index struct {
	exts map[string]bool
	log  *logger.Logger
}

func NewIndex(log *logger.Logger) *Index {
	if log == nil {
		log = logger.Default()
	}

	exts := make(map[string]bool, len(constants.AudioExtensions))
	for _, e := range constants.AudioExtensions {
		exts[e] = true
	}

	return &Index{
		exts: exts,
		log:  log.WithComponent("library"),
	}
}

// ParseTrackFilename parses "Artist - Title.ext" into an identity. The
// extension must be in the audio allow-list and both components must be
// non-blank; anything else reports ok=false.
func (ix *Index) ParseTrackFilename(name string) (domain.TrackIdentity, bool) {
	base := filepath.Base(name)
	ext := strings.ToLower(filepath.Ext(base))
	if !ix.exts[ext] {
		return domain.TrackIdentity{}, false
	}

	root := strings.TrimSuffix(base, filepath.Ext(base))
	artist, title, found := strings.Cut(root, " - ")
	if !found {
		return domain.TrackIdentity{}, false
	}

	id := domain.TrackIdentity{Artist: artist, Title: title}.Normalize()
	if !id.Valid() {
		return domain.TrackIdentity{}, false
	}
	return id, true
}

// ExistingKeys returns the canonical keys of every parseable audio file
// directly under dir. An unreadable directory is logged and treated as
// empty so callers can still proceed with a full pending list.
func (ix *Index) ExistingKeys(dir string) map[string]struct{} {
	keys := make(map[string]struct{})

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			ix.log.Warn("Failed to read library directory", "dir", dir, "error", err)
		}
		return keys
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if id, ok := ix.ParseTrackFilename(entry.Name()); ok {
			keys[id.Key()] = struct{}{}
		}
	}

	return keys
}

// Classify splits tracks into already-present and pending against the files
// in destDir. Invalid identities are dropped, not counted either way.
func (ix *Index) Classify(tracks []domain.Track, destDir string) (present int, pending []domain.Track) {
	existing := ix.ExistingKeys(destDir)

	for _, t := range tracks {
		t.TrackIdentity = t.TrackIdentity.Normalize()
		if !t.Valid() {
			continue
		}

		if _, ok := existing[t.Key()]; ok {
			present++
		} else {
			pending = append(pending, t)
		}
	}

	ix.log.Info("Classified tracks", "dir", destDir, "present", present, "pending", len(pending))
	return present, pending
}

// ClassifyPlaylists splits playlists by remaining work. A returned pending
// playlist carries only its pending tracks; fully downloaded playlists come
// back in done with their full track lists.
func (ix *Index) ClassifyPlaylists(playlists []domain.Playlist, outputDir string) (done, pendingPlaylists []domain.Playlist) {
	for _, pl := range playlists {
		if strings.TrimSpace(pl.Name) == "" {
			continue
		}

		dir := filepath.Join(outputDir, pl.DirName())
		_, pending := ix.Classify(pl.Tracks, dir)

		if len(pending) == 0 {
			done = append(done, pl)
			continue
		}
		pendingPlaylists = append(pendingPlaylists, domain.Playlist{Name: pl.Name, Tracks: pending})
	}

	return done, pendingPlaylists
}
