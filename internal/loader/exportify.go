package loader

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/crobles/tunegrab/internal/constants"
	"github.com/crobles/tunegrab/internal/domain"
)

// LoadExportifyFolder reads every CSV in dir as one playlist named after
// the file. Unreadable or malformed files are skipped with a warning.
func (l *Loader) LoadExportifyFolder(dir string) []domain.Playlist {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			l.log.Warn("Failed to read exportify folder", "dir", dir, "error", err)
		}
		return nil
	}

	var playlists []domain.Playlist
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), constants.ExtCSV) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		tracks, err := l.loadExportifyCSV(path)
		if err != nil {
			l.log.Warn("Skipping unreadable CSV", "path", path, "error", err)
			continue
		}
		if len(tracks) == 0 {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		playlists = append(playlists, domain.Playlist{Name: name, Tracks: tracks})
	}

	l.log.Info("Loaded exportify playlists", "dir", dir, "count", len(playlists))
	return playlists
}

func (l *Loader) loadExportifyCSV(path string) ([]domain.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := records[0]
	artistCol, trackCol, albumCol := -1, -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case "Artist Name(s)", "Artist":
			if artistCol == -1 {
				artistCol = i
			}
		case "Track Name", "Track":
			if trackCol == -1 {
				trackCol = i
			}
		case "Album Name", "Album":
			if albumCol == -1 {
				albumCol = i
			}
		}
	}
	if artistCol == -1 || trackCol == -1 {
		return nil, nil
	}

	var tracks []domain.Track
	for _, row := range records[1:] {
		if artistCol >= len(row) || trackCol >= len(row) {
			continue
		}

		id := domain.TrackIdentity{
			Artist: NormalizeArtists(row[artistCol]),
			Title:  row[trackCol],
		}.Normalize()
		if !id.Valid() {
			continue
		}

		album := ""
		if albumCol != -1 && albumCol < len(row) {
			album = strings.TrimSpace(row[albumCol])
		}
		tracks = append(tracks, domain.Track{TrackIdentity: id, Album: album})
	}

	return tracks, nil
}

// NormalizeArtists folds Exportify's multi-artist field into one
// search-friendly string. Exportify separates artists with semicolons;
// commas are only treated as delimiters when no semicolon is present.
// Repeated artists are dropped, first occurrence wins.
func NormalizeArtists(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	delim := ","
	if strings.Contains(raw, ";") {
		delim = ";"
	}

	seen := make(map[string]struct{})
	var uniq []string
	for _, part := range strings.Split(raw, delim) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key := strings.ToLower(part)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		uniq = append(uniq, part)
	}

	if len(uniq) == 0 {
		return raw
	}
	return strings.Join(uniq, ", ")
}
