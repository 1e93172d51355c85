// Package loader reads the external track and playlist files into typed
// records. Raw formats live only here; the rest of the system sees
// domain.Track and domain.Playlist.
package loader

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/crobles/tunegrab/internal/domain"
	"github.com/crobles/tunegrab/internal/logger"
)

type Loader struct {
	log *logger.Logger
}

func New(log *logger.Logger) *Loader {
	if log == nil {
		log = logger.Default()
	}
	return &Loader{log: log.WithComponent("loader")}
}

type tracksFile struct {
	Tracks []trackEntry `json:"tracks"`
}

type trackEntry struct {
	Artist string `json:"artist"`
	Album  string `json:"album"`
	Track  string `json:"track"`
	URI    string `json:"uri"`
}

// LoadTracks reads a tracks file into tracks. Blank entries are dropped
// at this boundary. A missing or unparsable file is logged and yields an
// empty list so callers can proceed.
func (l *Loader) LoadTracks(path string) []domain.Track {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.log.Warn("Failed to read tracks file", "path", path, "error", err)
		}
		return nil
	}

	var file tracksFile
	if err := json.Unmarshal(data, &file); err != nil {
		l.log.Warn("Tracks file is not valid JSON", "path", path, "error", err)
		return nil
	}

	tracks := make([]domain.Track, 0, len(file.Tracks))
	for _, t := range file.Tracks {
		id := domain.TrackIdentity{Artist: t.Artist, Title: t.Track}.Normalize()
		if !id.Valid() {
			continue
		}
		tracks = append(tracks, domain.Track{
			TrackIdentity: id,
			Album:         strings.TrimSpace(t.Album),
		})
	}

	l.log.Info("Loaded tracks", "path", path, "count", len(tracks))
	return tracks
}

type playlistsFile struct {
	Playlists []playlistEntry `json:"playlists"`
}

type playlistEntry struct {
	Name  string `json:"name"`
	Items []struct {
		Track *struct {
			TrackName  string `json:"trackName"`
			ArtistName string `json:"artistName"`
			AlbumName  string `json:"albumName"`
			TrackURI   string `json:"trackUri"`
		} `json:"track"`
	} `json:"items"`
}

// LoadPlaylists reads a legacy playlist export, where each playlist nests
// its tracks under items[].track.
func (l *Loader) LoadPlaylists(path string) []domain.Playlist {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.log.Warn("Failed to read playlists file", "path", path, "error", err)
		}
		return nil
	}

	var file playlistsFile
	if err := json.Unmarshal(data, &file); err != nil {
		l.log.Warn("Playlists file is not valid JSON", "path", path, "error", err)
		return nil
	}

	playlists := make([]domain.Playlist, 0, len(file.Playlists))
	for _, pl := range file.Playlists {
		name := strings.TrimSpace(pl.Name)
		if name == "" {
			continue
		}

		var tracks []domain.Track
		for _, item := range pl.Items {
			if item.Track == nil {
				continue
			}
			id := domain.TrackIdentity{Artist: item.Track.ArtistName, Title: item.Track.TrackName}.Normalize()
			if !id.Valid() {
				continue
			}
			tracks = append(tracks, domain.Track{
				TrackIdentity: id,
				Album:         strings.TrimSpace(item.Track.AlbumName),
			})
		}

		playlists = append(playlists, domain.Playlist{Name: name, Tracks: tracks})
	}

	l.log.Info("Loaded playlists", "path", path, "count", len(playlists))
	return playlists
}
