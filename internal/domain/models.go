package domain

import (
	"strings"
	"time"
)

// TaskStatus represents the lifecycle state of a download task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusSucceeded TaskStatus = "succeeded"
	TaskStatusFailed    TaskStatus = "failed"
)

// TrackIdentity identifies one track by artist and title. Two identities
// refer to the same task iff their canonical keys are equal.
type TrackIdentity struct {
	Artist string `json:"artist"`
	Title  string `json:"track"`
}

// Key returns the canonical identity key: lower-cased, trimmed
// "artist|title". It is a pure function of the identity and stable
// across runs.
func (t TrackIdentity) Key() string {
	artist := strings.ToLower(strings.TrimSpace(t.Artist))
	title := strings.ToLower(strings.TrimSpace(t.Title))
	return artist + "|" + title
}

// Valid reports whether both components are non-blank.
func (t TrackIdentity) Valid() bool {
	return strings.TrimSpace(t.Artist) != "" && strings.TrimSpace(t.Title) != ""
}

// Normalize returns a copy with surrounding whitespace removed.
func (t TrackIdentity) Normalize() TrackIdentity {
	return TrackIdentity{
		Artist: strings.TrimSpace(t.Artist),
		Title:  strings.TrimSpace(t.Title),
	}
}

// String renders the identity in the library filename convention.
func (t TrackIdentity) String() string {
	return t.Artist + " - " + t.Title
}

// Track couples an identity with the release metadata the source files
// carry alongside it. The album never participates in identity.
type Track struct {
	TrackIdentity
	Album string
}

// Identities projects tracks onto their identity list.
func Identities(tracks []Track) []TrackIdentity {
	ids := make([]TrackIdentity, len(tracks))
	for i, t := range tracks {
		ids[i] = t.TrackIdentity
	}
	return ids
}

// Playlist is a named ordered collection of tracks.
type Playlist struct {
	Name   string  `json:"name"`
	Tracks []Track `json:"tracks"`
}

// DirName returns the destination subdirectory name for the playlist,
// with path separators replaced.
func (p Playlist) DirName() string {
	return strings.TrimSpace(strings.ReplaceAll(p.Name, "/", "-"))
}

// DownloadTask is one unit of fetch work for a single identity into a
// single destination. Tasks are created per batch and never resurrected;
// a retry builds a new task from a registry entry.
type DownloadTask struct {
	Identity       TrackIdentity
	DestinationDir string
	AudioFormat    string
	Status         TaskStatus
	Attempts       int
}

// NewDownloadTask builds a pending task for an identity.
func NewDownloadTask(id TrackIdentity, destDir, format string) DownloadTask {
	return DownloadTask{
		Identity:       id.Normalize(),
		DestinationDir: destDir,
		AudioFormat:    format,
		Status:         TaskStatusPending,
	}
}

// BatchResult aggregates the outcome of one executor batch.
type BatchResult struct {
	Succeeded int
	Failed    []TrackIdentity
}

// Merge folds another result into this one.
func (b *BatchResult) Merge(other BatchResult) {
	b.Succeeded += other.Succeeded
	b.Failed = append(b.Failed, other.Failed...)
}

// Download is one recorded fetch attempt in the history store.
type Download struct {
	ID          string     `json:"id" db:"id"`
	Artist      string     `json:"artist" db:"artist"`
	Title       string     `json:"title" db:"title"`
	Destination string     `json:"destination" db:"destination"`
	Format      string     `json:"format" db:"format"`
	Status      TaskStatus `json:"status" db:"status"`
	Error       string     `json:"error,omitempty" db:"error"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}
