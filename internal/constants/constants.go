// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultConfigPath    = "config.json"
	DefaultOutputDir     = "music"
	DefaultAudioFormat   = "mp3"
	DefaultConcurrency   = 4
	DefaultSleepBetween  = 5 * time.Second
	DefaultRetryAttempts = 3
	DefaultMaxBackups    = 10
	DefaultStatusPort    = "8090"
	DefaultProfile       = "light"
)

// Data files
const (
	DataDir             = "data"
	DefaultTracksFile   = "data/tracks.json"
	DefaultPlaylists    = "data/playlists.json"
	DefaultFailedFile   = "data/failed_downloads.json"
	DefaultProgress     = "data/progress.json"
	DefaultHistoryDB    = "data/tunegrab.db"
	DefaultBackupsDir   = "data/backups"
	DefaultExportifyDir = "data/exportify"
)

// Audio formats accepted by the audio_format config option.
var AudioFormats = []string{"mp3", "wav", "flac", "aac", "ogg", "m4a"}

// AudioExtensions is the allow-list used when scanning a library directory.
var AudioExtensions = []string{".mp3", ".wav", ".flac", ".aac", ".ogg", ".m4a", ".opus"}

// File Extensions
const (
	ExtMP3  = ".mp3"
	ExtFLAC = ".flac"
	ExtCSV  = ".csv"
)

// File Permissions
const (
	DirPermissions  = 0755
	FilePermissions = 0644
)

// Cleanup thresholds
const (
	// MinValidAudioSize is the size below which an audio file is considered
	// a partial download.
	MinValidAudioSize = 100 * 1024
)

// Hashing
const (
	// HashBlockSize is the read block used when hashing file contents.
	HashBlockSize = 64 * 1024
)

// Characters to sanitize from filesystem paths
const InvalidPathChars = "<>:\"/\\|?*"
