package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/crobles/tunegrab/internal/constants"
)

// Config holds all application configuration
type Config struct {
	TracksFile     string `json:"tracks_file"`
	PlaylistsFile  string `json:"playlists_file"`
	OutputDir      string `json:"output_dir"`
	AudioFormat    string `json:"audio_format"`
	SleepBetween   int    `json:"sleep_between"` // seconds between dispatches per worker
	MaxConcurrency int    `json:"max_concurrency"`
	RetryAttempts  int    `json:"retry_attempts"`
	AutoCleanup    bool   `json:"auto_cleanup"`
	AutoBackup     bool   `json:"auto_backup"`
	MaxBackups     int    `json:"max_backups"`
	Profile        string `json:"profile"`
	ExportifyDir   string `json:"exportify_watch_folder"`
	FailedFile     string `json:"failed_file"`
	ProgressFile   string `json:"progress_file"`
	HistoryDBPath  string `json:"history_db"`
	BackupsDir     string `json:"backups_dir"`
	EnableTagging  bool   `json:"enable_metadata_embedding"`
	StatusPort     string `json:"status_port"`
	LogLevel       string `json:"log_level"`
	LogFormat      string `json:"log_format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		TracksFile:     constants.DefaultTracksFile,
		PlaylistsFile:  constants.DefaultPlaylists,
		OutputDir:      constants.DefaultOutputDir,
		AudioFormat:    constants.DefaultAudioFormat,
		SleepBetween:   int(constants.DefaultSleepBetween / time.Second),
		MaxConcurrency: constants.DefaultConcurrency,
		RetryAttempts:  constants.DefaultRetryAttempts,
		AutoCleanup:    false,
		AutoBackup:     true,
		MaxBackups:     constants.DefaultMaxBackups,
		Profile:        constants.DefaultProfile,
		ExportifyDir:   constants.DefaultExportifyDir,
		FailedFile:     constants.DefaultFailedFile,
		ProgressFile:   constants.DefaultProgress,
		HistoryDBPath:  constants.DefaultHistoryDB,
		BackupsDir:     constants.DefaultBackupsDir,
		EnableTagging:  true,
		StatusPort:     constants.DefaultStatusPort,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load reads configuration from path, applying defaults for absent fields.
// The profile acts as a defaults overlay only: it is applied before the
// file's own values, so anything the file sets explicitly always wins.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = constants.DefaultConfigPath
	}
	if env := os.Getenv("TUNEGRAB_CONFIG"); env != "" {
		path = env
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyProfile()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var peek struct {
		Profile *string `json:"profile"`
	}
	if err := json.Unmarshal(data, &peek); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if peek.Profile != nil {
		cfg.Profile = *peek.Profile
	}
	cfg.applyProfile()

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

// profiles overlay retry/backup/pacing knobs by usage style.
var profiles = map[string]func(*Config){
	"light": func(c *Config) {
		c.RetryAttempts = 1
		c.SleepBetween = 3
		c.MaxBackups = 5
	},
	"advanced": func(c *Config) {
		c.RetryAttempts = 5
		c.SleepBetween = 5
		c.MaxBackups = 20
	},
	"minimal": func(c *Config) {
		c.RetryAttempts = 0
		c.SleepBetween = 2
		c.AutoBackup = false
		c.MaxBackups = 0
		c.EnableTagging = false
	},
}

func (c *Config) applyProfile() {
	if apply, ok := profiles[c.Profile]; ok {
		apply(c)
	}
}

// InterTaskDelay returns the per-worker pause between dispatches.
func (c *Config) InterTaskDelay() time.Duration {
	if c.SleepBetween <= 0 {
		return 0
	}
	return time.Duration(c.SleepBetween) * time.Second
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	if c.OutputDir == "" {
		errors = append(errors, "output_dir cannot be empty")
	}

	if c.TracksFile == "" && c.PlaylistsFile == "" {
		errors = append(errors, "at least one of tracks_file or playlists_file must be set")
	}

	validFormat := false
	for _, f := range constants.AudioFormats {
		if c.AudioFormat == f {
			validFormat = true
			break
		}
	}
	if !validFormat {
		errors = append(errors, fmt.Sprintf("audio_format must be one of: %s, got: %s",
			strings.Join(constants.AudioFormats, ", "), c.AudioFormat))
	}

	if c.SleepBetween < 0 || c.SleepBetween > 60 {
		errors = append(errors, fmt.Sprintf("sleep_between must be between 0 and 60, got: %d", c.SleepBetween))
	}

	if c.MaxConcurrency < 1 {
		errors = append(errors, fmt.Sprintf("max_concurrency must be at least 1, got: %d", c.MaxConcurrency))
	}

	if c.RetryAttempts < 0 || c.RetryAttempts > 10 {
		errors = append(errors, fmt.Sprintf("retry_attempts must be between 0 and 10, got: %d", c.RetryAttempts))
	}

	if c.MaxBackups < 0 || c.MaxBackups > 100 {
		errors = append(errors, fmt.Sprintf("max_backups must be between 0 and 100, got: %d", c.MaxBackups))
	}

	if c.Profile != "" {
		if _, ok := profiles[c.Profile]; !ok {
			errors = append(errors, fmt.Sprintf("profile must be one of: light, advanced, minimal, got: %s", c.Profile))
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("log_level must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("log_format must be one of: text, json, got: %s", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}
