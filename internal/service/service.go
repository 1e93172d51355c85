// Package service wires the download pipeline together: load, classify,
// snapshot, execute, and record outcomes.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/crobles/tunegrab/internal/backup"
	"github.com/crobles/tunegrab/internal/cleanup"
	"github.com/crobles/tunegrab/internal/config"
	"github.com/crobles/tunegrab/internal/domain"
	"github.com/crobles/tunegrab/internal/executor"
	"github.com/crobles/tunegrab/internal/fetch"
	"github.com/crobles/tunegrab/internal/history"
	"github.com/crobles/tunegrab/internal/library"
	"github.com/crobles/tunegrab/internal/loader"
	"github.com/crobles/tunegrab/internal/logger"
	"github.com/crobles/tunegrab/internal/progress"
	"github.com/crobles/tunegrab/internal/registry"
	"github.com/crobles/tunegrab/internal/tagging"
)

type Service struct {
	cfg      *config.Config
	log      *logger.Logger
	exec     *executor.Executor
	index    *library.Index
	loader   *loader.Loader
	registry *registry.Registry
	snapshot *progress.Snapshot
	sweeper  *cleanup.Sweeper
	backups  *backup.Manager
	history  *history.DB // optional
	tracker  *Tracker

	albumMu sync.Mutex
	albums  map[string]string // canonical key -> album, for tagging
}

func New(cfg *config.Config, fetcher fetch.Fetcher, hist *history.DB, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}

	return &Service{
		cfg:      cfg,
		log:      log.WithComponent("service"),
		exec:     executor.New(fetcher, log),
		index:    library.NewIndex(log),
		loader:   loader.New(log),
		registry: registry.New(cfg.FailedFile, log),
		snapshot: progress.New(cfg.ProgressFile, log),
		sweeper:  cleanup.NewSweeper(log),
		backups:  backup.NewManager(cfg.BackupsDir, cfg.MaxBackups, log),
		history:  hist,
		tracker:  &Tracker{},
		albums:   make(map[string]string),
	}
}

// rememberAlbums records album metadata before a batch runs so the result
// observer can embed it after a successful fetch.
func (s *Service) rememberAlbums(tracks []domain.Track) {
	s.albumMu.Lock()
	defer s.albumMu.Unlock()
	for _, t := range tracks {
		if t.Album != "" {
			s.albums[t.Key()] = t.Album
		}
	}
}

func (s *Service) albumFor(id domain.TrackIdentity) string {
	s.albumMu.Lock()
	defer s.albumMu.Unlock()
	return s.albums[id.Key()]
}

// Registry exposes the failed-downloads registry for the API layer.
func (s *Service) Registry() *registry.Registry { return s.registry }

// History exposes the history store; nil when history is disabled.
func (s *Service) History() *history.DB { return s.history }

// Status returns the current batch progress view.
func (s *Service) Status() BatchStatus { return s.tracker.Snapshot() }

func (s *Service) options(label string, total int) executor.Options {
	s.tracker.Begin(label, total)
	return executor.Options{
		MaxConcurrency: s.cfg.MaxConcurrency,
		InterTaskDelay: s.cfg.InterTaskDelay(),
		OnResult:       s.observeResult,
	}
}

// observeResult runs on the executor's aggregation goroutine: it updates
// the tracker, records history, and tags successful downloads.
func (s *Service) observeResult(r executor.Result) {
	s.tracker.Observe(r.Err == nil)

	status := domain.TaskStatusSucceeded
	if r.Err != nil {
		status = domain.TaskStatusFailed
	}

	if s.history != nil {
		if err := s.history.Record(r.Task.Identity, r.Task.DestinationDir, r.Task.AudioFormat, status, r.Err); err != nil {
			s.log.Warn("Failed to record history", "error", err)
		}
	}

	if r.Err == nil && s.cfg.EnableTagging {
		s.tagDownload(r.Task)
	}
}

func (s *Service) tagDownload(task domain.DownloadTask) {
	id := task.Identity
	path := fetch.OutputPath(id, task.DestinationDir, task.AudioFormat)
	if _, err := os.Stat(path); err != nil {
		return
	}

	meta := tagging.FromIdentity(id)
	meta.Album = s.albumFor(id)
	if pic, mime := tagging.FindLocalCover(path); len(pic) > 0 {
		meta.Picture = pic
		meta.PictureMime = mime
	}

	if err := tagging.TagFile(path, meta); err != nil {
		if errors.Is(err, tagging.ErrUnsupportedFormat) {
			s.log.Debug("Skipping tagging", "path", path, "error", err)
			return
		}
		s.log.Warn("Failed to tag file", "path", path, "error", err)
	}
}

// DownloadAll downloads every pending track from the tracks file into the
// output directory. The progress snapshot is written before the batch and
// cleared only after a fully clean pass; failures are appended to the
// failed registry.
func (s *Service) DownloadAll(ctx context.Context) (domain.BatchResult, error) {
	tracks := s.loader.LoadTracks(s.cfg.TracksFile)
	if len(tracks) == 0 {
		s.log.Info("No tracks to download")
		return domain.BatchResult{}, nil
	}

	present, pending := s.index.Classify(tracks, s.cfg.OutputDir)
	s.log.Info("Batch plan", "total", len(tracks), "present", present, "pending", len(pending))
	if len(pending) == 0 {
		return domain.BatchResult{}, nil
	}

	pendingIDs := domain.Identities(pending)
	if err := s.snapshot.Save(pendingIDs); err != nil {
		return domain.BatchResult{}, fmt.Errorf("failed to save progress snapshot: %w", err)
	}

	s.rememberAlbums(pending)
	res := s.runBatch(ctx, "download", executor.BuildTasks(pendingIDs, s.cfg.OutputDir, s.cfg.AudioFormat))

	if len(res.Failed) == 0 && res.Succeeded == len(pending) {
		if err := s.snapshot.Clear(); err != nil {
			s.log.Warn("Failed to clear snapshot", "error", err)
		}
	}
	if len(res.Failed) > 0 {
		if err := s.registry.Add(res.Failed...); err != nil {
			s.log.Warn("Failed to update registry", "error", err)
		}
	}

	s.postBatch()
	return res, nil
}

// DownloadPlaylists downloads every pending playlist track into its
// playlist subdirectory.
func (s *Service) DownloadPlaylists(ctx context.Context) (domain.BatchResult, error) {
	playlists := s.loader.LoadPlaylists(s.cfg.PlaylistsFile)
	playlists = append(playlists, s.loader.LoadExportifyFolder(s.cfg.ExportifyDir)...)
	if len(playlists) == 0 {
		s.log.Info("No playlists to download")
		return domain.BatchResult{}, nil
	}

	_, pending := s.index.ClassifyPlaylists(playlists, s.cfg.OutputDir)
	if len(pending) == 0 {
		s.log.Info("All playlists already downloaded")
		return domain.BatchResult{}, nil
	}

	var total domain.BatchResult
	for _, pl := range pending {
		if ctx.Err() != nil {
			break
		}

		dir := filepath.Join(s.cfg.OutputDir, pl.DirName())
		log := s.log.WithPlaylist(pl.Name)
		log.Info("Downloading playlist", "pending", len(pl.Tracks))

		s.rememberAlbums(pl.Tracks)
		res := s.runBatch(ctx, "playlist: "+pl.Name, executor.BuildTasks(domain.Identities(pl.Tracks), dir, s.cfg.AudioFormat))
		total.Merge(res)
	}

	if len(total.Failed) > 0 {
		if err := s.registry.Add(total.Failed...); err != nil {
			s.log.Warn("Failed to update registry", "error", err)
		}
	}

	s.postBatch()
	return total, nil
}

// DownloadOne fetches a single track immediately.
func (s *Service) DownloadOne(ctx context.Context, artist, title string) error {
	id := domain.TrackIdentity{Artist: artist, Title: title}.Normalize()
	if !id.Valid() {
		return fmt.Errorf("artist and title are required")
	}

	res := s.runBatch(ctx, "single", executor.BuildTasks([]domain.TrackIdentity{id}, s.cfg.OutputDir, s.cfg.AudioFormat))
	if len(res.Failed) > 0 {
		if err := s.registry.Add(res.Failed...); err != nil {
			s.log.Warn("Failed to update registry", "error", err)
		}
		return fmt.Errorf("download failed for %s", id)
	}
	return nil
}

// Retry re-runs the registry entries, up to RetryAttempts passes, and
// rewrites the registry with whatever still fails after the last pass.
func (s *Service) Retry(ctx context.Context) (domain.BatchResult, error) {
	if s.cfg.AutoBackup {
		s.backups.BackupAll(s.cfg.FailedFile)
	}

	attempts := s.cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var total domain.BatchResult
	for pass := 1; pass <= attempts; pass++ {
		if ctx.Err() != nil || s.registry.Count() == 0 {
			break
		}

		opts := s.options(fmt.Sprintf("retry %d/%d", pass, attempts), s.registry.Count())
		res, err := s.registry.RetryAll(ctx, s.exec, s.cfg.OutputDir, s.cfg.AudioFormat, opts)
		s.tracker.End()
		if err != nil {
			return total, err
		}

		total.Succeeded += res.Succeeded
		total.Failed = res.Failed
	}

	s.postBatch()
	return total, nil
}

// Resume continues an interrupted batch from the progress snapshot.
func (s *Service) Resume(ctx context.Context) (domain.BatchResult, bool) {
	pending := s.snapshot.Load()
	if len(pending) == 0 {
		return domain.BatchResult{}, false
	}

	opts := s.options("resume", len(pending))
	defer s.tracker.End()

	res, ok := s.snapshot.Resume(ctx, s.exec, pending, s.cfg.OutputDir, s.cfg.AudioFormat, opts)
	if ok {
		s.postBatch()
	}
	return res, ok
}

func (s *Service) runBatch(ctx context.Context, label string, tasks []domain.DownloadTask) domain.BatchResult {
	opts := s.options(label, len(tasks))
	defer s.tracker.End()
	return s.exec.RunBatch(ctx, tasks, opts)
}

// postBatch applies the configured post-download hooks.
func (s *Service) postBatch() {
	if s.cfg.AutoBackup {
		s.backups.BackupAll(s.cfg.TracksFile, s.cfg.PlaylistsFile, s.cfg.FailedFile, s.cfg.ProgressFile)
	}
	if s.cfg.AutoCleanup {
		s.sweeper.Run(s.cfg.OutputDir)
	}
}
