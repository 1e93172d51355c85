// Package progress persists the remaining work of an in-flight batch so an
// interrupted run can resume. At most one snapshot exists at a time; the
// file belongs to a single process.
package progress

import (
	"context"
	"encoding/json"
	"os"

	"github.com/crobles/tunegrab/internal/domain"
	"github.com/crobles/tunegrab/internal/executor"
	"github.com/crobles/tunegrab/internal/logger"
	"github.com/crobles/tunegrab/internal/storage"
)

type Snapshot struct {
	path string
	log  *logger.Logger
}

type snapshotFile struct {
	Pending []domain.TrackIdentity `json:"pending"`
}

func New(path string, log *logger.Logger) *Snapshot {
	if log == nil {
		log = logger.Default()
	}
	return &Snapshot{
		path: path,
		log:  log.WithComponent("progress"),
	}
}

// Save captures the full pre-execution pending list. It is written before
// the batch starts and is not updated during execution: after an
// interruption some snapshot entries may already have completed, which is
// fine because re-fetching is idempotent at the file-identity level.
func (s *Snapshot) Save(pending []domain.TrackIdentity) error {
	if pending == nil {
		pending = []domain.TrackIdentity{}
	}

	data, err := json.MarshalIndent(snapshotFile{Pending: pending}, "", "  ")
	if err != nil {
		return err
	}

	return storage.WriteFileAtomic(s.path, data)
}

// Load returns the snapshot's pending list. Absent or invalid JSON means
// no snapshot: logged, never fatal.
func (s *Snapshot) Load() []domain.TrackIdentity {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("Failed to read snapshot", "path", s.path, "error", err)
		}
		return nil
	}

	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		s.log.Warn("Snapshot is corrupted, ignoring", "path", s.path, "error", err)
		return nil
	}

	return file.Pending
}

// Clear deletes the snapshot file.
func (s *Snapshot) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Resume feeds a previously Loaded pending list into the executor, so
// callers that need the count up front read the file once. It reports
// ok=false without running anything when the list is empty. The snapshot
// is deleted only after a pass with zero failures; otherwise the original
// file is left untouched for a future resume attempt.
func (s *Snapshot) Resume(ctx context.Context, exec *executor.Executor, pending []domain.TrackIdentity, destDir, format string, opts executor.Options) (domain.BatchResult, bool) {
	if len(pending) == 0 {
		s.log.Info("No snapshot to resume")
		return domain.BatchResult{}, false
	}

	s.log.Info("Resuming interrupted batch", "pending", len(pending))
	res := exec.RunBatch(ctx, executor.BuildTasks(pending, destDir, format), opts)

	if len(res.Failed) == 0 && res.Succeeded == len(pending) {
		if err := s.Clear(); err != nil {
			s.log.Warn("Failed to clear snapshot", "error", err)
		} else {
			s.log.Info("Snapshot cleared after full success")
		}
	} else {
		s.log.Info("Resume incomplete, snapshot kept", "succeeded", res.Succeeded, "failed", len(res.Failed))
	}

	return res, true
}
