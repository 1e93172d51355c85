// Package registry keeps the durable record of tracks whose fetch failed,
// consulted and rewritten across runs.
package registry

import (
	"context"
	"encoding/json"
	"os"

	"github.com/crobles/tunegrab/internal/domain"
	"github.com/crobles/tunegrab/internal/executor"
	"github.com/crobles/tunegrab/internal/logger"
	"github.com/crobles/tunegrab/internal/storage"
)

// Registry persists failed track identities as JSON at a fixed path. The
// file is owned by a single process; concurrent instances sharing a data
// directory are unsupported.
type Registry struct {
	path string
	log  *logger.Logger
}

type registryFile struct {
	Failed []domain.TrackIdentity `json:"failed"`
}

func New(path string, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Default()
	}
	return &Registry{
		path: path,
		log:  log.WithComponent("registry"),
	}
}

// Load returns the recorded failed identities. A missing file is an empty
// registry; a corrupted file is logged and treated as empty, never fatal.
func (r *Registry) Load() []domain.TrackIdentity {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.log.Warn("Failed to read registry", "path", r.path, "error", err)
		}
		return nil
	}

	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		r.log.Warn("Registry is corrupted, treating as empty", "path", r.path, "error", err)
		return nil
	}

	return file.Failed
}

// Save rewrites the registry as a full replace, so the persisted state
// matches the last observed outcome exactly.
func (r *Registry) Save(failed []domain.TrackIdentity) error {
	if failed == nil {
		failed = []domain.TrackIdentity{}
	}

	data, err := json.MarshalIndent(registryFile{Failed: failed}, "", "  ")
	if err != nil {
		return err
	}

	return storage.WriteFileAtomic(r.path, data)
}

// Add merges identities into the registry, de-duplicated by canonical key.
func (r *Registry) Add(ids ...domain.TrackIdentity) error {
	existing := r.Load()

	seen := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		seen[id.Key()] = struct{}{}
	}

	for _, id := range ids {
		id = id.Normalize()
		if !id.Valid() {
			continue
		}
		if _, ok := seen[id.Key()]; ok {
			continue
		}
		seen[id.Key()] = struct{}{}
		existing = append(existing, id)
	}

	return r.Save(existing)
}

// Count returns the number of recorded failures.
func (r *Registry) Count() int {
	return len(r.Load())
}

// Clear empties the registry.
func (r *Registry) Clear() error {
	return r.Save(nil)
}

// RetryAll builds a fresh task per registry entry, runs them through the
// executor, and rewrites the registry with this pass's failures plus any
// entry never dispatched before cancellation. The registry shrinks by the
// number of successes and never grows during a retry pass.
func (r *Registry) RetryAll(ctx context.Context, exec *executor.Executor, destDir, format string, opts executor.Options) (domain.BatchResult, error) {
	failed := r.Load()
	if len(failed) == 0 {
		r.log.Info("No failed downloads to retry")
		return domain.BatchResult{}, nil
	}

	attempted := make(map[string]bool, len(failed))
	inner := opts.OnResult
	opts.OnResult = func(res executor.Result) {
		attempted[res.Task.Identity.Key()] = true
		if inner != nil {
			inner(res)
		}
	}

	r.log.Info("Retrying failed downloads", "count", len(failed))
	res := exec.RunBatch(ctx, executor.BuildTasks(failed, destDir, format), opts)

	keep := res.Failed
	for _, id := range failed {
		if !attempted[id.Key()] {
			keep = append(keep, id)
		}
	}

	if err := r.Save(keep); err != nil {
		return res, err
	}

	r.log.Info("Retry pass complete", "succeeded", res.Succeeded, "still_failed", len(keep))
	return res, nil
}
