// Package backup keeps rotated copies of the JSON data files before they
// are rewritten.
package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/crobles/tunegrab/internal/logger"
	"github.com/crobles/tunegrab/internal/storage"
)

type Manager struct {
	dir string
	max int
	log *logger.Logger

	// now is swapped in tests to get distinct timestamps.
	now func() time.Time
}

func NewManager(dir string, maxBackups int, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Default()
	}
	return &Manager{
		dir: dir,
		max: maxBackups,
		log: log.WithComponent("backup"),
		now: time.Now,
	}
}

// BackupFile copies path into the backups dir under a timestamped name and
// prunes that file's oldest backups beyond the limit. A missing source is
// a no-op.
func (m *Manager) BackupFile(path string) (string, error) {
	if m.max <= 0 {
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s for backup: %w", path, err)
	}

	if err := storage.EnsureDir(m.dir); err != nil {
		return "", err
	}

	base := filepath.Base(path)
	name := fmt.Sprintf("%s.%s.bak", base, m.now().Format("20060102-150405.000"))
	dst := filepath.Join(m.dir, name)

	if err := storage.WriteFile(dst, data); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	m.prune(base)
	m.log.Debug("Backed up data file", "src", path, "dst", dst)
	return dst, nil
}

// BackupAll copies every existing path; individual failures are logged
// and do not stop the rest.
func (m *Manager) BackupAll(paths ...string) {
	for _, p := range paths {
		if _, err := m.BackupFile(p); err != nil {
			m.log.Warn("Backup failed", "path", p, "error", err)
		}
	}
}

func (m *Manager) prune(base string) {
	backups, err := m.listBackups(base)
	if err != nil {
		m.log.Warn("Failed to list backups for pruning", "error", err)
		return
	}

	for len(backups) > m.max {
		oldest := backups[0]
		if err := os.Remove(filepath.Join(m.dir, oldest)); err != nil {
			m.log.Warn("Failed to prune backup", "name", oldest, "error", err)
			return
		}
		backups = backups[1:]
	}
}

// listBackups returns base's backups sorted oldest first. The timestamp in
// the name sorts lexically.
func (m *Manager) listBackups(base string) ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, base+".") && strings.HasSuffix(name, ".bak") {
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return names, nil
}
