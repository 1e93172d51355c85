package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestBackupFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "failed_downloads.json")
	if err := os.WriteFile(src, []byte(`{"failed":[]}`), 0644); err != nil {
		t.Fatal(err)
	}

	m := NewManager(filepath.Join(dir, "backups"), 5, nil)
	dst, err := m.BackupFile(src)
	if err != nil {
		t.Fatalf("BackupFile: %v", err)
	}
	if dst == "" {
		t.Fatal("Expected a backup path")
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"failed":[]}` {
		t.Errorf("Unexpected backup content: %s", data)
	}
}

func TestBackupMissingSource(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(filepath.Join(dir, "backups"), 5, nil)

	dst, err := m.BackupFile(filepath.Join(dir, "absent.json"))
	if err != nil {
		t.Fatalf("Expected missing source to be a no-op, got: %v", err)
	}
	if dst != "" {
		t.Errorf("Expected no backup path, got %q", dst)
	}
}

func TestBackupRotation(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "progress.json")
	if err := os.WriteFile(src, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	backupsDir := filepath.Join(dir, "backups")
	m := NewManager(backupsDir, 3, nil)

	// Deterministic, strictly increasing timestamps.
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	step := 0
	m.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Second)
	}

	for i := 0; i < 6; i++ {
		if _, err := m.BackupFile(src); err != nil {
			t.Fatal(err)
		}
	}

	names, err := m.listBackups("progress.json")
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 3 {
		t.Fatalf("Expected 3 backups after rotation, got %d: %v", len(names), names)
	}

	// The survivors are the newest three.
	for _, name := range names {
		if name < "progress.json.20250601-120004" {
			t.Errorf("Expected oldest backups pruned, found %s", name)
		}
	}
}

func TestBackupDisabled(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "tracks.json")
	if err := os.WriteFile(src, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	m := NewManager(filepath.Join(dir, "backups"), 0, nil)
	dst, err := m.BackupFile(src)
	if err != nil || dst != "" {
		t.Errorf("Expected disabled backups to be a no-op, got %q, %v", dst, err)
	}
}
