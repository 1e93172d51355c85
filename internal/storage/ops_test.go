package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Normal Name", "Normal Name"},
		{"Slash/Name", "SlashName"},
		{"Colon:Name", "ColonName"},
		{"Trailing Dot.", "Trailing Dot"},
		{"AC/DC", "ACDC"},
		{"<Invalid>", "Invalid"},
	}

	for _, tt := range tests {
		got := Sanitize(tt.input)
		if got != tt.expected {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.json")

	if err := WriteFileAtomic(path, []byte(`{"failed":[]}`)); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}

	// Replace existing content
	if err := WriteFileAtomic(path, []byte(`{"failed":[{"artist":"A","track":"B"}]}`)); err != nil {
		t.Fatalf("WriteFileAtomic replace: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"failed":[{"artist":"A","track":"B"}]}` {
		t.Errorf("Unexpected content: %s", data)
	}

	// No temp files left behind
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the target file in dir, found %d entries", len(entries))
	}
}

func TestWriteFileAtomicCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "progress.json")
	if err := WriteFileAtomic(path, []byte("{}")); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected file to exist: %v", err)
	}
}

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mp3")
	b := filepath.Join(dir, "b.mp3")
	c := filepath.Join(dir, "c.mp3")

	if err := os.WriteFile(a, []byte("same bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("same bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c, []byte("other bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	ha, err := HashFile(a)
	if err != nil {
		t.Fatal(err)
	}
	hb, err := HashFile(b)
	if err != nil {
		t.Fatal(err)
	}
	hc, err := HashFile(c)
	if err != nil {
		t.Fatal(err)
	}

	if ha != hb {
		t.Error("Expected identical bytes to hash equal")
	}
	if ha == hc {
		t.Error("Expected different bytes to hash differently")
	}
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp3")
	dst := filepath.Join(dir, "dst.mp3")

	if err := os.WriteFile(src, []byte("audio"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}

	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("Expected source to be gone")
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "audio" {
		t.Errorf("Unexpected destination content: %q, %v", data, err)
	}
}

func TestDeleteFolderIfEmpty(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	full := filepath.Join(dir, "full")
	if err := os.MkdirAll(empty, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(full, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(full, "x.mp3"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := DeleteFolderIfEmpty(empty); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(empty); !os.IsNotExist(err) {
		t.Error("Expected empty dir to be removed")
	}

	if err := DeleteFolderIfEmpty(full); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(full); err != nil {
		t.Error("Expected non-empty dir to remain")
	}
}
