package registry

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/crobles/tunegrab/internal/domain"
	"github.com/crobles/tunegrab/internal/executor"
	"github.com/crobles/tunegrab/internal/fetch"
)

func tempRegistry(t *testing.T) *Registry {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "failed_downloads.json"), nil)
}

func TestLoadMissingFile(t *testing.T) {
	r := tempRegistry(t)
	if got := r.Load(); len(got) != 0 {
		t.Errorf("Expected empty registry, got %+v", got)
	}
}

func TestLoadCorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed_downloads.json")
	if err := os.WriteFile(path, []byte("{invalid json"), 0644); err != nil {
		t.Fatal(err)
	}

	r := New(path, nil)
	if got := r.Load(); len(got) != 0 {
		t.Errorf("Expected corrupted registry to read as empty, got %+v", got)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	r := tempRegistry(t)
	ids := []domain.TrackIdentity{{Artist: "Adele", Title: "Hello"}}

	if err := r.Save(ids); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := r.Load()
	if len(got) != 1 || got[0].Artist != "Adele" || got[0].Title != "Hello" {
		t.Errorf("Unexpected registry content: %+v", got)
	}
}

func TestSaveEmptyWritesValidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed_downloads.json")
	r := New(path, nil)

	if err := r.Save(nil); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var file struct {
		Failed []domain.TrackIdentity `json:"failed"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		t.Fatalf("Saved file is not valid JSON: %v", err)
	}
	if file.Failed == nil {
		t.Error("Expected failed field to serialize as an empty array")
	}
}

func TestAddDeduplicates(t *testing.T) {
	r := tempRegistry(t)

	if err := r.Add(domain.TrackIdentity{Artist: "Adele", Title: "Hello"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Add(
		domain.TrackIdentity{Artist: "adele", Title: "hello"},
		domain.TrackIdentity{Artist: "Queen", Title: "Under Pressure"},
		domain.TrackIdentity{Artist: "", Title: "invalid"},
	); err != nil {
		t.Fatal(err)
	}

	if r.Count() != 2 {
		t.Errorf("Expected 2 entries, got %d", r.Count())
	}
}

func TestRetryAllMonotonicShrink(t *testing.T) {
	r := tempRegistry(t)
	seed := []domain.TrackIdentity{
		{Artist: "Artist A", Title: "One"},
		{Artist: "Artist B", Title: "Two"},
		{Artist: "Artist C", Title: "Three"},
		{Artist: "Artist D", Title: "Four"},
	}
	if err := r.Save(seed); err != nil {
		t.Fatal(err)
	}

	// Two of four succeed on retry.
	exec := executor.New(fetch.Func(func(_ context.Context, id domain.TrackIdentity, _, _ string) error {
		if id.Artist == "Artist B" || id.Artist == "Artist D" {
			return errors.New("still failing")
		}
		return nil
	}), nil)

	res, err := r.RetryAll(context.Background(), exec, "music", "mp3", executor.Options{MaxConcurrency: 2})
	if err != nil {
		t.Fatalf("RetryAll: %v", err)
	}
	if res.Succeeded != 2 || len(res.Failed) != 2 {
		t.Errorf("Expected 2/2, got %d/%d", res.Succeeded, len(res.Failed))
	}

	// N=4, k=2 succeeded: rewritten registry holds exactly N-k entries.
	remaining := r.Load()
	if len(remaining) != 2 {
		t.Fatalf("Expected registry size 2 after retry, got %d", len(remaining))
	}
	for _, id := range remaining {
		if id.Artist != "Artist B" && id.Artist != "Artist D" {
			t.Errorf("Unexpected surviving entry: %+v", id)
		}
	}
}

func TestRetryAllEmptyRegistryNoFetch(t *testing.T) {
	r := tempRegistry(t)
	exec := executor.New(fetch.Func(func(context.Context, domain.TrackIdentity, string, string) error {
		t.Error("fetcher must not run for an empty registry")
		return nil
	}), nil)

	res, err := r.RetryAll(context.Background(), exec, "music", "mp3", executor.Options{})
	if err != nil {
		t.Fatalf("RetryAll: %v", err)
	}
	if res.Succeeded != 0 || len(res.Failed) != 0 {
		t.Errorf("Expected empty result, got %+v", res)
	}
}

func TestRetryAllCorruptedRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed_downloads.json")
	if err := os.WriteFile(path, []byte("not json at all"), 0644); err != nil {
		t.Fatal(err)
	}

	r := New(path, nil)
	exec := executor.New(fetch.Func(func(context.Context, domain.TrackIdentity, string, string) error {
		return nil
	}), nil)

	res, err := r.RetryAll(context.Background(), exec, "music", "mp3", executor.Options{})
	if err != nil {
		t.Fatalf("Expected corrupted registry to behave as empty, got error: %v", err)
	}
	if res.Succeeded != 0 || len(res.Failed) != 0 {
		t.Errorf("Expected empty result, got %+v", res)
	}
}
