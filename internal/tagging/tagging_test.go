package tagging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"

	"github.com/crobles/tunegrab/internal/domain"
)

func TestTagFileUnsupportedFormat(t *testing.T) {
	err := TagFile("some/file.ogg", Metadata{Artist: "A", Title: "T"})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestTagFileMissingFile(t *testing.T) {
	err := TagFile(filepath.Join(t.TempDir(), "absent.mp3"), Metadata{Artist: "A"})
	if err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestTagMP3RoundTrip(t *testing.T) {
	// id3v2 prepends a tag to a tagless file, so dummy audio bytes suffice.
	path := filepath.Join(t.TempDir(), "Adele - Hello.mp3")
	if err := os.WriteFile(path, []byte("not really audio"), 0644); err != nil {
		t.Fatal(err)
	}

	meta := FromIdentity(domain.TrackIdentity{Artist: "Adele", Title: "Hello"})
	meta.Album = "25"
	if err := TagFile(path, meta); err != nil {
		t.Fatalf("TagFile: %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer tag.Close()

	if tag.Artist() != "Adele" {
		t.Errorf("Expected artist Adele, got %q", tag.Artist())
	}
	if tag.Title() != "Hello" {
		t.Errorf("Expected title Hello, got %q", tag.Title())
	}
	if tag.Album() != "25" {
		t.Errorf("Expected album 25, got %q", tag.Album())
	}
}

func TestFindLocalCover(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "Adele - Hello.mp3")

	if pic, _ := FindLocalCover(audio); pic != nil {
		t.Errorf("Expected no cover without a sibling image, got %d bytes", len(pic))
	}

	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 'j', 'p', 'g'}
	if err := os.WriteFile(filepath.Join(dir, "Adele - Hello.jpg"), jpeg, 0644); err != nil {
		t.Fatal(err)
	}

	pic, mime := FindLocalCover(audio)
	if len(pic) != len(jpeg) {
		t.Fatalf("Expected sibling jpg to be picked up, got %d bytes", len(pic))
	}
	if mime != "image/jpeg" {
		t.Errorf("Expected image/jpeg, got %q", mime)
	}
}

func TestFindLocalCoverPNG(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "Burial - Archangel.flac")

	png := append([]byte("\x89PNG\r\n\x1a\n"), 'x')
	if err := os.WriteFile(filepath.Join(dir, "Burial - Archangel.png"), png, 0644); err != nil {
		t.Fatal(err)
	}

	pic, mime := FindLocalCover(audio)
	if pic == nil {
		t.Fatal("Expected sibling png to be picked up")
	}
	if mime != "image/png" {
		t.Errorf("Expected image/png, got %q", mime)
	}
}
