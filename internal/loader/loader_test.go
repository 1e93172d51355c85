package loader

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadTracks(t *testing.T) {
	path := writeTemp(t, "tracks.json", `{
		"tracks": [
			{"artist": "Adele", "album": "25", "track": "Hello", "uri": "spotify:track:1"},
			{"artist": "  Queen ", "track": " Under Pressure"},
			{"artist": "", "track": "Orphan"},
			{"artist": "NoTitle", "track": ""}
		]
	}`)

	l := New(nil)
	ids := l.LoadTracks(path)

	if len(ids) != 2 {
		t.Fatalf("Expected 2 tracks, got %d: %+v", len(ids), ids)
	}
	if ids[0].Artist != "Adele" || ids[0].Title != "Hello" {
		t.Errorf("Unexpected first track: %+v", ids[0])
	}
	if ids[0].Album != "25" {
		t.Errorf("Expected album carried through, got %q", ids[0].Album)
	}
	if ids[1].Artist != "Queen" || ids[1].Title != "Under Pressure" {
		t.Errorf("Expected trimmed identity, got %+v", ids[1])
	}
}

func TestLoadTracksMissingOrInvalid(t *testing.T) {
	l := New(nil)

	if got := l.LoadTracks(filepath.Join(t.TempDir(), "absent.json")); len(got) != 0 {
		t.Errorf("Expected missing file to load as empty, got %+v", got)
	}

	path := writeTemp(t, "tracks.json", "{broken")
	if got := l.LoadTracks(path); len(got) != 0 {
		t.Errorf("Expected invalid JSON to load as empty, got %+v", got)
	}
}

func TestLoadPlaylists(t *testing.T) {
	path := writeTemp(t, "playlists.json", `{
		"playlists": [
			{
				"name": "Road Trip",
				"items": [
					{"track": {"trackName": "Hello", "artistName": "Adele", "albumName": "25", "trackUri": "spotify:track:1"}},
					{"track": null},
					{"track": {"trackName": "", "artistName": "Nobody"}}
				]
			},
			{"name": "  ", "items": []}
		]
	}`)

	l := New(nil)
	playlists := l.LoadPlaylists(path)

	if len(playlists) != 1 {
		t.Fatalf("Expected 1 playlist, got %d", len(playlists))
	}
	pl := playlists[0]
	if pl.Name != "Road Trip" {
		t.Errorf("Unexpected playlist name %q", pl.Name)
	}
	if len(pl.Tracks) != 1 || pl.Tracks[0].Artist != "Adele" || pl.Tracks[0].Title != "Hello" {
		t.Errorf("Unexpected tracks: %+v", pl.Tracks)
	}
	if pl.Tracks[0].Album != "25" {
		t.Errorf("Expected album carried through, got %q", pl.Tracks[0].Album)
	}
}

func TestLoadExportifyFolder(t *testing.T) {
	dir := t.TempDir()
	csvContent := "Track URI,Track Name,Artist Name(s),Album Name\n" +
		"spotify:track:1,One More Time,Daft Punk,Discovery\n" +
		"spotify:track:2,Lose Yourself to Dance,Daft Punk;Pharrell Williams;Daft Punk,Random Access Memories\n" +
		"spotify:track:3,,Nobody,Empty\n"
	if err := os.WriteFile(filepath.Join(dir, "Dance Mix.csv"), []byte(csvContent), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a csv"), 0644); err != nil {
		t.Fatal(err)
	}

	l := New(nil)
	playlists := l.LoadExportifyFolder(dir)

	if len(playlists) != 1 {
		t.Fatalf("Expected 1 playlist, got %d", len(playlists))
	}
	pl := playlists[0]
	if pl.Name != "Dance Mix" {
		t.Errorf("Unexpected playlist name %q", pl.Name)
	}
	if len(pl.Tracks) != 2 {
		t.Fatalf("Expected 2 tracks, got %d: %+v", len(pl.Tracks), pl.Tracks)
	}
	if pl.Tracks[1].Artist != "Daft Punk, Pharrell Williams" {
		t.Errorf("Expected multi-artist normalization with de-dupe, got %q", pl.Tracks[1].Artist)
	}
	if pl.Tracks[0].Album != "Discovery" {
		t.Errorf("Expected album column carried through, got %q", pl.Tracks[0].Album)
	}
}

func TestNormalizeArtists(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Daft Punk", "Daft Punk"},
		{"A;B;C", "A, B, C"},
		{"A, B", "A, B"},
		{"A;B;a", "A, B"},
		{"Tom, Jerry; Spike", "Tom, Jerry, Spike"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeArtists(tt.in); got != tt.want {
			t.Errorf("NormalizeArtists(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
