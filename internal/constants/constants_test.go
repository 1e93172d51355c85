package constants

import "testing"

func TestAudioExtensionsCoverFormats(t *testing.T) {
	exts := make(map[string]bool, len(AudioExtensions))
	for _, e := range AudioExtensions {
		exts[e] = true
	}

	for _, f := range AudioFormats {
		if !exts["."+f] {
			t.Errorf("audio format %q has no matching extension in allow-list", f)
		}
	}
}

func TestPermissions(t *testing.T) {
	if DirPermissions != 0755 {
		t.Errorf("Expected DirPermissions 0755, got %o", DirPermissions)
	}
	if FilePermissions != 0644 {
		t.Errorf("Expected FilePermissions 0644, got %o", FilePermissions)
	}
}
