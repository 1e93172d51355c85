package logger

import (
	"testing"
)

func TestNew(t *testing.T) {
	cfg := Config{
		Level:  "info",
		Format: "text",
	}
	logger := New(cfg)
	if logger == nil {
		t.Error("Expected logger to not be nil")
	}

	cfg.Format = "json"
	logger = New(cfg)
	if logger == nil {
		t.Error("Expected logger to not be nil")
	}

	// Invalid level should default to info
	cfg.Level = "invalid"
	logger = New(cfg)
	if logger == nil {
		t.Error("Expected logger to not be nil")
	}
}

func TestWithHelpers(t *testing.T) {
	logger := Default()

	if logger.WithComponent("executor") == nil {
		t.Error("Expected component logger to not be nil")
	}
	if logger.WithTrack("Adele", "Hello") == nil {
		t.Error("Expected track logger to not be nil")
	}
	if logger.WithPlaylist("Road Trip") == nil {
		t.Error("Expected playlist logger to not be nil")
	}
}
