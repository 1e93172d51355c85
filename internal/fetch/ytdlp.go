package fetch

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/crobles/tunegrab/internal/domain"
	"github.com/crobles/tunegrab/internal/logger"
	"github.com/crobles/tunegrab/internal/storage"
)

const defaultBinary = "yt-dlp"

// YTDLP fetches tracks by running yt-dlp against the first search result
// for "Artist - Title", extracting audio in the requested format.
type YTDLP struct {
	Binary string
	log    *logger.Logger
}

func NewYTDLP(log *logger.Logger) *YTDLP {
	if log == nil {
		log = logger.Default()
	}
	return &YTDLP{
		Binary: defaultBinary,
		log:    log.WithComponent("ytdlp"),
	}
}

func (y *YTDLP) Fetch(ctx context.Context, id domain.TrackIdentity, destDir, format string) error {
	if err := storage.EnsureDir(destDir); err != nil {
		return fmt.Errorf("failed to create destination dir: %w", err)
	}

	query := id.String()
	// The saved filename must follow the "Artist - Title.<ext>" library
	// convention; slashes in either component would split the path.
	filename := strings.ReplaceAll(query, "/", "-")
	outTemplate := filepath.Join(destDir, filename+".%(ext)s")

	cmd := exec.CommandContext(ctx, y.Binary,
		"ytsearch1:"+query,
		"-x",
		"--audio-format", format,
		"-o", outTemplate,
		"--quiet",
	)

	y.log.Debug("Running fetch", "query", query, "dest", destDir)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s failed for %q: %w: %s", y.Binary, query, err, strings.TrimSpace(string(out)))
	}

	return nil
}

// OutputPath returns where a successful fetch lands a track.
func OutputPath(id domain.TrackIdentity, destDir, format string) string {
	filename := strings.ReplaceAll(id.String(), "/", "-")
	return filepath.Join(destDir, filename+"."+format)
}
