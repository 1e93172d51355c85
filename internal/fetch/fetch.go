// Package fetch defines the external media-fetch capability. The executor
// only sees the Fetcher interface, so tests inject a deterministic fake.
package fetch

import (
	"context"

	"github.com/crobles/tunegrab/internal/domain"
)

// Fetcher locates and fetches a single track into destDir as an audio file
// in the given format. It blocks until the fetch finishes or ctx is done.
type Fetcher interface {
	Fetch(ctx context.Context, id domain.TrackIdentity, destDir, format string) error
}

// Func adapts a plain function to the Fetcher interface.
type Func func(ctx context.Context, id domain.TrackIdentity, destDir, format string) error

func (f Func) Fetch(ctx context.Context, id domain.TrackIdentity, destDir, format string) error {
	return f(ctx, id, destDir, format)
}
