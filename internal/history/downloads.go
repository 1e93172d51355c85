package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/crobles/tunegrab/internal/domain"
)

// Record inserts one terminal download outcome.
func (db *DB) Record(id domain.TrackIdentity, destDir, format string, status domain.TaskStatus, taskErr error) error {
	errMsg := ""
	if taskErr != nil {
		errMsg = taskErr.Error()
	}

	row := domain.Download{
		ID:          uuid.New().String(),
		Artist:      id.Artist,
		Title:       id.Title,
		Destination: destDir,
		Format:      format,
		Status:      status,
		Error:       errMsg,
		CreatedAt:   time.Now().UTC(),
	}

	query := `INSERT INTO downloads (id, artist, title, destination, format, status, error, created_at)
		VALUES (:id, :artist, :title, :destination, :format, :status, :error, :created_at)`

	_, err := db.NamedExec(query, row)
	return err
}

// Recent returns the latest recorded downloads, newest first.
func (db *DB) Recent(limit int) ([]*domain.Download, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, artist, title, destination, format, status, error, created_at
		FROM downloads ORDER BY created_at DESC, id LIMIT ?`

	var rows []*domain.Download
	err := db.Select(&rows, query, limit)
	return rows, err
}

// Stats summarizes recorded outcomes.
type Stats struct {
	Total     int `db:"total" json:"total"`
	Succeeded int `db:"succeeded" json:"succeeded"`
	Failed    int `db:"failed" json:"failed"`
}

func (db *DB) GetStats() (*Stats, error) {
	query := `SELECT
		COUNT(*) as total,
		COALESCE(SUM(CASE WHEN status = 'succeeded' THEN 1 ELSE 0 END), 0) as succeeded,
		COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0) as failed
	FROM downloads`

	stats := &Stats{}
	err := db.Get(stats, query)
	return stats, err
}
