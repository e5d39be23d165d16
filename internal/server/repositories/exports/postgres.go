// Package exports keeps track of note renderings uploaded to object storage.
package exports

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophnotes/internal/dbx"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

// PostgresRepository implements export bookkeeping over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, export *models.NoteExport) error {
	query := `
		INSERT INTO note_exports (id, note_id, user_id, format, storage_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		export.ID, export.NoteID, export.OwnerID, export.Format, export.StorageKey, export.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListByNote returns the exports of one note, newest first. Exports of
// notes owned by someone else are never returned.
func (r *PostgresRepository) ListByNote(ctx context.Context, ownerID, noteID string) ([]*models.NoteExport, error) {
	query := `
		SELECT id, note_id, user_id, format, storage_key, created_at FROM note_exports
		WHERE note_id = $1 AND user_id = $2
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, noteID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select exports: %w", err)
	}
	defer rows.Close()

	result := make([]*models.NoteExport, 0)
	for rows.Next() {
		var item models.NoteExport
		if err := rows.Scan(&item.ID, &item.NoteID, &item.OwnerID, &item.Format, &item.StorageKey, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
