// Package notes provides the PostgreSQL-backed note repository.
package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/dbx"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

const noteColumns = `id, user_id, title, content, is_favorite, created_at, updated_at`

// bumpUpdatedAt keeps updated_at strictly increasing even when two writes
// land within the same microsecond or the clock steps back.
const bumpUpdatedAt = `updated_at = GREATEST(%s, updated_at + INTERVAL '1 microsecond')`

// PostgresRepository implements note storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, note *models.Note) error {
	query := `
		INSERT INTO notes (id, user_id, title, content, is_favorite, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		note.ID, note.OwnerID, note.Title, note.Content, note.IsFavorite, note.CreatedAt, note.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get returns common.ErrorNotFound when the note does not exist or belongs
// to someone else.
func (r *PostgresRepository) Get(ctx context.Context, ownerID, id string) (*models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes
		WHERE id = $1 AND user_id = $2
	`
	return scanNote(r.db.QueryRowContext(ctx, query, id, ownerID))
}

// List returns the owner's notes, most recently updated first. Search is a
// case-insensitive substring match against title or content.
func (r *PostgresRepository) List(ctx context.Context, ownerID string, filter models.NoteFilter) ([]*models.Note, error) {
	var sb strings.Builder
	args := []any{ownerID}

	sb.WriteString(`SELECT ` + noteColumns + ` FROM notes WHERE user_id = $1`)

	if filter.IsFavorite != nil {
		args = append(args, *filter.IsFavorite)
		fmt.Fprintf(&sb, ` AND is_favorite = $%d`, len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		n := len(args)
		fmt.Fprintf(&sb, ` AND (title ILIKE $%d OR content ILIKE $%d)`, n, n)
	}
	sb.WriteString(` ORDER BY updated_at DESC, id DESC`)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select notes: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Note, 0)
	for rows.Next() {
		var item models.Note
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Title, &item.Content, &item.IsFavorite,
			&item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// Update applies the non-nil fields of upd in a single statement.
func (r *PostgresRepository) Update(ctx context.Context, ownerID, id string, upd models.NoteUpdate, now time.Time) (*models.Note, error) {
	query := `
		UPDATE notes SET
			title = COALESCE($3, title),
			content = COALESCE($4, content),
			is_favorite = COALESCE($5, is_favorite),
			` + fmt.Sprintf(bumpUpdatedAt, "$6") + `
		WHERE id = $1 AND user_id = $2
		RETURNING ` + noteColumns

	return scanNote(r.db.QueryRowContext(ctx, query, id, ownerID, upd.Title, upd.Content, upd.IsFavorite, now))
}

// ToggleFavorite flips is_favorite atomically, so concurrent toggles never
// lose an update.
func (r *PostgresRepository) ToggleFavorite(ctx context.Context, ownerID, id string, now time.Time) (*models.Note, error) {
	query := `
		UPDATE notes SET
			is_favorite = NOT is_favorite,
			` + fmt.Sprintf(bumpUpdatedAt, "$3") + `
		WHERE id = $1 AND user_id = $2
		RETURNING ` + noteColumns

	return scanNote(r.db.QueryRowContext(ctx, query, id, ownerID, now))
}

func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id string) error {
	query := `
		DELETE FROM notes
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func scanNote(row *sql.Row) (*models.Note, error) {
	var item models.Note
	err := row.Scan(&item.ID, &item.OwnerID, &item.Title, &item.Content, &item.IsFavorite,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &item, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern (backslash is the
// default escape character in PostgreSQL).
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
