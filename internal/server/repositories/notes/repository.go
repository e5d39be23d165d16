package notes

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

// Repository is owner-scoped: every method takes the owner id and never
// touches rows of another user.
type Repository interface {
	Create(ctx context.Context, note *models.Note) error
	Get(ctx context.Context, ownerID, id string) (*models.Note, error)
	List(ctx context.Context, ownerID string, filter models.NoteFilter) ([]*models.Note, error)
	Update(ctx context.Context, ownerID, id string, upd models.NoteUpdate, now time.Time) (*models.Note, error)
	ToggleFavorite(ctx context.Context, ownerID, id string, now time.Time) (*models.Note, error)
	Delete(ctx context.Context, ownerID, id string) error
}
