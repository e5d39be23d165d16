package exports

import (
	"context"

	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, export *models.NoteExport) error
	ListByNote(ctx context.Context, ownerID, noteID string) ([]*models.NoteExport, error)
}
