package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	favoriteAddedMessage   = "note added to favorites"
	favoriteRemovedMessage = "note removed from favorites"
)

// NoteService is the owner-scoped note store. Each method takes the
// authenticated owner id first; notes of other owners behave exactly like
// notes that do not exist.
type NoteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewNoteService(db *sql.DB, m repomanager.RepositoryManager) *NoteService {
	return &NoteService{db: db, repomanager: m, now: time.Now}
}

// Create stores a new note owned by ownerID.
func (s *NoteService) Create(ctx context.Context, ownerID string, in *models.NoteInput) (*models.Note, error) {
	title, err := normalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	note := &models.Note{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		Title:      title,
		Content:    in.Content,
		IsFavorite: in.IsFavorite,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repomanager.Notes(s.db).Create(ctx, note); err != nil {
		return nil, fmt.Errorf("error creating note: %w", err)
	}
	return note, nil
}

func (s *NoteService) Get(ctx context.Context, ownerID, noteID string) (*models.Note, error) {
	if !isNoteID(noteID) {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Notes(s.db).Get(ctx, ownerID, noteID)
}

// List returns the owner's notes, most recently updated first.
func (s *NoteService) List(ctx context.Context, ownerID string, filter models.NoteFilter) ([]*models.Note, error) {
	if !utf8.ValidString(filter.Search) {
		return nil, fmt.Errorf("%w: search must be valid UTF-8", common.ErrValidation)
	}
	return s.repomanager.Notes(s.db).List(ctx, ownerID, filter)
}

// Update changes the provided fields only. The owner can not be changed.
func (s *NoteService) Update(ctx context.Context, ownerID, noteID string, upd *models.NoteUpdate) (*models.Note, error) {
	if !isNoteID(noteID) {
		return nil, common.ErrorNotFound
	}

	changes := *upd
	if changes.Title != nil {
		title, err := normalizeTitle(*changes.Title)
		if err != nil {
			return nil, err
		}
		changes.Title = &title
	}

	return s.repomanager.Notes(s.db).Update(ctx, ownerID, noteID, changes, s.now().UTC())
}

// ToggleFavorite flips the favorite flag and returns the note together with
// a message describing the new state.
func (s *NoteService) ToggleFavorite(ctx context.Context, ownerID, noteID string) (*models.Note, string, error) {
	if !isNoteID(noteID) {
		return nil, "", common.ErrorNotFound
	}

	note, err := s.repomanager.Notes(s.db).ToggleFavorite(ctx, ownerID, noteID, s.now().UTC())
	if err != nil {
		return nil, "", err
	}

	if note.IsFavorite {
		return note, favoriteAddedMessage, nil
	}
	return note, favoriteRemovedMessage, nil
}

func (s *NoteService) Delete(ctx context.Context, ownerID, noteID string) error {
	if !isNoteID(noteID) {
		return common.ErrorNotFound
	}
	return s.repomanager.Notes(s.db).Delete(ctx, ownerID, noteID)
}

// ListFavorites returns the owner's favorite notes and their count.
func (s *NoteService) ListFavorites(ctx context.Context, ownerID string) ([]*models.Note, int, error) {
	fav := true
	notes, err := s.List(ctx, ownerID, models.NoteFilter{IsFavorite: &fav})
	if err != nil {
		return nil, 0, err
	}
	return notes, len(notes), nil
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", common.ErrValidation)
	}
	if utf8.RuneCountInString(title) > models.MaxTitleLength {
		return "", fmt.Errorf("%w: title must be at most %d characters", common.ErrValidation, models.MaxTitleLength)
	}
	return title, nil
}

// isNoteID filters out ids that can not exist before they reach the
// database, where a uuid cast would fail with a syntax error.
func isNoteID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
