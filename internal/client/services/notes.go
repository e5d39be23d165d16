package services

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/dmitrijs2005/gophnotes/internal/client/client"
	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/filex"
	"github.com/dmitrijs2005/gophnotes/internal/netx"
)

// Test seams.
var (
	fetchPresigned = netx.DownloadFromPresignedURL
	writeFile      = os.WriteFile
)

// NoteService wraps the note endpoints and saves downloaded files locally.
type NoteService interface {
	List(ctx context.Context, search string) ([]*models.Note, error)
	Favorites(ctx context.Context) ([]*models.Note, error)
	Get(ctx context.Context, id string) (*models.Note, error)
	Add(ctx context.Context, n models.NewNote) (*models.Note, error)
	Edit(ctx context.Context, id string, upd models.NoteUpdate) (*models.Note, error)
	Delete(ctx context.Context, id string) error
	ToggleFavorite(ctx context.Context, id string) (*models.Note, string, error)
	Download(ctx context.Context, id, format string) (string, error)
	Export(ctx context.Context, id, format string) (*models.Export, error)
	Exports(ctx context.Context, id string) ([]*models.Export, error)
	FetchExport(ctx context.Context, e *models.Export) (string, error)
}

type noteService struct {
	client      client.Client
	downloadDir string
}

func NewNoteService(c client.Client, downloadDir string) NoteService {
	return &noteService{client: c, downloadDir: downloadDir}
}

func (s *noteService) List(ctx context.Context, search string) ([]*models.Note, error) {
	return s.client.ListNotes(ctx, models.NoteQuery{Search: search})
}

func (s *noteService) Favorites(ctx context.Context) ([]*models.Note, error) {
	return s.client.Favorites(ctx)
}

func (s *noteService) Get(ctx context.Context, id string) (*models.Note, error) {
	return s.client.GetNote(ctx, id)
}

func (s *noteService) Add(ctx context.Context, n models.NewNote) (*models.Note, error) {
	return s.client.CreateNote(ctx, n)
}

func (s *noteService) Edit(ctx context.Context, id string, upd models.NoteUpdate) (*models.Note, error) {
	if upd.Title == nil && upd.Content == nil && upd.IsFavorite == nil {
		return s.client.GetNote(ctx, id)
	}
	return s.client.UpdateNote(ctx, id, upd)
}

func (s *noteService) Delete(ctx context.Context, id string) error {
	return s.client.DeleteNote(ctx, id)
}

func (s *noteService) ToggleFavorite(ctx context.Context, id string) (*models.Note, string, error) {
	return s.client.ToggleFavorite(ctx, id)
}

// Download renders the note on the server and writes it into the download
// directory. It returns the path of the written file.
func (s *noteService) Download(ctx context.Context, id, format string) (string, error) {
	f, err := s.client.DownloadNote(ctx, id, format)
	if err != nil {
		return "", err
	}

	name := f.Name
	if name == "" {
		name = id + "." + format
	}
	return s.save(name, f.Body)
}

func (s *noteService) Export(ctx context.Context, id, format string) (*models.Export, error) {
	return s.client.ExportNote(ctx, id, format)
}

func (s *noteService) Exports(ctx context.Context, id string) ([]*models.Export, error) {
	return s.client.ListExports(ctx, id)
}

// FetchExport downloads an exported object through its presigned URL.
func (s *noteService) FetchExport(ctx context.Context, e *models.Export) (string, error) {
	body, err := fetchPresigned(ctx, e.URL)
	if err != nil {
		return "", fmt.Errorf("fetch export: %w", err)
	}
	return s.save(path.Base(e.Key), body)
}

func (s *noteService) save(name string, body []byte) (string, error) {
	dir, err := filex.EnsureDir(s.downloadDir)
	if err != nil {
		return "", err
	}

	p, err := filex.UniquePath(dir, name)
	if err != nil {
		return "", err
	}

	if err := writeFile(p, body, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", p, err)
	}
	return p, nil
}
