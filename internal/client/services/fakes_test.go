package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/gophnotes/internal/client/client"
	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.OpenStore(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func getMeta(t *testing.T, db *sql.DB, k string) string {
	t.Helper()
	var v []byte
	err := db.QueryRow(`SELECT value FROM metadata WHERE key=?`, k).Scan(&v)
	if err == sql.ErrNoRows {
		return ""
	}
	require.NoError(t, err)
	return string(v)
}

func insertMeta(t *testing.T, db *sql.DB, k, v string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO metadata(key,value) VALUES(?,?)`, k, []byte(v))
	require.NoError(t, err)
}

// fakeClient implements client.Client for service tests.
type fakeClient struct {
	access, refresh string
	onRefresh       func(string)

	user   *models.User
	tokens *models.Tokens
	note   *models.Note
	notes  []*models.Note
	file   *models.File
	export *models.Export

	RegisterErr error
	LoginErr    error
	LogoutErr   error
	PingErr     error
	NoteErr     error

	LastEmail    string
	LastPassword string
	LastQuery    models.NoteQuery
	LastUpdate   models.NoteUpdate
	LastFormat   string
	Calls        []string
}

var _ client.Client = (*fakeClient)(nil)

func (f *fakeClient) SetTokens(access, refresh string)  { f.access, f.refresh = access, refresh }
func (f *fakeClient) Tokens() (string, string)          { return f.access, f.refresh }
func (f *fakeClient) OnAccessRefreshed(fn func(string)) { f.onRefresh = fn }

func (f *fakeClient) Ping(ctx context.Context) error { return f.PingErr }

func (f *fakeClient) Register(ctx context.Context, reg models.Registration) (*models.User, *models.Tokens, error) {
	f.LastEmail = reg.Email
	if f.RegisterErr != nil {
		return nil, nil, f.RegisterErr
	}
	f.SetTokens(f.tokens.Access, f.tokens.Refresh)
	return f.user, f.tokens, nil
}

func (f *fakeClient) Login(ctx context.Context, email, password string) (*models.User, *models.Tokens, error) {
	f.LastEmail, f.LastPassword = email, password
	if f.LoginErr != nil {
		return nil, nil, f.LoginErr
	}
	f.SetTokens(f.tokens.Access, f.tokens.Refresh)
	return f.user, f.tokens, nil
}

func (f *fakeClient) Logout(ctx context.Context) error {
	f.Calls = append(f.Calls, "logout")
	return f.LogoutErr
}

func (f *fakeClient) Profile(ctx context.Context) (*models.User, error) {
	return f.user, f.NoteErr
}

func (f *fakeClient) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.User, error) {
	if f.NoteErr != nil {
		return nil, f.NoteErr
	}
	u := *f.user
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	return &u, nil
}

func (f *fakeClient) ListNotes(ctx context.Context, q models.NoteQuery) ([]*models.Note, error) {
	f.LastQuery = q
	return f.notes, f.NoteErr
}

func (f *fakeClient) Favorites(ctx context.Context) ([]*models.Note, error) {
	f.Calls = append(f.Calls, "favorites")
	return f.notes, f.NoteErr
}

func (f *fakeClient) GetNote(ctx context.Context, id string) (*models.Note, error) {
	f.Calls = append(f.Calls, "get")
	return f.note, f.NoteErr
}

func (f *fakeClient) CreateNote(ctx context.Context, n models.NewNote) (*models.Note, error) {
	f.Calls = append(f.Calls, "create")
	return &models.Note{ID: "n1", Title: n.Title, Content: n.Content, IsFavorite: n.IsFavorite}, f.NoteErr
}

func (f *fakeClient) UpdateNote(ctx context.Context, id string, upd models.NoteUpdate) (*models.Note, error) {
	f.Calls = append(f.Calls, "update")
	f.LastUpdate = upd
	return f.note, f.NoteErr
}

func (f *fakeClient) DeleteNote(ctx context.Context, id string) error {
	f.Calls = append(f.Calls, "delete")
	return f.NoteErr
}

func (f *fakeClient) ToggleFavorite(ctx context.Context, id string) (*models.Note, string, error) {
	return f.note, "Note added to favorites", f.NoteErr
}

func (f *fakeClient) DownloadNote(ctx context.Context, id, format string) (*models.File, error) {
	f.LastFormat = format
	return f.file, f.NoteErr
}

func (f *fakeClient) ExportNote(ctx context.Context, id, format string) (*models.Export, error) {
	f.LastFormat = format
	return f.export, f.NoteErr
}

func (f *fakeClient) ListExports(ctx context.Context, id string) ([]*models.Export, error) {
	if f.export == nil {
		return nil, f.NoteErr
	}
	return []*models.Export{f.export}, f.NoteErr
}
