package services

import (
	"context"
	"database/sql"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/cryptox"
	"github.com/dmitrijs2005/gophnotes/internal/dbx"
	"github.com/dmitrijs2005/gophnotes/internal/server/config"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	exportsrepo "github.com/dmitrijs2005/gophnotes/internal/server/repositories/exports"
	notesrepo "github.com/dmitrijs2005/gophnotes/internal/server/repositories/notes"
	revokedrepo "github.com/dmitrijs2005/gophnotes/internal/server/repositories/revokedtokens"
	usersrepo "github.com/dmitrijs2005/gophnotes/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	cryptox.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "test-secret",
		AccessTokenValidityDuration:  5 * time.Minute,
		RefreshTokenValidityDuration: time.Hour,
		MinPasswordLength:            8,
		S3Region:                     "us-east-1",
		S3RootUser:                   "minioadmin",
		S3RootPassword:               "minioadmin",
		S3BaseEndpoint:               "http://127.0.0.1:9000",
	}
}

// --- in-memory repositories ---

type fakeUsersRepo struct {
	mu     sync.Mutex
	byID   map[string]*models.User
	getErr error

	// createErr, when set, is returned by Create after the in-memory checks.
	createErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.byID {
		if strings.EqualFold(existing.Email, u.Email) {
			return nil, common.ErrorAlreadyExists
		}
	}
	cp := *u
	f.byID[u.ID] = &cp
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) UpdateProfile(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[u.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	for id, existing := range f.byID {
		if id != u.ID && strings.EqualFold(existing.Email, u.Email) {
			return nil, common.ErrorAlreadyExists
		}
	}
	cp := *u
	f.byID[u.ID] = &cp
	return u, nil
}

type fakeNotesRepo struct {
	mu    sync.Mutex
	byID  map[string]*models.Note
	err   error
	calls int
}

func newFakeNotesRepo() *fakeNotesRepo {
	return &fakeNotesRepo{byID: map[string]*models.Note{}}
}

func (f *fakeNotesRepo) lookup(ownerID, id string) (*models.Note, error) {
	n, ok := f.byID[id]
	if !ok || n.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	return n, nil
}

func bump(n *models.Note, now time.Time) {
	if now.After(n.UpdatedAt) {
		n.UpdatedAt = now
		return
	}
	n.UpdatedAt = n.UpdatedAt.Add(time.Microsecond)
}

func (f *fakeNotesRepo) Create(_ context.Context, n *models.Note) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	cp := *n
	f.byID[n.ID] = &cp
	return nil
}

func (f *fakeNotesRepo) Get(_ context.Context, ownerID, id string) (*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	n, err := f.lookup(ownerID, id)
	if err != nil {
		return nil, err
	}
	cp := *n
	return &cp, nil
}

func (f *fakeNotesRepo) List(_ context.Context, ownerID string, filter models.NoteFilter) ([]*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	search := strings.ToLower(filter.Search)
	var out []*models.Note
	for _, n := range f.byID {
		if n.OwnerID != ownerID {
			continue
		}
		if filter.IsFavorite != nil && n.IsFavorite != *filter.IsFavorite {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(n.Title), search) && !strings.Contains(strings.ToLower(n.Content), search) {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (f *fakeNotesRepo) Update(_ context.Context, ownerID, id string, upd models.NoteUpdate, now time.Time) (*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	n, err := f.lookup(ownerID, id)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		n.Title = *upd.Title
	}
	if upd.Content != nil {
		n.Content = *upd.Content
	}
	if upd.IsFavorite != nil {
		n.IsFavorite = *upd.IsFavorite
	}
	bump(n, now)
	cp := *n
	return &cp, nil
}

func (f *fakeNotesRepo) ToggleFavorite(_ context.Context, ownerID, id string, now time.Time) (*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	n, err := f.lookup(ownerID, id)
	if err != nil {
		return nil, err
	}
	n.IsFavorite = !n.IsFavorite
	bump(n, now)
	cp := *n
	return &cp, nil
}

func (f *fakeNotesRepo) Delete(_ context.Context, ownerID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	if _, err := f.lookup(ownerID, id); err != nil {
		return err
	}
	delete(f.byID, id)
	return nil
}

type fakeRevokedRepo struct {
	mu        sync.Mutex
	byJTI     map[string]*models.RevokedToken
	addErr    error
	existsErr error
}

func newFakeRevokedRepo() *fakeRevokedRepo {
	return &fakeRevokedRepo{byJTI: map[string]*models.RevokedToken{}}
}

func (f *fakeRevokedRepo) Add(_ context.Context, t *models.RevokedToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	if _, ok := f.byJTI[t.JTI]; !ok {
		cp := *t
		f.byJTI[t.JTI] = &cp
	}
	return nil
}

func (f *fakeRevokedRepo) Exists(_ context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.byJTI[jti]
	return ok, nil
}

func (f *fakeRevokedRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for jti, t := range f.byJTI {
		if t.ExpiresAt.Before(before) {
			delete(f.byJTI, jti)
			n++
		}
	}
	return n, nil
}

type fakeExportsRepo struct {
	mu        sync.Mutex
	items     []*models.NoteExport
	createErr error
}

func (f *fakeExportsRepo) Create(_ context.Context, e *models.NoteExport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	cp := *e
	f.items = append(f.items, &cp)
	return nil
}

func (f *fakeExportsRepo) ListByNote(_ context.Context, ownerID, noteID string) ([]*models.NoteExport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.NoteExport
	for i := len(f.items) - 1; i >= 0; i-- {
		e := f.items[i]
		if e.OwnerID == ownerID && e.NoteID == noteID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeRepoManager struct {
	users   *fakeUsersRepo
	notes   *fakeNotesRepo
	revoked *fakeRevokedRepo
	exports *fakeExportsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:   newFakeUsersRepo(),
		notes:   newFakeNotesRepo(),
		revoked: newFakeRevokedRepo(),
		exports: &fakeExportsRepo{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error  { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository           { return m.users }
func (m *fakeRepoManager) Notes(dbx.DBTX) notesrepo.Repository           { return m.notes }
func (m *fakeRepoManager) RevokedTokens(dbx.DBTX) revokedrepo.Repository { return m.revoked }
func (m *fakeRepoManager) Exports(dbx.DBTX) exportsrepo.Repository       { return m.exports }
