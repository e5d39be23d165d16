package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/client/services"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
)

// stubInputs replaces the interactive helpers with canned answers. Text
// prompts and multiline prompts consume lines in order; passwords are served
// from their own queue.
func stubInputs(t *testing.T, lines []string, passwords ...string) {
	t.Helper()
	origST, origGP, origML, origC := getSimpleText, getPassword, getMultiline, confirm
	t.Cleanup(func() {
		getSimpleText, getPassword, getMultiline, confirm = origST, origGP, origML, origC
	})

	next := func() (string, error) {
		if len(lines) == 0 {
			return "", io.EOF
		}
		v := lines[0]
		lines = lines[1:]
		return v, nil
	}

	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return next() }
	getMultiline = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return next() }
	confirm = func(_ *bufio.Reader, _ string, _ io.Writer) (bool, error) {
		v, err := next()
		return v == "y", err
	}
	getPassword = func(_ io.Writer, _ string) ([]byte, error) {
		if len(passwords) == 0 {
			return nil, io.EOF
		}
		v := passwords[0]
		passwords = passwords[1:]
		return []byte(v), nil
	}
}

type fakeAuth struct {
	user *models.User

	lastReg      models.Registration
	lastEmail    string
	lastPassword string
	lastUpdate   models.ProfileUpdate
	restored     string

	err        error
	restoreErr error
	pingErr    error
	loggedOut  bool
}

var _ services.AuthService = (*fakeAuth)(nil)

func (f *fakeAuth) Register(_ context.Context, reg models.Registration) (*models.User, error) {
	f.lastReg = reg
	return f.user, f.err
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (*models.User, error) {
	f.lastEmail, f.lastPassword = email, password
	return f.user, f.err
}

func (f *fakeAuth) Restore(context.Context) (string, error) { return f.restored, f.restoreErr }

func (f *fakeAuth) Logout(context.Context) error {
	if f.err == nil {
		f.loggedOut = true
	}
	return f.err
}

func (f *fakeAuth) Profile(context.Context) (*models.User, error) { return f.user, f.err }

func (f *fakeAuth) UpdateProfile(_ context.Context, upd models.ProfileUpdate) (*models.User, error) {
	f.lastUpdate = upd
	if f.err != nil {
		return nil, f.err
	}
	u := *f.user
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	return &u, nil
}

func (f *fakeAuth) Ping(context.Context) error { return f.pingErr }

type fakeNotes struct {
	note    *models.Note
	notes   []*models.Note
	export  *models.Export
	exports []*models.Export
	msg     string
	path    string
	err     error

	lastSearch string
	lastID     string
	lastFormat string
	lastNew    models.NewNote
	lastUpdate models.NoteUpdate
	calls      []string
}

var _ services.NoteService = (*fakeNotes)(nil)

func (f *fakeNotes) List(_ context.Context, search string) ([]*models.Note, error) {
	f.calls = append(f.calls, "list")
	f.lastSearch = search
	return f.notes, f.err
}

func (f *fakeNotes) Favorites(context.Context) ([]*models.Note, error) {
	f.calls = append(f.calls, "favorites")
	return f.notes, f.err
}

func (f *fakeNotes) Get(_ context.Context, id string) (*models.Note, error) {
	f.calls = append(f.calls, "get")
	f.lastID = id
	return f.note, f.err
}

func (f *fakeNotes) Add(_ context.Context, n models.NewNote) (*models.Note, error) {
	f.calls = append(f.calls, "add")
	f.lastNew = n
	return &models.Note{ID: "n-new", Title: n.Title}, f.err
}

func (f *fakeNotes) Edit(_ context.Context, id string, upd models.NoteUpdate) (*models.Note, error) {
	f.calls = append(f.calls, "edit")
	f.lastID, f.lastUpdate = id, upd
	return f.note, f.err
}

func (f *fakeNotes) Delete(_ context.Context, id string) error {
	f.calls = append(f.calls, "delete")
	f.lastID = id
	return f.err
}

func (f *fakeNotes) ToggleFavorite(_ context.Context, id string) (*models.Note, string, error) {
	f.calls = append(f.calls, "toggle")
	f.lastID = id
	return f.note, f.msg, f.err
}

func (f *fakeNotes) Download(_ context.Context, id, format string) (string, error) {
	f.calls = append(f.calls, "download")
	f.lastID, f.lastFormat = id, format
	return f.path, f.err
}

func (f *fakeNotes) Export(_ context.Context, id, format string) (*models.Export, error) {
	f.calls = append(f.calls, "export")
	f.lastID, f.lastFormat = id, format
	return f.export, f.err
}

func (f *fakeNotes) Exports(_ context.Context, id string) ([]*models.Export, error) {
	f.calls = append(f.calls, "exports")
	return f.exports, f.err
}

func (f *fakeNotes) FetchExport(context.Context, *models.Export) (string, error) {
	f.calls = append(f.calls, "fetch")
	return f.path, f.err
}

func newTestApp(auth *fakeAuth, notes *fakeNotes) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return &App{
		logger:      logging.Nop{},
		authService: auth,
		noteService: notes,
		reader:      bufio.NewReader(strings.NewReader("")),
		out:         &out,
	}, &out
}
