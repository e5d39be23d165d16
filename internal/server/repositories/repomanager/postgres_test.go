package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/exports"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/notes"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/revokedtokens"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/users"
)

func stubGoose(t *testing.T, fn func(dir string) error) {
	t.Helper()
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })
	gooseUpContext = func(_ context.Context, _ *sql.DB, dir string, _ ...goose.OptionsFunc) error {
		return fn(dir)
	}
}

func TestManager_VendsPostgresRepositories(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m := NewPostgresRepositoryManager()

	assert.IsType(t, &users.PostgresRepository{}, m.Users(db))
	assert.IsType(t, &notes.PostgresRepository{}, m.Notes(db))
	assert.IsType(t, &revokedtokens.PostgresRepository{}, m.RevokedTokens(db))
	assert.IsType(t, &exports.PostgresRepository{}, m.Exports(db))
}

func TestRunMigrations(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	t.Run("applies embedded dir", func(t *testing.T) {
		var gotDir string
		stubGoose(t, func(dir string) error {
			gotDir = dir
			return nil
		})

		require.NoError(t, NewPostgresRepositoryManager().RunMigrations(context.Background(), db))
		assert.Equal(t, ".", gotDir)
	})

	t.Run("wraps goose error", func(t *testing.T) {
		boom := errors.New("relation already exists")
		stubGoose(t, func(string) error { return boom })

		err := NewPostgresRepositoryManager().RunMigrations(context.Background(), db)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "migrating notes schema")
	})
}
