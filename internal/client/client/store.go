package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/gophnotes/internal/client/migrations"
)

// Migrate brings the local schema up to date. It uses a goose provider
// rather than the package-level goose state, so concurrent callers are safe.
func Migrate(ctx context.Context, db *sql.DB) (applied int, err error) {
	p, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
	if err != nil {
		return 0, fmt.Errorf("goose provider: %w", err)
	}

	res, err := p.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("migrating session store: %w", err)
	}
	return len(res), nil
}

// OpenStore opens (creating if needed) the SQLite file that holds the CLI
// session and migrates it.
func OpenStore(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	// A single writer avoids SQLITE_BUSY between the REPL and the
	// token-refresh callback.
	db.SetMaxOpenConns(1)

	if _, err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
