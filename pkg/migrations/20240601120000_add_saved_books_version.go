package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`ALTER TABLE users ADD COLUMN saved_books_version INTEGER NOT NULL DEFAULT 0`)
		return errors.WithStack(err)
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`ALTER TABLE users DROP COLUMN saved_books_version`)
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
