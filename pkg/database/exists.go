package database

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// Exists reports whether the table behind model holds a row with the given
// id. model is usually a typed nil, e.g. (*models.Book)(nil).
func Exists(ctx context.Context, db bun.IDB, model any, id int) (bool, error) {
	ok, err := db.NewSelect().
		Model(model).
		Where("id = ?", id).
		Exists(ctx)
	return ok, errors.WithStack(err)
}
