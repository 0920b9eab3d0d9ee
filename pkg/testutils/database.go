package testutils

import (
	"context"
	"testing"

	"github.com/eglinebooks/egline/pkg/config"
	"github.com/eglinebooks/egline/pkg/database"
	"github.com/eglinebooks/egline/pkg/migrations"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// NewTestDB returns an in-memory database with every migration applied. It
// goes through database.New so foreign keys and cascades behave exactly like
// they do in production.
func NewTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := database.New(config.NewForTest())
	require.NoError(t, err)

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}
