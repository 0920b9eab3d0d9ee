package worker

import (
	"context"
	"testing"

	"github.com/eglinebooks/egline/pkg/config"
	"github.com/eglinebooks/egline/pkg/models"
	"github.com/eglinebooks/egline/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSchedule(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateSchedule("0 4 * * *"))
	assert.NoError(t, ValidateSchedule("@hourly"))
	assert.Error(t, ValidateSchedule("every day"))
	assert.Error(t, ValidateSchedule("0 0 4 * * *"))
}

func TestWorker_Start(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)

	t.Run("empty schedule disables reconciliation", func(t *testing.T) {
		cfg := config.NewForTest()
		w := New(cfg, db)
		require.NoError(t, w.Start())
		assert.Nil(t, w.NextRun())
		w.Shutdown()
	})

	t.Run("invalid schedule fails", func(t *testing.T) {
		cfg := config.NewForTest()
		cfg.RatingReconcileSchedule = "whenever"
		w := New(cfg, db)
		assert.Error(t, w.Start())
		assert.Nil(t, w.NextRun())
	})

	t.Run("valid schedule", func(t *testing.T) {
		cfg := config.NewForTest()
		cfg.RatingReconcileSchedule = "@daily"
		w := New(cfg, db)
		require.NoError(t, w.Start())
		require.NoError(t, w.Start())
		next := w.NextRun()
		require.NotNil(t, next)
		assert.False(t, next.IsZero())
		w.Shutdown()
		assert.Nil(t, w.NextRun())
	})
}

func TestWorker_RunReconcile(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	ctx := context.Background()
	w := New(config.NewForTest(), db)

	book := testutils.CreateBook(t, db, "Drifted")
	user := testutils.CreateUser(t, db, "reader")
	_, err := db.NewInsert().Model(&models.BookRate{BookID: book.ID, UserID: user.ID, Rate: 2}).Exec(ctx)
	require.NoError(t, err)

	result, err := w.RunReconcile(ctx)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Books)

	reloaded := &models.Book{}
	require.NoError(t, db.NewSelect().Model(reloaded).Where("b.id = ?", book.ID).Scan(ctx))
	assert.InDelta(t, 2.0, reloaded.Rating, 1e-9)
}
