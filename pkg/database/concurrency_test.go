package database

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/eglinebooks/egline/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// newFileDB opens a file database with the busy timeout and retries turned
// down, so any lock contention would surface as an error.
func newFileDB(t *testing.T) *bun.DB {
	t.Helper()
	cfg := config.NewForTest()
	cfg.DatabaseFilePath = filepath.Join(t.TempDir(), "egline.db")
	cfg.DatabaseMaxRetries = 0
	cfg.DatabaseBusyTimeout = 1_000_000

	db, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

// Concurrent view counter bumps on the same book must all land.
func TestConcurrentCounterUpdates(t *testing.T) {
	t.Parallel()

	db := newFileDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `CREATE TABLE books (id INTEGER PRIMARY KEY, views INTEGER NOT NULL DEFAULT 0)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO books (id) VALUES (1)`)
	require.NoError(t, err)

	const workers = 16
	const bumps = 40

	var wg sync.WaitGroup
	errs := make(chan error, workers*bumps)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < bumps; i++ {
				if _, err := db.ExecContext(ctx, `UPDATE books SET views = views + 1 WHERE id = 1`); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	var views int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT views FROM books WHERE id = 1`).Scan(&views))
	assert.Equal(t, workers*bumps, views)
}

// Transactions that read then write the same row serialize instead of
// failing with SQLITE_BUSY.
func TestConcurrentTransactions(t *testing.T) {
	t.Parallel()

	db := newFileDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `CREATE TABLE book_rates (book_id INTEGER, user_id INTEGER, rate INTEGER, PRIMARY KEY (book_id, user_id))`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `CREATE TABLE books (id INTEGER PRIMARY KEY, rating REAL NOT NULL DEFAULT 0)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO books (id) VALUES (1)`)
	require.NoError(t, err)

	const raters = 12
	var wg sync.WaitGroup
	errs := make(chan error, raters)
	for u := 1; u <= raters; u++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			errs <- db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
				if _, err := tx.ExecContext(ctx, `INSERT INTO book_rates VALUES (1, ?, ?)`, userID, userID%5+1); err != nil {
					return err
				}
				_, err := tx.ExecContext(ctx, `UPDATE books SET rating = (SELECT AVG(rate) FROM book_rates WHERE book_id = 1) WHERE id = 1`)
				return err
			})
		}(u)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	var rating, expected float64
	require.NoError(t, db.QueryRowContext(ctx, `SELECT rating FROM books WHERE id = 1`).Scan(&rating))
	require.NoError(t, db.QueryRowContext(ctx, `SELECT AVG(rate) FROM book_rates`).Scan(&expected))
	assert.InDelta(t, expected, rating, 1e-9)
}

func TestForeignKeysEnforced(t *testing.T) {
	t.Parallel()

	db, err := New(config.NewForTest())
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE books (id INTEGER PRIMARY KEY AUTOINCREMENT)`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE chapters (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		book_id INTEGER NOT NULL REFERENCES books (id) ON DELETE CASCADE
	)`)
	require.NoError(t, err)

	_, err = db.Exec("INSERT INTO chapters (book_id) VALUES (42)")
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err))

	_, err = db.Exec("INSERT INTO books (id) VALUES (1)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO chapters (book_id) VALUES (1)")
	require.NoError(t, err)

	_, err = db.Exec("DELETE FROM books WHERE id = 1")
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM chapters").Scan(&count))
	assert.Equal(t, 0, count)
}
