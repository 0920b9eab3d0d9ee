package authors

import (
	"context"
	"testing"

	"github.com/eglinebooks/egline/pkg/models"
	"github.com/eglinebooks/egline/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorLifecycle(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	author := &models.Author{FirstName: "Mary", LastName: "Shelley", Rating: 5, Avatar: []byte{0x1, 0x2}}
	require.NoError(t, svc.CreateAuthor(ctx, author))

	stored, err := svc.RetrieveAuthor(ctx, RetrieveAuthorOptions{ID: &author.ID})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, stored.Rating, 1e-9)
	assert.Equal(t, []byte{0x1, 0x2}, stored.Avatar)

	author.Biography = "Wrote Frankenstein."
	require.NoError(t, svc.UpdateAuthor(ctx, author, UpdateAuthorOptions{Columns: []string{"biography"}}))
	stored, err = svc.RetrieveAuthor(ctx, RetrieveAuthorOptions{ID: &author.ID})
	require.NoError(t, err)
	assert.Equal(t, "Wrote Frankenstein.", stored.Biography)

	book := testutils.CreateBook(t, db, "Frankenstein")
	_, err = db.NewInsert().Model(&models.BookAuthor{BookID: book.ID, AuthorID: author.ID}).Exec(ctx)
	require.NoError(t, err)

	byBook, err := svc.ListAuthors(ctx, ListAuthorsOptions{BookID: &book.ID})
	require.NoError(t, err)
	require.Len(t, byBook, 1)
	assert.Equal(t, author.ID, byBook[0].ID)

	deleted, err := svc.DeleteAuthor(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	count, err := db.NewSelect().Model((*models.BookAuthor)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = svc.RetrieveAuthor(ctx, RetrieveAuthorOptions{ID: &author.ID})
	testutils.RequireCode(t, err, "not_found")

	err = svc.UpdateAuthor(ctx, author, UpdateAuthorOptions{Columns: []string{"biography"}})
	testutils.RequireCode(t, err, "not_found")
}
