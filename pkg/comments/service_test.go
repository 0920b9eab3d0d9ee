package comments

import (
	"context"
	"fmt"
	"testing"

	"github.com/eglinebooks/egline/pkg/models"
	"github.com/eglinebooks/egline/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type fixture struct {
	book    *models.Book
	user    *models.User
	chapter *models.Chapter
}

func newFixture(t *testing.T, db *bun.DB) fixture {
	t.Helper()
	book := testutils.CreateBook(t, db, "B")
	return fixture{
		book:    book,
		user:    testutils.CreateUser(t, db, "reader"),
		chapter: testutils.CreateChapter(t, db, book.ID, 1),
	}
}

func TestCreateComment(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	f := newFixture(t, db)

	comment := &models.Comment{
		BookID:    f.book.ID,
		UserID:    f.user.ID,
		ChapterID: f.chapter.ID,
		Text:      "Loved it",
		Upvotes:   10,
		Downvotes: 3,
	}
	require.NoError(t, svc.CreateComment(ctx, comment))
	assert.NotZero(t, comment.ID)

	stored, err := svc.RetrieveComment(ctx, RetrieveCommentOptions{ID: &comment.ID})
	require.NoError(t, err)
	assert.Equal(t, "Loved it", stored.Text)
	assert.Equal(t, 0, stored.Upvotes)
	assert.Equal(t, 0, stored.Downvotes)
}

func TestCreateComment_ChapterMismatch(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	f := newFixture(t, db)
	other := testutils.CreateBook(t, db, "Other")

	comment := &models.Comment{BookID: other.ID, UserID: f.user.ID, ChapterID: f.chapter.ID, Text: "?"}
	codeErr := testutils.RequireCode(t, svc.CreateComment(ctx, comment), "validation_error")
	assert.Contains(t, codeErr.Message, "No such chapter with id")

	count, err := db.NewSelect().Model((*models.Comment)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCreateComment_UnknownUser(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	f := newFixture(t, db)

	comment := &models.Comment{BookID: f.book.ID, UserID: 999, ChapterID: f.chapter.ID, Text: "?"}
	codeErr := testutils.RequireCode(t, svc.CreateComment(context.Background(), comment), "not_found")
	assert.Equal(t, "User not found.", codeErr.Message)
}

func TestUpdateComment_KeepsVotes(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	f := newFixture(t, db)

	existing := testutils.CreateComment(t, db, f.book.ID, f.user.ID, f.chapter.ID)
	_, err := db.NewUpdate().
		Model((*models.Comment)(nil)).
		Set("upvotes = 2").
		Where("id = ?", existing.ID).
		Exec(ctx)
	require.NoError(t, err)

	update := &models.Comment{ID: existing.ID, BookID: f.book.ID, UserID: f.user.ID, ChapterID: f.chapter.ID, Text: "Edited"}
	require.NoError(t, svc.UpdateComment(ctx, update))
	assert.Equal(t, "Edited", update.Text)
	assert.Equal(t, 2, update.Upvotes)

	missing := &models.Comment{ID: 999, BookID: f.book.ID, UserID: f.user.ID, ChapterID: f.chapter.ID, Text: "x"}
	testutils.RequireCode(t, svc.UpdateComment(ctx, missing), "not_found")
}

func TestUpdateComment_ChapterMismatch(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	f := newFixture(t, db)
	other := testutils.CreateBook(t, db, "Other")
	otherChapter := testutils.CreateChapter(t, db, other.ID, 1)

	existing := testutils.CreateComment(t, db, f.book.ID, f.user.ID, f.chapter.ID)

	update := &models.Comment{ID: existing.ID, BookID: f.book.ID, UserID: f.user.ID, ChapterID: otherChapter.ID, Text: "Moved"}
	codeErr := testutils.RequireCode(t, svc.UpdateComment(ctx, update), "validation_error")
	assert.Equal(t, fmt.Sprintf("No such chapter with id %d and book_id %d", otherChapter.ID, f.book.ID), codeErr.Message)

	stored, err := svc.RetrieveComment(ctx, RetrieveCommentOptions{ID: &existing.ID})
	require.NoError(t, err)
	assert.Equal(t, f.chapter.ID, stored.ChapterID)
	assert.Equal(t, existing.Text, stored.Text)

	// Both references moved together is fine.
	update = &models.Comment{ID: existing.ID, BookID: other.ID, UserID: f.user.ID, ChapterID: otherChapter.ID, Text: "Moved"}
	require.NoError(t, svc.UpdateComment(ctx, update))
	assert.Equal(t, other.ID, update.BookID)
}

func TestListAndDeleteComments(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	f := newFixture(t, db)
	second := testutils.CreateChapter(t, db, f.book.ID, 2)

	first := testutils.CreateComment(t, db, f.book.ID, f.user.ID, f.chapter.ID)
	testutils.CreateComment(t, db, f.book.ID, f.user.ID, second.ID)

	all, err := svc.ListComments(ctx, ListCommentsOptions{BookID: &f.book.ID})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byChapter, err := svc.ListComments(ctx, ListCommentsOptions{ChapterID: &second.ID})
	require.NoError(t, err)
	require.Len(t, byChapter, 1)
	assert.Equal(t, second.ID, byChapter[0].ChapterID)

	n, err := svc.DeleteComment(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = svc.DeleteComment(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
