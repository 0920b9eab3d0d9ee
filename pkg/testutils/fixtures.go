package testutils

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/eglinebooks/egline/pkg/models"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// Fixtures insert rows directly, bypassing the services under test.

func CreateBook(t *testing.T, db bun.IDB, title string) *models.Book {
	t.Helper()
	now := time.Now()
	book := &models.Book{
		CreatedAt: now,
		UpdatedAt: now,
		Title:     title,
		Status:    "ongoing",
	}
	_, err := db.NewInsert().Model(book).Returning("*").Exec(context.Background())
	require.NoError(t, err)
	return book
}

func CreateUser(t *testing.T, db bun.IDB, name string) *models.User {
	t.Helper()
	now := time.Now()
	user := &models.User{
		CreatedAt:    now,
		UpdatedAt:    now,
		DisplayName:  name,
		Email:        fmt.Sprintf("%s@example.com", name),
		PasswordHash: "not-a-real-hash",
		SavedBooks:   models.SavedBooks{},
	}
	_, err := db.NewInsert().Model(user).Returning("*").Exec(context.Background())
	require.NoError(t, err)
	return user
}

func CreateChapter(t *testing.T, db bun.IDB, bookID, number int) *models.Chapter {
	t.Helper()
	now := time.Now()
	chapter := &models.Chapter{
		CreatedAt: now,
		UpdatedAt: now,
		BookID:    bookID,
		Title:     fmt.Sprintf("Chapter %d", number),
		Number:    number,
	}
	_, err := db.NewInsert().Model(chapter).Returning("*").Exec(context.Background())
	require.NoError(t, err)
	return chapter
}

func CreateComment(t *testing.T, db bun.IDB, bookID, userID, chapterID int) *models.Comment {
	t.Helper()
	now := time.Now()
	comment := &models.Comment{
		CreatedAt: now,
		UpdatedAt: now,
		BookID:    bookID,
		UserID:    userID,
		ChapterID: chapterID,
		Text:      "Great chapter",
	}
	_, err := db.NewInsert().Model(comment).Returning("*").Exec(context.Background())
	require.NoError(t, err)
	return comment
}
