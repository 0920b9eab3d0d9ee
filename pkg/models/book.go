package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID          int       `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Rating      float64   `json:"rating"`
	Year        int       `json:"year"`
	Views       int       `json:"views"`
	Status      string    `json:"status"`
}

// CoverKey is the blob store key of the book's cover image.
func (b *Book) CoverKey() string {
	return BookCoverKey(b.ID)
}

type BookAuthor struct {
	bun.BaseModel `bun:"table:book_authors,alias:ba"`

	BookID   int `bun:",pk" json:"book_id"`
	AuthorID int `bun:",pk" json:"author_id"`
}

type BookGenre struct {
	bun.BaseModel `bun:"table:book_genres,alias:bg"`

	BookID  int `bun:",pk" json:"book_id"`
	GenreID int `bun:",pk" json:"genre_id"`
}
