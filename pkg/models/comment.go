package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Comment struct {
	bun.BaseModel `bun:"table:comments,alias:cm"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	BookID    int       `json:"book_id"`
	UserID    int       `json:"user_id"`
	ChapterID int       `json:"chapter_id"`
	Text      string    `json:"text"`
	Upvotes   int       `json:"upvotes"`
	Downvotes int       `json:"downvotes"`
}
