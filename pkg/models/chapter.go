package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Chapter struct {
	bun.BaseModel `bun:"table:chapters,alias:ch"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	BookID    int       `json:"book_id"`
	Title     string    `json:"title"`
	Number    int       `json:"number"`
	Date      string    `json:"date"`
}

func (c *Chapter) TextKey() string {
	return ChapterTextKey(c.BookID, c.Number)
}

func (c *Chapter) AudioKey() string {
	return ChapterAudioKey(c.BookID, c.Number)
}

// Prefix is the blob store prefix holding every blob of the chapter.
func (c *Chapter) Prefix() string {
	return ChapterPrefix(c.BookID, c.Number)
}
