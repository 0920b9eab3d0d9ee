package models

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/uptrace/bun"
)

type Genre struct {
	bun.BaseModel `bun:"table:genres,alias:g"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Title     string    `json:"title"`
}

// CapitalizeTitle upper-cases the first letter of a genre title and
// lower-cases the rest, so "sCI-fi" is stored as "Sci-fi".
func CapitalizeTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return title
	}
	r, size := utf8.DecodeRuneInString(title)
	return string(unicode.ToUpper(r)) + strings.ToLower(title[size:])
}
