package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                int        `bun:",pk,nullzero" json:"id"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	DisplayName       string     `json:"display_name"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"` // Never expose password hash
	Avatar            []byte     `json:"avatar,omitempty"`
	SavedBooks        SavedBooks `bun:"type:text" json:"saved_books"`
	SavedBooksVersion int        `json:"-"`
}
