package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	MinBookRate = 1
	MaxBookRate = 5

	Upvote   = 1
	Downvote = -1
)

type BookRate struct {
	bun.BaseModel `bun:"table:book_rates,alias:br"`

	BookID    int       `bun:",pk" json:"book_id"`
	UserID    int       `bun:",pk" json:"user_id"`
	Rate      int       `json:"rate"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CommentRate struct {
	bun.BaseModel `bun:"table:comment_rates,alias:cr"`

	CommentID int       `bun:",pk" json:"comment_id"`
	UserID    int       `bun:",pk" json:"user_id"`
	Rate      int       `json:"rate"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
