package ratings

// The rate value itself is range checked by the service so every entry point
// reports the same error.

type BookRatePayload struct {
	BookID int `json:"book_id" validate:"required,min=1"`
	UserID int `json:"user_id" validate:"required,min=1"`
	Rate   int `json:"rate"`
}

type CommentRatePayload struct {
	CommentID int `json:"comment_id" validate:"required,min=1"`
	UserID    int `json:"user_id" validate:"required,min=1"`
	Rate      int `json:"rate"`
}

type ListBookRatesQuery struct {
	BookID *int `query:"book_id" json:"book_id,omitempty" validate:"omitempty,min=1"`
	UserID *int `query:"user_id" json:"user_id,omitempty" validate:"omitempty,min=1"`
}

type ListCommentRatesQuery struct {
	CommentID *int `query:"comment_id" json:"comment_id,omitempty" validate:"omitempty,min=1"`
	UserID    *int `query:"user_id" json:"user_id,omitempty" validate:"omitempty,min=1"`
}
