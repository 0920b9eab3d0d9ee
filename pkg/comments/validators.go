package comments

type ListCommentsQuery struct {
	BookID    *int `query:"book_id" json:"book_id,omitempty" validate:"omitempty,min=1"`
	ChapterID *int `query:"chapter_id" json:"chapter_id,omitempty" validate:"omitempty,min=1"`
	UserID    *int `query:"user_id" json:"user_id,omitempty" validate:"omitempty,min=1"`
}

type CommentPayload struct {
	BookID    int    `json:"book_id" validate:"required,min=1"`
	UserID    int    `json:"user_id" validate:"required,min=1"`
	ChapterID int    `json:"chapter_id" validate:"required,min=1"`
	Text      string `json:"text" mod:"trim" validate:"required,max=10000"`
}
