package chapters

type ListChaptersQuery struct {
	BookID *int `query:"book_id" json:"book_id,omitempty" validate:"omitempty,min=1"`
}

type ChapterPayload struct {
	BookID int    `json:"book_id" validate:"required,min=1"`
	Title  string `json:"title" mod:"trim" validate:"required,max=300"`
	Number int    `json:"number" validate:"min=0"`
	Date   string `json:"date" validate:"date"`
}
