package books

type ListBooksQuery struct {
	Limit    *int    `query:"limit" json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
	Offset   *int    `query:"offset" json:"offset,omitempty" validate:"omitempty,min=0"`
	GenreID  *int    `query:"genre_id" json:"genre_id,omitempty" validate:"omitempty,min=1"`
	AuthorID *int    `query:"author_id" json:"author_id,omitempty" validate:"omitempty,min=1"`
	Status   *string `query:"status" json:"status,omitempty" validate:"omitempty,max=50"`
	Search   *string `query:"search" json:"search,omitempty" validate:"omitempty,max=100"`
}

type BookPayload struct {
	Title       string `json:"title" mod:"trim" validate:"required,max=300"`
	Description string `json:"description" validate:"max=10000"`
	Year        int    `json:"year" validate:"min=0,max=9999"`
	Status      string `json:"status" mod:"trim" validate:"max=50"`
}

type BookGenrePayload struct {
	BookID  int `json:"book_id" validate:"required,min=1"`
	GenreID int `json:"genre_id" validate:"required,min=1"`
}

type BookAuthorPayload struct {
	BookID   int `json:"book_id" validate:"required,min=1"`
	AuthorID int `json:"author_id" validate:"required,min=1"`
}

type ListBookGenresQuery struct {
	BookID  *int `query:"book_id" json:"book_id,omitempty" validate:"omitempty,min=1"`
	GenreID *int `query:"genre_id" json:"genre_id,omitempty" validate:"omitempty,min=1"`
}

type ListBookAuthorsQuery struct {
	BookID   *int `query:"book_id" json:"book_id,omitempty" validate:"omitempty,min=1"`
	AuthorID *int `query:"author_id" json:"author_id,omitempty" validate:"omitempty,min=1"`
}
