package authors

type ListAuthorsQuery struct {
	BookID *int `query:"book_id" json:"book_id,omitempty" validate:"omitempty,min=1"`
}

type AuthorPayload struct {
	FirstName string `json:"first_name" mod:"trim" validate:"required,max=100"`
	LastName  string `json:"last_name" mod:"trim" validate:"required,max=100"`
	Biography string `json:"biography" validate:"max=10000"`
	Avatar    []byte `json:"avatar" validate:"max=2097152"`
}
