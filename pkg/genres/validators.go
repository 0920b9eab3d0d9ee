package genres

type GenrePayload struct {
	Title string `json:"title" mod:"trim" validate:"required,max=100"`
}
