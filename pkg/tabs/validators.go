package tabs

type SaveBookPayload struct {
	UserID  int    `json:"user_id" validate:"required,min=1"`
	BookID  int    `json:"book_id" validate:"required,min=1"`
	TabName string `json:"tab_name" validate:"tabname"`
}
