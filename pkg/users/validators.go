package users

// CreateUserPayload represents the request body for creating a user.
type CreateUserPayload struct {
	DisplayName string `json:"display_name" mod:"trim" validate:"required,max=100"`
	Email       string `json:"email" mod:"trim" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	Avatar      []byte `json:"avatar"`
}

// UpdateUserPayload represents the request body for replacing a user. An
// empty password keeps the current one.
type UpdateUserPayload struct {
	DisplayName string `json:"display_name" mod:"trim" validate:"required,max=100"`
	Email       string `json:"email" mod:"trim" validate:"required,email"`
	Password    string `json:"password" validate:"omitempty,min=8"`
	Avatar      []byte `json:"avatar"`
}

// EditProfilePayload represents the request body for a user's own profile
// edit.
type EditProfilePayload struct {
	DisplayName string `json:"display_name" mod:"trim" validate:"required,max=100"`
	Email       string `json:"email" mod:"trim" validate:"required,email"`
	Avatar      []byte `json:"avatar"`
	Password    string `json:"password"`
	NewPassword string `json:"new_password" validate:"omitempty,min=8"`
}

// LoginPayload represents the request body for logging in.
type LoginPayload struct {
	Email    string `json:"email" mod:"trim" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ListUsersQuery represents the query parameters for listing users.
type ListUsersQuery struct {
	Limit  int `query:"limit" default:"50" validate:"min=1,max=200"`
	Offset int `query:"offset" default:"0" validate:"min=0"`
}
