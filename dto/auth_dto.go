package dto

// RegisterUserDTO is parsed from multipart form fields; the avatar and
// optional coverImage files arrive separately.
type RegisterUserDTO struct {
	FullName string `form:"fullName" binding:"required"`
	Username string `form:"username" binding:"required,min=3,max=32"`
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required,min=8"`
}

// LoginDTO accepts username or email; at least one must be present, which is
// checked in the service after trimming.
type LoginDTO struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordDTO struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}
