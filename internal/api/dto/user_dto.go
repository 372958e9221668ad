package dto

import "reviewhub/internal/api/models"

// CreateUserRequest is the admin-side user creation body. Role is optional
// and defaults to "user".
type CreateUserRequest struct {
	Username  string  `json:"username" binding:"required,max=150"`
	Email     string  `json:"email" binding:"required,email,max=254"`
	FirstName *string `json:"first_name,omitempty" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name,omitempty" binding:"omitempty,max=150"`
	Bio       *string `json:"bio,omitempty"`
	Role      *string `json:"role,omitempty"`
}

// UpdateUserRequest allows partial updates. Whether Role is honored depends
// on who is asking: admins may change it, a user patching /users/me has it
// silently replaced with their current role.
type UpdateUserRequest struct {
	Username  *string `json:"username,omitempty" binding:"omitempty,max=150"`
	Email     *string `json:"email,omitempty" binding:"omitempty,email,max=254"`
	FirstName *string `json:"first_name,omitempty" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name,omitempty" binding:"omitempty,max=150"`
	Bio       *string `json:"bio,omitempty"`
	Role      *string `json:"role,omitempty"`
}

type UserResponse struct {
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Bio       *string `json:"bio"`
	Role      string  `json:"role"`
}

func UserFromModel(u *models.User) UserResponse {
	return UserResponse{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Role:      u.Role,
	}
}

// ApplyTo copies the submitted fields onto the model. Role is handled by the
// caller because of the self-escalation rule.
func (d UpdateUserRequest) ApplyTo(u *models.User) {
	if d.Username != nil {
		u.Username = *d.Username
	}
	if d.Email != nil {
		u.Email = *d.Email
	}
	if d.FirstName != nil {
		u.FirstName = d.FirstName
	}
	if d.LastName != nil {
		u.LastName = d.LastName
	}
	if d.Bio != nil {
		u.Bio = d.Bio
	}
}
