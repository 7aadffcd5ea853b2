package dto

import (
	"time"

	"github.com/codicoteam/school-management-backend/internal/models"
)

// RegisterRequest carries a new account plus its role record details.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Role      string `json:"role" validate:"required,oneof=admin teacher receptionist student parent"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Phone     string `json:"phone"`

	// Student-only enrolment fields; defaulted when omitted.
	CurrentGrade string `json:"current_grade"`
	CurrentClass string `json:"current_class"`
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the public shape of an account.
type UserResponse struct {
	ID        uint       `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Phone     string     `json:"phone"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login"`
}

// NewUserResponse maps a user model to its response shape.
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
		IsActive:  user.IsActive,
		LastLogin: user.LastLogin,
	}
}

// RegisterResponse returns the created account and its role record code.
type RegisterResponse struct {
	User     UserResponse `json:"user"`
	RoleCode string       `json:"role_code"`
}

// LoginResponse returns the bearer token alongside the profile.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}
