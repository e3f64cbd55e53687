// Package types holds the request and response shapes of the HTTP API,
// shared between the server and its services.
package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// validate is shared by all Validate methods; validator instances cache
// struct metadata and are safe for concurrent use.
var validate = validator.New()

// CreateUserRequest is the payload for account registration.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=1"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest is the payload for credential login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdatePasswordRequest rotates the authenticated user's password.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// User is the API view of an account. It deliberately has no password
// hash field.
type User struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PasswordSet bool      `json:"password_set"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LoginResponse is returned by both login and register: the account plus
// a signed token.
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// Validate checks the registration payload against its field rules.
func (r *CreateUserRequest) Validate() error {
	return validate.Struct(r)
}

// Validate checks the login payload against its field rules.
func (r *LoginRequest) Validate() error {
	return validate.Struct(r)
}

// Validate checks the password-change payload against its field rules.
func (r *UpdatePasswordRequest) Validate() error {
	return validate.Struct(r)
}
