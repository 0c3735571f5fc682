// Package user implements account signup and login for patients and hospital
// admins.
package user

import (
	"time"

	"github.com/google/uuid"
)

// User is an account. Patients have role "user"; hospital admins have role
// "hospital" and are bound to exactly one hospital.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	HospitalID   *uuid.UUID `json:"hospitalId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// SignupRequest is the registration payload.
type SignupRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	HospitalID string `json:"hospitalId"`
}

// LoginRequest is the credential payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token plus the account it identifies.
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
