// internal/auth/models.go
// Users and the login session values

package auth

import (
	"time"
)

// Role decides which screens and endpoints a user may reach
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStaff    Role = "staff"
	RoleCustomer Role = "customer"
)

// User represents an account in the users table
type User struct {
	ID            int64     `json:"id" db:"id"`
	Username      string    `json:"username" db:"username"`
	Email         string    `json:"email" db:"email"`
	PasswordHash  string    `json:"-" db:"password"`
	Role          Role      `json:"role" db:"role"`
	Phone         string    `json:"phone" db:"phone"`
	PhoneVerified bool      `json:"phone_verified" db:"phone_verified"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// NewUser is everything needed to insert a verified customer.
// PasswordHash must already be a bcrypt hash.
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	Phone        string
}

// LoginRequest is the login form
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Identity is what the session remembers about a logged-in user
type Identity struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Role       Role   `json:"role"`
	IsLoggedIn bool   `json:"isLoggedIn"`
}

// session keys
const (
	sessionKeyID         = "id"
	sessionKeyUsername   = "username"
	sessionKeyRole       = "role"
	sessionKeyIsLoggedIn = "isLoggedIn"
)
