package models

// Roles mirror the values the signup/login screens submit.
const (
	RolePublic  = "Public"
	RoleCompany = "Recycling Center"
)

// User represents an account in the system, either a member of the
// public or a recycling center.
type User struct {
	ID           int64  `json:"user_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // Not serialized
	Role         string `json:"role"`
	Mobile       string `json:"mobile,omitempty"`
	CreatedAt    string `json:"created_at"`
}
