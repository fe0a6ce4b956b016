package models

type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleArbiter UserRole = "arbiter"
)

func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleArbiter
}

// User is an API operator (admin or arbiter), not a chess player.
type User struct {
	ID           int64    `json:"user_id"`
	Email        string   `json:"email"`
	DisplayName  string   `json:"display_name"`
	Role         UserRole `json:"role"`
	PasswordHash string   `json:"-"`
	Timestamps
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
