package types

import "time"

// Roles an account can hold. A user authenticates only against the login
// path of their own role.
const (
	RoleAdmin      = "ADMIN"
	RoleTeamLeader = "TEAM_LEADER"
	RoleMember     = "MEMBER"
)

// Account statuses. Only ACTIVE accounts may log in.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// ValidRole reports whether role is one of the known account roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleTeamLeader, RoleMember:
		return true
	}
	return false
}

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"user_id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's email address. Unique across all accounts.
	Email string `json:"email" db:"email"`

	// Name and Surname form the user's display name.
	Name    string `json:"name" db:"name"`
	Surname string `json:"surname" db:"surname"`

	// Role is one of ADMIN, TEAM_LEADER, or MEMBER and determines which
	// operations the user may invoke.
	Role string `json:"role" db:"role"`

	// Status gates login: ACTIVE accounts may authenticate, INACTIVE
	// accounts await admin activation.
	Status string `json:"status" db:"status"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account,
	// including activation and deactivation.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
