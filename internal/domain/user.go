package domain

import "time"

// Role names stored in the users table
const (
	RoleAdmin = "admin" // Seller, manages the catalog and orders
	RoleUser  = "user"  // Buyer, places orders
)

// User Model
type User struct {
	Username     string    `gorm:"primaryKey;size:64" json:"username"`          // Unique username, shared by both roles
	PasswordHash string    `gorm:"column:password;not null" json:"-"`           // Bcrypt hash of the password
	Role         string    `gorm:"size:16;not null;default:'user'" json:"role"` // Role: user or admin
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`            // Registration time
}

// IsAdmin reports whether the user may manage the catalog
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ParseRole normalises a role name coming from a login form ("Admin", "User", ...)
func ParseRole(role string) (string, bool) {
	switch role {
	case "admin", "Admin", "ADMIN":
		return RoleAdmin, true
	case "user", "User", "USER":
		return RoleUser, true
	default:
		return "", false
	}
}
