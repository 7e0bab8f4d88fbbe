package models

import (
	"time"
)

// Role is the access level of a community member
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleServant Role = "servant"
	RoleMember  Role = "member"
)

// User represents a registered member. The attendance engine only reads users.
type User struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Role      Role      `json:"role" db:"role"`
	BarcodeID string    `json:"barcode_id" db:"barcode_id"`
	Active    bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CanViewAll reports whether the user may read other members' attendance
func (u *User) CanViewAll() bool {
	return u.Role == RoleAdmin || u.Role == RoleServant
}
