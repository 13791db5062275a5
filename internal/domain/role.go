package domain

import (
	"errors"
	"time"
)

var (
	// ErrRoleNotFound indicates that the role is not found.
	ErrRoleNotFound = errors.New("role not found")
	// ErrRoleAlreadyExists indicates that a role with the given name already exists.
	ErrRoleAlreadyExists = errors.New("role already exists")
	// ErrRoleInUse indicates that the role is still assigned to users.
	ErrRoleInUse = errors.New("role is assigned to users")
	// ErrInvalidRoleName indicates an empty role name.
	ErrInvalidRoleName = errors.New("role name cannot be empty")
	// ErrBuiltinRole indicates an attempt to rename or delete a built-in role.
	ErrBuiltinRole = errors.New("built-in roles cannot be changed")
)

// Built-in role names seeded by the migrations.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// IsBuiltinRole reports whether name is one of the roles authorization depends on.
func IsBuiltinRole(name string) bool {
	return name == RoleAdmin || name == RoleUser
}

// Role groups users by permissions.
type Role struct {
	ID        int32     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
