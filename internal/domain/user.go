package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmailAlreadyExists indicates the the user with the given email already exists.
	ErrEmailAlreadyExists = errors.New("email already exists")
	// ErrUserNotFound indicates the the user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrWrongPassword indicates the wrong password for the given user.
	ErrWrongPassword = errors.New("wrong password")
	// ErrOpeningBalanceNotPosted indicates a user that exists without the requested opening balance.
	ErrOpeningBalanceNotPosted = errors.New("user created without opening balance")
)

// User holds user data.
type User struct {
	ID                int32           `json:"id"`
	Name              string          `json:"name"`
	Email             string          `json:"email"`
	Phone             string          `json:"phone"`
	HashedPassword    string          `json:"hashed_password"`
	RoleID            int32           `json:"role_id"`
	RoleName          string          `json:"role_name"`
	Balance           decimal.Decimal `json:"balance"`
	PasswordChangedAt time.Time       `json:"password_changed_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at,omitempty"`
}

// CreateUserParams is the input data to create a user.
type CreateUserParams struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	HashedPassword string `json:"hashed_password"`
	RoleID         int32  `json:"role_id"`
}

// UpdateUserParams is a partial update of a user. The balance is not part of it:
// it only changes through the ledger.
type UpdateUserParams struct {
	ID             int32
	Name           *string
	Email          *string
	Phone          *string
	HashedPassword *string
	RoleID         *int32
}

// UserWithoutPassword is User data excluding password data.
type UserWithoutPassword struct {
	ID        int32           `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone"`
	Role      Role            `json:"role"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewUserWithoutPassword returns user with removed sensitive data.
func NewUserWithoutPassword(u User) UserWithoutPassword {
	return UserWithoutPassword{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      Role{ID: u.RoleID, Name: u.RoleName},
		Balance:   u.Balance,
		CreatedAt: u.CreatedAt,
	}
}

// OpeningBalanceConcept is the concept of the entry that carries the balance a
// user is created with.
const OpeningBalanceConcept = "Saldo inicial"

// NewUserParams is a request to open a user account with a plain text password.
type NewUserParams struct {
	Name           string
	Email          string
	Phone          string
	Password       string
	RoleID         int32
	OpeningBalance decimal.Decimal
}

// ChangeUserParams is a partial user update with a plain text password. Nil fields keep their value.
type ChangeUserParams struct {
	ID       int32
	Name     *string
	Email    *string
	Phone    *string
	Password *string
	RoleID   *int32
}
