package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of roles a caller can hold
type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleCustomer Role = "Customer"
)

// ParseRole converts a raw string into a Role. Matching is exact.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleCustomer:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCustomer
}

// Gender is optional profile information
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// User represents a registered account
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	Password  string    `json:"-" db:"password"` // bcrypt digest
	Gender    *Gender   `json:"gender,omitempty" db:"gender"`
	Role      Role      `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a new User instance. An empty role defaults to Customer.
func NewUser(name, email, phone, passwordHash string, gender *Gender, role Role) *User {
	if role == "" {
		role = RoleCustomer
	}
	now := time.Now().UTC()
	return &User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		Password:  passwordHash,
		Gender:    gender,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Public returns the fields of the user that may be exposed to other callers
func (u *User) Public() *UserResponse {
	return &UserResponse{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Phone:  u.Phone,
		Gender: u.Gender,
		Role:   u.Role,
	}
}

// UserResponse is the public projection of a User
type UserResponse struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Phone  string    `json:"phone"`
	Gender *Gender   `json:"gender,omitempty"`
	Role   Role      `json:"role"`
}

// UserInfo is returned by the account endpoints together with a fresh token
type UserInfo struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Role       Role      `json:"role"`
	IsLoggedIn *bool     `json:"isLoggedIn,omitempty"`
	Token      string    `json:"token"`
	Message    string    `json:"message"`
}

// Principal is the authenticated caller for a single request.
// It is built from verified token claims and never persisted.
type Principal struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Role Role      `json:"role"`
}

// IsAdmin returns true if the principal holds the Admin role
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
