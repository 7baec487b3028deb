package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// RoleType is a role carried in the access token and the identity payload.
type RoleType string

const (
	RoleUser  RoleType = "ROLE_USER"  // Manages their own wallets and transactions
	RoleAdmin RoleType = "ROLE_ADMIN" // Can also manage shared categories
)

type User struct {
	ID           string     `json:"id,omitempty"`         // Unique identifier for the user
	Email        string     `json:"email,omitempty"`      // User's email address, also the session subject
	PasswordHash string     `json:"-"`                    // Hashed version of the user's password - never serialize
	FirstName    string     `json:"firstName,omitempty"`  // First name of the user
	LastName     string     `json:"lastName,omitempty"`   // Last name of the user
	Roles        []RoleType `json:"roles,omitempty"`      // Granted roles
	DateJoined   time.Time  `json:"dateJoined,omitempty"` // Date and time when the user registered
	LastLogin    time.Time  `json:"lastLogin,omitempty"`  // Last time the user logged in
	Blocked      bool       `json:"blocked,omitempty"`    // Blocked, has the user been blocked from logging in
}

// New validates the password and returns a user holding its bcrypt hash.
func New(email, firstName, lastName, password string, roles ...RoleType) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if err := ValidatePasswordStrength(password); err != nil {
		return nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if len(roles) == 0 {
		roles = []RoleType{RoleUser}
	}
	return &User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Roles:        roles,
		DateJoined:   time.Now(),
	}, nil
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPassword checks a password against the user's hash
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.PasswordHash)
}

func (u *User) HasRole(role RoleType) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RoleNames returns the roles as plain strings for tokens and payloads.
func (u *User) RoleNames() []string {
	roles := make([]string, 0, len(u.Roles))
	for _, role := range u.Roles {
		roles = append(roles, string(role))
	}
	return roles
}
