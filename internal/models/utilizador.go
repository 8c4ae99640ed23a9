package models

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// NullString wraps sql.NullString to provide proper JSON marshaling
type NullString struct {
	sql.NullString
}

// NewNullString builds a NullString that is NULL for the empty string
func NewNullString(s string) NullString {
	return NullString{sql.NullString{String: s, Valid: s != ""}}
}

// MarshalJSON implements json.Marshaler
func (ns NullString) MarshalJSON() ([]byte, error) {
	if ns.Valid {
		return json.Marshal(ns.String)
	}
	return json.Marshal(nil)
}

// UnmarshalJSON implements json.Unmarshaler
func (ns *NullString) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s != nil {
		ns.Valid = true
		ns.String = *s
	} else {
		ns.Valid = false
	}
	return nil
}

// NullTime wraps sql.NullTime to provide proper JSON marshaling
type NullTime struct {
	sql.NullTime
}

// MarshalJSON implements json.Marshaler
func (nt NullTime) MarshalJSON() ([]byte, error) {
	if nt.Valid {
		return json.Marshal(nt.Time)
	}
	return json.Marshal(nil)
}

// UnmarshalJSON implements json.Unmarshaler
func (nt *NullTime) UnmarshalJSON(data []byte) error {
	var t *time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	if t != nil {
		nt.Valid = true
		nt.Time = *t
	} else {
		nt.Valid = false
	}
	return nil
}

// Role names carried in JWT claims.
const (
	RoleUser    = "user"
	RoleSupport = "support"
)

// Utilizador represents a registered account
type Utilizador struct {
	ID          int64      `json:"id" db:"id"`
	Nome        string     `json:"nome" db:"nome"`
	Email       string     `json:"email" db:"email"`
	Telemovel   NullString `json:"telemovel,omitempty" db:"telemovel"`
	PalavraPass string     `json:"-" db:"palavra_pass"` // bcrypt hash, never exposed
	IsSupport   bool       `json:"is_support" db:"is_support"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Roles returns the role set carried in tokens for this account.
// Support accounts keep the regular role so they can also book stays.
func (u *Utilizador) Roles() []string {
	roles := []string{RoleUser}
	if u.IsSupport {
		roles = append(roles, RoleSupport)
	}
	return roles
}

// RefreshToken represents a stored (hashed) refresh token with device info
type RefreshToken struct {
	ID         int64      `json:"id" db:"id"`
	UserID     int64      `json:"user_id" db:"user_id"`
	TokenHash  string     `json:"-" db:"token_hash"` // Never expose
	DeviceType NullString `json:"device_type,omitempty" db:"device_type"`
	OS         NullString `json:"os,omitempty" db:"os"`
	IPAddress  NullString `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  NullString `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at" db:"expires_at"`
	LastUsedAt NullTime   `json:"last_used_at,omitempty" db:"last_used_at"`
	Revoked    bool       `json:"revoked" db:"revoked"`
	RevokedAt  NullTime   `json:"revoked_at,omitempty" db:"revoked_at"`
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// SignupRequest is the body for POST /auth/signup
type SignupRequest struct {
	Nome        string `json:"nome"`
	Email       string `json:"email"`
	Telemovel   string `json:"telemovel"`
	PalavraPass string `json:"palavra_pass"`
}

// Validate checks the signup request fields
func (r *SignupRequest) Validate() error {
	r.Nome = strings.TrimSpace(r.Nome)
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	if r.Nome == "" {
		return fmt.Errorf("nome is required")
	}
	if !emailRegex.MatchString(r.Email) {
		return fmt.Errorf("email is not valid")
	}
	if len(r.PalavraPass) < 8 {
		return fmt.Errorf("palavra_pass must be at least 8 characters")
	}
	return nil
}

// LoginRequest is the body for POST /auth/login
type LoginRequest struct {
	Email       string `json:"email"`
	PalavraPass string `json:"palavra_pass"`
}

// Validate checks the login request fields
func (r *LoginRequest) Validate() error {
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	if r.Email == "" || r.PalavraPass == "" {
		return fmt.Errorf("email and palavra_pass are required")
	}
	return nil
}

// RefreshRequest is the body for POST /auth/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UpdateProfileRequest is the body for PUT /users/me. Nil fields are left unchanged.
type UpdateProfileRequest struct {
	Nome        *string `json:"nome,omitempty"`
	Email       *string `json:"email,omitempty"`
	Telemovel   *string `json:"telemovel,omitempty"`
	PalavraPass *string `json:"palavra_pass,omitempty"`
}

// Validate checks the profile update fields that are present
func (r *UpdateProfileRequest) Validate() error {
	if r.Nome != nil && strings.TrimSpace(*r.Nome) == "" {
		return fmt.Errorf("nome cannot be empty")
	}
	if r.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*r.Email))
		if !emailRegex.MatchString(email) {
			return fmt.Errorf("email is not valid")
		}
		*r.Email = email
	}
	if r.PalavraPass != nil && len(*r.PalavraPass) < 8 {
		return fmt.Errorf("palavra_pass must be at least 8 characters")
	}
	return nil
}

// TokenPair is returned by login and refresh
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}
