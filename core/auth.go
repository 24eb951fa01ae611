package core

import (
	"strings"
	"time"
)

// Credentials is the access/refresh token pair held by the client.
// Both values are opaque to the client and are never parsed locally.
type Credentials struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Empty reports whether neither token is present
func (c Credentials) Empty() bool {
	return c.Access == "" && c.Refresh == ""
}

// User is the profile returned by /user/profile/
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	IsTurfOwner bool   `json:"is_turf_owner"`
	IsSuperuser bool   `json:"is_superuser,omitempty"`
}

// LoginRequest is the body of /user/login/. Either Email or Username identifies the user.
type LoginRequest struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password"`
}

// Registration is the body of /user/register/
type Registration struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Password    string `json:"password"`
	Password2   string `json:"password2"`
	IsTurfOwner bool   `json:"is_turf_owner"`
}

// Validate checks the registration form before it is sent
func (r Registration) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return invalid("username is required")
	}
	if !strings.Contains(r.Email, "@") {
		return invalid("a valid email is required")
	}
	if r.Password == "" {
		return invalid("password is required")
	}
	if r.Password != r.Password2 {
		return ErrPasswordMismatch
	}
	return nil
}

// Session represents a token session issued by the backend double
type Session struct {
	ID            string    // Unique session identifier
	UserID        int64     // Owner of the session
	IssuedAt      time.Time // When the tokens were issued
	AccessExpiry  time.Time // When the access capability expires
	RefreshExpiry time.Time // When the refresh capability expires
	RefreshID     string    // Unique identifier for the refresh token
}
