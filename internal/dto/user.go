package dto

import "time"

// UserProfile is the caller's own view of their account. The password hash
// and verification codes never leave the store layer.
type UserProfile struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"isAccountVerified"`
}

// PublicUser is the directory view exposed to search and public listings.
type PublicUser struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

type UpdateProfileRequest struct {
	Name string `json:"name"`
}
