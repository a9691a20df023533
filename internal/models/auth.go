package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued tokens and user info.
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	User         UserInfo  `json:"user"`
	IssuedAt     time.Time `json:"issued_at"`
}

// RefreshTokenRequest exchanges a refresh token for a new access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse returns the refreshed tokens.
type RefreshTokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID       string     `json:"id"`
	PersonID string     `json:"person_id"`
	Email    string     `json:"email"`
	FullName string     `json:"full_name"`
	Role     GlobalRole `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens. PersonID is the
// identity the authorization gate resolves project actors against.
type JWTClaims struct {
	UserID   string     `json:"user_id"`
	PersonID string     `json:"person_id"`
	Role     GlobalRole `json:"role"`
	Email    string     `json:"email"`
	FullName string     `json:"full_name"`
	jwt.RegisteredClaims
}
