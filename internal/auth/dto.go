package auth

import (
	"time"

	"github.com/angelmondragon/sweetshop-backend/pkg/auth/session"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

// LoginResponse carries the bearer token and the session it is bound to.
type LoginResponse struct {
	AccessToken string         `json:"accessToken"`
	ExpiresAt   time.Time      `json:"expiresAt"`
	Session     session.Record `json:"session"`
}
