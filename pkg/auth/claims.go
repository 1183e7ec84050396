package auth

import (
	"github.com/angelmondragon/foodbridge-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Subject is what a caller proves by presenting an access token.
type Subject struct {
	UserID   uuid.UUID
	Email    string
	UserType enums.UserType
	// SessionID becomes the jti and keys the refresh session in Redis.
	SessionID string
}

// Claims is the JWT body issued to clients.
type Claims struct {
	UserID   uuid.UUID      `json:"user_id"`
	Email    string         `json:"email,omitempty"`
	UserType enums.UserType `json:"user_type"`
	jwt.RegisteredClaims
}

// Subject converts parsed claims back into the caller identity.
func (c *Claims) Subject() Subject {
	return Subject{
		UserID:    c.UserID,
		Email:     c.Email,
		UserType:  c.UserType,
		SessionID: c.ID,
	}
}
