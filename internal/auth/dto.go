package auth

import (
	"github.com/angelmondragon/foodbridge-backend/internal/profiles"
	"github.com/angelmondragon/foodbridge-backend/internal/users"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest creates a user together with its business or shelter
// profile.
type RegisterRequest struct {
	Email         string  `json:"email" validate:"required,email"`
	Password      string  `json:"password" validate:"required,min=8"`
	UserType      string  `json:"user_type" validate:"required,oneof=business shelter"`
	BusinessName  *string `json:"business_name,omitempty"`
	ShelterName   *string `json:"shelter_name,omitempty"`
	Address       *string `json:"address,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Description   *string `json:"description,omitempty"`
	ContactPerson *string `json:"contact_person,omitempty"`
}

func (r RegisterRequest) fields() profiles.Fields {
	return profiles.Fields{
		BusinessName:  r.BusinessName,
		ShelterName:   r.ShelterName,
		Address:       r.Address,
		Phone:         r.Phone,
		Description:   r.Description,
		ContactPerson: r.ContactPerson,
	}
}

// TokenPair is returned by refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	TokenPair
	User    *users.UserDTO       `json:"user"`
	Profile *profiles.ProfileDTO `json:"profile"`
}
