package enums

import (
	"fmt"
	"strings"
)

// UserType distinguishes donating businesses from receiving shelters.
// It doubles as the role claim on access tokens.
type UserType string

const (
	UserTypeBusiness UserType = "business"
	UserTypeShelter  UserType = "shelter"
)

var validUserTypes = []UserType{UserTypeBusiness, UserTypeShelter}

func (u UserType) String() string { return string(u) }

func (u UserType) IsValid() bool {
	for _, candidate := range validUserTypes {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUserType accepts any casing.
func ParseUserType(value string) (UserType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validUserTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user type %q", value)
}
