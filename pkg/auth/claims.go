package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/quickcart/quickcart-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID int64
	Phone  string
	Name   string
	Role   enums.UserRole
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID  int64  `json:"user_id"`
	Phone   string `json:"phone"`
	Name    string `json:"name,omitempty"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Role maps the admin flag back onto the role enum.
func (c AccessTokenClaims) Role() enums.UserRole {
	if c.IsAdmin {
		return enums.UserRoleAdmin
	}
	return enums.UserRoleCustomer
}
