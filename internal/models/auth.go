package models

import "github.com/golang-jwt/jwt/v5"

// UserRole is the role claim carried by access tokens.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleStudent    UserRole = "STUDENT"
)

// Known reports whether r is one of the roles this API understands.
func (r UserRole) Known() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleStudent:
		return true
	}
	return false
}

// JWTClaims represents the JWT payload for access tokens. Tokens are issued by
// the school identity provider; this service only validates them.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the caller may administer requests and ledgers.
func (c *JWTClaims) IsAdmin() bool {
	return c != nil && (c.Role == RoleAdmin || c.Role == RoleSuperAdmin)
}
