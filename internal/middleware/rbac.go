package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-coins-api/internal/models"
	appErrors "github.com/noah-isme/sma-coins-api/pkg/errors"
)

// SelfParam names the path parameter matched against the caller id when
// "SELF" is allowed.
const SelfParam = "studentId"

const selfToken = "SELF"

type policy struct {
	roles map[models.UserRole]bool
	self  bool
}

func (p policy) admits(c *gin.Context, claims *models.JWTClaims) bool {
	if p.roles[claims.Role] {
		return true
	}
	return p.self && claims.UserID != "" && c.Param(SelfParam) == claims.UserID
}

// RBAC admits callers whose role is listed. The pseudo-role "SELF" also
// admits a student acting on their own :studentId.
func RBAC(allowed ...string) gin.HandlerFunc {
	p := policy{roles: make(map[models.UserRole]bool, len(allowed))}
	for _, a := range allowed {
		if a == selfToken {
			p.self = true
			continue
		}
		p.roles[models.UserRole(a)] = true
	}

	return func(c *gin.Context) {
		claims := Claims(c)
		switch {
		case claims == nil:
			abort(c, appErrors.ErrUnauthorized)
		case !p.admits(c, claims):
			abort(c, appErrors.ErrForbidden)
		default:
			c.Next()
		}
	}
}

func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	return RBAC(names...)
}

func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)
}

// RequireSelfOrAdmin admits administrators and the student named in the path.
func RequireSelfOrAdmin() gin.HandlerFunc {
	return RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin), selfToken)
}
