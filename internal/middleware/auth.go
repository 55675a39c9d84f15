package middleware

import (
	"strings"

	"github.com/alenk/profilio-api/internal/expr"
	"github.com/alenk/profilio-api/internal/services"
	"github.com/m1z23r/drift/pkg/drift"
)

const (
	UserIDKey = "user_id"
	RolesKey  = "user_roles"
	ManageKey = "user_manage"
)

func Auth(jwtService *services.JWTService) drift.HandlerFunc {
	return func(c *drift.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Unauthorized("missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.Unauthorized("invalid authorization header format")
			return
		}

		claims, err := jwtService.ValidateToken(parts[1])
		if err != nil {
			c.Unauthorized("invalid or expired token")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(RolesKey, claims.Roles)
		c.Set(ManageKey, claims.Manage)

		c.Next()
	}
}

func GetUserID(c *drift.Context) string {
	if id, ok := c.Get(UserIDKey); ok {
		if uid, ok := id.(string); ok {
			return uid
		}
	}
	return ""
}

// GetRoles returns the caller's role ids as a set for expression evaluation.
func GetRoles(c *drift.Context) expr.RoleSet {
	if v, ok := c.Get(RolesKey); ok {
		if roles, ok := v.([]string); ok {
			return expr.NewRoleSet(roles...)
		}
	}
	return expr.NewRoleSet()
}

// HasManage reports whether the caller holds the template-management
// privilege.
func HasManage(c *drift.Context) bool {
	if v, ok := c.Get(ManageKey); ok {
		if manage, ok := v.(bool); ok {
			return manage
		}
	}
	return false
}
