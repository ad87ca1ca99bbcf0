package middleware

import (
	"errors"
	"net/http"

	"farm_ops_backend/internal/models"
	"farm_ops_backend/internal/observability/metrics"
	"farm_ops_backend/internal/services"
	"farm_ops_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const (
	// IdentityKey is the gin context key holding the caller's *models.Identity.
	IdentityKey = "identity"
	UserIDKey   = "userID"
	UserRoleKey = "userRole"
)

// WithRole authenticates the request and admits it only when the caller holds one of roles.
// Authentication is evaluated before the role, and both before the wrapped handler runs.
func WithRole(auth services.Authenticator, roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := utils.ExtractBearerToken(c.GetHeader("Authorization"))
		identity, err := auth.ResolveIdentity(c.Request.Context(), token)
		if err != nil {
			var se *services.Error
			if !errors.As(err, &se) {
				utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Internal server error", "Internal error"))
				return
			}
			details := ""
			if se.Kind == services.KindInternal {
				details = "Internal error"
			}
			utils.RespondWithError(c, utils.NewAPIError(utils.StatusForCode(string(se.Kind)), string(se.Kind), se.Message, details))
			return
		}

		if !identity.HasRole(roles...) {
			metrics.ObserveAuthFailure(metrics.ReasonForbiddenRole)
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "Access denied. Insufficient permissions.", ""))
			return
		}

		c.Set(IdentityKey, identity)
		c.Set(UserIDKey, identity.ID)
		c.Set(UserRoleKey, identity.Role)
		c.Request = c.Request.WithContext(models.ContextWithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

// ForAdmin admits admins only.
func ForAdmin(auth services.Authenticator) gin.HandlerFunc {
	return WithRole(auth, models.RoleAdmin)
}

// ForStaff admits staff only.
func ForStaff(auth services.Authenticator) gin.HandlerFunc {
	return WithRole(auth, models.RoleStaff)
}

// ForAnyAuthenticated admits admins and staff. Workers have no API access.
func ForAnyAuthenticated(auth services.Authenticator) gin.HandlerFunc {
	return WithRole(auth, models.RoleAdmin, models.RoleStaff)
}

// CurrentIdentity returns the identity attached by WithRole.
func CurrentIdentity(c *gin.Context) (*models.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*models.Identity)
	return identity, ok && identity != nil
}
