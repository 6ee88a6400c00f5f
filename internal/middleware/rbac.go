package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/campusqa/campus-qa-api/internal/models"
	appErrors "github.com/campusqa/campus-qa-api/pkg/errors"
	"github.com/campusqa/campus-qa-api/pkg/response"
)

// Require guards a route behind a capability. Roles are never compared
// directly; the capability table decides, and a rejection reports the role
// set that would have been accepted.
func Require(action models.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if !user.Role.Can(action) {
			response.Error(c, appErrors.WithRoleContext("insufficient role", models.RolesWith(action), string(user.Role)))
			c.Abort()
			return
		}

		c.Next()
	}
}
