package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/limpopochefs/academy-api/internal/models"
	"github.com/limpopochefs/academy-api/internal/service"
	appErrors "github.com/limpopochefs/academy-api/pkg/errors"
	"github.com/limpopochefs/academy-api/pkg/response"
)

// RequirePages enforces page-level access for staff routes. The request
// method decides the action: GET needs view, POST needs upload, anything
// else needs edit. Access is granted when any of the pages allows the
// action, through an individual override or a role.
func RequirePages(permissions *service.PermissionService, logger *zap.Logger, pages ...string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		claims := CurrentUser(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if claims.UserType != models.UserTypeStaff {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		action := service.ActionForMethod(c.Request.Method)
		allowed, err := permissions.Allowed(c.Request.Context(), claims.UserID, pages, action)
		if err != nil {
			logger.Error("permission check failed",
				zap.String("staff_id", claims.UserID),
				zap.Strings("pages", pages),
				zap.Error(err))
			response.Error(c, err)
			c.Abort()
			return
		}
		if !allowed {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
