package middleware

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/physed-journal-api/internal/models"
	appErrors "github.com/noah-isme/physed-journal-api/pkg/errors"
	"github.com/noah-isme/physed-journal-api/pkg/response"
)

// ContextCallerKey is the gin context key storing the resolved models.Caller.
const ContextCallerKey = "currentCaller"

type callerResolver interface {
	Resolve(ctx context.Context, teacherGUID string) (models.Caller, error)
}

// ResolveCaller turns the authenticated teacher into a models.Caller carrying the privileged flag.
// Teachers missing from the directory pass through unprivileged; the command rejects them itself.
func ResolveCaller(resolver callerResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		caller, err := resolver.Resolve(c.Request.Context(), claims.TeacherGUID)
		if err != nil {
			if !errors.Is(err, appErrors.ErrTeacherNotFound) {
				response.Error(c, err)
				c.Abort()
				return
			}
			caller = models.Caller{TeacherGUID: claims.TeacherGUID}
		}

		c.Set(ContextCallerKey, caller)
		c.Next()
	}
}

// RequirePrivileged only lets admins and secretaries through.
func RequirePrivileged() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFromContext(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !caller.Privileged {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CallerFromContext returns the caller stored by ResolveCaller.
func CallerFromContext(c *gin.Context) (models.Caller, bool) {
	value, exists := c.Get(ContextCallerKey)
	if !exists {
		return models.Caller{}, false
	}
	caller, ok := value.(models.Caller)
	return caller, ok
}
