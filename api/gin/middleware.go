package indexergin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.pilab.hu/indexer/api"
	"go.pilab.hu/indexer/domain"
	serrors "go.pilab.hu/indexer/errors"
	"go.pilab.hu/indexer/log"
)

// PrincipalKey is the gin context key of the verified caller.
const PrincipalKey = "indexer-principal"

// UserAuthMiddleware verifies the caller before any handler runs. The
// Principal is stored both on the gin context and on the request context.
func UserAuthMiddleware(auth api.Authenticator, logger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := auth.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			abortWithError(c, logger, err)
			return
		}

		c.Set(PrincipalKey, principal)
		c.Request = c.Request.WithContext(domain.ContextWithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

// principalFrom returns the caller stored by UserAuthMiddleware.
func principalFrom(c *gin.Context) (*domain.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*domain.Principal)
	return p, ok && p != nil
}

// abortWithError writes the single failure shape of the API: status 400 and
// {"error": message}. Only the user-visible message leaves the process.
func abortWithError(c *gin.Context, logger log.Logger, err error) {
	e := serrors.AsError(err)
	_ = c.Error(err)

	fields := log.Fields{"kind": e.Kind.String(), "path": c.Request.URL.Path}
	if e.Kind == serrors.KindUnknown {
		logger.Error(c.Request.Context(), "request failed", err, fields)
	} else {
		logger.Debug(c.Request.Context(), e.Error(), fields)
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, api.ErrorResponse{Error: e.Message})
}
