package indexergin

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.pilab.hu/indexer/api"
	serrors "go.pilab.hu/indexer/errors"
	"go.pilab.hu/indexer/log"
	"go.pilab.hu/indexer/services"
)

// IndexingAPI exposes the relay over HTTP.
type IndexingAPI struct {
	service      api.IndexingService
	logger       log.Logger
	maxBodyBytes int64
}

func NewIndexingAPI(service api.IndexingService, logger log.Logger) *IndexingAPI {
	if logger == nil {
		logger = log.NewNop()
	}
	return &IndexingAPI{service: service, logger: logger, maxBodyBytes: api.DefaultMaxBodyBytes}
}

// RegisterRoutes registers the relay routes on r.
func (a *IndexingAPI) RegisterRoutes(r gin.IRouter) {
	g := r.Group(api.PathPublish, CORSMiddleware())
	g.OPTIONS("", preflight)
	g.OPTIONS("/bulk", preflight)
	g.OPTIONS("/credential", preflight)

	authed := g.Group("", UserAuthMiddleware(a.service, a.logger))
	authed.POST("", a.PublishHandler)
	authed.POST("/bulk", a.BulkHandler)
	authed.GET("/credential", a.CredentialHandler)
}

func preflight(c *gin.Context) {
	c.Status(http.StatusOK)
}

// PublishHandler relays one URL notification. On success the Indexing API's
// status and body are passed through unchanged.
func (a *IndexingAPI) PublishHandler(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		abortWithError(c, a.logger, serrors.NewAuthError(serrors.MsgInvalidToken, nil))
		return
	}
	body, err := a.readBody(c)
	if err != nil {
		abortWithError(c, a.logger, err)
		return
	}

	res, err := a.service.Publish(c.Request.Context(), principal.ID, body)
	if err != nil {
		abortWithError(c, a.logger, err)
		return
	}
	c.Data(res.StatusCode, "application/json", res.Body)
}

// BulkHandler relays several URLs and reports a per-URL summary.
func (a *IndexingAPI) BulkHandler(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		abortWithError(c, a.logger, serrors.NewAuthError(serrors.MsgInvalidToken, nil))
		return
	}
	body, err := a.readBody(c)
	if err != nil {
		abortWithError(c, a.logger, err)
		return
	}

	res, err := a.service.PublishBulk(c.Request.Context(), principal.ID, body)
	if err != nil {
		abortWithError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CredentialHandler returns the caller's credential without key material.
func (a *IndexingAPI) CredentialHandler(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		abortWithError(c, a.logger, serrors.NewAuthError(serrors.MsgInvalidToken, nil))
		return
	}

	view, err := a.service.CredentialView(c.Request.Context(), principal.ID)
	if err != nil {
		abortWithError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (a *IndexingAPI) readBody(c *gin.Context) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, a.maxBodyBytes))
	if err != nil {
		e := serrors.NewValidationError(services.MsgInvalidBody)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			e.Detail = "request body too large"
		}
		e.Err = err
		return nil, e
	}
	return body, nil
}
