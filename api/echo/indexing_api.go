// Package indexerecho serves the relay on echo. It mirrors the gin adapter
// route for route.
package indexerecho

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.pilab.hu/indexer/api"
	"go.pilab.hu/indexer/domain"
	serrors "go.pilab.hu/indexer/errors"
	"go.pilab.hu/indexer/log"
	"go.pilab.hu/indexer/services"
)

const principalKey = "indexer-principal"

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

// RegisterRoutes registers the relay routes on e.
func (a *IndexingAPI) RegisterRoutes(e *echo.Echo) {
	g := e.Group(api.PathPublish, CORSMiddleware())
	g.OPTIONS("", preflight)
	g.OPTIONS("/bulk", preflight)
	g.OPTIONS("/credential", preflight)

	authed := g.Group("", a.userAuthMiddleware)
	authed.POST("", a.PublishHandler)
	authed.POST("/bulk", a.BulkHandler)
	authed.GET("/credential", a.CredentialHandler)
}

// CORSMiddleware adds the browser CORS headers and answers preflight
// requests with an empty 200.
func CORSMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("Access-Control-Allow-Origin", api.CORSAllowOrigin)
			h.Set("Access-Control-Allow-Headers", api.CORSAllowHeaders)
			h.Set("Access-Control-Allow-Methods", api.CORSAllowMethods)
			h.Set("X-Content-Type-Options", "nosniff")

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}
			return next(c)
		}
	}
}

func preflight(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func (a *IndexingAPI) userAuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		principal, err := a.service.Authenticate(req.Context(), req.Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return a.fail(c, err)
		}
		c.Set(principalKey, principal)
		c.SetRequest(req.WithContext(domain.ContextWithPrincipal(req.Context(), principal)))
		return next(c)
	}
}

// PublishHandler relays one URL notification. On success the Indexing API's
// status and body are passed through unchanged.
func (a *IndexingAPI) PublishHandler(c echo.Context) error {
	principal, body, err := a.prepare(c)
	if err != nil {
		return a.fail(c, err)
	}
	res, err := a.service.Publish(c.Request().Context(), principal.ID, body)
	if err != nil {
		return a.fail(c, err)
	}
	return c.Blob(res.StatusCode, echo.MIMEApplicationJSON, res.Body)
}

// BulkHandler relays several URLs and reports a per-URL summary.
func (a *IndexingAPI) BulkHandler(c echo.Context) error {
	principal, body, err := a.prepare(c)
	if err != nil {
		return a.fail(c, err)
	}
	res, err := a.service.PublishBulk(c.Request().Context(), principal.ID, body)
	if err != nil {
		return a.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// CredentialHandler returns the caller's credential without key material.
func (a *IndexingAPI) CredentialHandler(c echo.Context) error {
	principal, ok := c.Get(principalKey).(*domain.Principal)
	if !ok || principal == nil {
		return a.fail(c, serrors.NewAuthError(serrors.MsgInvalidToken, nil))
	}
	view, err := a.service.CredentialView(c.Request().Context(), principal.ID)
	if err != nil {
		return a.fail(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (a *IndexingAPI) prepare(c echo.Context) (*domain.Principal, []byte, error) {
	principal, ok := c.Get(principalKey).(*domain.Principal)
	if !ok || principal == nil {
		return nil, nil, serrors.NewAuthError(serrors.MsgInvalidToken, nil)
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, a.maxBodyBytes))
	if err != nil {
		e := serrors.NewValidationError(services.MsgInvalidBody)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			e.Detail = "request body too large"
		}
		e.Err = err
		return nil, nil, e
	}
	return principal, body, nil
}

// fail writes status 400 and {"error": message}.
func (a *IndexingAPI) fail(c echo.Context, err error) error {
	e := serrors.AsError(err)
	fields := log.Fields{"kind": e.Kind.String(), "path": c.Request().URL.Path}
	if e.Kind == serrors.KindUnknown {
		a.logger.Error(c.Request().Context(), "request failed", err, fields)
	} else {
		a.logger.Debug(c.Request().Context(), e.Error(), fields)
	}
	return c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: e.Message})
}
