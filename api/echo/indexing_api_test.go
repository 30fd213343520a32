package indexerecho

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/indexer/domain"
	serrors "go.pilab.hu/indexer/errors"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Authenticate(ctx context.Context, authHeader string) (*domain.Principal, error) {
	args := m.Called(ctx, authHeader)
	p, _ := args.Get(0).(*domain.Principal)
	return p, args.Error(1)
}

func (m *mockService) Publish(ctx context.Context, userID string, body []byte) (*domain.PublishResult, error) {
	args := m.Called(ctx, userID, string(body))
	r, _ := args.Get(0).(*domain.PublishResult)
	return r, args.Error(1)
}

func (m *mockService) PublishBulk(ctx context.Context, userID string, body []byte) (*domain.BulkResult, error) {
	args := m.Called(ctx, userID, string(body))
	r, _ := args.Get(0).(*domain.BulkResult)
	return r, args.Error(1)
}

func (m *mockService) CredentialView(ctx context.Context, userID string) (*domain.CredentialView, error) {
	args := m.Called(ctx, userID)
	v, _ := args.Get(0).(*domain.CredentialView)
	return v, args.Error(1)
}

func setup(t *testing.T) (*echo.Echo, *mockService) {
	t.Helper()
	svc := &mockService{}
	t.Cleanup(func() { svc.AssertExpectations(t) })

	e := echo.New()
	NewIndexingAPI(svc, nil).RegisterRoutes(e)
	return e, svc
}

func serve(e *echo.Echo, method, path, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestPreflight(t *testing.T) {
	e, _ := setup(t)
	for _, path := range []string{"/google-indexing", "/google-indexing/bulk", "/google-indexing/credential"} {
		w := serve(e, http.MethodOptions, path, "", "")
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Empty(t, w.Body.String())
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "authorization, x-client-info, apikey, content-type", w.Header().Get("Access-Control-Allow-Headers"))
	}
}

func TestPublish_Passthrough(t *testing.T) {
	e, svc := setup(t)
	body := `{"url":"https://example.com/a"}`
	svc.On("Authenticate", mock.Anything, "Bearer t").Return(&domain.Principal{ID: "user-1"}, nil)
	svc.On("Publish", mock.Anything, "user-1", body).
		Return(&domain.PublishResult{StatusCode: http.StatusForbidden, Body: []byte(`{"error":{"code":403}}`)}, nil)

	w := serve(e, http.MethodPost, "/google-indexing", "Bearer t", body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":{"code":403}}`, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestPublish_AuthFailure(t *testing.T) {
	e, svc := setup(t)
	svc.On("Authenticate", mock.Anything, "").Return(nil, serrors.NewAuthError(serrors.MsgNoAuthorizationHeader, nil))

	w := serve(e, http.MethodPost, "/google-indexing", "", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, serrors.MsgNoAuthorizationHeader, errorOf(t, w))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestPublish_ServiceError(t *testing.T) {
	e, svc := setup(t)
	svc.On("Authenticate", mock.Anything, "Bearer t").Return(&domain.Principal{ID: "user-1"}, nil)
	svc.On("Publish", mock.Anything, "user-1", `{}`).Return(nil, serrors.NewCredentialNotFound(nil))

	w := serve(e, http.MethodPost, "/google-indexing", "Bearer t", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, serrors.MsgCredentialsNotFound, errorOf(t, w))
}

func TestBulkAndCredential(t *testing.T) {
	e, svc := setup(t)
	svc.On("Authenticate", mock.Anything, "Bearer t").Return(&domain.Principal{ID: "user-1"}, nil)
	svc.On("PublishBulk", mock.Anything, "user-1", `{"urls":["https://example.com/a"]}`).
		Return(&domain.BulkResult{Submitted: 1, Results: []domain.BulkItem{{URL: "https://example.com/a", Status: 200, OK: true}}}, nil)
	svc.On("CredentialView", mock.Anything, "user-1").
		Return(&domain.CredentialView{ProjectID: "p", Status: domain.CredentialStatusActive}, nil)

	w := serve(e, http.MethodPost, "/google-indexing/bulk", "Bearer t", `{"urls":["https://example.com/a"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	var bulk domain.BulkResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bulk))
	assert.Equal(t, 1, bulk.Submitted)

	w = serve(e, http.MethodGet, "/google-indexing/credential", "Bearer t", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"active"`)
	assert.NotContains(t, w.Body.String(), "private_key")
}
