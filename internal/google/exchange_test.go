package google

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	serrors "go.pilab.hu/indexer/errors"
)

func TestTokenExchanger_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, GrantTypeJWTBearer, r.PostForm.Get("grant_type"))
		assert.Equal(t, "a.b.c", r.PostForm.Get("assertion"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"ya29.token","token_type":"Bearer","expires_in":3599}`))
	}))
	defer server.Close()

	token, err := NewTokenExchanger(server.URL, server.Client(), time.Second).Exchange(context.Background(), "a.b.c")
	require.NoError(t, err)
	assert.Equal(t, "ya29.token", token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.WithinDuration(t, time.Now().Add(3599*time.Second), token.Expiry, 5*time.Second)
}

func TestTokenExchanger_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{
			name:       "upstream error with description",
			status:     http.StatusBadRequest,
			body:       `{"error":"invalid_grant","error_description":"Invalid JWT Signature."}`,
			wantDetail: "invalid_grant: Invalid JWT Signature.",
		},
		{
			name:       "upstream error on 200",
			status:     http.StatusOK,
			body:       `{"error":"invalid_scope"}`,
			wantDetail: "invalid_scope",
		},
		{
			name:       "non-2xx without error field",
			status:     http.StatusServiceUnavailable,
			body:       `{}`,
			wantDetail: "token endpoint returned status 503",
		},
		{
			name:       "missing access token",
			status:     http.StatusOK,
			body:       `{"token_type":"Bearer"}`,
			wantDetail: "token response has no access_token",
		},
		{
			name:       "malformed json",
			status:     http.StatusOK,
			body:       `<html>oops</html>`,
			wantDetail: "malformed token response (status 200)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			token, err := NewTokenExchanger(server.URL, server.Client(), time.Second).Exchange(context.Background(), "a.b.c")
			assert.Nil(t, token)
			require.Error(t, err)
			assert.ErrorIs(t, err, serrors.ErrTokenExchange)

			e := serrors.AsError(err)
			require.NotNil(t, e)
			assert.Equal(t, "Failed to get Google access token", e.Message)
			assert.Equal(t, tt.wantDetail, e.Detail)
		})
	}
}

func TestTokenExchanger_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	_, err := NewTokenExchanger(server.URL, server.Client(), 50*time.Millisecond).Exchange(context.Background(), "a.b.c")
	assert.ErrorIs(t, err, serrors.ErrTokenExchange)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestTokenExchanger_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewTokenExchanger(url, nil, time.Second).Exchange(context.Background(), "a.b.c")
	assert.ErrorIs(t, err, serrors.ErrTokenExchange)
	assert.Equal(t, "token endpoint unreachable", serrors.AsError(err).Detail)
}
