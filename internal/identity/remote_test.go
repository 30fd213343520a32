package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	serrors "go.pilab.hu/indexer/errors"
)

func TestRemoteVerifier_Verify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UserPath, r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"msg":"invalid JWT"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"user-1","email":"owner@example.com","role":"authenticated"}`))
	}))
	defer server.Close()

	v := NewRemoteVerifier(server.URL+"/", "anon-key", server.Client(), time.Second)

	principal, err := v.Verify(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "user-1", principal.ID)
	assert.Equal(t, "owner@example.com", principal.Email)

	_, err = v.Verify(context.Background(), "bad")
	assert.ErrorIs(t, err, serrors.ErrAuth)
	assert.Equal(t, serrors.MsgInvalidToken, serrors.AsError(err).Message)
}

func TestRemoteVerifier_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not json", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("nope")) }},
		{"no id", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"email":"a@b.c"}`)) }},
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			principal, err := NewRemoteVerifier(server.URL, "", server.Client(), time.Second).Verify(context.Background(), "tok")
			assert.Nil(t, principal)
			assert.ErrorIs(t, err, serrors.ErrAuth)
		})
	}
}

func TestRemoteVerifier_EmptyTokenSkipsNetwork(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer server.Close()

	_, err := NewRemoteVerifier(server.URL, "", server.Client(), time.Second).Verify(context.Background(), "")
	assert.ErrorIs(t, err, serrors.ErrAuth)
	assert.False(t, called)
}

func TestNewRemoteVerifier_Endpoint(t *testing.T) {
	assert.Equal(t, "https://id.example.com/auth/v1/user", NewRemoteVerifier("https://id.example.com", "", nil, 0).endpoint)
	assert.Equal(t, "https://id.example.com/auth/v1/user", NewRemoteVerifier("https://id.example.com/auth/v1/user", "", nil, 0).endpoint)
}
