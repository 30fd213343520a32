package cmd

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/indexer/config"
	"go.pilab.hu/indexer/domain"
)

type cliFixture struct {
	dir         string
	publishCode int
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()
	f := &cliFixture{dir: t.TempDir(), publishCode: http.StatusOK}

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"ya29.cli","token_type":"Bearer","expires_in":3599}`))
	}))
	t.Cleanup(tokenServer.Close)
	publishServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer ya29.cli", r.Header.Get("Authorization"))
		w.WriteHeader(f.publishCode)
		if f.publishCode == http.StatusOK {
			_, _ = w.Write([]byte(`{"urlNotificationMetadata":{"url":"https://example.com/a"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"Permission denied. Failed to verify the URL ownership.","status":"PERMISSION_DENIED"}}`))
	}))
	t.Cleanup(publishServer.Close)

	cfg := &config.ServerConfig{
		StoreDriver:         config.StoreSQLite,
		SQLDSN:              filepath.Join(f.dir, "indexer.db"),
		GoogleTokenURL:      tokenServer.URL,
		GoogleIndexingURL:   publishServer.URL,
		GoogleIndexingScope: "https://www.googleapis.com/auth/indexing",
		UpstreamTimeout:     5 * time.Second,
		BulkMaxURLs:         10,
	}
	prev := loadConfig
	loadConfig = func() (*config.ServerConfig, error) { return cfg, nil }
	t.Cleanup(func() { loadConfig = prev })

	return f
}

func (f *cliFixture) writeKeyFile(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	raw, err := json.Marshal(serviceAccountKey{
		Type:        "service_account",
		ProjectID:   "demo-project",
		ClientEmail: "indexer@demo-project.iam.gserviceaccount.com",
		PrivateKey:  string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})),
	})
	require.NoError(t, err)

	path := filepath.Join(f.dir, "key.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root, closeEnv := newRootCmd()
	t.Cleanup(func() { _ = closeEnv(context.Background()) })
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCredentialSetAndShow(t *testing.T) {
	f := newCLIFixture(t)
	keyFile := f.writeKeyFile(t)

	out, err := run(t, "credential", "set", "--user", "user-1", "--key-file", keyFile)
	require.NoError(t, err)
	assert.Contains(t, out, "status pending")

	out, err = run(t, "credential", "show", "--user", "user-1", "-o", "json")
	require.NoError(t, err)
	var view domain.CredentialView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "demo-project", view.ProjectID)
	assert.Equal(t, domain.CredentialStatusPending, view.Status)
	assert.NotContains(t, out, "PRIVATE KEY")

	out, err = run(t, "credential", "show", "--user", "user-1")
	require.NoError(t, err)
	assert.Contains(t, out, "client_email: indexer@demo-project.iam.gserviceaccount.com")
}

func TestCredentialSet_Validation(t *testing.T) {
	f := newCLIFixture(t)

	_, err := run(t, "credential", "set", "--key-file", "x.json")
	assert.ErrorContains(t, err, "--user")

	bad := filepath.Join(f.dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"type":"service_account","client_email":"a@b","private_key":"nope"}`), 0o600))
	_, err = run(t, "credential", "set", "--user", "user-1", "--key-file", bad)
	assert.ErrorContains(t, err, "Invalid private key")

	_, err = run(t, "credential", "show", "--user", "user-1")
	assert.Error(t, err, "nothing may be stored for a rejected key")
}

func TestPublishAndLogs(t *testing.T) {
	f := newCLIFixture(t)
	keyFile := f.writeKeyFile(t)
	_, err := run(t, "credential", "set", "--user", "user-1", "--key-file", keyFile)
	require.NoError(t, err)

	out, err := run(t, "publish", "--user", "user-1", "--url", "https://example.com/a")
	require.NoError(t, err)
	assert.Contains(t, out, "HTTP 200")
	assert.Contains(t, out, "urlNotificationMetadata")

	out, err = run(t, "credential", "show", "--user", "user-1", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "active"`)

	f.publishCode = http.StatusForbidden
	out, err = run(t, "publish", "--user", "user-1", "--url", "https://example.com/b", "--type", "URL_DELETED")
	assert.ErrorContains(t, err, "Permission denied")
	assert.Contains(t, out, "HTTP 403")

	out, err = run(t, "logs", "--user", "user-1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "URL")
	assert.Contains(t, lines[1], "https://example.com/b")
	assert.Contains(t, lines[1], "403")
	assert.Contains(t, lines[2], "https://example.com/a")
}

func TestPublish_UnknownUser(t *testing.T) {
	newCLIFixture(t)
	_, err := run(t, "publish", "--user", "ghost", "--url", "https://example.com/a")
	assert.Error(t, err)
}

func TestLogs_Empty(t *testing.T) {
	newCLIFixture(t)
	out, err := run(t, "logs", "--user", "user-1")
	require.NoError(t, err)
	assert.Contains(t, out, "No submissions found.")
}
