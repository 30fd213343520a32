package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.pilab.hu/indexer/domain"
	serrors "go.pilab.hu/indexer/errors"
)

// UserPath is appended to the identity base URL when it does not already
// point at the user endpoint.
const UserPath = "/auth/v1/user"

type remoteUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// RemoteVerifier asks the identity service who owns a token.
type RemoteVerifier struct {
	endpoint string
	apiKey   string
	client   *http.Client
	timeout  time.Duration
}

// NewRemoteVerifier creates a verifier against baseURL. apiKey is sent in the
// apikey header the identity service requires from relays.
func NewRemoteVerifier(baseURL, apiKey string, client *http.Client, timeout time.Duration) *RemoteVerifier {
	endpoint := strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(endpoint, UserPath) {
		endpoint += UserPath
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &RemoteVerifier{endpoint: endpoint, apiKey: apiKey, client: client, timeout: timeout}
}

func (v *RemoteVerifier) Verify(ctx context.Context, token string) (*domain.Principal, error) {
	if token == "" {
		return nil, serrors.NewAuthError(serrors.MsgInvalidToken, nil)
	}
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint, nil)
	if err != nil {
		return nil, serrors.NewAuthError(serrors.MsgInvalidToken, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if v.apiKey != "" {
		req.Header.Set("apikey", v.apiKey)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, serrors.NewAuthError(serrors.MsgInvalidToken, fmt.Errorf("identity service unreachable: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, serrors.NewAuthError(serrors.MsgInvalidToken, fmt.Errorf("identity service returned status %d", resp.StatusCode))
	}

	var user remoteUser
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&user); err != nil {
		return nil, serrors.NewAuthError(serrors.MsgInvalidToken, fmt.Errorf("decode identity response: %w", err))
	}
	if user.ID == "" {
		return nil, serrors.NewAuthError(serrors.MsgInvalidToken, fmt.Errorf("identity response has no user id"))
	}

	return &domain.Principal{ID: user.ID, Email: user.Email}, nil
}
