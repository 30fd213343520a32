package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	serrors "go.pilab.hu/indexer/errors"
	"golang.org/x/oauth2"
)

// GrantTypeJWTBearer is the RFC 7523 assertion grant.
const GrantTypeJWTBearer = "urn:ietf:params:oauth:grant-type:jwt-bearer"

// maxResponseBytes caps how much of an upstream body is read.
const maxResponseBytes = 1 << 20

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// TokenExchanger trades a signed assertion for a short-lived access token.
// Tokens are returned to the caller only; nothing is cached.
type TokenExchanger struct {
	tokenURL string
	client   *http.Client
	timeout  time.Duration
}

// NewTokenExchanger creates an exchanger for tokenURL. Each call is bounded by timeout.
func NewTokenExchanger(tokenURL string, client *http.Client, timeout time.Duration) *TokenExchanger {
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &TokenExchanger{tokenURL: tokenURL, client: client, timeout: timeout}
}

// Exchange performs a single form-encoded POST with the JWT-bearer grant.
func (e *TokenExchanger) Exchange(ctx context.Context, assertion string) (*oauth2.Token, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	form := url.Values{
		"grant_type": {GrantTypeJWTBearer},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, serrors.NewTokenExchangeError("could not build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, serrors.NewTokenExchangeError("token endpoint unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, serrors.NewTokenExchangeError("could not read token response", err)
	}

	var body tokenResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, serrors.NewTokenExchangeError(
			fmt.Sprintf("malformed token response (status %d)", resp.StatusCode), err)
	}

	if body.Error != "" {
		return nil, serrors.NewTokenExchangeError(upstreamDetail(body), nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, serrors.NewTokenExchangeError(fmt.Sprintf("token endpoint returned status %d", resp.StatusCode), nil)
	}
	if body.AccessToken == "" {
		return nil, serrors.NewTokenExchangeError("token response has no access_token", nil)
	}

	token := &oauth2.Token{
		AccessToken: body.AccessToken,
		TokenType:   body.TokenType,
	}
	if body.ExpiresIn > 0 {
		token.Expiry = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	}
	return token, nil
}

func upstreamDetail(body tokenResponse) string {
	if body.ErrorDescription != "" {
		return body.Error + ": " + body.ErrorDescription
	}
	return body.Error
}
