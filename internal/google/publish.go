package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.pilab.hu/indexer/domain"
	serrors "go.pilab.hu/indexer/errors"
	"golang.org/x/oauth2"
)

const msgPublishFailed = "Failed to reach the Indexing API"

type publishBody struct {
	URL  string                  `json:"url"`
	Type domain.NotificationType `json:"type"`
}

type apiError struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// PublishClient sends URL notifications to the Indexing API.
type PublishClient struct {
	endpoint string
	base     *http.Client
	timeout  time.Duration
}

// NewPublishClient creates a client for endpoint. base supplies the transport
// the bearer token is layered on; nil uses http.DefaultTransport.
func NewPublishClient(endpoint string, base *http.Client, timeout time.Duration) *PublishClient {
	if endpoint == "" {
		endpoint = DefaultIndexingURL
	}
	if base == nil {
		base = &http.Client{Timeout: timeout}
	}
	return &PublishClient{endpoint: endpoint, base: base, timeout: timeout}
}

// Publish performs a single POST of req authorised with token. It does not retry.
// A non-2xx answer is returned as a result with OK=false. An error is returned
// only when no answer was received or the answer is not JSON; in the latter
// case the result is returned alongside it.
func (p *PublishClient) Publish(ctx context.Context, token *oauth2.Token, req domain.IndexingRequest) (*domain.PublishResult, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(publishBody{URL: req.URL, Type: req.Type})
	if err != nil {
		return nil, serrors.NewPublishError(msgPublishFailed, "could not encode request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, serrors.NewPublishError(msgPublishFailed, "could not build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, p.base), oauth2.StaticTokenSource(token))
	client.Timeout = p.base.Timeout

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, serrors.NewPublishError(msgPublishFailed, "indexing API unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, serrors.NewPublishError(msgPublishFailed, "could not read response", err)
	}

	result := &domain.PublishResult{
		StatusCode: resp.StatusCode,
		OK:         resp.StatusCode >= 200 && resp.StatusCode <= 299,
	}
	// An empty success (204 or a bare 200) is still a success.
	if result.OK && len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}
	if !json.Valid(raw) {
		return result, serrors.NewPublishError(
			"Malformed response from the Indexing API",
			fmt.Sprintf("status %d with a non-JSON body", resp.StatusCode), nil)
	}
	result.Body = json.RawMessage(raw)

	if !result.OK {
		var e apiError
		if json.Unmarshal(raw, &e) == nil && e.Error != nil {
			result.ErrorMessage = e.Error.Message
		}
	}
	return result, nil
}
