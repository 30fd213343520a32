package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"go.pilab.hu/indexer/domain"
	serrors "go.pilab.hu/indexer/errors"
)

// Validation messages returned to callers.
const (
	MsgInvalidBody       = "Invalid request body"
	MsgURLRequired       = "URL is required"
	MsgInvalidURL        = "URL must be a valid absolute URL"
	MsgInvalidType       = "Invalid notification type"
	MsgURLsRequired      = "At least one URL is required"
	msgTooManyURLsFmt    = "Too many URLs: at most %d per request"
	msgInvalidBulkURLFmt = "URL must be a valid absolute URL: %s"
)

// ParseIndexingRequest decodes and validates a single-URL body.
// A missing type defaults to URL_UPDATED.
func ParseIndexingRequest(body []byte) (domain.IndexingRequest, error) {
	var req domain.IndexingRequest
	if err := decodeBody(body, &req); err != nil {
		return req, err
	}

	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		return req, serrors.NewValidationError(MsgURLRequired)
	}
	if !isAbsoluteURL(req.URL) {
		return req, serrors.NewValidationError(MsgInvalidURL)
	}

	t, err := normalizeType(req.Type)
	if err != nil {
		return req, err
	}
	req.Type = t
	return req, nil
}

// ParseBulkRequest decodes and validates a bulk body. Blank lines are
// skipped, so a pasted newline-separated list can be sent as is.
func ParseBulkRequest(body []byte, maxURLs int) (domain.BulkRequest, error) {
	var req domain.BulkRequest
	if err := decodeBody(body, &req); err != nil {
		return req, err
	}

	urls := make([]string, 0, len(req.URLs))
	for _, u := range req.URLs {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if !isAbsoluteURL(u) {
			return req, serrors.NewValidationError(fmt.Sprintf(msgInvalidBulkURLFmt, u))
		}
		urls = append(urls, u)
	}
	if len(urls) == 0 {
		return req, serrors.NewValidationError(MsgURLsRequired)
	}
	if maxURLs > 0 && len(urls) > maxURLs {
		return req, serrors.NewValidationError(fmt.Sprintf(msgTooManyURLsFmt, maxURLs))
	}
	req.URLs = urls

	t, err := normalizeType(req.Type)
	if err != nil {
		return req, err
	}
	req.Type = t
	return req, nil
}

func decodeBody(body []byte, v any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return serrors.NewValidationError(MsgInvalidBody)
	}
	if err := json.Unmarshal(body, v); err != nil {
		e := serrors.NewValidationError(MsgInvalidBody)
		e.Err = err
		return e
	}
	return nil
}

func normalizeType(t domain.NotificationType) (domain.NotificationType, error) {
	if t == "" {
		return domain.NotificationURLUpdated, nil
	}
	if !t.IsValid() {
		return t, serrors.NewValidationError(MsgInvalidType)
	}
	return t, nil
}

// isAbsoluteURL accepts http(s) URLs with a host, the only kind the Indexing API takes.
func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}
