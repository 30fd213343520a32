package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.pilab.hu/indexer/domain"
	serrors "go.pilab.hu/indexer/errors"
	"go.pilab.hu/indexer/internal/audit"
	"go.pilab.hu/indexer/internal/identity"
	"go.pilab.hu/indexer/internal/metrics"
	"go.pilab.hu/indexer/log"
	"go.pilab.hu/indexer/tracing"
	"golang.org/x/oauth2"
)

// DefaultBulkMaxURLs bounds a bulk submission when no limit is configured.
const DefaultBulkMaxURLs = 100

// Publish outcome labels.
const (
	outcomePublished = "published"
	outcomeRejected  = "rejected"
)

// IndexingDeps are the collaborators of an IndexingService. Logs, Logger,
// Metrics and Audit are optional.
type IndexingDeps struct {
	Verifier    identity.Verifier
	Credentials domain.CredentialRepository
	Logs        domain.SubmissionLogRepository
	Signer      Signer
	Exchanger   Exchanger
	Publisher   Publisher
	Logger      log.Logger
	Metrics     *metrics.Metrics
	Audit       *audit.Logger
	BulkMaxURLs int
}

// IndexingService relays URL notifications to the Indexing API on behalf of
// a caller, using the caller's stored service account. Every request mints a
// fresh assertion and access token; nothing is cached between requests.
type IndexingService struct {
	verifier    identity.Verifier
	creds       domain.CredentialRepository
	logs        domain.SubmissionLogRepository
	signer      Signer
	exchanger   Exchanger
	publisher   Publisher
	reconciler  *CredentialReconciler
	logger      log.Logger
	metrics     *metrics.Metrics
	audit       *audit.Logger
	bulkMaxURLs int
	now         func() time.Time
}

func NewIndexingService(deps IndexingDeps) *IndexingService {
	logger := deps.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	maxURLs := deps.BulkMaxURLs
	if maxURLs <= 0 {
		maxURLs = DefaultBulkMaxURLs
	}
	return &IndexingService{
		verifier:    deps.Verifier,
		creds:       deps.Credentials,
		logs:        deps.Logs,
		signer:      deps.Signer,
		exchanger:   deps.Exchanger,
		publisher:   deps.Publisher,
		reconciler:  NewCredentialReconciler(deps.Credentials, logger, deps.Metrics, deps.Audit),
		logger:      logger,
		metrics:     deps.Metrics,
		audit:       deps.Audit,
		bulkMaxURLs: maxURLs,
		now:         time.Now,
	}
}

// Authenticate resolves the Authorization header value to a Principal.
func (s *IndexingService) Authenticate(ctx context.Context, authHeader string) (*domain.Principal, error) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return nil, serrors.NewAuthError(serrors.MsgNoAuthorizationHeader, nil)
	}
	if s.verifier == nil {
		return nil, serrors.NewAuthError(serrors.MsgInvalidToken, errors.New("no identity verifier configured"))
	}
	token := authHeader
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}

	ctx, span := tracing.Start(ctx, "identity.Verify")
	start := time.Now()
	principal, err := s.verifier.Verify(ctx, token)
	s.metrics.ObserveUpstream(metrics.CallIdentity, start)
	tracing.End(span, err)

	if err != nil {
		if serrors.KindOf(err) != serrors.KindAuth {
			err = serrors.NewAuthError(serrors.MsgInvalidToken, err)
		}
		s.logger.Warn(ctx, "caller verification failed", log.Fields{"error": err.Error()})
		return nil, err
	}
	if principal == nil || principal.ID == "" {
		return nil, serrors.NewAuthError(serrors.MsgInvalidToken, errors.New("identity service returned no user"))
	}
	return principal, nil
}

// Publish relays one notification for userID. body is the raw request body.
// A publish result is returned whenever the Indexing API answered, even if it
// rejected the request; an error is returned for every other failure.
func (s *IndexingService) Publish(ctx context.Context, userID string, body []byte) (res *domain.PublishResult, err error) {
	defer func() { s.observeOutcome(res, err) }()

	cred, err := s.loadCredential(ctx, userID)
	if err != nil {
		return nil, err
	}
	req, err := ParseIndexingRequest(body)
	if err != nil {
		return nil, err
	}

	token, err := s.mintToken(ctx, cred)
	if err != nil {
		return nil, err
	}

	res, err = s.publish(ctx, token, req)
	s.reconciler.Apply(ctx, cred, Outcome{Result: res, Err: err})
	s.recordSubmission(ctx, cred, req, res, err)
	return res, err
}

// PublishBulk relays several notifications with one access token. All URLs
// are validated before any network call. The credential is reconciled once,
// from the last URL's outcome.
func (s *IndexingService) PublishBulk(ctx context.Context, userID string, body []byte) (*domain.BulkResult, error) {
	cred, err := s.loadCredential(ctx, userID)
	if err != nil {
		s.observeOutcome(nil, err)
		return nil, err
	}
	bulk, err := ParseBulkRequest(body, s.bulkMaxURLs)
	if err != nil {
		s.observeOutcome(nil, err)
		return nil, err
	}

	token, err := s.mintToken(ctx, cred)
	if err != nil {
		s.observeOutcome(nil, err)
		return nil, err
	}

	result := &domain.BulkResult{Results: make([]domain.BulkItem, 0, len(bulk.URLs))}
	var last Outcome
	for _, u := range bulk.URLs {
		req := domain.IndexingRequest{URL: u, Type: bulk.Type}
		res, err := s.publish(ctx, token, req)
		s.observeOutcome(res, err)
		s.recordSubmission(ctx, cred, req, res, err)
		last = Outcome{Result: res, Err: err}

		item := domain.BulkItem{URL: u}
		if res != nil {
			item.Status = res.StatusCode
			item.OK = res.OK && err == nil
			item.Body = res.Body
			item.Error = res.ErrorMessage
		}
		if err != nil {
			item.Error = serrors.AsError(err).Message
		}
		if item.OK {
			result.Submitted++
		} else {
			result.Failed++
		}
		result.Results = append(result.Results, item)

		if ctx.Err() != nil {
			break
		}
	}

	s.reconciler.Apply(ctx, cred, last)
	return result, nil
}

// CredentialView returns the redacted credential of userID.
func (s *IndexingService) CredentialView(ctx context.Context, userID string) (*domain.CredentialView, error) {
	cred, err := s.loadCredential(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := cred.View()
	return &view, nil
}

func (s *IndexingService) loadCredential(ctx context.Context, userID string) (*domain.Credential, error) {
	cred, err := s.creds.GetCredentialByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrCredentialNotFound) {
			return nil, serrors.NewCredentialNotFound(err)
		}
		s.logger.Error(ctx, "failed to load credential", err, log.Fields{"user_id": userID})
		return nil, serrors.NewUnknownError(err)
	}
	if cred == nil {
		return nil, serrors.NewCredentialNotFound(nil)
	}
	return cred, nil
}

// mintToken signs a fresh assertion and exchanges it. Failures are
// reconciled against cred before they are returned.
func (s *IndexingService) mintToken(ctx context.Context, cred *domain.Credential) (*oauth2.Token, error) {
	assertion, err := s.signer.Sign(cred)
	if err != nil {
		s.logger.Warn(ctx, "failed to sign assertion", log.Fields{"user_id": cred.UserID, "error": err.Error()})
		s.reconciler.Apply(ctx, cred, Outcome{Err: err})
		return nil, err
	}

	ctx, span := tracing.Start(ctx, "google.Exchange")
	start := time.Now()
	token, err := s.exchanger.Exchange(ctx, assertion)
	s.metrics.ObserveUpstream(metrics.CallExchange, start)
	tracing.End(span, err)

	if err != nil {
		s.logger.Warn(ctx, "token exchange failed", log.Fields{"user_id": cred.UserID, "error": err.Error()})
		s.reconciler.Apply(ctx, cred, Outcome{Err: err})
		return nil, err
	}
	return token, nil
}

func (s *IndexingService) publish(ctx context.Context, token *oauth2.Token, req domain.IndexingRequest) (*domain.PublishResult, error) {
	ctx, span := tracing.Start(ctx, "google.Publish",
		attribute.String("indexing.url", req.URL),
		attribute.String("indexing.type", string(req.Type)))
	start := time.Now()
	res, err := s.publisher.Publish(ctx, token, req)
	s.metrics.ObserveUpstream(metrics.CallPublish, start)
	if res != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", res.StatusCode))
	}
	tracing.End(span, err)

	if err != nil {
		s.logger.Warn(ctx, "publish failed", log.Fields{"url": req.URL, "error": err.Error()})
	}
	return res, err
}

// recordSubmission writes the submission log. Failures are only logged.
func (s *IndexingService) recordSubmission(ctx context.Context, cred *domain.Credential, req domain.IndexingRequest, res *domain.PublishResult, pubErr error) {
	entry := &domain.SubmissionLog{
		ID:        uuid.NewString(),
		UserID:    cred.UserID,
		URL:       req.URL,
		Type:      req.Type,
		CreatedAt: s.now().UTC(),
	}
	if res != nil {
		entry.StatusCode = res.StatusCode
		entry.Success = res.OK && pubErr == nil
		entry.ErrorMessage = res.ErrorMessage
	}
	if pubErr != nil {
		entry.ErrorMessage = serrors.AsError(pubErr).Message
	}

	s.audit.Log(audit.ActionURLPublished, cred.UserID, req.URL, string(req.Type), entry.Success, pubErr)

	if s.logs == nil {
		return
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusWriteTimeout)
	defer cancel()
	if err := s.logs.CreateSubmissionLog(writeCtx, entry); err != nil {
		s.logger.Error(ctx, "failed to write submission log", err, log.Fields{"user_id": cred.UserID, "url": req.URL})
	}
}

func (s *IndexingService) observeOutcome(res *domain.PublishResult, err error) {
	switch {
	case err != nil:
		s.metrics.ObservePublish(serrors.KindOf(err).String())
	case res != nil && res.OK:
		s.metrics.ObservePublish(outcomePublished)
	default:
		s.metrics.ObservePublish(outcomeRejected)
	}
}
