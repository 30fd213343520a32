package services

import (
	"context"
	"fmt"
	"time"

	"go.pilab.hu/indexer/domain"
	serrors "go.pilab.hu/indexer/errors"
	"go.pilab.hu/indexer/internal/audit"
	"go.pilab.hu/indexer/internal/metrics"
	"go.pilab.hu/indexer/log"
)

// MsgUnknownUpstreamError is stored when the Indexing API rejects a request
// without an error message.
const MsgUnknownUpstreamError = "Unknown error occurred"

const statusWriteTimeout = 5 * time.Second

// Outcome is how far an indexing attempt got. Result is set whenever the
// Indexing API answered; Err is the failure of the last stage run, if any.
type Outcome struct {
	Result *domain.PublishResult
	Err    error
}

// Reconcile maps an outcome onto the credential's next status. It reports
// false when the outcome says nothing about the credential.
func Reconcile(outcome Outcome) (domain.StatusUpdate, bool) {
	if res := outcome.Result; res != nil {
		if res.OK {
			return domain.StatusUpdate{Status: domain.CredentialStatusActive}, true
		}
		msg := res.ErrorMessage
		if msg == "" {
			msg = MsgUnknownUpstreamError
		}
		return domain.StatusUpdate{Status: domain.CredentialStatusInvalid, ErrorMessage: msg}, true
	}

	if outcome.Err == nil {
		return domain.StatusUpdate{}, false
	}
	e := serrors.AsError(outcome.Err)
	if !e.Kind.CredentialAttributable() {
		return domain.StatusUpdate{}, false
	}
	msg := e.Detail
	if msg == "" {
		msg = e.Message
	}
	return domain.StatusUpdate{Status: domain.CredentialStatusInvalid, ErrorMessage: msg}, true
}

// CredentialReconciler writes the status Reconcile decides on.
type CredentialReconciler struct {
	repo    domain.CredentialRepository
	logger  log.Logger
	metrics *metrics.Metrics
	audit   *audit.Logger
}

func NewCredentialReconciler(repo domain.CredentialRepository, logger log.Logger, m *metrics.Metrics, a *audit.Logger) *CredentialReconciler {
	if logger == nil {
		logger = log.NewNop()
	}
	return &CredentialReconciler{repo: repo, logger: logger, metrics: m, audit: a}
}

// Apply performs at most one status write for cred. A failed write is logged
// and counted; it never changes what the caller is told.
func (r *CredentialReconciler) Apply(ctx context.Context, cred *domain.Credential, outcome Outcome) (domain.StatusUpdate, bool) {
	update, ok := Reconcile(outcome)
	if !ok || cred == nil {
		return update, false
	}

	// The caller may already be gone; the write still has to land.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusWriteTimeout)
	defer cancel()

	from := cred.Status
	if err := r.repo.UpdateCredentialStatus(writeCtx, cred.UserID, update); err != nil {
		r.metrics.ObserveWriteFailure()
		r.logger.Error(ctx, "failed to update credential status", err, log.Fields{
			"user_id": cred.UserID,
			"status":  update.Status.String(),
		})
		return update, false
	}

	if from != update.Status {
		r.metrics.ObserveTransition(from.String(), update.Status.String())
		r.audit.Log(audit.ActionCredentialTransition, cred.UserID, cred.ClientEmail,
			fmt.Sprintf("%s -> %s", from, update.Status), update.Status == domain.CredentialStatusActive, nil)
		r.logger.Info(ctx, "credential status changed", log.Fields{
			"user_id": cred.UserID,
			"from":    from.String(),
			"to":      update.Status.String(),
		})
	}
	return update, true
}
