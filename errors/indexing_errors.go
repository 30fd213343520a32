package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies failures of the indexing flow. The handler maps every kind
// to the same 400 response; the reconciler uses it to decide the status write.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuth
	KindCredentialNotFound
	KindValidation
	KindSigning
	KindTokenExchange
	KindPublish
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindCredentialNotFound:
		return "credential_not_found"
	case KindValidation:
		return "validation"
	case KindSigning:
		return "signing"
	case KindTokenExchange:
		return "token_exchange"
	case KindPublish:
		return "publish"
	default:
		return "unknown"
	}
}

// CredentialAttributable reports whether a failure of this kind says
// something about the stored key material.
func (k Kind) CredentialAttributable() bool {
	return k == KindSigning || k == KindTokenExchange
}

// Error is the typed failure of one stage.
// Message is safe to show to callers, Detail carries upstream diagnostics and
// Err the underlying cause, which is only ever logged.
type Error struct {
	Kind    Kind
	Message string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so callers can compare against the sentinel values below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrAuth               = &Error{Kind: KindAuth}
	ErrCredentialNotFound = &Error{Kind: KindCredentialNotFound}
	ErrValidation         = &Error{Kind: KindValidation}
	ErrSigning            = &Error{Kind: KindSigning}
	ErrTokenExchange      = &Error{Kind: KindTokenExchange}
	ErrPublish            = &Error{Kind: KindPublish}
	ErrUnknown            = &Error{Kind: KindUnknown}
)

// User-visible messages.
const (
	MsgNoAuthorizationHeader = "No authorization header"
	MsgInvalidToken          = "Invalid token"
	MsgCredentialsNotFound   = "Google credentials not found"
	MsgTokenExchangeFailed   = "Failed to get Google access token"
	MsgInternal              = "Internal error"
)

func NewAuthError(message string, cause error) *Error {
	return &Error{Kind: KindAuth, Message: message, Err: cause}
}

func NewCredentialNotFound(cause error) *Error {
	return &Error{Kind: KindCredentialNotFound, Message: MsgCredentialsNotFound, Err: cause}
}

func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NewSigningError never includes the cause text in Message; parse errors from
// crypto packages can quote input bytes.
func NewSigningError(message string, cause error) *Error {
	return &Error{Kind: KindSigning, Message: message, Detail: message, Err: cause}
}

func NewTokenExchangeError(detail string, cause error) *Error {
	return &Error{Kind: KindTokenExchange, Message: MsgTokenExchangeFailed, Detail: detail, Err: cause}
}

func NewPublishError(message, detail string, cause error) *Error {
	return &Error{Kind: KindPublish, Message: message, Detail: detail, Err: cause}
}

func NewUnknownError(cause error) *Error {
	return &Error{Kind: KindUnknown, Message: MsgInternal, Err: cause}
}

// AsError returns err as *Error, wrapping anything else as KindUnknown.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return NewUnknownError(err)
}

// KindOf returns the Kind of err, KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
