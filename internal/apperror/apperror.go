// Package apperror defines the closed set of user-facing error kinds
// surfaced by resolvers as stable GraphQL error codes, per the error
// handling design: resolvers translate a Kind to a code string,
// background jobs distinguish transient from permanent failures.
package apperror

import "errors"

// Kind is one of the fixed error discriminants resolvers and job
// handlers branch on.
type Kind string

const (
	KindNotFound                 Kind = "NOT_FOUND"
	KindUnauthenticated           Kind = "UNAUTHENTICATED"
	KindUnauthorized              Kind = "UNAUTHORIZED"
	KindAdminOnly                 Kind = "ADMIN_ONLY"
	KindMutationNotAllowed        Kind = "MUTATION_NOT_ALLOWED"
	KindInvalidInput              Kind = "INVALID_INPUT"
	KindNoInProgress              Kind = "NO_IN_PROGRESS"
	KindInProgressAlreadyExists   Kind = "IN_PROGRESS_ALREADY_EXISTS"
	KindInvalidProgressAddressing Kind = "INVALID_PROGRESS_ADDRESSING"
	KindProviderUnavailable       Kind = "PROVIDER_UNAVAILABLE"
	KindProviderNotFound          Kind = "PROVIDER_NOT_FOUND"
	KindImportPartial             Kind = "IMPORT_PARTIAL"
	KindTwoFactorRequired         Kind = "TWO_FACTOR_REQUIRED"
	KindTwoFactorInvalid          Kind = "TWO_FACTOR_INVALID"
	KindSessionExpired            Kind = "SESSION_EXPIRED"
	KindIntegrationDisabled       Kind = "INTEGRATION_DISABLED"
	KindIntegrationFailed         Kind = "INTEGRATION_FAILED"
	KindFeatureRequiresProFeature Kind = "FEATURE_REQUIRES_PRO_FEATURE"
)

// Error is a Kind-tagged error carrying an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a Kind-tagged error with a message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap tags an existing error with a Kind, preserving it as the cause.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// As extracts the Kind of err, if any, and whether it matched.
func As(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	k, ok := As(err)
	return ok && k == kind
}

// IsTransient reports whether a job handler should retry err, as opposed
// to recording it as a permanent per-item failure.
func IsTransient(err error) bool {
	return Is(err, KindProviderUnavailable)
}
