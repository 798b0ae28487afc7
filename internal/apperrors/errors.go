// internal/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed set of failure categories surfaced by the service layer.
// Handlers map kinds to HTTP statuses; callers must branch on the kind, not
// on message text.
type Kind string

const (
	KindCredentialNotFound Kind = "credential_not_found"
	KindDecryption         Kind = "decryption_error"
	KindProvider           Kind = "provider_error"
	KindQuotaExceeded      Kind = "quota_exceeded"
	KindArchive            Kind = "archive_error"
	KindValidation         Kind = "validation_error"
	KindNotFound           Kind = "not_found"
	KindUnauthorized       Kind = "unauthorized"
	KindInternal           Kind = "internal_error"
)

type Error struct {
	Kind     Kind
	Provider string // set for provider-scoped failures
	Message  string
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func CredentialNotFound(provider string) *Error {
	return &Error{
		Kind:     KindCredentialNotFound,
		Provider: provider,
		Message:  fmt.Sprintf("no active %s credential found", provider),
	}
}

func Decryption(err error) *Error {
	return &Error{Kind: KindDecryption, Message: "failed to decrypt stored credential", Err: err}
}

func Provider(provider string, err error) *Error {
	return &Error{
		Kind:     KindProvider,
		Provider: provider,
		Message:  fmt.Sprintf("%s provisioning failed", provider),
		Err:      err,
	}
}

func QuotaExceeded(message string) *Error {
	return &Error{Kind: KindQuotaExceeded, Message: message}
}

func Archive(err error) *Error {
	return &Error{Kind: KindArchive, Message: "failed to write archive", Err: err}
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf extracts the kind from an error chain, defaulting to internal_error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error kind to the response status used at the boundary.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindQuotaExceeded:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindCredentialNotFound:
		return http.StatusPreconditionFailed
	case KindProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
