// Package apperror defines the error kinds handlers translate into
// HTTP statuses and localized messages.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindInvalid
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindUnavailable
	KindTooManyRequests
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	case KindTooManyRequests:
		return "too_many_requests"
	default:
		return "internal"
	}
}

// HTTPStatus maps the kind onto a response status.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalid:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a stable Code that doubles as the i18n message id.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Data    map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so sentinel errors work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithData returns a copy carrying template data for localization.
func (e *Error) WithData(data map[string]interface{}) *Error {
	cp := *e
	cp.Data = data
	return &cp
}

// Wrap returns a copy with the underlying cause attached.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// KindOf reports the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As extracts the application error, if any.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

var (
	ErrInternal        = New(KindInternal, "internal_error", "something went wrong")
	ErrInvalidInput    = New(KindInvalid, "invalid_input", "the request is invalid")
	ErrUnauthenticated = New(KindUnauthenticated, "unauthenticated", "authentication required")
	ErrForbidden       = New(KindForbidden, "forbidden", "you are not allowed to do this")
	ErrOwnerOnly       = New(KindForbidden, "owner_only", "only the business owner can do this")
	ErrNoBusiness      = New(KindForbidden, "no_business", "you are not a member of any business")
	ErrRateLimited     = New(KindTooManyRequests, "rate_limited", "too many requests, slow down")
	ErrUnavailable     = New(KindUnavailable, "unavailable", "a backing service is unavailable")

	ErrBusinessNotFound     = New(KindNotFound, "business_not_found", "business not found")
	ErrAlreadyInBusiness    = New(KindConflict, "already_in_business", "you already belong to a business")
	ErrProfileNotFound      = New(KindNotFound, "profile_not_found", "profile not found")
	ErrVendorNotFound       = New(KindNotFound, "vendor_not_found", "vendor not found")
	ErrProductNotFound      = New(KindNotFound, "product_not_found", "product not found")
	ErrTransactionNotFound  = New(KindNotFound, "transaction_not_found", "transaction not found")
	ErrInsufficientStock    = New(KindConflict, "insufficient_stock", "not enough stock")
	ErrDuplicateSubmission  = New(KindConflict, "duplicate_submission", "this sale was already submitted")
	ErrEmptyTransaction     = New(KindInvalid, "empty_transaction", "a sale needs at least one item")
	ErrInviteNotFound       = New(KindNotFound, "invite_not_found", "invite not found")
	ErrInviteNotPending     = New(KindConflict, "invite_not_pending", "the invite is no longer pending")
	ErrInviteExpired        = New(KindConflict, "invite_expired", "the invite has expired")
	ErrInviteSelf           = New(KindInvalid, "invite_self", "you cannot invite yourself")
	ErrInviteDuplicate      = New(KindConflict, "invite_duplicate", "an invite for this email is already pending")
	ErrAlreadyMember        = New(KindConflict, "already_member", "this user already belongs to the business")
	ErrVendorLimit          = New(KindConflict, "vendor_limit", "a business can have at most {{.Max}} vendors")
	ErrInvalidRange         = New(KindInvalid, "invalid_range", "unknown dashboard range")
	ErrImageUpload          = New(KindUnavailable, "image_upload_failed", "the image could not be uploaded")
)
