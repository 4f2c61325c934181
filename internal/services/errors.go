package services

import (
	"errors"
	"net/http"
)

// Kind classifies a workflow error for the HTTP boundary.
type Kind string

const (
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindNotFound   Kind = "not_found"
	KindAuth       Kind = "auth"
	KindDependency Kind = "dependency"
)

// Error is a workflow error carrying a stable machine-readable reason.
type Error struct {
	Kind    Kind
	Reason  string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches errors with the same reason, so wrapped copies still satisfy
// errors.Is against the package sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Reason == e.Reason
}

// Wrap returns a copy of e carrying the underlying cause.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// WithMessage returns a copy of e with a caller-facing message.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

func newError(kind Kind, status int, reason, message string) *Error {
	return &Error{Kind: kind, Status: status, Reason: reason, Message: message}
}

var (
	ErrInvalidInput       = newError(KindValidation, http.StatusBadRequest, "invalid_input", "invalid request")
	ErrWeakPassword       = newError(KindValidation, http.StatusBadRequest, "weak_password", "password must be at least 6 characters")
	ErrPasswordMismatch   = newError(KindValidation, http.StatusUnauthorized, "password_mismatch", "passwords do not match")
	ErrEmptyCheckout      = newError(KindValidation, http.StatusBadRequest, "empty_checkout", "no order lines submitted")
	ErrRateLimited        = newError(KindValidation, http.StatusTooManyRequests, "rate_limited", "too many code requests, try again later")
	ErrDuplicateAccount   = newError(KindConflict, http.StatusBadRequest, "duplicate_account", "an account with this email already exists")
	ErrAlreadySubscribed  = newError(KindConflict, http.StatusConflict, "already_subscribed", "email is already subscribed")
	ErrUserNotFound       = newError(KindNotFound, http.StatusNotFound, "user_not_found", "user not found")
	ErrEmailNotFound      = newError(KindNotFound, http.StatusBadRequest, "email_not_found", "email not found")
	ErrProductNotFound    = newError(KindNotFound, http.StatusNotFound, "product_not_found", "product not found")
	ErrOrderNotFound      = newError(KindNotFound, http.StatusNotFound, "order_not_found", "order not found")
	ErrInvalidCredentials = newError(KindAuth, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	ErrInvalidToken       = newError(KindAuth, http.StatusUnauthorized, "invalid_token", "invalid or expired token")
	ErrInvalidOTP         = newError(KindAuth, http.StatusUnauthorized, "invalid_otp", "invalid or expired code")
	ErrOTPNotVerified     = newError(KindAuth, http.StatusUnauthorized, "otp_not_verified", "verify the emailed code first")
	ErrStore              = newError(KindDependency, http.StatusInternalServerError, "store_error", "internal server error")
	ErrDelivery           = newError(KindDependency, http.StatusInternalServerError, "delivery_error", "could not deliver the code")
	ErrPayment            = newError(KindDependency, http.StatusBadGateway, "payment_error", "payment provider error")
	ErrPaymentUnavailable = newError(KindDependency, http.StatusServiceUnavailable, "payment_unavailable", "payments are not configured")
)

// AsError extracts a workflow error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
