package staart

import (
	"fmt"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidToken           = "INVALID_TOKEN"
	TextCodeExpiredToken           = "EXPIRED_TOKEN"
	TextCodeWrongTokenPurpose      = "WRONG_TOKEN_PURPOSE"
	TextCodeInsufficientPermission = "INSUFFICIENT_PERMISSION"
	TextCodeResourceNotFound       = "RESOURCE_NOT_FOUND"
	TextCodeUserNotFound           = "USER_NOT_FOUND"
	TextCodeEmailCannotDelete      = "EMAIL_CANNOT_DELETE"
	TextCodeEmailExists            = "EMAIL_EXISTS"
	TextCodeInvalidLogin           = "INVALID_LOGIN"
	TextCodeMissingPassword        = "MISSING_PASSWORD"
	TextCodeEmptyPassword          = "EMPTY_PASSWORD"
	TextCodeNoBillingCustomer      = "NO_BILLING_CUSTOMER"
	TextCodeUnapprovedLocation     = "UNAPPROVED_LOCATION"
	TextCodeSocialNotConfigured    = "SOCIAL_LOGIN_NOT_CONFIGURED"
	TextCodeValidationFailed       = "VALIDATION_FAILED"
)

// ErrInvalidToken is returned for malformed or signature mismatched tokens.
var ErrInvalidToken = errors.New("token is malformed or has an invalid signature", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeUnauthorized)

// ErrExpiredToken is returned for well formed tokens past their expiry.
var ErrExpiredToken = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeExpiredToken).
	WithCode(errors.CodeUnauthorized)

// ErrWrongTokenPurpose is returned when a valid token is presented to a
// flow it was not issued for. Kept distinct from ErrInvalidToken so
// callers can tell a misused token apart from a corrupted one.
var ErrWrongTokenPurpose = errors.New("token was issued for a different purpose", errors.CategoryAuth).
	WithTextCode(TextCodeWrongTokenPurpose).
	WithCode(errors.CodeUnauthorized)

// ErrInsufficientPermission is the boundary translation of a false
// capability decision.
var ErrInsufficientPermission = errors.New("insufficient permission", errors.CategoryAuthz).
	WithTextCode(TextCodeInsufficientPermission).
	WithCode(errors.CodeForbidden)

// ErrResourceNotFound is returned when the underlying entity is absent.
var ErrResourceNotFound = errors.New("resource not found", errors.CategoryNotFound).
	WithTextCode(TextCodeResourceNotFound).
	WithCode(errors.CodeNotFound)

// ErrUserNotFound is returned when no user matches the given identifier.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrEmailCannotDelete guards the last verified email of a user.
var ErrEmailCannotDelete = errors.New("cannot delete the only verified email", errors.CategoryValidation).
	WithTextCode(TextCodeEmailCannotDelete).
	WithCode(errors.CodeBadRequest)

// ErrEmailExists is returned when registering an email address that is
// already taken.
var ErrEmailExists = errors.New("email already exists", errors.CategoryConflict).
	WithTextCode(TextCodeEmailExists).
	WithCode(errors.CodeConflict)

// ErrInvalidLogin is returned for a wrong email/password combination.
var ErrInvalidLogin = errors.New("invalid email or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidLogin).
	WithCode(errors.CodeUnauthorized)

// ErrMissingPassword is returned when the account has no local password
// (e.g. social-only accounts).
var ErrMissingPassword = errors.New("account has no password set", errors.CategoryAuth).
	WithTextCode(TextCodeMissingPassword).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the credential comparison failure.
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidLogin).
	WithCode(errors.CodeUnauthorized)

// ErrUnapprovedLocation is returned when correct credentials arrive from
// a subnet the user has never logged in from. The caller should prompt
// for the approve-location token that was mailed out.
var ErrUnapprovedLocation = errors.New("login attempted from an unapproved location", errors.CategoryAuth).
	WithTextCode(TextCodeUnapprovedLocation).
	WithCode(errors.CodeUnauthorized)

// ErrSocialNotConfigured is returned from the social login flows when
// no provider has been wired in.
var ErrSocialNotConfigured = errors.New("no social login provider configured", errors.CategoryOperation).
	WithTextCode(TextCodeSocialNotConfigured).
	WithCode(errors.CodeNotFound)

// ErrNoBillingCustomer is returned when billing data is requested for an
// organization that has no billing customer yet.
var ErrNoBillingCustomer = errors.New("organization has no billing customer", errors.CategoryNotFound).
	WithTextCode(TextCodeNoBillingCustomer).
	WithCode(errors.CodeNotFound)

// HTTPError is the "<httpStatus>/<ERROR_CODE>" shape the external error
// translation layer converts into a response.
type HTTPError struct {
	Status int    `json:"status"`
	Code   string `json:"code"`
}

func (e HTTPError) Error() string {
	return fmt.Sprintf("%d/%s", e.Status, e.Code)
}

// SendableError flattens any error into the boundary contract. Rich
// errors keep their HTTP code and text code; everything else becomes a
// 500 with a generic code.
func SendableError(err error) HTTPError {
	if err == nil {
		return HTTPError{Status: 200, Code: "OK"}
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		status := int(richErr.Code)
		if status == 0 {
			status = statusForCategory(richErr.Category)
		}
		code := richErr.TextCode
		if code == "" {
			code = "INTERNAL_SERVER_ERROR"
		}
		return HTTPError{Status: status, Code: code}
	}

	return HTTPError{Status: 500, Code: "INTERNAL_SERVER_ERROR"}
}

func statusForCategory(category errors.Category) int {
	switch category {
	case errors.CategoryAuth:
		return 401
	case errors.CategoryAuthz:
		return 403
	case errors.CategoryNotFound:
		return 404
	case errors.CategoryConflict:
		return 409
	case errors.CategoryBadInput, errors.CategoryValidation:
		return 400
	case errors.CategoryRateLimit:
		return 429
	default:
		return 500
	}
}
