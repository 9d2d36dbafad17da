// Package apperr holds the service error taxonomy. Services wrap these
// sentinels with fmt.Errorf("%w: ...") and the HTTP layer maps them onto
// stable error codes, so internal detail stays in the logs.
package apperr

import "errors"

var (
	ErrValidation            = errors.New("validation")             // 400
	ErrMissingCredential     = errors.New("missing credential")     // 401
	ErrInvalidCredentials    = errors.New("invalid credentials")    // 401
	ErrInvalidToken          = errors.New("invalid token")          // 403
	ErrInsufficientRole      = errors.New("insufficient role")      // 403
	ErrNotFound              = errors.New("not found")              // 404
	ErrConflict              = errors.New("conflict")               // 409
	ErrInsufficientInventory = errors.New("insufficient inventory") // 400
	ErrMissingContactInfo    = errors.New("missing contact info")   // 400
	ErrDependency            = errors.New("dependency failure")     // 502
)

// Code returns the stable client-facing error code for err, plus the HTTP
// status it travels with. Unrecognized errors collapse into internal_error.
func Code(err error) (string, int) {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error", 400
	case errors.Is(err, ErrMissingCredential):
		return "missing_credential", 401
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials", 401
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token", 403
	case errors.Is(err, ErrInsufficientRole):
		return "insufficient_permission", 403
	case errors.Is(err, ErrNotFound):
		return "not_found", 404
	case errors.Is(err, ErrConflict):
		return "conflict", 409
	case errors.Is(err, ErrInsufficientInventory):
		return "insufficient_inventory", 400
	case errors.Is(err, ErrMissingContactInfo):
		return "missing_contact_info", 400
	case errors.Is(err, ErrDependency):
		return "dependency_failure", 502
	default:
		return "internal_error", 500
	}
}
