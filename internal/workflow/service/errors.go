package service

import (
	"errors"
	"fmt"
)

// Error taxonomy. Validation and permission errors are raised before any
// mutation; transient store errors pass through untouched so callers can
// re-query and retry explicitly. Notification failures never surface here at
// all — they are logged out of band.
var (
	// ErrPermissionDenied covers every (status, action, role) tuple without a
	// matching transition rule, including the creator-identity mismatch.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrProjectNotFound is returned when the referenced project does not
	// exist or is not visible to the caller.
	ErrProjectNotFound = errors.New("project not found")
)

// ValidationError reports a malformed or missing field. It blocks the
// operation before any write happens.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func validationErr(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// IsValidation reports whether err is a ValidationError anywhere in its chain.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func permissionErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrPermissionDenied, fmt.Sprintf(format, args...))
}
