package shutdownmeta

import (
	"errors"
	"fmt"
)

// ValidationError reports a record builder invariant violation. It is raised
// at construction time only; no Record can exist in a state that would fail
// validation.
type ValidationError struct {
	Field  string
	Detail string
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("shutdownmeta: invalid record: %s: %s", e.Field, e.Detail)
	}
	return fmt.Sprintf("shutdownmeta: invalid record: %s", e.Detail)
}

// IsValidation reports whether err is a record validation error.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// ErrMalformed indicates wire or document input that cannot be decoded.
// Decode failures abort the whole decode; they never yield a partial value.
var ErrMalformed = errors.New("shutdownmeta: malformed input")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}
