package fetcher

import (
	"errors"
	"fmt"
)

// Kind classifies why a fetch failed.
type Kind string

const (
	KindTransport  Kind = "transport"
	KindTimeout    Kind = "timeout"
	KindHTTPStatus Kind = "http_status"
	KindDataShape  Kind = "data_shape"
)

// ErrEmptyPayload marks a JSON body that parsed but carries no data.
var ErrEmptyPayload = errors.New("empty or degenerate JSON payload")

// Error is the terminal failure of a fetch, tagged with the kind of the last attempt.
type Error struct {
	Kind       Kind
	StatusCode int
	Attempts   int
	Err        error
}

func (e *Error) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("%s after %d attempt(s): %v", e.Kind, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a fetch failure of the given kind.
func IsKind(err error, kind Kind) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == kind
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	return 0
}
