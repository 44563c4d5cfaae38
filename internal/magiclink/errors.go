package magiclink

import "errors"

var (
	// ErrEmptyBucket means nothing is stored under the prefix.
	ErrEmptyBucket = errors.New("no emails found")
	// ErrNoMatch means no candidate had both the recipient and a link.
	ErrNoMatch = errors.New("no magic link found")
	// ErrInvalidInput covers a missing bucket or email address.
	ErrInvalidInput = errors.New("invalid input")
)

// RetrievalError wraps any failure other than ErrEmptyBucket and ErrNoMatch
// that ended the search.
type RetrievalError struct {
	Key string // object being processed, empty for listing failures
	Err error
}

func (e *RetrievalError) Error() string {
	return "failed to retrieve magic link: " + e.Err.Error()
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}
