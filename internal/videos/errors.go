package videos

import "errors"

var (
	// ErrNotFound indicates the requested video does not exist. A deleted
	// video reports the same error for every mutation.
	ErrNotFound = errors.New("video not found")
	// ErrValidation indicates the request payload is missing or malformed.
	ErrValidation = errors.New("invalid video request")
	// ErrForbidden indicates the caller does not own the video being mutated.
	ErrForbidden = errors.New("caller does not own video")
)
