package domain

import "errors"

// Domain errors
var (
	ErrPlaylistNotFound = errors.New("playlist not found")
	ErrPageNotFound     = errors.New("page not found")
	ErrMissingDevice    = errors.New("device id required")
	ErrInvalidRecord    = errors.New("invalid catalog record")
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrInternalError    = errors.New("internal server error")
)

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrPlaylistNotFound) || errors.Is(err, ErrPageNotFound)
}
