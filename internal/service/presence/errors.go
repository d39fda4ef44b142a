package presence

import "errors"

var (
	ErrEventNotFound = errors.New("event not found")
	ErrOutsideWindow = errors.New("event is not in its check-in window")
	ErrRateLimited   = errors.New("rate limited")
)
