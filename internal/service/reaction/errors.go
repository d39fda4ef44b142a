package reaction

import "errors"

var (
	ErrEntryNotFound  = errors.New("timeline entry not found")
	ErrUnknownSymbol  = errors.New("reaction symbol not in the allowed set")
	ErrToggleConflict = errors.New("reaction toggle conflicted, try again")
	ErrRateLimited    = errors.New("rate limited")
)
