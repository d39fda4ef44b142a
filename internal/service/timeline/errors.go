package timeline

import "errors"

var (
	ErrEntryNotFound = errors.New("timeline entry not found")
	ErrBadKind       = errors.New("unsupported entry kind")
)
