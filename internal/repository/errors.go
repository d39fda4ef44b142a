package repository

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrDuplicate     = errors.New("already exists")
	ErrOutsideWindow = errors.New("outside check-in window")
)
