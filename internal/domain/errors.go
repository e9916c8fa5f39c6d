package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidPrice   = errors.New("invalid price")
	ErrUnknownProduct = errors.New("unknown product")
	ErrAlreadyExists  = errors.New("already exists")
)
