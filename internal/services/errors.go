package services

import "errors"

var (
	// ErrUnknownPage is returned for a page name outside Pages().
	ErrUnknownPage = errors.New("unknown page")
	// ErrInvalidInput wraps malformed page or dataset parameters.
	ErrInvalidInput = errors.New("invalid input")
)
