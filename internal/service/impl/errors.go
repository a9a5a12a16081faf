package impl

import "errors"

var (
	ErrEmptyCredential = errors.New("empty credential(s)")
	ErrPasswordLength  = errors.New("password too short")
	ErrEmptyPassword   = errors.New("empty password")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrEmptyContent    = errors.New("message content is required")
)
