package session

import "errors"

var (
	ErrNotFound        = errors.New("colony not found")
	ErrTooManySessions = errors.New("too many active colonies")
)
