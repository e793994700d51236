package errors

import "errors"

var (
	ErrAccountNotFound   = errors.New("account snapshot not found")
	ErrInvalidEvent      = errors.New("invalid event payload")
	ErrInvalidWeight     = errors.New("weight must be within [0, 1]")
	ErrUnknownService    = errors.New("unknown service")
	ErrInvalidLimit      = errors.New("invalid list limit")
	ErrRouterRejected    = errors.New("router rejected weight update")
	ErrRouterUnavailable = errors.New("router unavailable")
)
