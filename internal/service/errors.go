package service

import "errors"

// Error taxonomy surfaced to callers. The API layer maps these to HTTP
// status codes and the reconciler interprets them into user-visible
// behavior; nothing in between retries.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
	ErrInFlight     = errors.New("purchase already in progress")
)
