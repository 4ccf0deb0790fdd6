package core

import "errors"

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrNotJoined        = errors.New("join a room first")
	ErrMalformedMessage = errors.New("invalid json")
	ErrUnknownMessage   = errors.New("unknown message")
	ErrDeliveryFailure  = errors.New("delivery failure")
	ErrBackpressure     = errors.New("backpressure")
	ErrConnectionClosed = errors.New("connection closed")
	ErrNotFound         = errors.New("not found")
	ErrRateLimited      = errors.New("rate limited")
)
