package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidOrder = errors.New("invalid order parameters")
	ErrUnknownOrder = errors.New("unknown order id")
	ErrClosed       = errors.New("already closed")
	ErrQueueFull    = errors.New("work queue full")
	ErrWSDisconnect = errors.New("websocket disconnected")
)
