package database

import "errors"

var (
	ErrChatNotFound    = errors.New("chat not found")
	ErrPendingNotFound = errors.New("pending input not found")
)
