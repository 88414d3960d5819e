package queue

import "errors"

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrTaskExists    = errors.New("task already exists")
	ErrNotClaimed    = errors.New("task is not claimed")
	ErrInvalidPolicy = errors.New("invalid selection policy")
	ErrPollTimeout   = errors.New("polling interval elapsed")
	ErrQueueClosed   = errors.New("queue is closed")
)
