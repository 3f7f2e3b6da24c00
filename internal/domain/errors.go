package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrClosed indicates the component was shut down
	ErrClosed = errors.New("component closed")

	// ErrIndexOutOfRange indicates a queue position outside the queue
	ErrIndexOutOfRange = errors.New("queue index out of range")

	// ErrEmptyQueue indicates an operation that requires tracks got none
	ErrEmptyQueue = errors.New("queue is empty")

	// ErrGestureFinished indicates a drag gesture was already committed or cancelled
	ErrGestureFinished = errors.New("gesture already finished")

	// ErrInvalidDuration indicates a sleep timer scheduled for zero or negative minutes
	ErrInvalidDuration = errors.New("sleep duration must be positive")

	// ErrLyricsNotFound indicates no lyrics exist for the track
	ErrLyricsNotFound = errors.New("lyrics not found")

	// ErrLyricsUnavailable indicates a transient lyrics fetch failure
	ErrLyricsUnavailable = errors.New("lyrics temporarily unavailable")
)
