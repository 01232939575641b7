package models

import "errors"

var (
	// ErrInvalidBoundary marks a malformed or empty frame range.
	ErrInvalidBoundary = errors.New("invalid chunk boundary")

	// ErrNoSegmentsFound means the segment directory held no segment files.
	ErrNoSegmentsFound = errors.New("no segment files found")

	// ErrCorruptQueueState means the persisted chunk queue is missing or unreadable.
	ErrCorruptQueueState = errors.New("corrupt chunk queue state")

	// ErrPipelineProcessFailure means a score pipeline stage exited unsuccessfully.
	ErrPipelineProcessFailure = errors.New("pipeline process failed")

	// ErrPathEncoding means a path cannot be embedded safely in a generated command.
	ErrPathEncoding = errors.New("path cannot be encoded into command")
)
